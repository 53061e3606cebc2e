// Package id provides ID generation for browser sessions and requests.
//
// Session ids are ULIDs: a millisecond timestamp plus random entropy, which
// makes them process-unique with overwhelming probability and sortable by
// creation time in logs. They are not cryptographic tokens.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies one browser-tool session.
type SessionID string

func (id SessionID) String() string { return string(id) }

// RequestID identifies one inbound API request.
type RequestID string

func (id RequestID) String() string { return string(id) }

const (
	sessionPrefix = "sess"
	requestPrefix = "req"
)

// Generator produces prefixed ULID strings.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator backed by crypto/rand entropy.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator with the given entropy source. Tests pass
// a deterministic reader.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSessionID generates a session id.
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(sessionPrefix))
}

// NewRequestID generates a request id.
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(requestPrefix))
}

// IsValid checks whether s is a prefixed ULID of the given prefix.
func IsValid(s, prefix string) bool {
	marker := prefix + "_"
	if len(s) <= len(marker) || s[:len(marker)] != marker {
		return false
	}
	_, err := ulid.Parse(s[len(marker):])
	return err == nil
}
