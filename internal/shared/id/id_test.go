package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSessionID(t *testing.T) {
	sid := NewSessionID()
	assert.True(t, strings.HasPrefix(sid.String(), "sess_"))
	assert.True(t, IsValid(sid.String(), "sess"))
}

func TestSessionIDsUnique(t *testing.T) {
	seen := make(map[SessionID]bool)
	for i := 0; i < 1000; i++ {
		sid := NewSessionID()
		assert.False(t, seen[sid], "duplicate session id %s", sid)
		seen[sid] = true
	}
}

func TestIsValid(t *testing.T) {
	assert.False(t, IsValid("sess_", "sess"))
	assert.False(t, IsValid("sess_notaulid", "sess"))
	assert.False(t, IsValid("req_01ARZ3NDEKTSV4RRFFQ69G5FAV", "sess"))
	assert.True(t, IsValid("sess_01ARZ3NDEKTSV4RRFFQ69G5FAV", "sess"))
}
