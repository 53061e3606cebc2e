// Package openapi serves the embedded API document with the server URL
// rewritten to wherever the service is actually listening.
package openapi

import (
	_ "embed"
	"fmt"

	"github.com/bytedance/sonic"
)

//go:embed openapi.json
var document []byte

// Document returns the API document with servers[0].url set to baseURL.
func Document(baseURL string) ([]byte, error) {
	var doc map[string]any
	if err := sonic.Unmarshal(document, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode embedded document: %w", err)
	}

	doc["servers"] = []any{map[string]any{"url": baseURL}}

	out, err := sonic.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return out, nil
}
