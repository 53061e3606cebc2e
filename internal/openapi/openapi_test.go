package openapi

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRewritesServerURL(t *testing.T) {
	out, err := Document("http://10.0.0.7:8080")
	require.NoError(t, err)

	var doc struct {
		OpenAPI string `json:"openapi"`
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, sonic.Unmarshal(out, &doc))

	assert.Equal(t, "3.0.3", doc.OpenAPI)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "http://10.0.0.7:8080", doc.Servers[0].URL)

	for _, path := range []string{"/health", "/search", "/browse", "/screenshot"} {
		assert.Contains(t, doc.Paths, path)
	}
}
