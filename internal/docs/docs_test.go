package docs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.md")
	require.NoError(t, os.WriteFile(path, []byte("# API\n\nGET /users"), 0o644))

	doc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Contains(t, doc, "GET /users")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.md"))
	assert.Error(t, err)
}

func TestLoadFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.md")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>API Docs</title></head><body>
<article><h1>Users API</h1>
<p>The GET /users endpoint returns every registered user in the system,
paginated with the standard limit and offset query parameters. Clients
should expect a JSON array of user objects.</p></article>
</body></html>`))
	}))
	defer srv.Close()

	doc, err := LoadURL(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, doc, "GET /users")
}

func TestLoadURL_BadScheme(t *testing.T) {
	_, err := LoadURL(context.Background(), "ftp://example.com/doc")
	assert.Error(t, err)
}

func TestLoadURL_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := LoadURL(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestExtractFlows(t *testing.T) {
	doc := `# Checkout flow

| Step | Actor | Description | Note | Related tables |
|------|-------|-------------|------|----------------|
| 1 | Customer | Adds item to cart | | carts, items |
| 2 | Customer | Pays | uses gateway | orders |

Some trailing prose.`

	flows := ExtractFlows(doc)
	require.Len(t, flows, 2)
	assert.Equal(t, "1", flows[0].Step)
	assert.Equal(t, "Customer", flows[0].Actor)
	assert.Equal(t, "Adds item to cart", flows[0].Description)
	assert.Equal(t, "carts, items", flows[0].RelatedTables)
	assert.Equal(t, "uses gateway", flows[1].Note)
}

func TestExtractFlows_NoTables(t *testing.T) {
	assert.Empty(t, ExtractFlows("plain documentation, no tables"))
}

func TestExtractFlows_ShortRows(t *testing.T) {
	flows := ExtractFlows("| Step |\n|---|\n| 1 |")
	require.Len(t, flows, 1)
	assert.Equal(t, "1", flows[0].Step)
	assert.Empty(t, flows[0].Actor)
}
