package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePagesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pages.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestReadPages(t *testing.T) {
	path := writePagesFile(t, `{"text": "stability data", "source_document": "a.pdf", "category": "regulatory", "page": 4}

{"text": "adverse events", "source_document": "b.pdf", "category": "pharmacovigilance", "page": null}
`)

	pages, err := readPages(path)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, "stability data", pages[0].Text)
	assert.Equal(t, "a.pdf", pages[0].SourceDocument)
	require.NotNil(t, pages[0].Page)
	assert.Equal(t, 4, *pages[0].Page)

	assert.Nil(t, pages[1].Page)
}

func TestReadPages_PageCoercion(t *testing.T) {
	path := writePagesFile(t, `{"text": "a", "source_document": "a.pdf", "category": "regulatory", "page": "12"}
{"text": "b", "source_document": "a.pdf", "category": "regulatory", "page": "xii"}
{"text": "c", "source_document": "a.pdf", "category": "regulatory"}
`)

	pages, err := readPages(path)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	// A numeric string is accepted, anything malformed becomes nil.
	require.NotNil(t, pages[0].Page)
	assert.Equal(t, 12, *pages[0].Page)
	assert.Nil(t, pages[1].Page)
	assert.Nil(t, pages[2].Page)
}

func TestReadPages_MalformedLine(t *testing.T) {
	path := writePagesFile(t, `{"text": "ok", "source_document": "a.pdf", "category": "regulatory"}
{not json
`)

	_, err := readPages(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadPages_MissingFile(t *testing.T) {
	_, err := readPages(filepath.Join(t.TempDir(), "absent.jsonl"))
	assert.Error(t, err)
}
