package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoader_LoadCode(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main")
	writeFile(t, root, "pkg/util.py", "def f(): pass")
	writeFile(t, root, "logo.png", "binary")
	writeFile(t, root, "node_modules/dep/index.js", "ignored")

	results, err := NewLoader().LoadCode(context.Background(), root)
	require.NoError(t, err)

	loaded := LoadedDocuments(results)
	sources := make([]string, 0, len(loaded))
	for _, d := range loaded {
		sources = append(sources, d.Source)
	}

	assert.ElementsMatch(t, []string{"main.go", "pkg/util.py"}, sources)
	for _, d := range loaded {
		assert.Equal(t, "code", d.Category)
	}

	// The non-whitelisted file is reported as a skip, not silently dropped.
	var skipped []string
	for _, r := range results {
		if r.Skipped {
			skipped = append(skipped, r.Source)
		}
	}
	assert.Equal(t, []string{"logo.png"}, skipped)
}

func TestLoader_LoadCode_RelativeSlashPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, filepath.Join("a", "b", "c.md"), "# notes")

	results, err := NewLoader().LoadCode(context.Background(), root)
	require.NoError(t, err)

	docs := LoadedDocuments(results)
	require.Len(t, docs, 1)
	assert.Equal(t, "a/b/c.md", docs[0].Source)
	assert.Equal(t, ".md", docs[0].FileType)
}

func TestLoader_LoadPDFs_EmptyDir(t *testing.T) {
	results, err := NewLoader().LoadPDFs(context.Background(), t.TempDir())
	assert.NoError(t, err)
	assert.Empty(t, results)
}
