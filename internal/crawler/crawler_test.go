package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontoforge/internal/extractor"
	"ontoforge/internal/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCrawler_ScanInputs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b", "schema.nt"),
		"<http://ex.org/B> <http://www.w3.org/2000/01/rdf-schema#subClassOf> <http://ex.org/A> .\n")
	writeFile(t, filepath.Join(root, "a", "deep", "concepts.jsonl"),
		`{"subject":"ex:C","predicate":"ex:p","object":"ex:D"}`+"\n"+`{"subject":"ex:C","predicate":"ex:q","object":"x","isLiteral":true}`+"\n")
	writeFile(t, filepath.Join(root, "a", "broken.nt"), "this is not n-triples\n")
	writeFile(t, filepath.Join(root, "a", "notes.md"), "# notes\n")

	c := NewCrawler(extractor.NewExtractor(), logging.Discard())

	t.Run("Resolve sorts, dedupes and filters", func(t *testing.T) {
		files, err := c.Resolve([]string{
			filepath.Join(root, "**", "*"),
			filepath.Join(root, "b", "*.nt"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(root, "a", "broken.nt"),
			filepath.Join(root, "a", "deep", "concepts.jsonl"),
			filepath.Join(root, "b", "schema.nt"),
		}, files)
	})

	t.Run("Broken files do not stop the scan", func(t *testing.T) {
		var got []extractor.Record
		stats, err := c.ScanInputs([]string{filepath.Join(root, "**", "*")}, func(_ string, rec extractor.Record) {
			got = append(got, rec)
		})
		require.NoError(t, err)
		assert.Len(t, stats.Files, 3)
		assert.Equal(t, []string{filepath.Join(root, "a", "broken.nt")}, stats.Failed)
		assert.Equal(t, 3, stats.Records)
		assert.Len(t, got, 3)
	})

	t.Run("Nothing matched", func(t *testing.T) {
		_, err := c.ScanInputs([]string{filepath.Join(root, "*.ttl")}, func(string, extractor.Record) {})
		assert.ErrorIs(t, err, ErrNoInputs)
	})
}
