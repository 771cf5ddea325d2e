package extractor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	rdfType    = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	subClassOf = "http://www.w3.org/2000/01/rdf-schema#subClassOf"
	owlClass   = "http://www.w3.org/2002/07/owl#Class"
)

func TestExtractor_ExtractFromFile_Turtle(t *testing.T) {
	ext := NewExtractor()

	records, err := ext.ExtractFromFile(filepath.Join("testdata", "core.ttl"))
	require.NoError(t, err)

	t.Run("Blank nodes are dropped", func(t *testing.T) {
		assert.Len(t, records, 8)
		for _, r := range records {
			assert.NotContains(t, r.Subject, "_:")
			assert.NotContains(t, r.Object, "_:")
		}
	})

	t.Run("IRIs are expanded", func(t *testing.T) {
		assert.Contains(t, records, Record{
			Subject:   "http://example.org/onto#Tank",
			Predicate: subClassOf,
			Object:    "http://example.org/onto#Vehicle",
		})
		assert.Contains(t, records, Record{
			Subject:   "http://example.org/onto#Vehicle",
			Predicate: rdfType,
			Object:    owlClass,
		})
	})

	t.Run("Literals are flagged", func(t *testing.T) {
		assert.Contains(t, records, Record{
			Subject:   "http://example.org/onto#Vehicle",
			Predicate: "http://purl.org/dc/terms/source",
			Object:    "MIM",
			IsLiteral: true,
		})
	})
}

func TestExtractor_ExtractFromFile_NTriples(t *testing.T) {
	records, err := NewExtractor().ExtractFromFile(filepath.Join("testdata", "core.nt"))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "http://example.org/onto#Drone", records[0].Subject)
	assert.Equal(t, owlClass, records[0].Object)
	assert.False(t, records[0].IsLiteral)
	assert.Equal(t, "Unmanned aerial vehicle", records[2].Object)
	assert.True(t, records[2].IsLiteral)
}

func TestExtractor_ExtractFromFile_Records(t *testing.T) {
	ext := NewExtractor()

	t.Run("JSON array", func(t *testing.T) {
		records, err := ext.ExtractFromFile(filepath.Join("testdata", "records.json"))
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.True(t, records[1].IsLiteral)
		assert.Equal(t, "", records[2].Object, "null object decodes to empty")
	})

	t.Run("JSON lines", func(t *testing.T) {
		records, err := ext.ExtractFromFile(filepath.Join("testdata", "records.jsonl"))
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("Broken line keeps earlier records", func(t *testing.T) {
		records, err := ext.ExtractFromFile(filepath.Join("testdata", "broken.jsonl"))
		assert.Error(t, err)
		assert.Len(t, records, 1)
	})
}

func TestExtractor_Errors(t *testing.T) {
	ext := NewExtractor()

	_, err := ext.ExtractFromFile(filepath.Join("testdata", "missing.ttl"))
	assert.Error(t, err)

	_, err = ext.ExtractFromFile("ontology.owx")
	assert.Error(t, err)
	assert.False(t, ext.Supports("ontology.owx"))
	assert.True(t, ext.Supports("a/b/Core.TTL"))
}

func TestRecord_Valid(t *testing.T) {
	assert.True(t, Record{Subject: "s", Predicate: "p"}.Valid())
	assert.False(t, Record{Predicate: "p", Object: "o"}.Valid())
	assert.False(t, Record{Subject: "s"}.Valid())
}
