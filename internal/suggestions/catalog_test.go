package suggestions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olasis/olasis-service/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	for _, lang := range domain.Languages {
		lc := c.For(lang)
		require.NotNil(t, lc, lang.String())
		assert.Len(t, lc.Fallback, 4)
		assert.Len(t, lc.Fields, 4)
		for _, tag := range RequiredContexts {
			assert.Len(t, lc.Contexts[tag], 4, "%s/%s", lang, tag)
		}
	}

	pt := c.For(domain.Portuguese)
	assert.Equal(t, []string{"medicina", "tecnologia", "meio_ambiente", "educacao"},
		[]string{pt.Fields[0].Key, pt.Fields[1].Key, pt.Fields[2].Key, pt.Fields[3].Key})
	assert.Equal(t, "O que é inteligência artificial?", pt.Fallback[0])
	assert.Contains(t, pt.Fields[1].Suggestions, "Computação quântica: fundamentos e aplicações")
}

func TestCatalog_ForFallsBackToPortuguese(t *testing.T) {
	c, err := Parse([]byte(`
languages:
  pt:
    contexts: {general: [a]}
`))
	require.Error(t, err, "incomplete catalogs are rejected")
	assert.Nil(t, c)

	full, err := DefaultCatalog()
	require.NoError(t, err)
	delete(full.Languages, "en")
	assert.Same(t, full.Languages["pt"], full.For(domain.English))
	assert.Same(t, full.Languages["pt"], full.For(domain.Language(9)))
}

func TestLanguageCatalog_Field(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	f, ok := c.For(domain.English).Field("Medicine")
	require.True(t, ok)
	assert.Equal(t, "medicina", f.Key)

	f, ok = c.For(domain.English).Field("medicina")
	require.True(t, ok)
	assert.Equal(t, "medicina", f.Key)

	f, ok = c.For(domain.Spanish).Field(" educación ")
	require.True(t, ok)
	assert.Equal(t, "educacao", f.Key)

	_, ok = c.For(domain.Portuguese).Field("astrologia")
	assert.False(t, ok)
}

func TestLoadCatalog(t *testing.T) {
	t.Run("empty path uses embedded catalog", func(t *testing.T) {
		c, err := LoadCatalog("")
		require.NoError(t, err)
		assert.Len(t, c.Languages, 3)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "reading suggestion catalog")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("languages: [unclosed"), 0o644))
		_, err := LoadCatalog(path)
		assert.ErrorContains(t, err, "parsing suggestion catalog")
	})

	t.Run("file copy of the embedded catalog", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.yaml")
		require.NoError(t, os.WriteFile(path, defaultCatalog, 0o644))
		c, err := LoadCatalog(path)
		require.NoError(t, err)
		assert.NoError(t, c.Validate())
	})
}
