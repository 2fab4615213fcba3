package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Manager {
	t.Helper()

	fsys := fstest.MapFS{
		"en.yaml": &fstest.MapFile{Data: []byte(
			"en:\n  auth:\n    login:\n      success: \"Logged in\"\n  settings:\n    saved: \"Settings saved\"\n",
		)},
		"hi.yaml": &fstest.MapFile{Data: []byte(
			"hi:\n  auth:\n    login:\n      success: \"Login ho gaya\"\n",
		)},
	}

	m, err := LoadFS(fsys, "en")
	require.NoError(t, err)
	return m
}

func TestTranslatorResolvesNestedKeys(t *testing.T) {
	m := testCatalog(t)

	tr := m.Translator("en")
	assert.Equal(t, "Logged in", tr.T("auth.login.success"))
	assert.Equal(t, "Settings saved", tr.T("settings.saved"))
}

func TestTranslatorFallsBackToDefaultLanguage(t *testing.T) {
	m := testCatalog(t)

	tr := m.Translator("hi")
	assert.Equal(t, "hi", tr.Lang())
	assert.Equal(t, "Login ho gaya", tr.T("auth.login.success"))

	// Key missing from hi resolves through en.
	assert.Equal(t, "Settings saved", tr.T("settings.saved"))
}

func TestTranslatorUnknownLanguageUsesDefault(t *testing.T) {
	m := testCatalog(t)

	tr := m.Translator("fr")
	assert.Equal(t, "en", tr.Lang())
	assert.Equal(t, "Logged in", tr.T("auth.login.success"))
}

func TestTranslatorUnknownKeyReturnsKey(t *testing.T) {
	m := testCatalog(t)

	assert.Equal(t, "nope.missing", m.Translator("en").T("nope.missing"))
	assert.Equal(t, "", m.Translator("en").T("  "))
}

func TestLoadFSRejectsMissingDefaultLanguage(t *testing.T) {
	fsys := fstest.MapFS{
		"hi.yaml": &fstest.MapFile{Data: []byte("hi:\n  a: \"b\"\n")},
	}

	_, err := LoadFS(fsys, "en")
	require.Error(t, err)
}

func TestEmbeddedCatalogLoads(t *testing.T) {
	m, err := Load("en")
	require.NoError(t, err)

	assert.Contains(t, m.Languages(), "en")
	assert.Contains(t, m.Languages(), "hi")
	assert.Equal(t, "Logged in successfully", m.Translator("en").T("auth.login.success"))
}
