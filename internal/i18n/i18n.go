// Package i18n resolves user-facing notification messages in the language
// carried by the session preferences. The catalog ships inside the binary.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

// Translator resolves localized strings by dot-separated key.
type Translator interface {
	T(key string) string
	Lang() string
}

// Manager holds the loaded catalog for every language.
type Manager struct {
	catalog     map[string]map[string]string
	defaultLang string
}

// Load parses the embedded catalog. defaultLang must be present in it.
func Load(defaultLang string) (*Manager, error) {
	sub, err := fs.Sub(catalogFS, "catalog")
	if err != nil {
		return nil, err
	}

	return LoadFS(sub, defaultLang)
}

// LoadFS parses every YAML file in fsys. Files are keyed by language at the
// top level; nested maps flatten into dot-separated keys.
func LoadFS(fsys fs.FS, defaultLang string) (*Manager, error) {
	if defaultLang == "" {
		defaultLang = "en"
	}

	catalog, err := parseAll(fsys)
	if err != nil {
		return nil, err
	}

	if _, ok := catalog[defaultLang]; !ok {
		return nil, fmt.Errorf("i18n: default language %q is missing", defaultLang)
	}

	return &Manager{catalog: catalog, defaultLang: defaultLang}, nil
}

// Translator returns a translator for lang, falling back to the default
// language for unknown languages and missing keys.
func (m *Manager) Translator(lang string) Translator {
	if m == nil {
		return translator{}
	}

	norm := strings.ToLower(strings.TrimSpace(lang))
	if norm == "" || m.catalog[norm] == nil {
		norm = m.defaultLang
	}

	return translator{
		lang:     norm,
		fallback: m.defaultLang,
		catalog:  m.catalog,
	}
}

// Languages lists every language present in the catalog.
func (m *Manager) Languages() []string {
	if m == nil {
		return nil
	}

	languages := make([]string, 0, len(m.catalog))
	for lang := range m.catalog {
		languages = append(languages, lang)
	}
	return languages
}

type translator struct {
	lang     string
	fallback string
	catalog  map[string]map[string]string
}

func (t translator) Lang() string {
	return t.lang
}

// T resolves key in the translator's language, then the fallback language.
// An unresolvable key is returned as-is so a missing entry stays visible.
func (t translator) T(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}

	for _, lang := range []string{t.lang, t.fallback} {
		if entries := t.catalog[lang]; entries != nil {
			if value, ok := entries[key]; ok {
				return value
			}
		}
	}

	return key
}

func parseAll(fsys fs.FS) (map[string]map[string]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("i18n: read catalog: %w", err)
	}

	catalog := make(map[string]map[string]string)
	for _, entry := range entries {
		name := strings.ToLower(entry.Name())
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}

		if err := parseFile(fsys, entry.Name(), catalog); err != nil {
			return nil, err
		}
	}

	if len(catalog) == 0 {
		return nil, fmt.Errorf("i18n: catalog is empty")
	}

	return catalog, nil
}

func parseFile(fsys fs.FS, name string, catalog map[string]map[string]string) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("i18n: read %s: %w", name, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("i18n: parse %s: %w", name, err)
	}

	for lang, value := range raw {
		langKey := strings.ToLower(strings.TrimSpace(lang))
		section, ok := value.(map[string]any)
		if langKey == "" || !ok {
			continue
		}

		if catalog[langKey] == nil {
			catalog[langKey] = make(map[string]string)
		}
		flatten("", section, catalog[langKey])
	}

	return nil
}

func flatten(prefix string, in map[string]any, out map[string]string) {
	for key, value := range in {
		if key == "" {
			continue
		}

		full := key
		if prefix != "" {
			full = prefix + "." + key
		}

		switch v := value.(type) {
		case string:
			out[full] = v
		case map[string]any:
			flatten(full, v, out)
		}
	}
}
