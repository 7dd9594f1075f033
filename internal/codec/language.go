package codec

import (
	"fmt"
	"sort"
	"strings"

	pkgerrors "codejudge/pkg/errors"
)

// Judge0 CE language ids for the built-in keys.
const (
	LanguageIDJava       = 62
	LanguageIDCpp        = 54
	LanguageIDPython     = 71
	LanguageIDJavaScript = 63
)

// LanguageTable maps language keys to judge language ids. The zero value is
// empty; tables are never mutated after construction.
type LanguageTable struct {
	ids map[string]int
}

// DefaultLanguageTable returns the built-in java/cpp/python/javascript table.
func DefaultLanguageTable() LanguageTable {
	return LanguageTable{ids: map[string]int{
		"java":       LanguageIDJava,
		"cpp":        LanguageIDCpp,
		"python":     LanguageIDPython,
		"javascript": LanguageIDJavaScript,
	}}
}

// NewLanguageTable copies entries into a new table. Keys are normalized to
// lower case; empty keys and non-positive ids are rejected.
func NewLanguageTable(entries map[string]int) (LanguageTable, error) {
	ids := make(map[string]int, len(entries))
	for key, id := range entries {
		norm := normalizeKey(key)
		if norm == "" {
			return LanguageTable{}, fmt.Errorf("language key is empty")
		}
		if id <= 0 {
			return LanguageTable{}, fmt.Errorf("language %q has invalid id %d", key, id)
		}
		if _, dup := ids[norm]; dup {
			return LanguageTable{}, fmt.Errorf("language %q is defined twice", norm)
		}
		ids[norm] = id
	}
	return LanguageTable{ids: ids}, nil
}

// With returns a copy of t with overrides applied on top.
func (t LanguageTable) With(overrides map[string]int) (LanguageTable, error) {
	extra, err := NewLanguageTable(overrides)
	if err != nil {
		return LanguageTable{}, err
	}
	merged := make(map[string]int, len(t.ids)+len(extra.ids))
	for k, v := range t.ids {
		merged[k] = v
	}
	for k, v := range extra.ids {
		merged[k] = v
	}
	return LanguageTable{ids: merged}, nil
}

// Resolve returns the judge language id for key. Unknown keys fail with
// LanguageNotSupported; there is no fallback id.
func (t LanguageTable) Resolve(key string) (int, error) {
	id, ok := t.ids[normalizeKey(key)]
	if !ok {
		return 0, pkgerrors.UnsupportedLanguage(key)
	}
	return id, nil
}

// Lookup returns the key mapped to id.
func (t LanguageTable) Lookup(id int) (string, bool) {
	for k, v := range t.ids {
		if v == id {
			return k, true
		}
	}
	return "", false
}

// Keys lists the supported language keys in sorted order.
func (t LanguageTable) Keys() []string {
	keys := make([]string, 0, len(t.ids))
	for k := range t.ids {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t LanguageTable) Len() int {
	return len(t.ids)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
