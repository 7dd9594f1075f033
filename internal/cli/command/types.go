package command

import (
	"fmt"
	"os"
	"strings"
)

// FieldType describes input type.
type FieldType int

const (
	FieldString FieldType = iota
	FieldFile
)

// Field defines a CLI input field.
type Field struct {
	Name    string
	Aliases []string
	Prompt  string
	Type    FieldType
}

// Command defines a CLI command binding.
type Command struct {
	Name  string
	Usage string
	// Positional names the fields filled by bare arguments, in order.
	Positional []string
	Fields     []Field
}

// Params holds parsed input params.
type Params map[string]string

func (p Params) Get(key string) string {
	return p[strings.ToLower(key)]
}

func (p Params) Set(key, value string) {
	p[strings.ToLower(key)] = value
}

func (p Params) Has(key string) bool {
	_, ok := p[strings.ToLower(key)]
	return ok
}

func (p Params) Canonicalize(fields []Field) {
	for _, field := range fields {
		for _, alias := range field.Aliases {
			aliasKey := strings.ToLower(alias)
			if value, ok := p[aliasKey]; ok {
				p[strings.ToLower(field.Name)] = value
				delete(p, aliasKey)
			}
		}
	}
}

// Parse splits tokens into params. key=value tokens set named params; bare
// tokens fill cmd.Positional in order.
func Parse(cmd Command, tokens []string) (Params, error) {
	params := Params{}
	next := 0
	for _, token := range tokens {
		if key, value, ok := strings.Cut(token, "="); ok && key != "" {
			params.Set(key, value)
			continue
		}
		if next >= len(cmd.Positional) {
			return nil, fmt.Errorf("unexpected argument: %s", token)
		}
		params.Set(cmd.Positional[next], token)
		next++
	}
	params.Canonicalize(cmd.Fields)
	return params, nil
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file failed: %w", err)
	}
	return string(data), nil
}
