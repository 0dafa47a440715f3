// Package template provides the Go text/template rendering engine with custom functions.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/Masterminds/sprig/v3"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// FuncMap returns sprig's text functions extended with the imagereport helpers.
// The helpers take precedence over sprig functions of the same name.
func FuncMap() template.FuncMap {
	fm := sprig.TxtFuncMap()

	fm["snakeCase"] = snakeCase
	fm["kebabCase"] = kebabCase
	fm["jobID"] = jobID
	fm["toYaml"] = toYaml
	fm["comma"] = comma
	fm["shortCount"] = shortCount

	return fm
}

// snakeCase converts a string to snake_case.
func snakeCase(s string) string {
	return strings.ToLower(toDelimited(s, '_'))
}

// kebabCase converts a string to kebab-case.
func kebabCase(s string) string {
	return strings.ToLower(toDelimited(s, '-'))
}

// jobID turns an image name into a GitHub Actions job id: it must start with a
// letter or '_' and contain only alphanumerics, '-' or '_'.
func jobID(s string) string {
	var b strings.Builder

	for _, r := range kebabCase(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_') {
			b.WriteRune(r)
		}
	}

	id := b.String()
	if id == "" || !(unicode.IsLetter(rune(id[0])) || id[0] == '_') {
		id = "_" + id
	}

	return id
}

// toYaml marshals v as a YAML document without the trailing newline.
// Strings come out quoted when YAML needs it, e.g. {{ .description | toYaml }}.
func toYaml(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshaling yaml: %w", err)
	}

	return strings.TrimSuffix(string(out), "\n"), nil
}

// comma formats an integer with thousands separators: 1234567 -> 1,234,567.
func comma(v any) (string, error) {
	n, err := toInt64(v)
	if err != nil {
		return "", err
	}

	return humanize.Comma(n), nil
}

// shortCount formats a count with an SI suffix: 1234567 -> 1.2M.
func shortCount(v any) (string, error) {
	n, err := toInt64(v)
	if err != nil {
		return "", err
	}

	value, prefix := humanize.ComputeSI(float64(n))

	return humanize.FtoaWithDigits(value, 1) + prefix, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil //nolint:gosec // counts fit in int64
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

// splitWords splits a string into words by separators and casing transitions.
func splitWords(s string) []string {
	var words []string
	var current []rune

	for i, r := range s {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			if len(current) > 0 {
				words = append(words, string(current))
				current = nil
			}
		case unicode.IsUpper(r) && i > 0 && len(current) > 0:
			words = append(words, string(current))
			current = []rune{r}
		default:
			current = append(current, r)
		}
	}

	if len(current) > 0 {
		words = append(words, string(current))
	}

	return words
}

// toDelimited converts a string to a delimited format.
func toDelimited(s string, delim rune) string {
	words := splitWords(s)
	parts := make([]string, len(words))

	for i, w := range words {
		parts[i] = strings.ToLower(w)
	}

	return strings.Join(parts, string(delim))
}
