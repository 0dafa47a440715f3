package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	tmpl "github.com/donaldgifford/imagereport/internal/template"
)

func TestFuncMap_SnakeCase(t *testing.T) {
	t.Parallel()

	r := tmpl.NewRenderer()

	tests := []struct {
		input    string
		expected string
	}{
		{"eclipse-temurin", "eclipse_temurin"},
		{"ibm-semeru-runtimes", "ibm_semeru_runtimes"},
		{"already_snake", "already_snake"},
		{"MyImage", "my_image"},
	}

	for _, tt := range tests {
		result, err := r.RenderString(`{{ snakeCase "`+tt.input+`" }}`, nil)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, result, "snakeCase(%q)", tt.input)
	}
}

func TestFuncMap_KebabCase(t *testing.T) {
	t.Parallel()

	r := tmpl.NewRenderer()

	tests := []struct {
		input    string
		expected string
	}{
		{"my_image", "my-image"},
		{"adoptopenjdk.openj9", "adoptopenjdk-openj9"},
		{"MyImage", "my-image"},
	}

	for _, tt := range tests {
		result, err := r.RenderString(`{{ kebabCase "`+tt.input+`" }}`, nil)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, result, "kebabCase(%q)", tt.input)
	}
}

func TestFuncMap_JobID(t *testing.T) {
	t.Parallel()

	r := tmpl.NewRenderer()

	tests := []struct {
		input    string
		expected string
	}{
		{"nginx", "nginx"},
		{"eclipse-temurin", "eclipse-temurin"},
		{"api_firewall", "api-firewall"},
		{"3proxy", "_3proxy"},
		{"a+b", "ab"},
		{"", "_"},
	}

	for _, tt := range tests {
		result, err := r.RenderString(`{{ jobID "`+tt.input+`" }}`, nil)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, result, "jobID(%q)", tt.input)
	}
}

func TestFuncMap_ToYaml(t *testing.T) {
	t.Parallel()

	r := tmpl.NewRenderer()

	result, err := r.RenderString(`description: {{ .d | toYaml }}`, map[string]any{"d": "Official build of: nginx"})
	require.NoError(t, err)

	var doc map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(result), &doc))
	assert.Equal(t, "Official build of: nginx", doc["description"])

	result, err = r.RenderString(`{{ .v | toYaml }}`, map[string]any{"v": []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, "- a\n- b", result)
}

func TestFuncMap_Counts(t *testing.T) {
	t.Parallel()

	r := tmpl.NewRenderer()

	tests := []struct {
		tmpl     string
		value    any
		expected string
	}{
		{`{{ comma .v }}`, int64(1234567), "1,234,567"},
		{`{{ comma .v }}`, 12, "12"},
		{`{{ shortCount .v }}`, int64(1234567), "1.2M"},
		{`{{ shortCount .v }}`, 999, "999"},
		{`{{ shortCount .v }}`, int64(5_000_000_000), "5G"},
	}

	for _, tt := range tests {
		result, err := r.RenderString(tt.tmpl, map[string]any{"v": tt.value})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, result, "%s with %v", tt.tmpl, tt.value)
	}

	_, err := r.RenderString(`{{ comma .v }}`, map[string]any{"v": "many"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected an integer")
}

func TestFuncMap_SprigAvailable(t *testing.T) {
	t.Parallel()

	r := tmpl.NewRenderer()

	result, err := r.RenderString(`{{ "nginx" | upper }} {{ list 1 2 3 | len }} {{ trunc 3 "alpine" }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "NGINX 3 alp", result)
}
