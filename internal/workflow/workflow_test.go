package workflow_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/imagereport/internal/catalog"
	tmpl "github.com/donaldgifford/imagereport/internal/template"
	"github.com/donaldgifford/imagereport/internal/workflow"
)

const reportTemplate = `name: generate-report
on:
  workflow_dispatch:
jobs:
{{- range .images }}
  {{ jobID .name }}:
    runs-on: ubuntu-latest
    steps:
      - run: docker pull {{ .reference }}
{{- end }}
`

func images() []catalog.EnrichedImage {
	return []catalog.EnrichedImage{
		{
			ImageSummary: catalog.ImageSummary{Name: "nginx", Description: "web", StarCount: 1, PullCount: 2},
			Tag:          "latest",
			Reference:    "docker.io/library/nginx:latest",
			Source:       catalog.SourceDefault,
		},
		{
			ImageSummary: catalog.ImageSummary{Name: "alpine", Description: "small", StarCount: 3, PullCount: 4},
			Tag:          "3.20",
			Reference:    "docker.io/library/alpine:3.20",
			Source:       catalog.SourceLastUpdated,
		},
	}
}

func writeTemplate(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "report.yml.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestData(t *testing.T) {
	t.Parallel()

	data := workflow.Data(images())

	records, ok := data["images"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, records, 2)
	assert.Equal(t, "nginx", records[0]["name"])
	assert.Equal(t, "3.20", records[1]["tag"])
}

func TestData_Empty(t *testing.T) {
	t.Parallel()

	data := workflow.Data(nil)
	assert.Empty(t, data["images"])
}

func TestRender(t *testing.T) {
	t.Parallel()

	out, err := workflow.Render(tmpl.NewRenderer(), writeTemplate(t, reportTemplate), images())
	require.NoError(t, err)

	expected := `name: generate-report
on:
  workflow_dispatch:
jobs:
  nginx:
    runs-on: ubuntu-latest
    steps:
      - run: docker pull docker.io/library/nginx:latest
  alpine:
    runs-on: ubuntu-latest
    steps:
      - run: docker pull docker.io/library/alpine:3.20
`
	assert.Equal(t, expected, string(out))
}

func TestRender_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := workflow.Render(tmpl.NewRenderer(), writeTemplate(t, "jobs: [\n{{ range .images }}"+"{{ end }}"), images())
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrInvalidOutput)
}

func TestRender_MissingKey(t *testing.T) {
	t.Parallel()

	_, err := workflow.Render(tmpl.NewRenderer(), writeTemplate(t, "{{ range .images }}{{ .digest }}{{ end }}"), images())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rendering workflow")
}

func TestWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".github", "workflows", "generate-report.yml")

	require.NoError(t, workflow.Write(path, []byte("first: 1\n")))
	require.NoError(t, workflow.Write(path, []byte("second: 2\n")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second: 2\n", string(content))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestUpToDate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.yml")

	ok, err := workflow.UpToDate(path, []byte("a: 1\n"))
	require.NoError(t, err)
	assert.False(t, ok, "missing file is out of date")

	require.NoError(t, workflow.Write(path, []byte("a: 1\n")))

	ok, err = workflow.UpToDate(path, []byte("a: 1\n"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = workflow.UpToDate(path, []byte("a: 2\n"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestContentHash(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		workflow.ContentHash(nil),
	)
	assert.NotEqual(t, workflow.ContentHash([]byte("a")), workflow.ContentHash([]byte("b")))
}

func TestRender_ShippedTemplate(t *testing.T) {
	t.Parallel()

	out, err := workflow.Render(tmpl.NewRenderer(), "../../report-workflow.yml.tmpl", images())
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "  nginx:\n")
	assert.Contains(t, content, `name: "alpine:3.20"`)
	assert.Contains(t, content, "run: docker pull docker.io/library/alpine:3.20")
	assert.Contains(t, content, "{{ .Size }}")
}

func TestRender_ShippedTemplateMultilineDescription(t *testing.T) {
	t.Parallel()

	imgs := images()
	imgs[0].Description = "Official build of Nginx.\nSecond line: with a colon"

	out, err := workflow.Render(tmpl.NewRenderer(), "../../report-workflow.yml.tmpl", imgs)
	require.NoError(t, err)

	var doc struct {
		Jobs map[string]struct {
			Steps []struct {
				Env map[string]string `yaml:"env"`
			} `yaml:"steps"`
		} `yaml:"jobs"`
	}
	require.NoError(t, yaml.Unmarshal(out, &doc))
	require.Len(t, doc.Jobs["nginx"].Steps, 2)
	assert.Equal(t, "Official build of Nginx.\nSecond line: with a colon", doc.Jobs["nginx"].Steps[1].Env["IMAGE_DESCRIPTION"])
}
