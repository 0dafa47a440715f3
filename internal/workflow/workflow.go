// Package workflow renders and writes the report workflow file.
package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/imagereport/internal/catalog"
	tmpl "github.com/donaldgifford/imagereport/internal/template"
)

// ErrInvalidOutput is returned when the rendered template is not a YAML document.
var ErrInvalidOutput = errors.New("rendered workflow is not valid YAML")

// Data builds the template data: a single "images" key holding one record per
// image in catalog order.
func Data(images []catalog.EnrichedImage) map[string]any {
	return map[string]any{
		"images": lo.Map(images, func(img catalog.EnrichedImage, _ int) map[string]any {
			return img.Record()
		}),
	}
}

// Render executes the template at tmplPath with the image records and checks
// that the result parses as YAML.
func Render(renderer *tmpl.Renderer, tmplPath string, images []catalog.EnrichedImage) ([]byte, error) {
	out, err := renderer.RenderFile(tmplPath, Data(images))
	if err != nil {
		return nil, fmt.Errorf("rendering workflow: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(out, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}

	return out, nil
}

// Write atomically replaces the file at path with content, creating parent
// directories as needed.
func Write(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".workflow-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	tmpPath = ""

	return nil
}

// ContentHash returns the hex sha256 of content.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)

	return hex.EncodeToString(sum[:])
}

// UpToDate reports whether the file at path already holds content. A missing
// file is out of date.
func UpToDate(path string, content []byte) (bool, error) {
	existing, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}

	return ContentHash(existing) == ContentHash(content), nil
}
