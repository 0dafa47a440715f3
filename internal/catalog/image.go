package catalog

import (
	"errors"
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
)

// ErrInvalidReference is returned when an image name and tag do not form a
// valid pull reference.
var ErrInvalidReference = errors.New("invalid image reference")

// Registry is the registry host used for pull references.
const Registry = "docker.io"

// TagSource records how a tag was chosen.
type TagSource string

// Tag sources.
const (
	SourceDefault     TagSource = "default"
	SourceLastUpdated TagSource = "last-updated"
)

// ImageSummary is the reduced form of a hub repository record.
type ImageSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StarCount   int    `json:"star_count"`
	PullCount   int64  `json:"pull_count"`
}

// EnrichedImage is an ImageSummary with its resolved tag. Tag is never empty.
type EnrichedImage struct {
	ImageSummary

	Tag       string    `json:"tag"`
	Reference string    `json:"reference"`
	Source    TagSource `json:"source"`
}

// Enrich attaches tag to summary and builds the fully-qualified pull
// reference docker.io/<namespace>/<name>:<tag>.
func Enrich(summary ImageSummary, namespace, tag string, source TagSource) (EnrichedImage, error) {
	if tag == "" {
		return EnrichedImage{}, fmt.Errorf("%w: %s has an empty tag", ErrInvalidReference, summary.Name)
	}

	raw := fmt.Sprintf("%s/%s/%s:%s", Registry, namespace, summary.Name, tag)

	ref, err := name.NewTag(raw, name.StrictValidation)
	if err != nil {
		return EnrichedImage{}, fmt.Errorf("%w: %s: %w", ErrInvalidReference, raw, err)
	}

	// ref.Name() would spell the registry index.docker.io.
	return EnrichedImage{
		ImageSummary: summary,
		Tag:          tag,
		Reference:    Registry + "/" + ref.RepositoryStr() + ":" + ref.TagStr(),
		Source:       source,
	}, nil
}

// Record returns the template view of the image. Keys follow the hub's
// snake_case field names.
func (e EnrichedImage) Record() map[string]any {
	return map[string]any{
		"name":        e.Name,
		"description": e.Description,
		"star_count":  e.StarCount,
		"pull_count":  e.PullCount,
		"tag":         e.Tag,
		"reference":   e.Reference,
		"source":      string(e.Source),
	}
}
