// Package tags picks the tag to report for each catalog image.
package tags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/donaldgifford/imagereport/internal/catalog"
	"github.com/donaldgifford/imagereport/internal/hub"
)

// DefaultTag is probed before falling back to the full tag listing.
const DefaultTag = "latest"

// ErrNoTags is returned when an image has no default tag and an empty tag
// listing.
var ErrNoTags = errors.New("image has no tags")

// Lister is the part of the hub client the resolver needs.
type Lister interface {
	TagExists(ctx context.Context, repository, tag string) (bool, error)
	ListTags(ctx context.Context, repository string) ([]hub.Tag, error)
}

// Resolver chooses one tag per image.
type Resolver struct {
	hub        Lister
	namespace  string
	defaultTag string
	logger     *slog.Logger
}

// NewResolver creates a Resolver. An empty defaultTag means DefaultTag.
func NewResolver(lister Lister, namespace, defaultTag string, logger *slog.Logger) *Resolver {
	if defaultTag == "" {
		defaultTag = DefaultTag
	}

	if namespace == "" {
		namespace = hub.DefaultNamespace
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		hub:        lister,
		namespace:  namespace,
		defaultTag: defaultTag,
		logger:     logger,
	}
}

// Resolve returns the default tag when the hub has it, otherwise the name of
// the most recently updated tag.
func (r *Resolver) Resolve(ctx context.Context, img catalog.ImageSummary) (string, error) {
	tag, _, err := r.resolve(ctx, img.Name)

	return tag, err
}

// Enrich resolves every image in order and stops at the first failure.
func (r *Resolver) Enrich(ctx context.Context, images []catalog.ImageSummary) ([]catalog.EnrichedImage, error) {
	enriched := make([]catalog.EnrichedImage, 0, len(images))

	for _, img := range images {
		tag, source, err := r.resolve(ctx, img.Name)
		if err != nil {
			return nil, err
		}

		e, err := catalog.Enrich(img, r.namespace, tag, source)
		if err != nil {
			return nil, err
		}

		r.logger.Info("added tag", "image", img.Name, "tag", tag, "source", source)
		enriched = append(enriched, e)
	}

	return enriched, nil
}

func (r *Resolver) resolve(ctx context.Context, image string) (string, catalog.TagSource, error) {
	ok, err := r.hub.TagExists(ctx, image, r.defaultTag)
	if err != nil {
		return "", "", fmt.Errorf("probing %s:%s: %w", image, r.defaultTag, err)
	}

	if ok {
		return r.defaultTag, catalog.SourceDefault, nil
	}

	r.logger.Debug("default tag missing, listing tags", "image", image, "default_tag", r.defaultTag)

	tags, err := r.hub.ListTags(ctx, image)
	if err != nil {
		return "", "", fmt.Errorf("resolving tag of %s: %w", image, err)
	}

	records, err := SortByLastUpdated(tags)
	if err != nil {
		return "", "", fmt.Errorf("resolving tag of %s: %w", image, err)
	}

	if len(records) == 0 {
		return "", "", fmt.Errorf("resolving tag of %s: %w", image, ErrNoTags)
	}

	return records[0].Name, catalog.SourceLastUpdated, nil
}
