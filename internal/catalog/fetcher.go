// Package catalog fetches the image catalog of a hub namespace and reduces it
// to the candidates worth reporting on.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/donaldgifford/imagereport/internal/hub"
)

// DefaultDenyList holds the library images that are never reported:
// scratch cannot be pulled, opensuse has no tags, java is no longer readable
// and clefos is not published for the build architecture.
var DefaultDenyList = []string{"scratch", "opensuse", "java", "clefos"}

// RepositoryLister lists every repository of a namespace.
type RepositoryLister interface {
	ListRepositories(ctx context.Context) ([]hub.Repository, error)
}

// Fetcher produces the filtered catalog.
type Fetcher struct {
	lister RepositoryLister
	deny   map[string]struct{}
	logger *slog.Logger
}

// NewFetcher creates a Fetcher excluding the exact names in denyList.
func NewFetcher(lister RepositoryLister, denyList []string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		lister: lister,
		deny:   lo.SliceToMap(denyList, func(n string) (string, struct{}) { return n, struct{}{} }),
		logger: logger,
	}
}

// Fetch retrieves every page of the catalog, then drops denied names.
func (f *Fetcher) Fetch(ctx context.Context) ([]ImageSummary, error) {
	f.logger.Info("fetching library images")

	repos, err := f.lister.ListRepositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}

	images := Summarize(repos)
	f.logger.Info("fetched images", "count", len(images))

	images = f.Filter(images)
	f.logger.Info("reduced images", "count", len(images))

	return images, nil
}

// Filter returns the images whose name is not on the deny-list, preserving
// order.
func (f *Fetcher) Filter(images []ImageSummary) []ImageSummary {
	return lo.Filter(images, func(img ImageSummary, _ int) bool {
		return !f.Denied(img.Name)
	})
}

// Denied reports whether name is on the deny-list. Matching is exact.
func (f *Fetcher) Denied(name string) bool {
	_, ok := f.deny[name]

	return ok
}

// Summarize maps raw repository records to summaries.
func Summarize(repos []hub.Repository) []ImageSummary {
	return lo.Map(repos, func(r hub.Repository, _ int) ImageSummary {
		return ImageSummary{
			Name:        r.Name,
			Description: r.Description,
			StarCount:   r.StarCount,
			PullCount:   r.PullCount,
		}
	})
}
