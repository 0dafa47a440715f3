package tags_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/imagereport/internal/catalog"
	"github.com/donaldgifford/imagereport/internal/hub"
	"github.com/donaldgifford/imagereport/internal/hubtest"
	"github.com/donaldgifford/imagereport/internal/tags"
)

func newResolver(srv *hubtest.Server, defaultTag string) *tags.Resolver {
	client := hub.NewClient(srv.URL(), hub.WithHTTPClient(srv.Client()), hub.WithMaxRPS(0))

	return tags.NewResolver(client, hub.DefaultNamespace, defaultTag, nil)
}

func TestResolve_DefaultTagSkipsListing(t *testing.T) {
	t.Parallel()

	srv := hubtest.New(
		hubtest.WithTags("library", "nginx",
			hub.Tag{Name: "latest", LastUpdated: "2020-01-01T00:00:00Z"},
			hub.Tag{Name: "1.27", LastUpdated: "2024-01-01T00:00:00Z"},
		),
	)
	defer srv.Close()

	tag, err := newResolver(srv, "").Resolve(t.Context(), catalog.ImageSummary{Name: "nginx"})
	require.NoError(t, err)
	assert.Equal(t, "latest", tag)
	assert.Equal(t, 1, srv.CountRequests(http.MethodHead, "/v2/repositories/library/nginx/tags/latest"))
	assert.Zero(t, srv.CountRequests(http.MethodGet, "/v2/repositories/library/nginx/tags/"))
}

func TestResolve_FallsBackToMostRecent(t *testing.T) {
	t.Parallel()

	srv := hubtest.New(
		hubtest.WithTags("library", "app",
			hub.Tag{Name: "v1", LastUpdated: "2023-06-01T10:00:00Z"},
			hub.Tag{Name: "v2", LastUpdated: "2023-06-02T10:00:00.500000Z"},
		),
	)
	defer srv.Close()

	tag, err := newResolver(srv, "").Resolve(t.Context(), catalog.ImageSummary{Name: "app"})
	require.NoError(t, err)
	assert.Equal(t, "v2", tag)
	assert.Equal(t, 1, srv.CountRequests(http.MethodGet, "/v2/repositories/library/app/tags/"))
}

func TestResolve_MaximumAcrossPages(t *testing.T) {
	t.Parallel()

	srv := hubtest.New(
		hubtest.WithTags("library", "busybox",
			hub.Tag{Name: "1.34", LastUpdated: "2022-01-01T00:00:00Z"},
			hub.Tag{Name: "1.35", LastUpdated: "2022-06-01T00:00:00.1Z"},
			hub.Tag{Name: "1.36", LastUpdated: "2024-02-01T00:00:00Z"},
			hub.Tag{Name: "1.33", LastUpdated: "2021-01-01T00:00:00Z"},
			hub.Tag{Name: "musl", LastUpdated: "2023-11-11T11:11:11.111Z"},
		),
		hubtest.WithPageSize(2),
	)
	defer srv.Close()

	tag, err := newResolver(srv, "").Resolve(t.Context(), catalog.ImageSummary{Name: "busybox"})
	require.NoError(t, err)
	assert.Equal(t, "1.36", tag)
	assert.Equal(t, 3, srv.CountRequests(http.MethodGet, "/v2/repositories/library/busybox/tags/"))
}

func TestResolve_CustomDefaultTag(t *testing.T) {
	t.Parallel()

	srv := hubtest.New(hubtest.WithProbeOnly("library", "debian", "stable"))
	defer srv.Close()

	tag, err := newResolver(srv, "stable").Resolve(t.Context(), catalog.ImageSummary{Name: "debian"})
	require.NoError(t, err)
	assert.Equal(t, "stable", tag)
}

func TestResolve_NoTags(t *testing.T) {
	t.Parallel()

	srv := hubtest.New(hubtest.WithTags("library", "empty"))
	defer srv.Close()

	_, err := newResolver(srv, "").Resolve(t.Context(), catalog.ImageSummary{Name: "empty"})
	require.Error(t, err)
	assert.ErrorIs(t, err, tags.ErrNoTags)
}

func TestResolve_ListingFailure(t *testing.T) {
	t.Parallel()

	srv := hubtest.New(hubtest.WithFailure("/v2/repositories/library/gone/tags/", http.StatusInternalServerError))
	defer srv.Close()

	_, err := newResolver(srv, "").Resolve(t.Context(), catalog.ImageSummary{Name: "gone"})
	require.Error(t, err)
	assert.ErrorIs(t, err, hub.ErrTransport)
}

func TestEnrich(t *testing.T) {
	t.Parallel()

	srv := hubtest.New(
		hubtest.WithProbeOnly("library", "nginx", "latest"),
		hubtest.WithTags("library", "app",
			hub.Tag{Name: "v1", LastUpdated: "2023-06-01T10:00:00Z"},
			hub.Tag{Name: "v2", LastUpdated: "2023-06-02T10:00:00.500000Z"},
		),
	)
	defer srv.Close()

	images := []catalog.ImageSummary{
		{Name: "nginx", Description: "web server", StarCount: 20000, PullCount: 1_000_000_000},
		{Name: "app", Description: "an app"},
	}

	enriched, err := newResolver(srv, "").Enrich(t.Context(), images)
	require.NoError(t, err)
	require.Len(t, enriched, 2)

	assert.Equal(t, "latest", enriched[0].Tag)
	assert.Equal(t, catalog.SourceDefault, enriched[0].Source)
	assert.Equal(t, "docker.io/library/nginx:latest", enriched[0].Reference)
	assert.Equal(t, images[0], enriched[0].ImageSummary)

	assert.Equal(t, "v2", enriched[1].Tag)
	assert.Equal(t, catalog.SourceLastUpdated, enriched[1].Source)

	for _, e := range enriched {
		assert.NotEmpty(t, e.Tag)
	}
}

func TestEnrich_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	srv := hubtest.New(
		hubtest.WithTags("library", "broken", hub.Tag{Name: "x", LastUpdated: "not a time"}),
		hubtest.WithProbeOnly("library", "after", "latest"),
	)
	defer srv.Close()

	images := []catalog.ImageSummary{{Name: "broken"}, {Name: "after"}}

	enriched, err := newResolver(srv, "").Enrich(t.Context(), images)
	require.Error(t, err)
	assert.ErrorIs(t, err, tags.ErrTimestampFormat)
	assert.Nil(t, enriched)
	assert.Zero(t, srv.CountRequests(http.MethodHead, "/v2/repositories/library/after/tags/latest"))
}
