package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/imagereport/internal/catalog"
)

func TestEnrich(t *testing.T) {
	t.Parallel()

	summary := catalog.ImageSummary{Name: "eclipse-temurin", Description: "JDK", StarCount: 10, PullCount: 42}

	e, err := catalog.Enrich(summary, "library", "21-jdk", catalog.SourceLastUpdated)
	require.NoError(t, err)
	assert.Equal(t, "21-jdk", e.Tag)
	assert.Equal(t, "docker.io/library/eclipse-temurin:21-jdk", e.Reference)
	assert.Equal(t, catalog.SourceLastUpdated, e.Source)
	assert.Equal(t, summary, e.ImageSummary)
}

func TestEnrich_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		image string
		tag   string
	}{
		{name: "empty tag", image: "nginx", tag: ""},
		{name: "tag with slash", image: "nginx", tag: "a/b"},
		{name: "uppercase repository", image: "NGINX", tag: "latest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := catalog.Enrich(catalog.ImageSummary{Name: tt.image}, "library", tt.tag, catalog.SourceDefault)
			require.Error(t, err)
			assert.ErrorIs(t, err, catalog.ErrInvalidReference)
		})
	}
}

func TestRecord(t *testing.T) {
	t.Parallel()

	e := catalog.EnrichedImage{
		ImageSummary: catalog.ImageSummary{Name: "redis", Description: "cache", StarCount: 3, PullCount: 4},
		Tag:          "latest",
		Reference:    "docker.io/library/redis:latest",
		Source:       catalog.SourceDefault,
	}

	r := e.Record()
	assert.Equal(t, "redis", r["name"])
	assert.Equal(t, "cache", r["description"])
	assert.Equal(t, 3, r["star_count"])
	assert.Equal(t, int64(4), r["pull_count"])
	assert.Equal(t, "latest", r["tag"])
	assert.Equal(t, "docker.io/library/redis:latest", r["reference"])
	assert.Equal(t, "default", r["source"])
}
