// Package generate orchestrates the imagereport generate workflow.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/donaldgifford/imagereport/internal/catalog"
	"github.com/donaldgifford/imagereport/internal/config"
	"github.com/donaldgifford/imagereport/internal/credentials"
	"github.com/donaldgifford/imagereport/internal/getter"
	"github.com/donaldgifford/imagereport/internal/hub"
	"github.com/donaldgifford/imagereport/internal/metrics"
	"github.com/donaldgifford/imagereport/internal/tags"
	tmpl "github.com/donaldgifford/imagereport/internal/template"
	"github.com/donaldgifford/imagereport/internal/workflow"
)

// ErrOutdated is returned in check mode when the workflow on disk differs
// from the freshly rendered one.
var ErrOutdated = errors.New("workflow is out of date")

// Opts holds the options for the generate command.
type Opts struct {
	// Config is the loaded configuration.
	Config *config.Config

	// Credentials select authenticated access. Empty means anonymous.
	Credentials credentials.Credentials

	// HTTPClient overrides the client used for registry requests.
	HTTPClient *http.Client

	// DryRun prints the workflow to Stdout instead of writing it.
	DryRun bool

	// Check compares the rendered workflow with the file on disk and writes nothing.
	Check bool

	// MetricsFile, when set, receives run metrics in the Prometheus text format.
	MetricsFile string

	// Stdout receives the dry-run output.
	Stdout io.Writer

	// Logger for progress output.
	Logger *slog.Logger
}

// Result holds the output of a successful generate run.
type Result struct {
	Images  []catalog.EnrichedImage
	Output  string
	Written bool
	Content []byte
}

// Run fetches the catalog, resolves tags, renders the workflow and writes it.
func Run(ctx context.Context, opts *Opts) (*Result, error) {
	if opts.DryRun && opts.Check {
		return nil, errors.New("dry-run and check are mutually exclusive")
	}

	logger := loggerFor(opts)
	started := time.Now()
	exporter := metrics.NewExporter()

	logger.Info("starting workflow")

	images, err := collect(ctx, opts, exporter)
	if err != nil {
		return nil, err
	}

	content, err := render(ctx, opts.Config, logger, images)
	if err != nil {
		return nil, err
	}

	result := &Result{Images: images, Output: opts.Config.Output, Content: content}

	switch {
	case opts.DryRun:
		out := opts.Stdout
		if out == nil {
			out = os.Stdout
		}

		if _, err := out.Write(content); err != nil {
			return nil, fmt.Errorf("writing workflow to stdout: %w", err)
		}
	case opts.Check:
		ok, err := workflow.UpToDate(opts.Config.Output, content)
		if err != nil {
			return nil, err
		}

		if !ok {
			return result, fmt.Errorf("%w: %s", ErrOutdated, opts.Config.Output)
		}

		logger.Info("workflow up to date", "path", opts.Config.Output)
	default:
		if err := workflow.Write(opts.Config.Output, content); err != nil {
			return nil, err
		}

		result.Written = true

		logger.Info("wrote workflow", "path", opts.Config.Output, "images", len(images))
	}

	if opts.MetricsFile != "" {
		exporter.ObserveSuccess(started, time.Now())

		if err := exporter.WriteTextfile(opts.MetricsFile); err != nil {
			return nil, err
		}
	}

	logger.Info("finished workflow", "duration", time.Since(started).Round(time.Millisecond))

	return result, nil
}

// Collect fetches the filtered catalog and resolves a tag for each image.
func Collect(ctx context.Context, opts *Opts) ([]catalog.EnrichedImage, error) {
	return collect(ctx, opts, nil)
}

func collect(ctx context.Context, opts *Opts, exporter *metrics.Exporter) ([]catalog.EnrichedImage, error) {
	if opts.Config == nil {
		return nil, errors.New("generate: config is required")
	}

	logger := loggerFor(opts)
	cfg := opts.Config

	client, err := newClient(ctx, opts, exporter)
	if err != nil {
		return nil, err
	}

	lister := &countingLister{lister: client}

	summaries, err := catalog.NewFetcher(lister, cfg.DenyList, logger).Fetch(ctx)
	if err != nil {
		return nil, err
	}

	images, err := tags.NewResolver(client, cfg.Namespace, cfg.DefaultTag, logger).Enrich(ctx, summaries)
	if err != nil {
		return nil, err
	}

	if exporter != nil {
		exporter.ObserveCatalog(lister.count, len(summaries))
		exporter.ObserveImages(images)
	}

	return images, nil
}

// newClient builds the registry client, logging in first when credentials
// were given.
func newClient(ctx context.Context, opts *Opts, exporter *metrics.Exporter) (*hub.Client, error) {
	cfg := opts.Config

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	if exporter != nil {
		instrumented := *httpClient
		instrumented.Transport = exporter.InstrumentTransport(httpClient.Transport)
		httpClient = &instrumented
	}

	client := hub.NewClient(cfg.APIURL,
		hub.WithHTTPClient(httpClient),
		hub.WithNamespace(cfg.Namespace),
		hub.WithPageSize(cfg.PageSize),
		hub.WithMaxRPS(cfg.MaxRPS),
		hub.WithLogger(loggerFor(opts)),
	)

	if opts.Credentials.Empty() {
		loggerFor(opts).Debug("using anonymous access")

		return client, nil
	}

	token, err := client.Login(ctx, opts.Credentials.Username, opts.Credentials.Token)
	if err != nil {
		return nil, err
	}

	loggerFor(opts).Info("logged in", "username", opts.Credentials.Username)

	return client.Authenticated(token), nil
}

// render resolves the template source and renders the workflow.
func render(ctx context.Context, cfg *config.Config, logger *slog.Logger, images []catalog.EnrichedImage) ([]byte, error) {
	dir, err := os.MkdirTemp("", "imagereport-template-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	defer func() { _ = os.RemoveAll(dir) }()

	path, err := getter.New(logger).Resolve(ctx, cfg.Template, dir, getter.FetchOpts{Checksum: cfg.TemplateChecksum})
	if err != nil {
		return nil, fmt.Errorf("resolving template: %w", err)
	}

	logger.Info("creating workflow file", "template", cfg.Template)

	return workflow.Render(tmpl.NewRenderer(), path, images)
}

func loggerFor(opts *Opts) *slog.Logger {
	if opts.Logger == nil {
		return slog.Default()
	}

	return opts.Logger
}

// countingLister remembers how many repositories the catalog returned before
// the deny-list was applied.
type countingLister struct {
	lister catalog.RepositoryLister
	count  int
}

func (l *countingLister) ListRepositories(ctx context.Context) ([]hub.Repository, error) {
	repos, err := l.lister.ListRepositories(ctx)
	l.count = len(repos)

	return repos, err
}
