// Package getter wraps hashicorp/go-getter for fetching workflow templates.
package getter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter/v2"
)

// Getter wraps go-getter to fetch sources from HTTP, git, S3 and other protocols.
type Getter struct {
	client *getter.Client
	logger *slog.Logger
}

// New creates a Getter with default configuration.
func New(logger *slog.Logger) *Getter {
	if logger == nil {
		logger = slog.Default()
	}

	return &Getter{
		client: &getter.Client{
			DisableSymlinks: true,
		},
		logger: logger,
	}
}

// FetchOpts configures a fetch operation.
type FetchOpts struct {
	// Checksum is appended as ?checksum=sha256: for verification.
	Checksum string

	// Pwd is the working directory for relative path detection.
	Pwd string
}

// FetchFile downloads a single file from src to dest.
func (g *Getter) FetchFile(ctx context.Context, src, dest string, opts FetchOpts) error {
	fullSrc := appendChecksum(src, opts.Checksum)
	g.logger.Debug("fetching file", "src", fullSrc, "dest", dest)

	req := &getter.Request{
		Src:             fullSrc,
		Dst:             dest,
		Pwd:             opts.Pwd,
		GetMode:         getter.ModeFile,
		Copy:            true,
		DisableSymlinks: true,
	}

	if _, err := g.client.Get(ctx, req); err != nil {
		return fmt.Errorf("fetching file %s: %w", src, err)
	}

	return nil
}

// Resolve returns a local path for the template source src. An existing
// local file is used in place unless a checksum is set; anything else is
// fetched into dir. Relative paths resolve against opts.Pwd, or the working
// directory when it is empty.
func (g *Getter) Resolve(ctx context.Context, src, dir string, opts FetchOpts) (string, error) {
	if opts.Pwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolving working directory: %w", err)
		}

		opts.Pwd = wd
	}

	local := src
	if !isURL(src) && !filepath.IsAbs(local) {
		local = filepath.Join(opts.Pwd, local)
	}

	if IsLocal(local) {
		if opts.Checksum == "" {
			return local, nil
		}

		src = local
	}

	dest := filepath.Join(dir, FileName(src))

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating template dir: %w", err)
	}

	if err := g.FetchFile(ctx, src, dest, opts); err != nil {
		return "", err
	}

	return dest, nil
}

// appendChecksum adds a checksum query parameter to a source URL.
func appendChecksum(src, checksum string) string {
	if checksum == "" {
		return src
	}

	sep := "?"
	if strings.Contains(src, "?") {
		sep = "&"
	}

	return src + sep + "checksum=sha256:" + checksum
}
