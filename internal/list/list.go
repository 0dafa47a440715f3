// Package list implements the imagereport list command for browsing the
// resolved catalog.
package list

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/donaldgifford/imagereport/internal/catalog"
)

// Opts configures the list operation.
type Opts struct {
	// Images are the resolved images to print, in catalog order.
	Images []catalog.EnrichedImage
	// SourceFilter limits output to images whose tag was chosen this way.
	SourceFilter string
	// OutputFormat is "table" (or "text") or "json".
	OutputFormat string
	// Writer is the output destination.
	Writer io.Writer
}

// ImageInfo represents an image in list output.
type ImageInfo struct {
	Name        string `json:"name"`
	Tag         string `json:"tag"`
	Reference   string `json:"reference"`
	Source      string `json:"source"`
	Description string `json:"description"`
	StarCount   int    `json:"star_count"`
	PullCount   int64  `json:"pull_count"`
}

// Run prints the images.
func Run(opts *Opts) error {
	images := filterBySource(opts.Images, opts.SourceFilter)

	switch opts.OutputFormat {
	case "json":
		return renderJSON(opts.Writer, images)
	case "", "table", "text":
		return renderTable(opts.Writer, images)
	default:
		return fmt.Errorf("unknown output format %q (want table or json)", opts.OutputFormat)
	}
}

func filterBySource(images []catalog.EnrichedImage, source string) []catalog.EnrichedImage {
	if source == "" {
		return images
	}

	return lo.Filter(images, func(img catalog.EnrichedImage, _ int) bool {
		return strings.EqualFold(string(img.Source), source)
	})
}

func renderTable(w io.Writer, images []catalog.EnrichedImage) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, "NAME\tTAG\tSOURCE\tSTARS\tPULLS\tDESCRIPTION"); err != nil {
		return err
	}

	for i := range images {
		img := &images[i]

		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			img.Name, img.Tag, img.Source,
			humanize.Comma(int64(img.StarCount)), humanize.SIWithDigits(float64(img.PullCount), 1, ""),
			img.Description,
		); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func renderJSON(w io.Writer, images []catalog.EnrichedImage) error {
	infos := lo.Map(images, func(img catalog.EnrichedImage, _ int) ImageInfo {
		return ImageInfo{
			Name:        img.Name,
			Tag:         img.Tag,
			Reference:   img.Reference,
			Source:      string(img.Source),
			Description: img.Description,
			StarCount:   img.StarCount,
			PullCount:   img.PullCount,
		}
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(infos)
}
