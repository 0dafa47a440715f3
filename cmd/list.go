package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/imagereport/internal/generate"
	"github.com/donaldgifford/imagereport/internal/list"
)

var (
	listCreds        credentialFlags
	listSource       string
	listOutputFormat string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the images and tags a workflow would contain",
	Long: `Fetch the library catalog and resolve tags exactly like generate, then
print the result instead of rendering the template. Use --source to show
only images whose default tag was missing.`,
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	listCreds.register(listCmd)
	listCmd.Flags().StringVar(&listSource, "source", "", "filter by tag source (default, last-updated)")
	listCmd.Flags().StringVar(&listOutputFormat, "output-format", "table", "output format (table, json)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	lookup, err := environment()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(lookup)
	if err != nil {
		return err
	}

	creds, err := listCreds.resolve(cmd, lookup)
	if err != nil {
		return err
	}

	images, err := generate.Collect(cmd.Context(), &generate.Opts{
		Config:      cfg,
		Credentials: creds,
		Logger:      slog.Default(),
	})
	if err != nil {
		return err
	}

	return list.Run(&list.Opts{
		Images:       images,
		SourceFilter: listSource,
		OutputFormat: listOutputFormat,
		Writer:       cmd.OutOrStdout(),
	})
}
