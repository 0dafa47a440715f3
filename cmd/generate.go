package cmd

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/imagereport/internal/generate"
	"github.com/donaldgifford/imagereport/internal/ui"
)

var (
	generateCreds       credentialFlags
	generateTemplate    string
	generateOutput      string
	generateDryRun      bool
	generateCheck       bool
	generateMetricsFile string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render the report workflow from the library catalog",
	Long: `Fetch every repository of the library namespace, drop the deny-listed
ones, resolve one tag per image and render the workflow template.

Without credentials the catalog is read anonymously. With --username and
--token (or DOCKERHUB_USERNAME and DOCKERHUB_TOKEN) imagereport logs in first.`,
	Aliases: []string{"gen"},
	Args:    cobra.NoArgs,
	RunE:    runGenerate,
}

func init() {
	generateCreds.register(generateCmd)
	generateCmd.Flags().StringVar(&generateTemplate, "template", "", "template path or go-getter URL (env IMAGEREPORT_TEMPLATE)")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "workflow file to write (env IMAGEREPORT_OUTPUT)")
	generateCmd.Flags().BoolVar(&generateDryRun, "dry-run", false, "print the workflow to stdout instead of writing it")
	generateCmd.Flags().BoolVar(&generateCheck, "check", false, "exit non-zero when the workflow on disk is out of date")
	generateCmd.Flags().StringVar(&generateMetricsFile, "metrics-file", "", "write run metrics in Prometheus text format")
	generateCmd.MarkFlagsMutuallyExclusive("dry-run", "check")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	lookup, err := environment()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(lookup)
	if err != nil {
		return err
	}

	if generateTemplate != "" {
		cfg.Template = generateTemplate
	}

	if generateOutput != "" {
		cfg.Output = generateOutput
	}

	creds, err := generateCreds.resolve(cmd, lookup)
	if err != nil {
		return err
	}

	result, err := generate.Run(cmd.Context(), &generate.Opts{
		Config:      cfg,
		Credentials: creds,
		DryRun:      generateDryRun,
		Check:       generateCheck,
		MetricsFile: generateMetricsFile,
		Stdout:      cmd.OutOrStdout(),
		Logger:      slog.Default(),
	})

	w := ui.NewWriter(noColor)

	switch {
	case errors.Is(err, generate.ErrOutdated):
		w.Outdated(cfg.Output)

		return err
	case err != nil:
		return err
	case generateCheck:
		w.UpToDate(cfg.Output)
	case result.Written:
		w.Generated(result.Output, len(result.Images))
	}

	return nil
}
