// Package cmd defines the CLI commands for imagereport.
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/imagereport/internal/config"
	"github.com/donaldgifford/imagereport/internal/credentials"
	"github.com/donaldgifford/imagereport/internal/generate"
	"github.com/donaldgifford/imagereport/internal/ui"
)

var (
	verbose bool
	noColor bool
	cfgFile string
	envFile string
)

// rootCmd is the base command for the imagereport CLI.
var rootCmd = &cobra.Command{
	Use:   "imagereport",
	Short: "Generate a workflow covering every official Docker Hub image",
	Long: `Imagereport lists the official images of the Docker Hub library namespace,
drops the ones on the deny-list, picks one tag per image and renders a
workflow file from a template.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		initLogger()
	},
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)

	// generate has already reported drift as a warning.
	if err != nil && !errors.Is(err, generate.ErrOutdated) {
		ui.NewWriter(noColor).Error(err)
	}

	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/imagereport/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with credentials and IMAGEREPORT_* settings")
}

func initLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// environment returns the process environment layered over --env-file.
func environment() (func(string) (string, bool), error) {
	return credentials.Environment(envFile, os.LookupEnv)
}

// loadConfig reads --config, or the default path, with environment overrides.
func loadConfig(lookup func(string) (string, bool)) (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}

	return config.Load(path, lookup)
}
