// Package commands defines all Cobra CLI commands for the pdfcast binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/pdfcast/pdfcast-go/internal/audit"
	"github.com/pdfcast/pdfcast-go/internal/config"
	"github.com/pdfcast/pdfcast-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pdfcast",
		Short: "pdfcast — turn documents into AI-narrated podcast conversations",
		Long: `pdfcast ingests a document into a vector index, synthesizes a two-host
podcast conversation grounded in the document's content, and optionally
narrates the transcript to audio.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.pdfcast/config.yaml).
See 'pdfcast --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.pdfcast/config.yaml)")

	root.AddCommand(
		NewGenerateCmd(),
		NewIngestCmd(),
		NewServeCmd(),
		NewCollectionsCmd(),
		NewVersionCmd(),
	)

	return root
}
