// Package commands defines all Cobra CLI commands for the finkb binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/finkb/finkb-go/internal/audit"
	"github.com/finkb/finkb-go/internal/config"
	"github.com/finkb/finkb-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "finkb",
		Short: "FinKB — a financial products knowledge base assistant",
		Long: `FinKB is a retrieval-augmented customer service assistant for financial
products. It ingests product sheets and FAQ entries into a Qdrant vector
store and answers questions grounded in that knowledge base, falling back
to web search for live data.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.finkb/config.yaml).
See 'finkb --help' for available commands.`,
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

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.finkb/config.yaml)")

	root.AddCommand(
		NewChatCmd(),
		NewAskCmd(),
		NewIngestCmd(),
		NewSearchCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return root
}
