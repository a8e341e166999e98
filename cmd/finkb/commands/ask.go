package commands

import (
	"fmt"
	"os"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/finkb/finkb-go/internal/logging"
	"github.com/finkb/finkb-go/internal/tracing"
)

// NewAskCmd constructs the `finkb ask` command, which sends a single natural
// language question to the assistant and streams the response to stdout.
func NewAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the assistant a single question",
		Long: `Ask the FinKB assistant a single natural language question.

The assistant searches the knowledge base first and falls back to web
search (when BOCHA_API_KEY is set) for live data.

Examples:
  finkb ask "what is the interest rate on the personal loan?"
  finkb ask "how do I open a savings account?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
			}

			store, _, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer store.Close()

			assistant, err := buildAssistant(ctx, store, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			if err := assistant.Query(ctx, args[0], os.Stdout); err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			fmt.Println()
			return nil
		},
	}
}
