package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finkb/finkb-go/internal/logging"
)

// NewSearchCmd constructs the `finkb search` command, a direct knowledge
// base lookup that bypasses the agent loop. Useful for inspecting what the
// assistant would retrieve for a given query.
func NewSearchCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the knowledge base directly",
		Long: `Run a similarity search against the knowledge base and print the
retrieved documents with their scores. No chat model is involved.

Examples:
  finkb search "personal loan interest rate"
  finkb search --top-k 5 "early repayment"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			store, _, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer store.Close()

			docs, err := store.Query(ctx, args[0], topK)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			if len(docs) == 0 {
				fmt.Println("No matching documents.")
				return nil
			}

			for i, doc := range docs {
				fmt.Printf("--- %d. %s (score %.4f)\n%s\n\n", i+1, doc.ID, doc.Score, doc.Content)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", 3, "Number of documents to retrieve")

	return cmd
}
