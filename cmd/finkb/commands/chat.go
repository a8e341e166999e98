package commands

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/finkb/finkb-go/internal/logging"
	"github.com/finkb/finkb-go/internal/tracing"
)

// NewChatCmd constructs the `finkb chat` command, an interactive REPL for
// multi-turn conversations with the assistant.
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session with the assistant",
		Long: `Start an interactive multi-turn conversation with the FinKB assistant.

Conversation history is kept in memory for the session only. Type "quit" or
"exit" (or press Ctrl-D) to leave.

Examples:
  finkb chat
  MODEL_NAME=qwen-max finkb chat`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			// Langfuse tracing is opt-in; no-op when keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			}

			store, _, err := buildStore(ctx, log)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}
			defer store.Close()

			assistant, err := buildAssistant(ctx, store, log)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}

			fmt.Println("FinKB assistant ready. Type 'quit' or 'exit' to leave.")

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("\nyou> ")
				if !scanner.Scan() {
					fmt.Println()
					return scanner.Err()
				}

				input := strings.TrimSpace(scanner.Text())
				if input == "" {
					continue
				}
				if input == "quit" || input == "exit" {
					fmt.Println("bye")
					return nil
				}

				fmt.Print("finkb> ")
				if err := assistant.Query(ctx, input, os.Stdout); err != nil {
					fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
					continue
				}
				fmt.Println()
			}
		},
	}
}
