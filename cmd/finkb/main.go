// Command finkb is the entry point for the FinKB financial knowledge base
// assistant. It provides a CLI interface (via Cobra) and an optional HTTP
// server exposing the assistant and the knowledge base over REST/SSE.
package main

import (
	"fmt"
	"os"

	"github.com/finkb/finkb-go/cmd/finkb/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
