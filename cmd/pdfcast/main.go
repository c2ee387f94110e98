// Command pdfcast is the entry point for the pdfcast podcast generation
// engine. It provides a CLI interface (via Cobra) and an optional HTTP
// server exposing the generation API.
package main

import (
	"fmt"
	"os"

	"github.com/pdfcast/pdfcast-go/cmd/pdfcast/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
