package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oraculo-ai/oraculo/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "oraculod",
		Short: "Oraculo daemon and CLI",
		Long:  "Oraculo daemon for serving the investment agent API and managing the knowledge base",
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.IngestCmd())
	rootCmd.AddCommand(cli.SessionsCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
