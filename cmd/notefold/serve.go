package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/notefold/notefold.go/internal/noteserver"
)

var (
	serveAddr   string
	serveSecret string
)

// serveCmd runs the in-memory fake note service, handy for trying the CLI
// without a real backend. Hidden: it is not part of the client proper.
var serveCmd = &cobra.Command{
	Use:    "serve",
	Short:  "Run an in-memory demo note service",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		srv := noteserver.New(serveSecret, noteserver.WithLogger(newLogger()))
		fmt.Printf("demo note service listening on %s\n", serveAddr)
		return http.ListenAndServe(serveAddr, srv.Handler())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8787", "Listen address")
	serveCmd.Flags().StringVar(&serveSecret, "secret", "notefold-demo", "Token signing secret")
	rootCmd.AddCommand(serveCmd)
}
