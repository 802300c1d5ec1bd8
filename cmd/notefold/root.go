package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	notefold "github.com/notefold/notefold.go"
	"github.com/notefold/notefold.go/pkg/config"
	"github.com/notefold/notefold.go/pkg/credstore"
	"github.com/notefold/notefold.go/pkg/logger"
)

var (
	configPath string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notefold",
	Short: "A personal note-taking client backed by a remote store",
	Long: `Notefold keeps short text notes under your account on a remote
note service. Sign in once; notes are fetched, created, edited, and
deleted against the remote store, which is the single source of truth.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

func newLogger() logger.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	return logger.FromZerolog(zl)
}

// consoleNotifier renders outcome notifications on the terminal.
type consoleNotifier struct{}

func (consoleNotifier) Success(msg string) { fmt.Println(msg) }
func (consoleNotifier) Error(msg string)   { fmt.Fprintln(os.Stderr, "Error: "+msg) }

// printRedirector hands the OAuth authorization URL to the user; the flow
// completes in the browser and the callback token is logged in separately.
type printRedirector struct{}

func (printRedirector) Redirect(_ context.Context, url string) error {
	fmt.Println("Open this URL in your browser to continue:")
	fmt.Println("  " + url)
	return nil
}

// openClient loads configuration, builds the client, and resolves the
// persisted session.
func openClient(ctx context.Context) (*notefold.Client, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	client, err := notefold.New(notefold.Options{
		BaseURL:    cfg.ServiceURL,
		TokenCache: credstore.NewFile(cfg.TokenPath),
		Redirector: printRedirector{},
		RedirectTo: cfg.OAuthRedirectTo,
		Notifier:   consoleNotifier{},
		Logger:     newLogger(),
	})
	if err != nil {
		return nil, nil, err
	}
	if err := client.Open(ctx); err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

// requireSession fails fast when no one is signed in.
func requireSession(client *notefold.Client) error {
	if client.Sessions.Session() == nil {
		return fmt.Errorf("not signed in; run `notefold login` first")
	}
	return nil
}
