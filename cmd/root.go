package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mcp-okta-support/internal/config"
	"mcp-okta-support/internal/okta"
	"mcp-okta-support/internal/server"
	"mcp-okta-support/pkg/logging"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

var (
	version    string
	configPath string
	transport  string
	listenAddr string
	logLevel   string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mcp-okta-support",
	Short: "MCP server for Okta support operations",
	Long: `mcp-okta-support is an MCP (Model Context Protocol) server that exposes
Okta identity-provider support operations to AI assistants.

It provides tools for:
- User management: look up users, update profiles, unlock accounts,
  reset passwords, re-send activation emails
- Application management: list and inspect applications, change their
  configuration, manage user assignments
- System logs: search events, track failed logins, summarize recent
  org activity

Configuration comes from a YAML file (--config) and OKTA_* / MCP_*
environment variables, with the environment taking precedence. The server
needs either an Okta API token (OKTA_API_TOKEN) or OAuth client
credentials (OKTA_CLIENT_ID / OKTA_CLIENT_SECRET).

By default the server speaks MCP over stdio for integration with AI
assistants. Use --transport streamable-http to serve over HTTP instead.`,
	RunE: runServer,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// SetVersion sets the version for the application
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML configuration file (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging (shorthand for --log-level debug)")

	rootCmd.Flags().StringVar(&transport, "transport", transportStdio, "Transport protocol for the MCP server (stdio, streamable-http)")
	rootCmd.Flags().StringVar(&listenAddr, "listen-addr", ":8090", "Listen address for streamable-http transport (path is fixed to /mcp)")

	rootCmd.AddCommand(newSelfUpdateCmd())
}

// loadSettings builds the effective configuration from file, environment,
// and flags.
func loadSettings() (*config.Settings, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	settings.ServerVersion = version
	if verbose {
		settings.LogLevel = "debug"
	} else if logLevel != "" {
		settings.LogLevel = logLevel
	}

	return settings, nil
}

// initLogging configures the process-wide logger. Stdio transport keeps
// stdout clean for the MCP protocol, so logs go to stderr.
func initLogging(settings *config.Settings) {
	logging.Init(logging.ParseLevel(settings.LogLevel), os.Stderr)
}

// setupSignalHandler sets up graceful shutdown on interrupt signals
func setupSignalHandler(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logging.Info("CLI", "received interrupt signal, shutting down")
		cancel()
	}()
}

func validateTransport() error {
	if transport != transportStdio && transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport '%s' (stdio, streamable-http)", transport)
	}
	return nil
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := validateTransport(); err != nil {
		return err
	}

	settings, err := loadSettings()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	initLogging(settings)

	client, err := okta.NewClient(settings)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	setupSignalHandler(cancel)

	srv := server.New(client, settings, transport)

	logging.Info("CLI", "starting %s %s (transport: %s)", settings.ServerName, version, transport)
	if err := srv.Start(ctx, listenAddr); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
