package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"mcp-okta-support/internal/config"
	"mcp-okta-support/internal/okta"
	"mcp-okta-support/pkg/logging"
)

// Server wraps the Okta client and exposes its operations via MCP.
type Server struct {
	client    *okta.Client
	settings  *config.Settings
	mcpServer *server.MCPServer
	transport string
}

// New creates an MCP server exposing Okta support tooling over the given
// client. The transport is either "stdio" or "streamable-http".
func New(client *okta.Client, settings *config.Settings, transport string) *Server {
	mcpServer := server.NewMCPServer(
		settings.ServerName,
		settings.ServerVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithPromptCapabilities(false),
	)

	s := &Server{
		client:    client,
		settings:  settings,
		mcpServer: mcpServer,
		transport: transport,
	}

	s.registerUserTools()
	s.registerApplicationTools()
	s.registerLogTools()
	s.registerResources()
	s.registerPrompts()

	logging.Info("Server", "MCP server initialized (transport=%s)", transport)
	return s
}

// Start serves MCP requests until the transport shuts down or ctx is
// cancelled.
func (s *Server) Start(ctx context.Context, listenAddr string) error {
	switch s.transport {
	case "stdio":
		return s.serveStdio(ctx, os.Stdin, os.Stdout)
	case "streamable-http":
		httpServer := server.NewStreamableHTTPServer(
			s.mcpServer,
			server.WithEndpointPath("/mcp"),
		)
		errCh := make(chan error, 1)
		go func() {
			if err := httpServer.Start(listenAddr); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
		logging.Info("Server", "listening on %s", listenAddr)

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		}
	default:
		return fmt.Errorf("unsupported server transport: %s", s.transport)
	}
}

// serveStdio runs the stdio transport until the input closes or ctx is
// cancelled.
func (s *Server) serveStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
}
