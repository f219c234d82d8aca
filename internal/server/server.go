// Package server exposes sequent sessions as an MCP tool over stdio or
// streamable HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/zoobzio/sequent/internal/config"
	"github.com/zoobzio/sequent/internal/metrics"
	"github.com/zoobzio/sequent/internal/registry"
)

// Service identity reported to MCP clients and on the HTTP root.
const (
	ImplementationName = "HighfeatureMcpServerSequentialThinking"
	ServiceName        = "Highfeature Sequential Thinking MCP Service"
	Version            = "1.0.0"
)

const instructions = "Call the sequentialthinking tool once per thought. " +
	"Start with an estimate of at least 5 thoughts, revise or branch when the " +
	"coordinator recommends it, and set nextThoughtNeeded to false only on the final thought."

// Deps are the collaborators shared by every transport.
type Deps struct {
	Registry  *registry.Registry
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	SDKLogger *slog.Logger
}

// New builds the MCP server with the thinking tool and starter prompt.
func New(deps Deps) *mcp.Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ImplementationName,
		Version: Version,
	}, &mcp.ServerOptions{
		Instructions: instructions,
		Logger:       deps.SDKLogger,
	})

	h := &handler{
		registry: deps.Registry,
		logger:   deps.Logger.Named("tool"),
	}
	mcp.AddTool(server, ThinkingTool(), h.think)
	server.AddPrompt(StarterPrompt(), startPrompt)
	return server
}

// Run serves MCP on the configured transport and blocks until ctx ends.
func Run(ctx context.Context, cfg config.Config, deps Deps) error {
	server := New(deps)

	switch cfg.Transport {
	case "", config.TransportStdio:
		return runStdio(ctx, server)
	case config.TransportHTTP:
		return runHTTP(ctx, cfg, server, deps)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

func runStdio(ctx context.Context, server *mcp.Server) error {
	err := server.Run(ctx, &mcp.StdioTransport{})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
