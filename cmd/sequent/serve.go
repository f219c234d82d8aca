package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zoobzio/sequent"
	"github.com/zoobzio/sequent/internal/config"
	"github.com/zoobzio/sequent/internal/llm"
	"github.com/zoobzio/sequent/internal/logging"
	"github.com/zoobzio/sequent/internal/metrics"
	"github.com/zoobzio/sequent/internal/registry"
	"github.com/zoobzio/sequent/internal/server"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on the configured transport",
		RunE:  a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, a.cfg)
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(logging.Options{Folder: cfg.LogFolder, Debug: cfg.Debug})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	bridge := logging.NewBridge(logger)
	defer bridge.Close()

	m := metrics.New()
	defer m.Close()

	var journal sequent.Journal
	if cfg.DatabaseURL != "" {
		db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer func() { _ = db.Close() }()

		journal, err = sequent.NewSoyJournal(db)
		if err != nil {
			return err
		}
		logger.Info("step journal enabled")
	}

	coordinator := coordinators(cfg, logger)
	sessions := registry.New(cfg.SessionIdleTimeout, func(ctx context.Context, id string) *sequent.Session {
		s := sequent.NewSession(ctx, id, coordinator()).
			WithDelegateTimeout(cfg.DelegateTimeout).
			WithDelegateBackoff(cfg.DelegateAttempts, sequent.DefaultDelegateBackoff)
		if journal != nil {
			s = s.WithJournal(journal)
		}
		return s
	})
	defer sessions.Close(context.Background())

	logger.Info("starting sequent",
		zap.String("transport", cfg.Transport),
		zap.String("provider", cfg.Provider),
		zap.String("team_model", cfg.TeamModelID()),
	)

	return server.Run(ctx, cfg, server.Deps{
		Registry:  sessions,
		Logger:    logger,
		Metrics:   m,
		SDKLogger: logging.SDKLogger(cfg.Debug, nil),
	})
}

// coordinators returns a constructor for per-session coordinators. Model
// coordinators keep a conversation, so each session gets its own.
func coordinators(cfg config.Config, logger *zap.Logger) func() sequent.Coordinator {
	if !cfg.UsesModel() {
		logger.Warn("using the echo coordinator; thoughts are not sent to a model")
		return func() sequent.Coordinator { return sequent.EchoCoordinator{} }
	}

	provider := llm.New(cfg.Provider, cfg.ProviderBaseURL(), cfg.APIKey(), cfg.TeamModelID())
	return func() sequent.Coordinator {
		return sequent.NewSynapseCoordinator(provider).WithWindow(cfg.SessionWindow)
	}
}
