package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nidohq/nido-sync/internal/action"
	"github.com/nidohq/nido-sync/internal/adapter/repository/postgres"
	"github.com/nidohq/nido-sync/internal/api"
	"github.com/nidohq/nido-sync/internal/channel"
	"github.com/nidohq/nido-sync/internal/classifier"
	"github.com/nidohq/nido-sync/internal/config"
	"github.com/nidohq/nido-sync/internal/domain/event"
	"github.com/nidohq/nido-sync/internal/domain/integration"
	"github.com/nidohq/nido-sync/internal/domain/message"
	"github.com/nidohq/nido-sync/internal/queue"
	syncpkg "github.com/nidohq/nido-sync/internal/sync"
	"github.com/nidohq/nido-sync/pkg/calendarclient"
	"github.com/nidohq/nido-sync/pkg/db"
	zaplog "github.com/nidohq/nido-sync/pkg/log"
	"github.com/nidohq/nido-sync/pkg/snowflake"
	"github.com/nidohq/nido-sync/sql/migrations"
)

// RunServer starts the HTTP server and background workers.
func RunServer() {
	app := fx.New(
		fx.Provide(
			// Config
			config.Load,

			// Infrastructure (Adapters)
			calendarclient.NewFromEnv,

			// Durable stores (Bind Interfaces)
			fx.Annotate(
				queue.NewGormStore,
				fx.As(new(queue.Store)),
			),
			fx.Annotate(
				postgres.NewEventRepository,
				fx.As(new(event.Repository)),
			),
			fx.Annotate(
				postgres.NewIntegrationStore,
				fx.As(new(integration.Store)),
			),
			fx.Annotate(
				postgres.NewMessageStore,
				fx.As(new(message.Store)),
			),
			fx.Annotate(
				postgres.NewChannelStore,
				fx.As(new(channel.Store)),
			),

			// Classification & actions
			fx.Annotate(
				classifier.NewRules,
				fx.As(new(classifier.Strategy)),
			),
			fx.Annotate(
				action.NewCalendarActions,
				fx.As(new(action.DomainActions)),
			),
			fx.Annotate(
				action.NewLoggingSimpleActions,
				fx.As(new(action.SimpleActions)),
			),
			fx.Annotate(
				action.NewLoggingNotifier,
				fx.As(new(action.Notifier)),
			),
			action.NewExecutor,

			// Sync
			fx.Annotate(
				syncpkg.NewOutbound,
				fx.As(new(action.EventPusher)),
			),
			syncpkg.NewReconciler,

			// Queue & channels
			queue.NewService,
			queue.NewProcessor,
			channel.NewManager,

			// API
			api.NewRouter,
		),
		db.Module,        // Database Module
		snowflake.Module, // Snowflake ID Module
		zaplog.Module,    // Logger Module
		fx.Invoke(registerHooks),
	)

	app.Run()
}

// RunMigrations executes database migrations (up or down).
func RunMigrations(command string) error {
	if command == "" {
		command = "up"
	}

	cfg := config.Load()
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting database migration...", zap.String("command", command))

	dbURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	d, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migration files: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, dbURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	switch command {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("migration up failed: %w", err)
		}
		logger.Info("Migration up applied")
	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Info("Migration down applied")
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}

	return nil
}

func registerHooks(lc fx.Lifecycle, router *api.Router, processor *queue.Processor, manager *channel.Manager, cfg *config.Config, logger *zap.Logger) {
	var processorCancel context.CancelFunc
	var renewalCancel context.CancelFunc

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting HTTP server", zap.String("port", cfg.Port))

			// The durable store is authoritative; rebuild the channel cache
			// before any renewal or webhook traffic depends on it.
			if err := manager.LoadExisting(ctx); err != nil {
				return err
			}

			processorCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
			processorCancel = cancel
			go processor.Run(processorCtx)

			renewalCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
			renewalCancel = cancel
			go manager.Run(renewalCtx)

			go func() {
				if err := router.Run(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("Server failed to start", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server gracefully...")

			if processorCancel != nil {
				processorCancel()
			}
			if renewalCancel != nil {
				renewalCancel()
			}

			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			if err := router.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server forced to shutdown", zap.Error(err))
				return err
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		},
	})
}
