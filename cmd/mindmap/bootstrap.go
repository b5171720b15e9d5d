package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/toM7x7/LLM-mindmap/pkg/ai"
	"github.com/toM7x7/LLM-mindmap/pkg/config"
	"github.com/toM7x7/LLM-mindmap/pkg/data"
	"github.com/toM7x7/LLM-mindmap/pkg/log"
	"github.com/toM7x7/LLM-mindmap/pkg/model"
	"github.com/toM7x7/LLM-mindmap/pkg/snapshot"
	"github.com/toM7x7/LLM-mindmap/pkg/storage"
)

// app holds the components shared by the serve and edit commands.
type app struct {
	cfg       *model.Config
	logger    *log.Logger
	store     *storage.Storage
	data      *data.DataManager
	bridge    *ai.Bridge
	snapshots snapshot.Store
	closers   []func() error
}

// bootstrap loads the configuration and initializes logger, storage, data manager,
// AI bridge and snapshot store, in that order.
func bootstrap(ctx context.Context) (*app, error) {
	if err := config.ConfigLoad(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := config.ConfigGet()

	logger, err := log.NewLogger(cfg, log.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &app{cfg: cfg, logger: logger}
	logger.Info(ctx, "Application started", log.Fields{"database": cfg.DatabaseType, "snapshots": cfg.SnapshotBackend})

	a.store, err = storage.NewStorage(cfg, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.closers = append(a.closers, a.store.Close)
	logger.Info(ctx, "Storage initialized", nil)

	a.data, err = data.NewDataManagerFromStorage(a.store, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize data manager: %w", err)
	}
	a.closers = append(a.closers, func() error { a.data.Close(); return nil })

	a.bridge, err = ai.NewBridge(newCompleter(ctx, cfg, logger), logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize AI bridge: %w", err)
	}

	if err := a.openSnapshots(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// newCompleter returns the rate-limited OpenAI completer, or nil when no key is configured.
func newCompleter(ctx context.Context, cfg *model.Config, logger *log.Logger) ai.Completer {
	completer, err := ai.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	if err != nil {
		logger.Warn(ctx, "AI features disabled", log.Fields{"error": err})
		return nil
	}
	if cfg.LLMRateLimit <= 0 {
		return completer
	}
	return ai.RateLimited(completer, rate.NewLimiter(rate.Limit(cfg.LLMRateLimit), cfg.LLMBurst))
}

func (a *app) openSnapshots(ctx context.Context) error {
	switch a.cfg.SnapshotBackend {
	case "redis":
		ttl := time.Duration(a.cfg.SnapshotTTLHours) * time.Hour
		rs, err := snapshot.NewRedisStore(a.cfg.RedisURL, ttl)
		if err != nil {
			return fmt.Errorf("failed to connect snapshot store: %w", err)
		}
		a.snapshots = rs
		a.closers = append(a.closers, rs.Close)
	default:
		a.snapshots = snapshot.NewSQLStore(a.store)
	}
	a.logger.Info(ctx, "Snapshot store initialized", log.Fields{"backend": a.cfg.SnapshotBackend})
	return nil
}

// Close releases components in reverse order of initialization.
func (a *app) Close() {
	ctx := context.Background()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error(ctx, "Failed to close component", log.Fields{"error": err})
		}
	}
	a.closers = nil
	a.logger.Info(ctx, "Application shutting down", nil)
	a.logger.Close()
}
