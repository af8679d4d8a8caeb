package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"floatsync/internal/config"
	"floatsync/internal/floatplane"
	"floatsync/internal/history"
	"floatsync/internal/logging"
	"floatsync/internal/predicate"
	"floatsync/internal/retention"
	"floatsync/internal/services"
	"floatsync/internal/subscription"
	"floatsync/internal/ttlcache"
)

// runtime holds the collaborators shared by commands that touch state. Only
// one runtime may be open per state directory at a time.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
	runID  string

	lock    *flock.Flock
	http    *http.Client
	cache   ttlcache.Store
	client  *floatplane.Client
	catalog *floatplane.Catalog
	history *history.Store
	engine  *predicate.Engine
}

// openRuntime locks the state directory and opens the cache and history
// stores. The returned context carries the run id.
func (c *commandContext) openRuntime(ctx context.Context) (*runtime, context.Context, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, ctx, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, ctx, err
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	rt := &runtime{
		cfg:    cfg,
		logger: logging.WithContext(ctx, logger),
		runID:  runID,
		http:   &http.Client{Timeout: time.Duration(cfg.Floatplane.RequestTimeoutSeconds) * time.Second},
		engine: predicate.NewEngine(),
	}

	rt.lock = flock.New(cfg.LockPath())
	locked, err := rt.lock.TryLock()
	if err != nil {
		return nil, ctx, fmt.Errorf("acquire state lock: %w", err)
	}
	if !locked {
		return nil, ctx, fmt.Errorf("state lock %s is held by another floatsync process", cfg.LockPath())
	}

	if err := rt.open(ctx); err != nil {
		rt.Close()
		return nil, ctx, err
	}
	return rt, ctx, nil
}

func (rt *runtime) open(ctx context.Context) error {
	cfg := rt.cfg
	switch cfg.Cache.Backend {
	case config.CacheBackendJSON:
		rt.cache = ttlcache.OpenFile(cfg.CachePath(), rt.logger)
	default:
		store, err := ttlcache.OpenSQLite(ctx, cfg.CachePath())
		if err != nil {
			return err
		}
		rt.cache = store
	}

	client, err := floatplane.NewClient(cfg.Floatplane.BaseURL, cfg.Floatplane.SailsSID,
		floatplane.WithHTTPClient(rt.http),
		floatplane.WithRateLimit(cfg.Floatplane.RequestsPerSecond),
		floatplane.WithUserAgent(cfg.Floatplane.UserAgent),
	)
	if err != nil {
		return err
	}
	rt.client = client

	catalog, err := floatplane.NewCatalog(ctx, client, rt.cache, floatplane.CatalogOptions{
		PostTTL:       time.Duration(cfg.Floatplane.PostCacheTTLMinutes) * time.Minute,
		AttachmentTTL: time.Duration(cfg.Floatplane.AttachmentCacheTTLMinutes) * time.Minute,
		Logger:        rt.logger,
	})
	if err != nil {
		return err
	}
	rt.catalog = catalog

	store, err := history.Open(ctx, cfg.HistoryPath())
	if err != nil {
		return err
	}
	rt.history = store
	return nil
}

// Close releases the stores and the state lock.
func (rt *runtime) Close() {
	if rt == nil {
		return
	}
	if rt.history != nil {
		if err := rt.history.Close(); err != nil {
			rt.logger.Warn("close history failed", logging.Error(err))
		}
	}
	if rt.cache != nil {
		if err := rt.cache.Close(); err != nil {
			rt.logger.Warn("close cache failed", logging.Error(err))
		}
	}
	if rt.lock != nil {
		_ = rt.lock.Unlock()
	}
}

// subscriptions builds the configured subscriptions, optionally narrowed to
// a single creator.
func (rt *runtime) subscriptions(creatorID string) ([]*subscription.Subscription, error) {
	creatorID = strings.TrimSpace(creatorID)
	configured := rt.cfg.Subscriptions
	if creatorID != "" {
		sub, ok := rt.cfg.Subscription(creatorID)
		if !ok {
			return nil, services.Wrap(services.ErrNotFound, "cli", "select subscription",
				fmt.Sprintf("creator %q is not configured", creatorID), nil)
		}
		configured = []config.Subscription{sub}
	}
	if len(configured) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "cli", "select subscription",
			"no subscriptions configured", nil)
	}

	deps := subscription.Deps{
		Pages:       rt.catalog,
		Attachments: rt.catalog,
		Engine:      rt.engine,
		Retention:   retention.NewEvaluator(nil),
		Logger:      rt.logger,
	}
	opts := subscription.Options{
		VideosToSearch:        rt.cfg.Floatplane.VideosToSearch,
		StripSubchannelPrefix: rt.cfg.Extras.StripSubchannelPrefix,
	}
	subs := make([]*subscription.Subscription, 0, len(configured))
	var errs []error
	for _, sub := range configured {
		built, err := subscription.New(sub, deps, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		subs = append(subs, built)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return subs, nil
}
