package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/samvad-hq/imgur-harvester/internal/config"
	"github.com/samvad-hq/imgur-harvester/internal/harvester"
	"github.com/samvad-hq/imgur-harvester/internal/logger"
	"github.com/samvad-hq/imgur-harvester/internal/metrics"
	"github.com/samvad-hq/imgur-harvester/internal/opsserver"
	"github.com/samvad-hq/imgur-harvester/internal/storage"
	"github.com/samvad-hq/imgur-harvester/pkg/imgur"
	"github.com/samvad-hq/imgur-harvester/pkg/publishers"
	"github.com/samvad-hq/imgur-harvester/pkg/sources"
)

// Harvester is the long-running runtime. It owns the poll loop, the seen-image
// store and the publisher fanout, and delegates each pass to harvester.Service.
type Harvester struct {
	cfg          *config.Config
	sourceReg    *sources.Registry
	fanout       *publishers.Fanout
	service      *harvester.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
	registry     *prometheus.Registry
	ops          *opsserver.Server
	passed       atomic.Bool
}

// NewHarvester builds a harvester runtime from config files.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.ImgurClientID == "" {
		return nil, fmt.Errorf("imgur_client_id is required")
	}

	client, err := imgur.New(cfg.HTTPConfig(), cfg.ImgurClientID,
		imgur.WithBaseURL(cfg.ImgurBaseURL),
		imgur.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("init imgur client: %w", err)
	}

	sourceReg, err := sources.LoadRegistry(cfg.SourcesFile)
	if err != nil {
		return nil, fmt.Errorf("load sources registry: %w", err)
	}
	sourceList := sourceReg.Enabled()
	sourceIDs := make([]string, 0, len(sourceList))
	for _, s := range sourceList {
		sourceIDs = append(sourceIDs, s.ID)
	}
	log.InfoObj("sources registry loaded", "sources_meta", map[string]any{
		"count": len(sourceIDs),
		"ids":   sourceIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		ImageTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
		RedisURL:        cfg.RedisURL,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"image_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	service := harvester.NewService(sources.DefaultFetcherRegistry(client), fanout, log, store)
	service.UseMetrics(metrics.NewHarvestMetrics(reg))

	h := &Harvester{
		cfg:          cfg,
		sourceReg:    sourceReg,
		fanout:       fanout,
		service:      service,
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
		registry:     reg,
	}

	if cfg.MetricsAddr != "" {
		ops, err := opsserver.Listen(cfg.MetricsAddr, opsserver.NewRouter(cfg.Env, reg, h.ready), log)
		if err != nil {
			h.close()
			return nil, fmt.Errorf("init ops server: %w", err)
		}
		h.ops = ops
	}
	return h, nil
}

// ready reports whether the first harvest pass has finished.
func (h *Harvester) ready() error {
	if !h.passed.Load() {
		return errors.New("first harvest pass not completed")
	}
	return nil
}

// OpsAddr returns the ops server address, or "" when it is disabled.
func (h *Harvester) OpsAddr() string {
	if h.ops == nil {
		return ""
	}
	return h.ops.Addr()
}

// Run starts the poll loop until the context is cancelled.
func (h *Harvester) Run(ctx context.Context) error {
	if h == nil || h.service == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	defer h.close()

	if h.ops != nil {
		opsCtx, stopOps := context.WithCancel(ctx)
		opsDone := make(chan struct{})
		go func() {
			defer close(opsDone)
			if err := h.ops.Serve(opsCtx); err != nil {
				h.log.ErrorObj("ops server failed", "error", err)
			}
		}()
		defer func() {
			stopOps()
			<-opsDone
		}()
	}

	srcs := h.sourceReg.Enabled()
	if len(srcs) == 0 {
		h.log.WarnObj("no sources enabled; harvester idle", "sources_file", h.cfg.SourcesFile)
		h.passed.Store(true)
		<-ctx.Done()
		return nil
	}

	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"sources_count":    len(srcs),
		"publishers_count": h.fanout.Size(),
		"poll_interval":    h.pollInterval.String(),
	})

	if err := h.runOnce(ctx, srcs); err != nil {
		h.log.ErrorObj("initial harvest failed", "error", err)
	}
	h.passed.Store(true)

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := h.runOnce(ctx, srcs); err != nil {
				h.log.ErrorObj("scheduled harvest failed", "error", err)
			}
		}
	}
}

func (h *Harvester) runOnce(ctx context.Context, srcs []sources.Source) error {
	start := time.Now()
	h.log.InfoObj("harvest started", "harvest_meta", map[string]any{
		"sources_count": len(srcs),
		"started_at":    start.UTC(),
	})
	if err := h.service.Run(ctx, srcs); err != nil {
		return err
	}
	h.log.InfoObj("harvest completed", "harvest_meta", map[string]any{
		"sources_count": len(srcs),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases the store and any publishers holding connections.
func (h *Harvester) close() {
	if h.store != nil {
		if err := h.store.Close(); err != nil {
			h.log.ErrorObj("storage close failed", "error", err)
		}
	}
	if h.fanout != nil {
		if err := h.fanout.Close(); err != nil {
			h.log.ErrorObj("publishers close failed", "error", err)
		}
	}
}
