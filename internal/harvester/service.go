// Package harvester runs harvest passes over the configured Imgur sources.
package harvester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/imgur-harvester/internal/logger"
	"github.com/samvad-hq/imgur-harvester/pkg/sources"
)

// Service coordinates harvesting across multiple sources.
type Service struct {
	processor *SourceProcessor
	log       logger.Logger
}

// NewService wires a harvester with the fetcher registry, publisher and store.
func NewService(reg sources.FetcherRegistry, pub EventPublisher, log logger.Logger, deduper Deduper) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Service{
		processor: NewSourceProcessor(reg, pub, log, deduper),
		log:       log,
	}
}

// UseMetrics routes harvest counters to rec. A nil rec disables recording.
func (s *Service) UseMetrics(rec Recorder) {
	if rec == nil {
		rec = nopRecorder{}
	}
	s.processor.metrics = rec
}

// Run executes one harvest pass over srcs. Sources are processed in order;
// failures are collected and the pass continues.
func (s *Service) Run(ctx context.Context, srcs []sources.Source) error {
	if s == nil || s.processor == nil || s.processor.registry == nil {
		return fmt.Errorf("harvester service is not initialized")
	}
	if len(srcs) == 0 {
		return fmt.Errorf("no sources configured for harvesting")
	}

	start := time.Now()
	errs := s.runAll(ctx, srcs)
	s.processor.metrics.ObservePass(time.Since(start))
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *Service) runAll(ctx context.Context, srcs []sources.Source) []error {
	errs := make([]error, 0, len(srcs))

	for _, src := range srcs {
		if ctx.Err() != nil {
			s.log.WarnObj("harvest pass interrupted", "reason", ctx.Err().Error())
			break
		}
		if err := s.processor.Process(ctx, src); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
