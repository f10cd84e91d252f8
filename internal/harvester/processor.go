package harvester

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/imgur-harvester/internal/domain"
	"github.com/samvad-hq/imgur-harvester/internal/logger"
	"github.com/samvad-hq/imgur-harvester/pkg/imgur"
	"github.com/samvad-hq/imgur-harvester/pkg/publishers"
	"github.com/samvad-hq/imgur-harvester/pkg/sources"
)

// SourceProcessor runs one harvest pass for a single source.
type SourceProcessor struct {
	registry  sources.FetcherRegistry
	publisher EventPublisher
	log       logger.Logger
	deduper   Deduper
	metrics   Recorder
}

// NewSourceProcessor wires a processor. A nil log discards output; a nil
// deduper publishes every image on every pass.
func NewSourceProcessor(reg sources.FetcherRegistry, pub EventPublisher, log logger.Logger, deduper Deduper) *SourceProcessor {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &SourceProcessor{registry: reg, publisher: pub, log: log, deduper: deduper, metrics: nopRecorder{}}
}

// Process fetches the source and publishes images not seen before.
func (p *SourceProcessor) Process(ctx context.Context, src sources.Source) error {
	fetcher, err := p.registry.FetcherFor(src)
	if err != nil {
		return fmt.Errorf("resolve fetcher for source %s: %w", src.ID, err)
	}

	images, err := fetcher.Fetch(ctx, src)
	if err != nil {
		p.logFetchError(src, err)
		p.metrics.IncFetchError(src.ID, imgur.KindOf(err).String())
		return fmt.Errorf("fetch source %s: %w", src.ID, err)
	}

	p.metrics.AddFetched(src.ID, len(images))
	fresh := p.filterNewImages(src, images)
	published, err := p.publish(ctx, src, fresh)
	p.metrics.AddPublished(src.ID, published)

	p.log.InfoObj("source harvest completed", "source_result", map[string]any{
		"source_id":        src.ID,
		"images_fetched":   len(images),
		"images_new":       len(fresh),
		"images_published": published,
	})
	return err
}

func (p *SourceProcessor) logFetchError(src sources.Source, err error) {
	fields := map[string]any{
		"source_id": src.ID,
		"imgur_id":  src.ImgurID,
		"kind":      imgur.KindOf(err).String(),
		"error":     err.Error(),
	}
	if apiErr, ok := imgur.AsAPIError(err); ok {
		fields["api_request"] = apiErr.Request
		fields["api_method"] = apiErr.Method
		fields["api_error"] = apiErr.Message
	}
	p.log.ErrorObj("source fetch failed", "source_error", fields)
}

// filterNewImages drops images already marked. Lookup failures keep the image.
func (p *SourceProcessor) filterNewImages(src sources.Source, images []domain.Image) []domain.Image {
	if p.deduper == nil {
		return images
	}

	out := make([]domain.Image, 0, len(images))
	for _, img := range images {
		seen, err := p.deduper.SeenImage(src.ID, img.ID)
		if err != nil {
			p.log.WarnObj("seen lookup failed; treating image as new", "dedup_error", map[string]any{
				"source_id": src.ID,
				"image_id":  img.ID,
				"error":     err.Error(),
			})
			out = append(out, img)
			continue
		}
		if !seen {
			out = append(out, img)
		}
	}
	return out
}

// publish sends each image and marks it once any publisher accepted it.
func (p *SourceProcessor) publish(ctx context.Context, src sources.Source, images []domain.Image) (int, error) {
	if p.publisher == nil || len(images) == 0 {
		return 0, nil
	}

	var errs []error
	published := 0
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return published, err
		}

		delivered, err := p.publisher.Publish(ctx, publishers.NewEvent(src.ID, src.Name, img))
		if err != nil {
			errs = append(errs, fmt.Errorf("publish image %s: %w", img.ID, err))
		}
		if delivered == 0 {
			continue
		}
		published++
		if p.deduper != nil {
			if err := p.deduper.MarkImage(src.ID, img.ID); err != nil {
				errs = append(errs, fmt.Errorf("mark image %s: %w", img.ID, err))
			}
		}
	}
	return published, errors.Join(errs...)
}
