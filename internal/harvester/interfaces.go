package harvester

import (
	"context"
	"time"

	"github.com/samvad-hq/imgur-harvester/pkg/publishers"
)

// EventPublisher publishes new-image events downstream and reports how many sinks accepted each.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Deduper remembers which images were already published for a source.
type Deduper interface {
	SeenImage(sourceID, imageID string) (bool, error)
	MarkImage(sourceID, imageID string) error
}

// Recorder receives harvest counters. *metrics.HarvestMetrics satisfies it.
type Recorder interface {
	AddFetched(sourceID string, n int)
	AddPublished(sourceID string, n int)
	IncFetchError(sourceID, kind string)
	ObservePass(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) AddFetched(string, int)       {}
func (nopRecorder) AddPublished(string, int)     {}
func (nopRecorder) IncFetchError(string, string) {}
func (nopRecorder) ObservePass(time.Duration)    {}
