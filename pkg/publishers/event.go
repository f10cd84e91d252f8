package publishers

import (
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/imgur-harvester/internal/domain"
)

// Event represents the payload published downstream for a newly seen image.
type Event struct {
	ID          string       `json:"event_id"`
	SourceID    string       `json:"source_id"`
	SourceName  string       `json:"source_name"`
	Image       domain.Image `json:"image"`
	CollectedAt time.Time    `json:"collected_at"`
}

// NewEvent constructs an Event for the given source + image.
func NewEvent(sourceID, sourceName string, image domain.Image) Event {
	return Event{
		ID:          uuid.NewString(),
		SourceID:    sourceID,
		SourceName:  sourceName,
		Image:       image,
		CollectedAt: time.Now().UTC(),
	}
}

// Key identifies the image within its source. Unlike ID it is stable across
// passes, so sinks use it for deduplication.
func (e Event) Key() string {
	return e.SourceID + "/" + e.Image.ID
}

// Attributes are the routing fields every sink carries next to the body.
// Empty values are omitted.
func (e Event) Attributes() map[string]string {
	attrs := make(map[string]string, 5)
	for k, v := range map[string]string{
		"event_id":   e.ID,
		"source_id":  e.SourceID,
		"image_id":   e.Image.ID,
		"album_id":   e.Image.AlbumID,
		"media_type": e.Image.MediaType,
	} {
		if v != "" {
			attrs[k] = v
		}
	}
	return attrs
}
