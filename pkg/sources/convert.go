package sources

import (
	"time"

	"github.com/samvad-hq/imgur-harvester/internal/domain"
	"github.com/samvad-hq/imgur-harvester/pkg/imgur"
)

func toDomainImage(img imgur.Image, albumID string) domain.Image {
	out := domain.Image{
		ID:          img.ID,
		AlbumID:     albumID,
		Title:       deref(img.Title),
		Description: deref(img.Description),
		Link:        img.Link,
		MediaType:   img.Type,
		Width:       img.Width,
		Height:      img.Height,
		SizeBytes:   img.Size,
		Animated:    img.Animated,
		NSFW:        img.NSFW != nil && *img.NSFW,
	}
	if len(img.Tags) > 0 {
		out.Tags = append([]string(nil), img.Tags...)
	}
	if img.Datetime != 0 {
		out.UploadedAt = time.Unix(img.Datetime, 0).UTC()
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
