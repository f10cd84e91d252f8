package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/imgur-harvester/internal/domain"
)

type albumFetcher struct {
	api   ImgurAPI
	sleep func(ctx context.Context, d time.Duration) error
}

// NewAlbumFetcher returns a fetcher for album sources. It reads the album
// and, when the API did not inline its images, follows up with the album
// images route.
func NewAlbumFetcher(api ImgurAPI) Fetcher {
	return &albumFetcher{api: api, sleep: sleepCtx}
}

func (f *albumFetcher) Kind() string { return KindAlbum }

func (f *albumFetcher) Fetch(ctx context.Context, src Source) ([]domain.Image, error) {
	if src.Kind != KindAlbum {
		return nil, fmt.Errorf("album fetcher cannot handle source %q of kind %q", src.ID, src.Kind)
	}
	if f.api == nil {
		return nil, fmt.Errorf("album fetcher has no imgur client")
	}

	env, err := f.api.Album(ctx, src.ImgurID)
	if err != nil {
		return nil, fmt.Errorf("fetch album %s: %w", src.ImgurID, err)
	}
	album, err := env.Result()
	if err != nil {
		return nil, fmt.Errorf("album %s: %w", src.ImgurID, err)
	}

	images := album.Images
	if images == nil {
		if err := f.sleep(ctx, src.RequestDelay()); err != nil {
			return nil, err
		}
		imgEnv, err := f.api.AlbumImages(ctx, src.ImgurID)
		if err != nil {
			return nil, fmt.Errorf("fetch album %s images: %w", src.ImgurID, err)
		}
		if images, err = imgEnv.Result(); err != nil {
			return nil, fmt.Errorf("album %s images: %w", src.ImgurID, err)
		}
	}

	out := make([]domain.Image, 0, len(images))
	for _, img := range images {
		out = append(out, toDomainImage(img, album.ID))
	}
	return out, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
