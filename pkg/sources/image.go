package sources

import (
	"context"
	"fmt"

	"github.com/samvad-hq/imgur-harvester/internal/domain"
)

type imageFetcher struct {
	api ImgurAPI
}

// NewImageFetcher returns a fetcher for single-image sources.
func NewImageFetcher(api ImgurAPI) Fetcher {
	return &imageFetcher{api: api}
}

func (f *imageFetcher) Kind() string { return KindImage }

func (f *imageFetcher) Fetch(ctx context.Context, src Source) ([]domain.Image, error) {
	if src.Kind != KindImage {
		return nil, fmt.Errorf("image fetcher cannot handle source %q of kind %q", src.ID, src.Kind)
	}
	if f.api == nil {
		return nil, fmt.Errorf("image fetcher has no imgur client")
	}

	env, err := f.api.Image(ctx, src.ImgurID)
	if err != nil {
		return nil, fmt.Errorf("fetch image %s: %w", src.ImgurID, err)
	}
	img, err := env.Result()
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", src.ImgurID, err)
	}
	return []domain.Image{toDomainImage(img, "")}, nil
}
