package sources

import (
	"context"

	"github.com/samvad-hq/imgur-harvester/internal/domain"
	"github.com/samvad-hq/imgur-harvester/pkg/imgur"
)

// Fetcher retrieves the current images for a source.
type Fetcher interface {
	Kind() string
	Fetch(ctx context.Context, src Source) ([]domain.Image, error)
}

// FetcherRegistry resolves the fetcher for a given source.
type FetcherRegistry interface {
	FetcherFor(src Source) (Fetcher, error)
}

// ImgurAPI is the subset of *imgur.Client the fetchers use.
type ImgurAPI interface {
	Image(ctx context.Context, id string) (*imgur.Envelope[imgur.Image], error)
	Album(ctx context.Context, id string) (*imgur.Envelope[imgur.Album], error)
	AlbumImages(ctx context.Context, id string) (*imgur.Envelope[[]imgur.Image], error)
}
