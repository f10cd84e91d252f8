package imgur

import (
	"context"
	"net/url"
)

const (
	opImage       = "image"
	opAlbum       = "album"
	opAlbumImages = "album_images"
)

func imagePath(id string) string       { return "/image/" + url.PathEscape(id) }
func albumPath(id string) string       { return "/album/" + url.PathEscape(id) }
func albumImagesPath(id string) string { return albumPath(id) + "/images" }

// Image fetches GET /image/{id}.
func (c *Client) Image(ctx context.Context, id string) (*Envelope[Image], error) {
	return Fetch[Image](ctx, c, opImage, imagePath(id))
}

// Album fetches GET /album/{id}.
func (c *Client) Album(ctx context.Context, id string) (*Envelope[Album], error) {
	return Fetch[Album](ctx, c, opAlbum, albumPath(id))
}

// AlbumImages fetches GET /album/{id}/images. Order is preserved as received.
func (c *Client) AlbumImages(ctx context.Context, id string) (*Envelope[[]Image], error) {
	return Fetch[[]Image](ctx, c, opAlbumImages, albumImagesPath(id))
}
