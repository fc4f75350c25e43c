package client

import (
	"context"
	"image"
)

// Downloader fetches and decodes a remote image. Implementations make a
// single attempt and may be called from any goroutine.
type Downloader interface {
	Fetch(ctx context.Context, rawURL string) (image.Image, error)
}

// DownloaderFunc adapts a plain function to Downloader
type DownloaderFunc func(ctx context.Context, rawURL string) (image.Image, error)

func (f DownloaderFunc) Fetch(ctx context.Context, rawURL string) (image.Image, error) {
	return f(ctx, rawURL)
}
