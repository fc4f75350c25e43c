// Package imagecropper crops photos the way an interactive crop screen does:
// the user pans and zooms a source image behind a fixed cursor (a circle, a
// rounded rectangle, or no cursor at all) and the visible region becomes the
// output image.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		imagecropper "github.com/menta2k/image-cropper"
//		"github.com/menta2k/image-cropper/pkg/dispatch"
//		"github.com/menta2k/image-cropper/pkg/session"
//	)
//
//	func main() {
//		ic := imagecropper.New()
//		queue := dispatch.NewQueue(16)
//		go queue.Run(context.Background())
//
//		s := ic.NewSession(queue, session.DefaultOptions(), session.Callbacks{
//			Finished: func(r session.Result) {
//				if err := ic.SaveImage(r.Image, "avatar.jpg"); err != nil {
//					log.Fatal(err)
//				}
//			},
//			Failed: func(err error) { log.Fatal(err) },
//		})
//
//		queue.Do(context.Background(), func() {
//			s.LoadURL(context.Background(), "https://example.com/photo.jpg")
//		})
//		// ... once ready: s.Pan, s.Zoom, then s.Confirm on the queue
//	}
//
// The package consists of these components:
//
// 1. Geometry (pkg/geometry): zoom-to-fit scales, cursor layout and the crop rectangle
// 2. Session (pkg/session): the crop state machine driven on a dispatch queue
// 3. Cropper (pkg/cropper): rasterizes crops, output scaling and shade previews
// 4. Download (pkg/download): the default network image download capability
// 5. Processing (pkg/processing): local image loading, saving and inspection
package imagecropper

import (
	"context"
	"fmt"
	"image"

	"github.com/menta2k/image-cropper/internal/utils"
	"github.com/menta2k/image-cropper/pkg/client"
	"github.com/menta2k/image-cropper/pkg/cropper"
	"github.com/menta2k/image-cropper/pkg/dispatch"
	"github.com/menta2k/image-cropper/pkg/download"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/processing"
	"github.com/menta2k/image-cropper/pkg/session"
	"github.com/menta2k/image-cropper/pkg/types"
)

// Version of the image cropper library
const Version = "1.0.0"

// DefaultQuality is the JPEG/WebP quality used by SaveImage
const DefaultQuality = 90

// ImageCropper provides a high-level interface for loading, cropping and saving
type ImageCropper struct {
	processor  *processing.Processor
	cropper    *cropper.Cropper
	downloader client.Downloader
}

// New creates a new ImageCropper with the default download client
func New() *ImageCropper {
	return NewWithConfig(cropper.DefaultConfig(), download.NewClient())
}

// NewWithConfig creates a new ImageCropper with custom configuration.
// downloader may be nil to disable URL sources.
func NewWithConfig(cropConfig cropper.CropConfig, downloader client.Downloader) *ImageCropper {
	return &ImageCropper{
		processor:  processing.NewProcessor(downloader),
		cropper:    cropper.NewWithConfig(cropConfig),
		downloader: downloader,
	}
}

// NewSession creates a crop session bound to queue
func (ic *ImageCropper) NewSession(queue *dispatch.Queue, opts session.Options, callbacks session.Callbacks) *session.Session {
	s := session.New(queue, opts, ic.downloader, callbacks)
	s.SetCropper(ic.cropper)
	return s
}

// LoadImage loads an image from file
func (ic *ImageCropper) LoadImage(path string) (image.Image, error) {
	return ic.processor.LoadImage(path)
}

// LoadImageSmart loads an image from a file path or URL
func (ic *ImageCropper) LoadImageSmart(ctx context.Context, source string) (image.Image, error) {
	return ic.processor.LoadImageSmart(ctx, source)
}

// Inspect returns dimensions and EXIF metadata of an image file
func (ic *ImageCropper) Inspect(path string) (processing.Info, error) {
	return ic.processor.Inspect(path)
}

// SaveImage saves an image to file, picking the format from the extension
func (ic *ImageCropper) SaveImage(img image.Image, path string) error {
	return ic.SaveImageAs(img, path, types.OutputConfig{
		Format:  utils.GetFileExtension(path),
		Quality: DefaultQuality,
	})
}

// SaveImageAs saves an image with explicit encoding options
func (ic *ImageCropper) SaveImageAs(img image.Image, path string, out types.OutputConfig) error {
	return ic.processor.SaveImage(img, path, out.Format, out.Quality, out.Lossless)
}

// CropViewport crops img for a given viewport state without running a
// session. The cursor is laid out from opts.ViewSize.
func (ic *ImageCropper) CropViewport(img image.Image, opts session.Options, state geometry.ViewportState) (session.Result, error) {
	if opts.Preview {
		return session.Result{}, types.ErrPreviewMode
	}
	if err := processing.ValidateImage(img); err != nil {
		return session.Result{}, err
	}
	if opts.ViewSize.IsZero() {
		opts.ViewSize = session.DefaultViewSize
	}

	cursor := geometry.CursorFrame(opts.Cursor, opts.ViewSize)
	rect := geometry.CropRect(state, cursor.Size, geometry.SizeOf(img), opts.Cursor)

	result, err := ic.cropper.CropAndScale(img, rect, opts.Cursor, opts.MaxOutputSize)
	if err != nil {
		return session.Result{}, fmt.Errorf("crop failed: %w", err)
	}

	return session.Result{
		Image:    result.Image,
		CropRect: rect,
		Rect:     result.Rect,
		Scale:    result.Scale,
	}, nil
}

// RenderPreview draws the crop screen for a viewport state: the zoomed image
// with everything outside the cursor shaded
func (ic *ImageCropper) RenderPreview(img image.Image, opts session.Options, state geometry.ViewportState) *image.NRGBA {
	view := opts.ViewSize
	if view.IsZero() {
		view = session.DefaultViewSize
	}
	frame := ic.cropper.RenderViewport(img, state, view)
	return ic.cropper.ShadeOverlay(frame, geometry.CursorFrame(opts.Cursor, view), opts.Cursor)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
