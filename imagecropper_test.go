package imagecropper

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/menta2k/image-cropper/pkg/cropper"
	"github.com/menta2k/image-cropper/pkg/dispatch"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/session"
	"github.com/menta2k/image-cropper/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Create a pattern with a bright subject in the center
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}

	return img
}

func TestNew(t *testing.T) {
	ic := New()
	if ic == nil {
		t.Fatal("New() returned nil")
	}

	if ic.processor == nil {
		t.Error("processor component is nil")
	}

	if ic.cropper == nil {
		t.Error("cropper component is nil")
	}

	if ic.downloader == nil {
		t.Error("downloader component is nil")
	}
}

func TestNewWithConfigWithoutDownloader(t *testing.T) {
	ic := NewWithConfig(cropper.CropConfig{Filter: "linear"}, nil)

	_, err := ic.LoadImageSmart(context.Background(), "https://example.com/a.jpg")
	if !errors.Is(err, types.ErrMissingCapability) {
		t.Errorf("Expected missing capability error, got %v", err)
	}
}

func TestCropViewport(t *testing.T) {
	ic := New()
	img := createTestImage(4000, 3000)

	state := geometry.ViewportState{
		ZoomScale:     2.0,
		ContentOffset: geometry.Point{X: 100, Y: 50},
		ContentInset:  geometry.Insets{Left: 10, Top: 5},
	}

	opts := session.DefaultOptions()
	result, err := ic.CropViewport(img, opts, state)
	if err != nil {
		t.Fatalf("CropViewport failed: %v", err)
	}

	// The default circle cursor is 359 points wide
	want := geometry.R(55, 27.5, 179.5, 179.5)
	if result.CropRect != want {
		t.Errorf("Expected crop rect %+v, got %+v", want, result.CropRect)
	}

	bounds := result.Image.Bounds()
	if bounds.Dx() != result.Rect.Dx() || bounds.Dy() != result.Rect.Dy() {
		t.Errorf("Image %v does not match rect %v", bounds, result.Rect)
	}
}

func TestCropViewportPreview(t *testing.T) {
	ic := New()
	opts := session.DefaultOptions()
	opts.Preview = true

	_, err := ic.CropViewport(createTestImage(100, 100), opts, geometry.ViewportState{ZoomScale: 1})
	if !errors.Is(err, types.ErrPreviewMode) {
		t.Errorf("Expected preview mode error, got %v", err)
	}
}

func TestCropViewportMaxSize(t *testing.T) {
	ic := New()
	opts := session.DefaultOptions()
	opts.Cursor = geometry.CursorNone
	opts.MaxOutputSize = geometry.Size{Width: 200, Height: 200}

	result, err := ic.CropViewport(createTestImage(800, 400), opts, geometry.ViewportState{ZoomScale: 1})
	if err != nil {
		t.Fatalf("CropViewport failed: %v", err)
	}

	bounds := result.Image.Bounds()
	if bounds.Dx() != 200 || bounds.Dy() != 100 {
		t.Errorf("Expected scaled 200x100 output, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderPreview(t *testing.T) {
	ic := New()
	opts := session.DefaultOptions()

	preview := ic.RenderPreview(createTestImage(1000, 1000), opts, geometry.ViewportState{ZoomScale: 0.5})
	if preview.Bounds().Dx() != 375 || preview.Bounds().Dy() != 667 {
		t.Errorf("Expected preview of the view size, got %v", preview.Bounds())
	}
}

func TestSessionEndToEnd(t *testing.T) {
	ic := New()
	queue := dispatch.NewQueue(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go queue.Run(ctx)

	results := make(chan session.Result, 1)
	s := ic.NewSession(queue, session.DefaultOptions(), session.Callbacks{
		Finished: func(r session.Result) { results <- r },
		Failed:   func(err error) { t.Errorf("unexpected failure: %v", err) },
	})

	var confirmErr error
	err := queue.Do(ctx, func() {
		if err := s.SetImage(createTestImage(600, 600)); err != nil {
			confirmErr = err
			return
		}
		s.Zoom(1.5)
		s.PanBy(-30, 20)
		confirmErr = s.Confirm()
	})
	if err != nil || confirmErr != nil {
		t.Fatalf("session failed: %v / %v", err, confirmErr)
	}

	select {
	case r := <-results:
		if r.Image == nil {
			t.Error("Expected a cropped image")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestSaveAndLoad(t *testing.T) {
	ic := New()
	path := filepath.Join(t.TempDir(), "out.png")

	if err := ic.SaveImage(createTestImage(64, 64), path); err != nil {
		t.Fatalf("SaveImage failed: %v", err)
	}

	img, err := ic.LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Errorf("Expected width 64, got %d", img.Bounds().Dx())
	}

	info, err := ic.Inspect(path)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.Width != 64 || info.Height != 64 {
		t.Errorf("Expected 64x64, got %dx%d", info.Width, info.Height)
	}
}

func TestGetVersion(t *testing.T) {
	if GetVersion() != Version {
		t.Errorf("Expected version %s, got %s", Version, GetVersion())
	}
}
