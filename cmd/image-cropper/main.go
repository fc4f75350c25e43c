package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	imagecropper "github.com/menta2k/image-cropper"
	"github.com/menta2k/image-cropper/internal/config"
	"github.com/menta2k/image-cropper/internal/utils"
	"github.com/menta2k/image-cropper/pkg/dispatch"
	"github.com/menta2k/image-cropper/pkg/download"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/processing"
	"github.com/menta2k/image-cropper/pkg/session"
)

// cropReport is written next to the output image
type cropReport struct {
	Source   string                 `json:"source"`
	Cursor   geometry.CursorShape   `json:"cursor"`
	Viewport geometry.ViewportState `json:"viewport"`
	CropRect geometry.Rect          `json:"crop_rect"`
	Pixels   [4]int                 `json:"pixels"`
	Scale    float64                `json:"scale"`
	Output   string                 `json:"output,omitempty"`
}

func main() {
	var in, outDir, configPath string
	var cursor, zoom, view, offset, maxSize string
	var ext string
	var quality int
	var lossless, preview, shade bool
	var scale float64
	var timeout time.Duration

	flag.StringVar(&in, "in", "", "input image path or URL (jpg/png/webp/gif/bmp/tiff)")
	flag.StringVar(&outDir, "out", "", "output directory (default from config)")
	flag.StringVar(&configPath, "config", config.GetConfigPath(), "JSON configuration file")

	flag.StringVar(&cursor, "cursor", "", "cursor shape: circle|rounded|none")
	flag.StringVar(&zoom, "zoom", "", "initial zoom: normal|min|<scale>")
	flag.StringVar(&view, "view", "", "view size in points, e.g. 375x667")
	flag.StringVar(&offset, "offset", "", "content offset after layout, e.g. 40,-20")
	flag.Float64Var(&scale, "scale", 0, "zoom scale applied after layout (0 keeps the initial zoom)")
	flag.StringVar(&maxSize, "max", "", "maximum output size, e.g. 512x512")
	flag.BoolVar(&preview, "preview", false, "preview only, never write a crop")
	flag.BoolVar(&shade, "shade", false, "also write the shaded crop screen")

	flag.StringVar(&ext, "ext", "", "output format: jpg|png|webp")
	flag.IntVar(&quality, "quality", 0, "JPEG/WebP output quality (1-100)")
	flag.BoolVar(&lossless, "lossless", false, "WebP output lossless mode")
	flag.DurationVar(&timeout, "timeout", 0, "download timeout")

	flag.Parse()
	if in == "" {
		log.Fatalf("usage: %s -in input.jpg|URL [-cursor circle|rounded|none] [-zoom normal|min|2.5] [-view 375x667] [-offset X,Y] [-max 512x512] [-out outdir] [-ext jpg|png|webp] [-shade] [-preview]", filepath.Base(os.Args[0]))
	}

	cfg := config.Default()
	if utils.FileExists(configPath) {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
		log.Printf("loaded config %s", configPath)
	}

	// Flags override the configuration file
	if cursor != "" {
		shape, err := geometry.ParseCursorShape(cursor)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Session.Cursor = shape
	}
	if zoom != "" {
		policy, err := geometry.ParseZoomPolicy(zoom)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Session.Zoom = policy
	}
	if view != "" {
		size, err := geometry.ParseSize(view)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Session.ViewSize = size
	}
	if maxSize != "" {
		size, err := geometry.ParseSize(maxSize)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Session.MaxOutputSize = size
	}
	if preview {
		cfg.Session.Preview = true
	}
	if outDir != "" {
		cfg.Output.OutputDir = outDir
	}
	if ext != "" {
		cfg.Output.Format = strings.ToLower(ext)
	}
	if quality > 0 {
		cfg.Output.Quality = quality
	}
	if lossless {
		cfg.Output.Lossless = true
	}
	if timeout > 0 {
		cfg.Download.Timeout = config.Duration(timeout)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		log.Fatal(err)
	}

	downloader := download.NewClient(
		download.WithTimeout(time.Duration(cfg.Download.Timeout)),
		download.WithUserAgent(cfg.Download.UserAgent),
		download.WithMaxBytes(cfg.Download.MaxBytes),
	)
	ic := imagecropper.NewWithConfig(cfg.CropConfig(), downloader)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Download.Timeout)+30*time.Second)
	defer cancel()

	queue := dispatch.NewQueue(16)
	go queue.Run(ctx)
	defer queue.Close()

	results := make(chan session.Result, 1)
	failures := make(chan error, 1)
	s := ic.NewSession(queue, cfg.SessionOptions(), session.Callbacks{
		Finished: func(r session.Result) { results <- r },
		Failed:   func(err error) { failures <- err },
	})

	if err := startSession(ctx, queue, ic, s, in); err != nil {
		log.Fatal(err)
	}

	if err := waitReady(ctx, queue, s, failures); err != nil {
		log.Fatal(err)
	}

	// Apply the requested gesture and capture the final viewport
	var vp geometry.ViewportState
	var rect geometry.Rect
	var gestureErr error
	err := queue.Do(ctx, func() {
		if scale > 0 {
			if gestureErr = s.Zoom(scale); gestureErr != nil {
				return
			}
		}
		if offset != "" {
			p, err := geometry.ParsePoint(offset)
			if err != nil {
				gestureErr = err
				return
			}
			if gestureErr = s.Pan(p); gestureErr != nil {
				return
			}
		}
		vp = s.Viewport()
		rect = s.CropRect()
	})
	if err != nil {
		log.Fatal(err)
	}
	if gestureErr != nil {
		log.Fatal(gestureErr)
	}
	log.Printf("cursor=%s zoom=%.4f offset=%.1f,%.1f crop=%.1fx%.1f@%.1f,%.1f",
		cfg.Session.Cursor, vp.ZoomScale, vp.ContentOffset.X, vp.ContentOffset.Y,
		rect.Size.Width, rect.Size.Height, rect.Origin.X, rect.Origin.Y)

	if shade {
		var overlayErr error
		err := queue.Do(ctx, func() {
			screen := ic.RenderPreview(s.Image(), s.Options(), vp)
			shadePath := utils.GenerateOutputFilename(in, cfg.Output.OutputDir, "_screen", "png")
			overlayErr = ic.SaveImage(screen, shadePath)
			if overlayErr == nil {
				log.Printf("wrote %s", shadePath)
			}
		})
		if err != nil || overlayErr != nil {
			log.Printf("shade overlay failed: %v", errors.Join(err, overlayErr))
		}
	}

	report := cropReport{
		Source:   in,
		Cursor:   cfg.Session.Cursor,
		Viewport: vp,
		CropRect: rect,
		Scale:    1,
	}

	if cfg.Session.Preview {
		log.Printf("preview mode, no crop written")
	} else {
		var confirmErr error
		if err := queue.Do(ctx, func() { confirmErr = s.Confirm() }); err != nil {
			log.Fatal(err)
		}
		if confirmErr != nil {
			log.Fatal(confirmErr)
		}

		result := <-results
		outPath := utils.GenerateOutputFilename(in, cfg.Output.OutputDir, cfg.Output.Suffix, cfg.Output.Format)
		if err := ic.SaveImageAs(result.Image, outPath, cfg.Output.OutputConfig); err != nil {
			log.Fatalf("save %s failed: %v", outPath, err)
		}
		if st, err := os.Stat(outPath); err == nil {
			log.Printf("wrote %s (%dx%d, %s)", outPath, result.Image.Bounds().Dx(), result.Image.Bounds().Dy(), utils.FormatFileSize(st.Size()))
		}

		report.Pixels = [4]int{result.Rect.Min.X, result.Rect.Min.Y, result.Rect.Dx(), result.Rect.Dy()}
		report.Scale = result.Scale
		report.Output = outPath
	}

	// Save crop report
	js, _ := json.MarshalIndent(report, "", "  ")
	reportPath := filepath.Join(cfg.Output.OutputDir, fmt.Sprintf("%s_crop.json", utils.SourceName(in)))
	_ = os.WriteFile(reportPath, js, 0o644)
}

// startSession hands the source to the session. Rejections made before any
// background work are returned directly.
func startSession(ctx context.Context, queue *dispatch.Queue, ic *imagecropper.ImageCropper, s *session.Session, in string) error {
	if processing.IsURL(in) {
		var loadErr error
		if err := queue.Do(ctx, func() { loadErr = s.LoadURL(ctx, in) }); err != nil {
			return err
		}
		if loadErr != nil {
			return loadErr
		}
		log.Printf("downloading %s", in)
		return nil
	}

	if info, err := ic.Inspect(in); err == nil {
		log.Printf("source %dx%d format=%s orientation=%d", info.Width, info.Height, info.Format, info.Orientation)
		for k, v := range info.EXIF {
			log.Printf("exif %s=%s", k, v)
		}
	}
	img, err := ic.LoadImage(in)
	if err != nil {
		return err
	}

	var setErr error
	if err := queue.Do(ctx, func() { setErr = s.SetImage(img) }); err != nil {
		return err
	}
	return setErr
}

// waitReady polls the session until the image is laid out or loading fails
func waitReady(ctx context.Context, queue *dispatch.Queue, s *session.Session, failures <-chan error) error {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		var state session.State
		if err := queue.Do(ctx, func() { state = s.State() }); err != nil {
			return err
		}
		switch state {
		case session.Ready:
			return nil
		case session.Failed:
			return <-failures
		}

		select {
		case err := <-failures:
			return err
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
