package processing

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/menta2k/image-cropper/pkg/client"
	"github.com/menta2k/image-cropper/pkg/download"
	"github.com/menta2k/image-cropper/pkg/types"
)

// Processor handles image I/O around a crop session
type Processor struct {
	downloader client.Downloader
}

// NewProcessor creates a processor; downloader may be nil when only local
// files are loaded
func NewProcessor(downloader client.Downloader) *Processor {
	return &Processor{downloader: downloader}
}

// Info holds basic image metadata
type Info struct {
	Width       int
	Height      int
	AspectRatio float64
	Format      string
	Orientation int
	EXIF        map[string]string
}

// IsURL reports whether source should be fetched rather than opened
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// LoadImage loads an image from a file path with EXIF orientation applied
func (p *Processor) LoadImage(path string) (image.Image, error) {
	if img, err := imaging.Open(path, imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	// Fallback: libwebp handles variants the registered decoder rejects
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	img, err := download.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadImageSmart loads an image from either a file path or URL
func (p *Processor) LoadImageSmart(ctx context.Context, source string) (image.Image, error) {
	if IsURL(source) {
		if p.downloader == nil {
			return nil, types.ErrMissingCapability
		}
		return p.downloader.Fetch(ctx, source)
	}
	return p.LoadImage(source)
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		if err := webp.Encode(f, img, opts); err != nil {
			return fmt.Errorf("failed to encode webp: %w", err)
		}
		return nil
	case "png":
		return imaging.Save(img, path)
	case "jpg", "jpeg", "":
		return imaging.Save(img, path, imaging.JPEGQuality(quality))
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// Inspect reads dimensions and EXIF fields without decoding the pixels
func (p *Processor) Inspect(path string) (Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	config, format, err := image.DecodeConfig(file)
	if err != nil {
		return Info{}, fmt.Errorf("decoding image config: %w", err)
	}

	info := Info{
		Width:       config.Width,
		Height:      config.Height,
		Format:      format,
		Orientation: 1,
		EXIF:        make(map[string]string),
	}
	if config.Height > 0 {
		info.AspectRatio = float64(config.Width) / float64(config.Height)
	}

	if _, err := file.Seek(0, 0); err != nil {
		return Info{}, fmt.Errorf("seeking file for exif: %w", err)
	}

	x, err := exif.Decode(file)
	if err != nil {
		// EXIF is optional
		return info, nil
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			info.Orientation = v
		}
	}
	if model, err := x.Get(exif.Model); err == nil {
		if s, err := model.StringVal(); err == nil {
			info.EXIF["Camera Model"] = s
		}
	}
	if tm, err := x.DateTime(); err == nil {
		info.EXIF["Date Taken"] = tm.Format("2006-01-02 15:04:05")
	}

	// Orientations 5-8 swap the axes once applied
	if info.Orientation >= 5 && info.Orientation <= 8 {
		info.Width, info.Height = info.Height, info.Width
		if info.Height > 0 {
			info.AspectRatio = float64(info.Width) / float64(info.Height)
		}
	}

	return info, nil
}

// ValidateImage checks that an image has positive dimensions
func ValidateImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: no image", types.ErrInvalidInput)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%w: image dimensions %dx%d must be positive", types.ErrInvalidInput, b.Dx(), b.Dy())
	}
	return nil
}
