package cropper

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/types"
)

// Cropper rasterizes crop rectangles computed by the geometry package
type Cropper struct {
	config CropConfig
}

// CropConfig holds configuration for cropping and output scaling
type CropConfig struct {
	// Filter is the resampling filter: lanczos, catmullrom, linear, box or nearest
	Filter       string
	ShadeOpacity float64
	BorderWidth  int
}

// DefaultConfig returns the configuration used by New
func DefaultConfig() CropConfig {
	return CropConfig{
		Filter:       "lanczos",
		ShadeOpacity: 0.75,
		BorderWidth:  2,
	}
}

// New creates a new Cropper with default configuration
func New() *Cropper {
	return &Cropper{config: DefaultConfig()}
}

// NewWithConfig creates a new Cropper with custom configuration
func NewWithConfig(config CropConfig) *Cropper {
	return &Cropper{config: config}
}

// CropResult contains the result of a cropping operation
type CropResult struct {
	Image image.Image
	// Rect is the cropped region in source pixels, relative to the source origin
	Rect image.Rectangle
	// Scale is the factor applied after cropping to honor the max output size
	Scale float64
}

// Crop cuts rect out of img. An unbounded cursor keeps the whole frame.
func (c *Cropper) Crop(img image.Image, rect geometry.Rect, shape geometry.CursorShape) (CropResult, error) {
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return CropResult{}, fmt.Errorf("%w: image dimensions %dx%d", types.ErrInvalidInput, bounds.Dx(), bounds.Dy())
	}

	if !shape.Bounded() {
		return CropResult{
			Image: imaging.Clone(img),
			Rect:  image.Rect(0, 0, bounds.Dx(), bounds.Dy()),
			Scale: 1,
		}, nil
	}

	if rect.IsEmpty() {
		return CropResult{}, fmt.Errorf("%w: empty crop rectangle", types.ErrInvalidInput)
	}

	// Crop rects are relative to the source origin
	pixels := rect.Image().Add(bounds.Min).Intersect(bounds)
	if pixels.Empty() {
		return CropResult{}, fmt.Errorf("%w: crop rectangle %v is outside image bounds %v", types.ErrInvalidInput, rect.Image(), bounds)
	}

	return CropResult{
		Image: imaging.Crop(img, pixels),
		Rect:  pixels.Sub(bounds.Min),
		Scale: 1,
	}, nil
}

// FitToMaxSize scales img down so it fits max, following
// geometry.OutputScale. The returned factor is 1 when nothing changed.
func (c *Cropper) FitToMaxSize(img image.Image, max geometry.Size) (image.Image, float64) {
	size := geometry.SizeOf(img)
	scale := geometry.OutputScale(size, max)
	if scale >= 1 {
		return img, 1
	}

	w := int(math.Max(1, math.Round(size.Width*scale)))
	h := int(math.Max(1, math.Round(size.Height*scale)))
	return imaging.Resize(img, w, h, c.filter()), scale
}

// CropAndScale crops img and applies the max output size. The scaled image
// is what gets returned.
func (c *Cropper) CropAndScale(img image.Image, rect geometry.Rect, shape geometry.CursorShape, max geometry.Size) (CropResult, error) {
	result, err := c.Crop(img, rect, shape)
	if err != nil {
		return CropResult{}, err
	}

	result.Image, result.Scale = c.FitToMaxSize(result.Image, max)
	return result, nil
}

func (c *Cropper) filter() imaging.ResampleFilter {
	switch c.config.Filter {
	case "catmullrom":
		return imaging.CatmullRom
	case "linear":
		return imaging.Linear
	case "box":
		return imaging.Box
	case "nearest":
		return imaging.NearestNeighbor
	default:
		return imaging.Lanczos
	}
}
