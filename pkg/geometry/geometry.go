// Package geometry maps a pannable, zoomable viewport onto source image
// coordinates.
//
// All values are expressed in points of the viewport except where a function
// says it works in source pixels. A viewport showing a source image at zoom
// scale s renders each source pixel as s points.
package geometry

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"github.com/menta2k/image-cropper/pkg/types"
)

// Layout constants of the crop screen
const (
	FrameOffset             = 8.0
	ButtonsPanelHeight      = 52.0
	RoundedRectHeightRatio  = 0.72
	RoundedRectCornerRadius = 3.0
)

// Size is a width/height pair
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether both dimensions are zero
func (s Size) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// Positive reports whether both dimensions are strictly positive
func (s Size) Positive() bool {
	return s.Width > 0 && s.Height > 0
}

// Scale multiplies both dimensions by f
func (s Size) Scale(f float64) Size {
	return Size{Width: s.Width * f, Height: s.Height * f}
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.Width, s.Height)
}

// SizeOf returns the pixel size of an image
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// ParseSize parses "WxH"
func ParseSize(s string) (Size, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) != 2 {
		return Size{}, fmt.Errorf("%w: size %q must look like WxH", types.ErrInvalidInput, s)
	}
	w, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Size{}, fmt.Errorf("%w: width in %q: %v", types.ErrInvalidInput, s, err)
	}
	h, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Size{}, fmt.Errorf("%w: height in %q: %v", types.ErrInvalidInput, s, err)
	}
	return Size{Width: w, Height: h}, nil
}

// Point is a position or an offset
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ParsePoint parses "X,Y"
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("%w: point %q must look like X,Y", types.ErrInvalidInput, s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: x in %q: %v", types.ErrInvalidInput, s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: y in %q: %v", types.ErrInvalidInput, s, err)
	}
	return Point{X: x, Y: y}, nil
}

// Rect is an axis aligned rectangle
type Rect struct {
	Origin Point `json:"origin"`
	Size   Size  `json:"size"`
}

// R is shorthand for building a Rect
func R(x, y, w, h float64) Rect {
	return Rect{Origin: Point{X: x, Y: y}, Size: Size{Width: w, Height: h}}
}

// MaxX returns the right edge
func (r Rect) MaxX() float64 { return r.Origin.X + r.Size.Width }

// MaxY returns the bottom edge
func (r Rect) MaxY() float64 { return r.Origin.Y + r.Size.Height }

// Center returns the midpoint
func (r Rect) Center() Point {
	return Point{X: r.Origin.X + r.Size.Width/2, Y: r.Origin.Y + r.Size.Height/2}
}

// IsEmpty reports whether the rectangle has no area
func (r Rect) IsEmpty() bool {
	return r.Size.Width <= 0 || r.Size.Height <= 0
}

// Image rounds the rectangle to integer pixel coordinates
func (r Rect) Image() image.Rectangle {
	return image.Rect(
		int(math.Round(r.Origin.X)),
		int(math.Round(r.Origin.Y)),
		int(math.Round(r.MaxX())),
		int(math.Round(r.MaxY())),
	)
}

// Insets pads the scrollable area of a viewport
type Insets struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
}

// ViewportState is the per-frame scroll state of the viewport
type ViewportState struct {
	ZoomScale     float64 `json:"zoom_scale"`
	ContentOffset Point   `json:"content_offset"`
	ContentInset  Insets  `json:"content_inset"`
}
