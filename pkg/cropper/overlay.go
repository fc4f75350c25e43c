package cropper

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-cropper/pkg/geometry"
)

// RenderViewport draws what a view of the given size shows for state: the
// source scaled by the zoom and shifted by the content offset, on black.
func (c *Cropper) RenderViewport(img image.Image, state geometry.ViewportState, view geometry.Size) *image.NRGBA {
	vw := int(math.Round(view.Width))
	vh := int(math.Round(view.Height))
	canvas := imaging.New(vw, vh, color.NRGBA{0, 0, 0, 255})
	if state.ZoomScale <= 0 || vw <= 0 || vh <= 0 {
		return canvas
	}

	zoom := state.ZoomScale
	bounds := img.Bounds()

	// Only the visible part of the source is resampled
	visible := geometry.R(state.ContentOffset.X/zoom, state.ContentOffset.Y/zoom, view.Width/zoom, view.Height/zoom)
	src := image.Rect(
		int(math.Floor(visible.Origin.X)),
		int(math.Floor(visible.Origin.Y)),
		int(math.Ceil(visible.MaxX())),
		int(math.Ceil(visible.MaxY())),
	).Add(bounds.Min).Intersect(bounds)
	if src.Empty() {
		return canvas
	}

	part := imaging.Crop(img, src)
	w := int(math.Max(1, math.Round(float64(src.Dx())*zoom)))
	h := int(math.Max(1, math.Round(float64(src.Dy())*zoom)))
	part = imaging.Resize(part, w, h, imaging.Linear)

	origin := src.Min.Sub(bounds.Min)
	pos := image.Pt(
		int(math.Round(float64(origin.X)*zoom-state.ContentOffset.X)),
		int(math.Round(float64(origin.Y)*zoom-state.ContentOffset.Y)),
	)
	return imaging.Paste(canvas, part, pos)
}

// ShadeOverlay darkens everything outside the cursor frame and outlines the
// cursor in white. An unbounded cursor leaves the image untouched.
func (c *Cropper) ShadeOverlay(img image.Image, frame geometry.Rect, shape geometry.CursorShape) *image.NRGBA {
	out := imaging.Clone(img)
	if !shape.Bounded() || frame.IsEmpty() {
		return out
	}

	keep := 1 - clamp(c.config.ShadeOpacity, 0, 1)
	border := float64(c.config.BorderWidth)
	inner := geometry.R(frame.Origin.X+border, frame.Origin.Y+border, frame.Size.Width-2*border, frame.Size.Height-2*border)
	white := color.NRGBA{255, 255, 255, 255}

	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			switch {
			case !contains(shape, frame, px, py):
				i := out.PixOffset(x, y)
				out.Pix[i+0] = uint8(float64(out.Pix[i+0]) * keep)
				out.Pix[i+1] = uint8(float64(out.Pix[i+1]) * keep)
				out.Pix[i+2] = uint8(float64(out.Pix[i+2]) * keep)
			case border > 0 && !contains(shape, inner, px, py):
				out.SetNRGBA(x, y, white)
			}
		}
	}
	return out
}

// contains reports whether the point lies inside the cursor shape
func contains(shape geometry.CursorShape, frame geometry.Rect, x, y float64) bool {
	if frame.IsEmpty() || x < frame.Origin.X || y < frame.Origin.Y || x > frame.MaxX() || y > frame.MaxY() {
		return false
	}

	var radius float64
	switch shape {
	case geometry.CursorCircle:
		radius = math.Min(frame.Size.Width, frame.Size.Height) / 2
	case geometry.CursorRoundedRect:
		radius = geometry.RoundedRectCornerRadius
	default:
		return true
	}

	// Distance to the nearest corner center, zero on the straight edges
	cx := clamp(x, frame.Origin.X+radius, frame.MaxX()-radius)
	cy := clamp(y, frame.Origin.Y+radius, frame.MaxY()-radius)
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= radius*radius
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
