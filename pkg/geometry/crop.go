package geometry

import (
	"fmt"
	"math"

	"github.com/menta2k/image-cropper/pkg/types"
)

// FitScales returns the minimum permitted zoom and the zoom-to-fit scale.
//
// For a bounded cursor the image must cover the cursor frame on both axes,
// so both scales are the larger of the two axis ratios. Without a cursor the
// normal scale fits the viewport height and the minimum fits its width.
func FitScales(source, cursorFrame, viewport Size, shape CursorShape) (minimal, normal float64, err error) {
	if !source.Positive() {
		return 0, 0, fmt.Errorf("%w: source image size %s must be positive", types.ErrInvalidInput, source)
	}

	if shape.Bounded() {
		normal = math.Max(cursorFrame.Width/source.Width, cursorFrame.Height/source.Height)
		return normal, normal, nil
	}

	return viewport.Width / source.Width, viewport.Height / source.Height, nil
}

// ResolveInitialScale picks the starting zoom for a policy. A custom scale
// never drops below minimal.
func ResolveInitialScale(policy ZoomPolicy, minimal, normal float64) float64 {
	switch policy.Kind {
	case ZoomMin:
		return minimal
	case ZoomCustom:
		return ClampZoom(policy.Scale, minimal)
	default:
		return normal
	}
}

// ClampZoom keeps scale at or above minimal
func ClampZoom(scale, minimal float64) float64 {
	if scale < minimal || math.IsNaN(scale) {
		return minimal
	}
	return scale
}

// CropRect maps the visible cursor region to source pixel coordinates.
// Without a cursor the whole source is returned.
func CropRect(state ViewportState, cursorFrame Size, source Size, shape CursorShape) Rect {
	if !shape.Bounded() {
		return Rect{Size: source}
	}
	if state.ZoomScale <= 0 {
		return Rect{}
	}

	zoom := state.ZoomScale
	return Rect{
		Origin: Point{
			X: (state.ContentOffset.X + state.ContentInset.Left) / zoom,
			Y: (state.ContentOffset.Y + state.ContentInset.Top) / zoom,
		},
		Size: Size{
			Width:  cursorFrame.Width / zoom,
			Height: cursorFrame.Height / zoom,
		},
	}
}

// RecenterInset centres an unbounded image vertically in the viewport.
// ok is false when the inset must be left unchanged: a bounded cursor, or a
// rendered image taller than the viewport (negative insets are rejected).
func RecenterInset(shape CursorShape, viewport, rendered Size) (insets Insets, ok bool) {
	if shape.Bounded() {
		return Insets{}, false
	}

	vertical := (viewport.Height - rendered.Height) / 2
	if vertical < 0 {
		return Insets{}, false
	}
	return Insets{Top: vertical, Bottom: vertical}, true
}

// CursorFrame lays out the cursor inside a view of the given size. The frame
// is centred in the area above the buttons panel.
func CursorFrame(shape CursorShape, view Size) Rect {
	var w, h float64

	switch shape {
	case CursorRoundedRect:
		if view.Width < view.Height {
			w = view.Width - FrameOffset*2
			h = w * RoundedRectHeightRatio
		} else {
			h = view.Height - (FrameOffset + ButtonsPanelHeight)
			w = h / RoundedRectHeightRatio
		}
	default:
		side := math.Min(view.Width, view.Height-ButtonsPanelHeight) - FrameOffset*2
		w, h = side, side
	}

	cx := view.Width / 2
	cy := (view.Height - ButtonsPanelHeight) / 2
	return R(cx-w/2, cy-h/2, w, h)
}

// ScrollInsets confines scrolling so the image edges can reach but not pass
// the cursor frame. Unbounded cursors scroll freely.
func ScrollInsets(shape CursorShape, view Size, cursor Rect) Insets {
	if !shape.Bounded() {
		return Insets{}
	}
	return Insets{
		Top:    cursor.Origin.Y,
		Left:   cursor.Origin.X,
		Bottom: view.Height - cursor.MaxY() - ButtonsPanelHeight,
		Right:  view.Width - cursor.MaxX(),
	}
}

// OutputScale returns the factor that brings a cropped image within max.
// Landscape images are bound by max width, others by max height. A zero max
// or a result of 1 or more means the image is left as is.
func OutputScale(cropped, max Size) float64 {
	if !max.Positive() || !cropped.Positive() {
		return 1
	}

	var scale float64
	if cropped.Width > cropped.Height {
		scale = max.Width / cropped.Width
	} else {
		scale = max.Height / cropped.Height
	}
	if scale >= 1 {
		return 1
	}
	return scale
}
