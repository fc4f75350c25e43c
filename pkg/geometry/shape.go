package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/menta2k/image-cropper/pkg/types"
)

// CursorShape is the mask constraining the crop
type CursorShape int

const (
	CursorNone CursorShape = iota
	CursorCircle
	CursorRoundedRect
)

// Bounded reports whether the shape limits the crop to its frame
func (c CursorShape) Bounded() bool {
	return c != CursorNone
}

func (c CursorShape) String() string {
	switch c {
	case CursorCircle:
		return "circle"
	case CursorRoundedRect:
		return "rounded"
	default:
		return "none"
	}
}

// ParseCursorShape accepts none, circle and rounded (or roundedrect)
func ParseCursorShape(s string) (CursorShape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CursorNone, nil
	case "circle":
		return CursorCircle, nil
	case "rounded", "roundedrect", "rounded-rect":
		return CursorRoundedRect, nil
	}
	return CursorNone, fmt.Errorf("%w: unknown cursor shape %q", types.ErrInvalidInput, s)
}

// ZoomKind selects the starting zoom of a crop session
type ZoomKind int

const (
	ZoomNormal ZoomKind = iota
	ZoomMin
	ZoomCustom
)

// ZoomPolicy is the zoom applied when a session becomes ready.
// Scale is only meaningful for ZoomCustom.
type ZoomPolicy struct {
	Kind  ZoomKind
	Scale float64
}

// MinZoom starts at the minimum permitted scale
func MinZoom() ZoomPolicy { return ZoomPolicy{Kind: ZoomMin} }

// NormalZoom starts at the zoom-to-fit scale
func NormalZoom() ZoomPolicy { return ZoomPolicy{Kind: ZoomNormal} }

// CustomZoom starts at scale, raised to the minimum if needed
func CustomZoom(scale float64) ZoomPolicy {
	return ZoomPolicy{Kind: ZoomCustom, Scale: scale}
}

func (z ZoomPolicy) String() string {
	switch z.Kind {
	case ZoomMin:
		return "min"
	case ZoomCustom:
		return strconv.FormatFloat(z.Scale, 'g', -1, 64)
	default:
		return "normal"
	}
}

// ParseZoomPolicy accepts "min", "normal" or a positive decimal scale
func ParseZoomPolicy(s string) (ZoomPolicy, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", "normal":
		return NormalZoom(), nil
	case "min":
		return MinZoom(), nil
	default:
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			return ZoomPolicy{}, fmt.Errorf("%w: zoom %q must be min, normal or a positive scale", types.ErrInvalidInput, s)
		}
		return CustomZoom(scale), nil
	}
}

// MarshalText implements encoding.TextMarshaler
func (c CursorShape) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *CursorShape) UnmarshalText(b []byte) error {
	v, err := ParseCursorShape(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (z ZoomPolicy) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (z *ZoomPolicy) UnmarshalText(b []byte) error {
	v, err := ParseZoomPolicy(string(b))
	if err != nil {
		return err
	}
	*z = v
	return nil
}
