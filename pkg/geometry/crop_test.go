package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cropper/pkg/types"
)

const eps = 1e-9

func TestFitScalesBounded(t *testing.T) {
	sources := []Size{
		{Width: 1000, Height: 500},
		{Width: 500, Height: 1000},
		{Width: 359, Height: 359},
		{Width: 64, Height: 4000},
		{Width: 3, Height: 7},
	}
	frames := []Size{
		{Width: 359, Height: 359},
		{Width: 359, Height: 258.48},
		{Width: 750, Height: 540},
	}

	for _, shape := range []CursorShape{CursorCircle, CursorRoundedRect} {
		for _, src := range sources {
			for _, cf := range frames {
				minimal, normal, err := FitScales(src, cf, Size{Width: 375, Height: 667}, shape)
				require.NoError(t, err)
				require.Equal(t, normal, minimal, "bounded shapes use one scale")
				require.GreaterOrEqual(t, normal*src.Width, cf.Width-eps, "gap on x for %s in %s", src, cf)
				require.GreaterOrEqual(t, normal*src.Height, cf.Height-eps, "gap on y for %s in %s", src, cf)
			}
		}
	}
}

func TestFitScalesUnbounded(t *testing.T) {
	minimal, normal, err := FitScales(Size{Width: 1000, Height: 500}, Size{}, Size{Width: 375, Height: 667}, CursorNone)
	require.NoError(t, err)
	require.InDelta(t, 0.375, minimal, eps)
	require.InDelta(t, 1.334, normal, eps)
}

func TestFitScalesInvalidSource(t *testing.T) {
	for _, src := range []Size{{}, {Width: 10}, {Height: 10}, {Width: -1, Height: 5}} {
		_, _, err := FitScales(src, Size{Width: 100, Height: 100}, Size{Width: 375, Height: 667}, CursorCircle)
		require.Error(t, err)
		require.True(t, errors.Is(err, types.ErrInvalidInput), "got %v", err)
	}
}

func TestResolveInitialScale(t *testing.T) {
	tests := []struct {
		name   string
		policy ZoomPolicy
		want   float64
	}{
		{"min", MinZoom(), 0.5},
		{"normal", NormalZoom(), 0.8},
		{"custom above minimum", CustomZoom(1.5), 1.5},
		{"custom below minimum", CustomZoom(0.2), 0.5},
		{"custom equal to minimum", CustomZoom(0.5), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ResolveInitialScale(tt.policy, 0.5, 0.8))
		})
	}
}

func TestResolveInitialScaleNeverBelowMinimum(t *testing.T) {
	for _, custom := range []float64{-3, 0, 0.01, 0.49, 0.5, 2, 100} {
		got := ResolveInitialScale(CustomZoom(custom), 0.5, 1)
		require.GreaterOrEqual(t, got, 0.5)
	}
}

func TestCropRect(t *testing.T) {
	state := ViewportState{
		ZoomScale:     2.0,
		ContentOffset: Point{X: 100, Y: 50},
		ContentInset:  Insets{Left: 10, Top: 5},
	}

	got := CropRect(state, Size{Width: 200, Height: 200}, Size{Width: 4000, Height: 3000}, CursorCircle)
	require.Equal(t, R(55, 27.5, 100, 100), got)
}

func TestCropRectUnboundedIsFullSource(t *testing.T) {
	source := Size{Width: 1024, Height: 768}
	states := []ViewportState{
		{},
		{ZoomScale: 2, ContentOffset: Point{X: 100, Y: 50}, ContentInset: Insets{Left: 10, Top: 5}},
		{ZoomScale: 0.3, ContentOffset: Point{X: -40, Y: 900}},
	}

	for _, st := range states {
		require.Equal(t, Rect{Size: source}, CropRect(st, Size{Width: 200, Height: 200}, source, CursorNone))
	}
}

func TestCropRectZeroZoom(t *testing.T) {
	got := CropRect(ViewportState{}, Size{Width: 200, Height: 200}, Size{Width: 10, Height: 10}, CursorRoundedRect)
	require.True(t, got.IsEmpty())
}

func TestRecenterInset(t *testing.T) {
	viewport := Size{Width: 375, Height: 667}

	insets, ok := RecenterInset(CursorNone, viewport, Size{Width: 375, Height: 187.5})
	require.True(t, ok)
	require.Equal(t, Insets{Top: 239.75, Bottom: 239.75}, insets)

	_, ok = RecenterInset(CursorNone, viewport, Size{Width: 1334, Height: 667.5})
	require.False(t, ok, "negative insets must not be applied")

	_, ok = RecenterInset(CursorCircle, viewport, Size{Width: 10, Height: 10})
	require.False(t, ok)
}

func TestCursorFrame(t *testing.T) {
	portrait := Size{Width: 375, Height: 667}

	circle := CursorFrame(CursorCircle, portrait)
	require.Equal(t, R(8, 128, 359, 359), circle)

	rounded := CursorFrame(CursorRoundedRect, portrait)
	require.InDelta(t, 359, rounded.Size.Width, eps)
	require.InDelta(t, 359*RoundedRectHeightRatio, rounded.Size.Height, eps)
	require.InDelta(t, 187.5, rounded.Center().X, eps)
	require.InDelta(t, 307.5, rounded.Center().Y, eps)

	landscape := CursorFrame(CursorRoundedRect, Size{Width: 800, Height: 600})
	require.InDelta(t, 540, landscape.Size.Height, eps)
	require.InDelta(t, 750, landscape.Size.Width, eps)
	require.InDelta(t, 25, landscape.Origin.X, eps)
	require.InDelta(t, 4, landscape.Origin.Y, eps)
}

func TestScrollInsets(t *testing.T) {
	view := Size{Width: 375, Height: 667}
	frame := CursorFrame(CursorCircle, view)

	require.Equal(t, Insets{Top: 128, Left: 8, Bottom: 128, Right: 8}, ScrollInsets(CursorCircle, view, frame))
	require.Equal(t, Insets{}, ScrollInsets(CursorNone, view, frame))
}

func TestOutputScale(t *testing.T) {
	tests := []struct {
		name    string
		cropped Size
		max     Size
		want    float64
	}{
		{"landscape bound by width", Size{Width: 400, Height: 200}, Size{Width: 100, Height: 100}, 0.25},
		{"portrait bound by height", Size{Width: 200, Height: 400}, Size{Width: 100, Height: 50}, 0.125},
		{"square bound by height", Size{Width: 300, Height: 300}, Size{Width: 30, Height: 150}, 0.5},
		{"already small", Size{Width: 50, Height: 50}, Size{Width: 100, Height: 100}, 1},
		{"unconstrained", Size{Width: 5000, Height: 5000}, Size{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, OutputScale(tt.cropped, tt.max), eps)
		})
	}
}

func TestParsers(t *testing.T) {
	shape, err := ParseCursorShape("Rounded")
	require.NoError(t, err)
	require.Equal(t, CursorRoundedRect, shape)

	_, err = ParseCursorShape("hexagon")
	require.True(t, errors.Is(err, types.ErrInvalidInput))

	zoom, err := ParseZoomPolicy("1.25")
	require.NoError(t, err)
	require.Equal(t, CustomZoom(1.25), zoom)

	_, err = ParseZoomPolicy("-2")
	require.Error(t, err)

	size, err := ParseSize("375x667")
	require.NoError(t, err)
	require.Equal(t, Size{Width: 375, Height: 667}, size)

	pt, err := ParsePoint("10, 20.5")
	require.NoError(t, err)
	require.Equal(t, Point{X: 10, Y: 20.5}, pt)
}

func BenchmarkCropRect(b *testing.B) {
	state := ViewportState{ZoomScale: 1.7, ContentOffset: Point{X: 120, Y: 80}, ContentInset: Insets{Top: 128, Left: 8}}
	for i := 0; i < b.N; i++ {
		CropRect(state, Size{Width: 359, Height: 359}, Size{Width: 4032, Height: 3024}, CursorCircle)
	}
}
