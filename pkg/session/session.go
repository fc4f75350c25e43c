// Package session drives one interactive crop: loading the source image,
// tracking the pan/zoom viewport and producing the cropped output.
//
// A Session is not safe for concurrent use. Every method must be called on
// the goroutine running its dispatch.Queue; the only background work, the
// image download, posts its result back to that queue. Callbacks are invoked
// on the queue goroutine as well.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/menta2k/image-cropper/pkg/client"
	"github.com/menta2k/image-cropper/pkg/cropper"
	"github.com/menta2k/image-cropper/pkg/dispatch"
	"github.com/menta2k/image-cropper/pkg/download"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/processing"
	"github.com/menta2k/image-cropper/pkg/types"
)

// State of a crop session
type State int

const (
	Idle State = iota
	ImageLoading
	Ready
	Cropping
	Finished
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ImageLoading:
		return "loading"
	case Ready:
		return "ready"
	case Cropping:
		return "cropping"
	case Finished:
		return "finished"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether the session can no longer change state
func (s State) Terminal() bool {
	return s == Finished || s == Cancelled || s == Failed
}

// DefaultViewSize is used when Options.ViewSize is zero
var DefaultViewSize = geometry.Size{Width: 375, Height: 667}

// Options configure a session
type Options struct {
	Cursor geometry.CursorShape
	Zoom   geometry.ZoomPolicy
	// Preview only allows panning and zooming; Confirm is rejected
	Preview bool
	// MaxOutputSize bounds the result; zero means unconstrained
	MaxOutputSize geometry.Size
	ViewSize      geometry.Size
	Buttons       types.Button
	Labels        types.Labels
}

// DefaultOptions returns a circle cursor session at normal zoom
func DefaultOptions() Options {
	return Options{
		Cursor:   geometry.CursorCircle,
		Zoom:     geometry.NormalZoom(),
		ViewSize: DefaultViewSize,
		Buttons:  types.DefaultButtons,
		Labels:   types.DefaultLabels(),
	}
}

// Result is emitted when a crop finishes
type Result struct {
	Image image.Image
	// CropRect is the visible cursor region in source coordinates
	CropRect geometry.Rect
	// Rect is CropRect rounded and clipped to the source pixels
	Rect  image.Rectangle
	Scale float64
}

// Callbacks receive the outcome of a session. Either may be nil.
type Callbacks struct {
	Finished func(Result)
	Failed   func(error)
}

// Session is a single crop interaction
type Session struct {
	queue      *dispatch.Queue
	opts       Options
	downloader client.Downloader
	cropper    *cropper.Cropper
	callbacks  Callbacks

	state    State
	source   image.Image
	srcSize  geometry.Size
	cursor   geometry.Rect
	minimal  float64
	normal   float64
	viewport geometry.ViewportState
	err      error
}

// New creates an idle session. downloader may be nil when the image is
// supplied directly with SetImage.
func New(queue *dispatch.Queue, opts Options, downloader client.Downloader, callbacks Callbacks) *Session {
	if opts.ViewSize.IsZero() {
		opts.ViewSize = DefaultViewSize
	}
	defaults := types.DefaultLabels()
	if opts.Labels.Submit == "" {
		opts.Labels.Submit = defaults.Submit
	}
	if opts.Labels.Cancel == "" {
		opts.Labels.Cancel = defaults.Cancel
	}

	return &Session{
		queue:      queue,
		opts:       opts,
		downloader: downloader,
		cropper:    cropper.New(),
		callbacks:  callbacks,
	}
}

// SetCropper replaces the rasterizer used by Confirm
func (s *Session) SetCropper(c *cropper.Cropper) {
	s.cropper = c
}

// SetImage starts the session from an in-memory image
func (s *Session) SetImage(img image.Image) error {
	if s.state != Idle {
		return fmt.Errorf("%w: cannot set image while %s", types.ErrInvalidState, s.state)
	}
	return s.prepare(img)
}

// LoadURL starts the session from a remote image. URL syntax is checked
// before any network I/O. The fetch runs in the background and cannot be
// cancelled by the session; a result arriving after Cancel is dropped.
func (s *Session) LoadURL(ctx context.Context, rawURL string) error {
	if s.state != Idle {
		return fmt.Errorf("%w: cannot load while %s", types.ErrInvalidState, s.state)
	}
	if _, err := download.ParseURL(rawURL); err != nil {
		return s.fail(err)
	}
	if s.downloader == nil {
		return s.fail(types.ErrMissingCapability)
	}

	s.state = ImageLoading
	downloader := s.downloader
	go func() {
		img, err := downloader.Fetch(ctx, rawURL)
		s.queue.Post(func() { s.loaded(img, err) })
	}()
	return nil
}

func (s *Session) loaded(img image.Image, err error) {
	if s.state != ImageLoading {
		return
	}
	switch {
	case err != nil && !errors.Is(err, types.ErrDownloadFailure):
		err = fmt.Errorf("%w: %w", types.ErrDownloadFailure, err)
	case err == nil && img == nil:
		err = fmt.Errorf("%w: no image data", types.ErrDownloadFailure)
	}
	if err != nil {
		s.fail(err)
		return
	}
	s.prepare(img)
}

// prepare lays out the cursor and applies the initial zoom
func (s *Session) prepare(img image.Image) error {
	if err := processing.ValidateImage(img); err != nil {
		return s.fail(err)
	}
	if !s.opts.ViewSize.Positive() {
		return s.fail(fmt.Errorf("%w: view size %s must be positive", types.ErrInvalidInput, s.opts.ViewSize))
	}

	srcSize := geometry.SizeOf(img)
	shape := s.opts.Cursor
	cursor := geometry.CursorFrame(shape, s.opts.ViewSize)
	if shape.Bounded() && cursor.IsEmpty() {
		return s.fail(fmt.Errorf("%w: view size %s leaves no room for the %s cursor", types.ErrInvalidInput, s.opts.ViewSize, shape))
	}

	minimal, normal, err := geometry.FitScales(srcSize, cursor.Size, s.boundsSize(), shape)
	if err != nil {
		return s.fail(err)
	}

	s.source = img
	s.srcSize = srcSize
	s.cursor = cursor
	s.minimal = minimal
	s.normal = normal
	s.viewport = geometry.ViewportState{
		ContentInset: geometry.ScrollInsets(shape, s.opts.ViewSize, cursor),
	}
	s.state = Ready

	s.setZoom(geometry.ResolveInitialScale(s.opts.Zoom, minimal, normal))
	s.centerContent()
	return nil
}

// boundsSize is the visible scroll area; bounded cursors leave room for the
// buttons panel
func (s *Session) boundsSize() geometry.Size {
	view := s.opts.ViewSize
	if s.opts.Cursor.Bounded() {
		view.Height -= geometry.ButtonsPanelHeight
	}
	return view
}

// anchor is the viewport point kept fixed while zooming
func (s *Session) anchor() geometry.Point {
	if s.opts.Cursor.Bounded() {
		return s.cursor.Center()
	}
	b := s.boundsSize()
	return geometry.Point{X: b.Width / 2, Y: b.Height / 2}
}

// Pan moves the content to offset, limited to the scrollable range
func (s *Session) Pan(offset geometry.Point) error {
	if s.state != Ready {
		return fmt.Errorf("%w: cannot pan while %s", types.ErrInvalidState, s.state)
	}
	if !finite(offset.X, offset.Y) {
		return fmt.Errorf("%w: offset %v,%v is not finite", types.ErrInvalidInput, offset.X, offset.Y)
	}
	s.viewport.ContentOffset = offset
	s.clampOffset()
	return nil
}

// PanBy moves the content by a drag delta
func (s *Session) PanBy(dx, dy float64) error {
	off := s.viewport.ContentOffset
	return s.Pan(geometry.Point{X: off.X + dx, Y: off.Y + dy})
}

// Zoom sets the zoom scale around the cursor center. Scales below the
// minimum are raised to it. Gesture input must be finite.
func (s *Session) Zoom(scale float64) error {
	if s.state != Ready {
		return fmt.Errorf("%w: cannot zoom while %s", types.ErrInvalidState, s.state)
	}
	if !finite(scale) {
		return fmt.Errorf("%w: zoom scale %v is not finite", types.ErrInvalidInput, scale)
	}
	s.setZoom(scale)
	return nil
}

func (s *Session) setZoom(scale float64) {
	scale = geometry.ClampZoom(scale, s.minimal)
	old := s.viewport.ZoomScale
	a := s.anchor()

	if old > 0 {
		off := s.viewport.ContentOffset
		s.viewport.ContentOffset = geometry.Point{
			X: (off.X+a.X)/old*scale - a.X,
			Y: (off.Y+a.Y)/old*scale - a.Y,
		}
	}
	s.viewport.ZoomScale = scale

	if insets, ok := geometry.RecenterInset(s.opts.Cursor, s.boundsSize(), s.srcSize.Scale(scale)); ok {
		s.viewport.ContentInset = insets
	}
	s.clampOffset()
}

// centerContent puts the middle of the image under the anchor
func (s *Session) centerContent() {
	rendered := s.srcSize.Scale(s.viewport.ZoomScale)
	a := s.anchor()
	s.viewport.ContentOffset = geometry.Point{
		X: rendered.Width/2 - a.X,
		Y: rendered.Height/2 - a.Y,
	}
	s.clampOffset()
}

// clampOffset keeps the offset inside the scrollable range so the cursor
// never shows empty margins
func (s *Session) clampOffset() {
	bounds := s.boundsSize()
	rendered := s.srcSize.Scale(s.viewport.ZoomScale)
	in := s.viewport.ContentInset

	minX, maxX := -in.Left, rendered.Width-bounds.Width+in.Right
	minY, maxY := -in.Top, rendered.Height-bounds.Height+in.Bottom

	off := &s.viewport.ContentOffset
	off.X = math.Max(minX, math.Min(off.X, math.Max(minX, maxX)))
	off.Y = math.Max(minY, math.Min(off.Y, math.Max(minY, maxY)))
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// CropRect returns the source region currently under the cursor
func (s *Session) CropRect() geometry.Rect {
	return geometry.CropRect(s.viewport, s.cursor.Size, s.srcSize, s.opts.Cursor)
}

// Confirm crops the visible region and emits the result. Preview sessions
// reject it without touching the output path.
func (s *Session) Confirm() error {
	if s.opts.Preview {
		return types.ErrPreviewMode
	}
	if s.state != Ready {
		return fmt.Errorf("%w: cannot crop while %s", types.ErrInvalidState, s.state)
	}

	s.state = Cropping
	rect := s.CropRect()
	cropped, err := s.cropper.CropAndScale(s.source, rect, s.opts.Cursor, s.opts.MaxOutputSize)
	if err != nil {
		return s.fail(err)
	}

	s.state = Finished
	if s.callbacks.Finished != nil {
		s.callbacks.Finished(Result{
			Image:    cropped.Image,
			CropRect: rect,
			Rect:     cropped.Rect,
			Scale:    cropped.Scale,
		})
	}
	return nil
}

// Cancel ends the session without emitting anything
func (s *Session) Cancel() error {
	if s.state.Terminal() || s.state == Cropping {
		return fmt.Errorf("%w: cannot cancel while %s", types.ErrInvalidState, s.state)
	}
	s.state = Cancelled
	return nil
}

func (s *Session) fail(err error) error {
	s.state = Failed
	s.err = err
	if s.callbacks.Failed != nil {
		s.callbacks.Failed(err)
	}
	return err
}

// ButtonState describes one action button
type ButtonState struct {
	Button types.Button
	Title  string
}

// VisibleButtons lists the buttons to show. Submit needs an image and is
// hidden in preview mode.
func (s *Session) VisibleButtons() []ButtonState {
	var buttons []ButtonState
	if s.opts.Buttons.Contains(types.ButtonSubmit) && s.source != nil && !s.opts.Preview {
		buttons = append(buttons, ButtonState{Button: types.ButtonSubmit, Title: s.opts.Labels.Submit})
	}
	if s.opts.Buttons.Contains(types.ButtonCancel) {
		buttons = append(buttons, ButtonState{Button: types.ButtonCancel, Title: s.opts.Labels.Cancel})
	}
	return buttons
}

// State returns the current state
func (s *Session) State() State { return s.state }

// Err returns the failure that moved the session to Failed
func (s *Session) Err() error { return s.err }

// Viewport returns the current scroll state
func (s *Session) Viewport() geometry.ViewportState { return s.viewport }

// CursorFrame returns the cursor frame in view coordinates
func (s *Session) CursorFrame() geometry.Rect { return s.cursor }

// MinimalScale returns the lowest permitted zoom
func (s *Session) MinimalScale() float64 { return s.minimal }

// NormalScale returns the zoom-to-fit scale
func (s *Session) NormalScale() float64 { return s.normal }

// Image returns the source image, or nil before the session is ready
func (s *Session) Image() image.Image { return s.source }

// Options returns the effective options
func (s *Session) Options() Options { return s.opts }
