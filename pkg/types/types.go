package types

import "errors"

// Error kinds reported to a session's failure callback. Wrapped errors keep
// the human-readable detail; match the kind with errors.Is.
var (
	// ErrInvalidInput is returned for malformed URLs and non-positive image dimensions
	ErrInvalidInput = errors.New("invalid input")
	// ErrDownloadFailure is returned when fetching or decoding a remote image fails
	ErrDownloadFailure = errors.New("download failed")
	// ErrMissingCapability is returned when no download handler is configured
	ErrMissingCapability = errors.New("download handler is not set")
	// ErrPreviewMode is returned when a crop is requested from a preview-only session
	ErrPreviewMode = errors.New("cropping is disabled in preview mode")
	// ErrInvalidState is returned when an operation is not allowed in the current session state
	ErrInvalidState = errors.New("invalid session state")
)

// Button is a bit set of the action buttons shown under the viewport
type Button int

const (
	ButtonSubmit Button = 1 << iota
	ButtonCancel
)

// DefaultButtons shows both actions
const DefaultButtons = ButtonSubmit | ButtonCancel

// Contains reports whether all bits of other are set
func (b Button) Contains(other Button) bool {
	return b&other == other
}

// Labels holds the action button titles
type Labels struct {
	Submit string `json:"submit"`
	Cancel string `json:"cancel"`
}

// DefaultLabels returns the stock button titles
func DefaultLabels() Labels {
	return Labels{Submit: "Save", Cancel: "Cancel"}
}

// OutputConfig defines how a cropped image is encoded
type OutputConfig struct {
	Format   string `json:"format"`
	Quality  int    `json:"quality"`
	Lossless bool   `json:"lossless"`
}
