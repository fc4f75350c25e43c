package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/menta2k/image-cropper/pkg/cropper"
	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/session"
	"github.com/menta2k/image-cropper/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Session  SessionConfig  `json:"session"`
	Cropper  CropperConfig  `json:"cropper"`
	Download DownloadConfig `json:"download"`
	Output   OutputConfig   `json:"output"`
}

// SessionConfig holds the crop session surface
type SessionConfig struct {
	Cursor        geometry.CursorShape `json:"cursor"`
	Zoom          geometry.ZoomPolicy  `json:"zoom"`
	Preview       bool                 `json:"preview"`
	ViewSize      geometry.Size        `json:"view_size"`
	MaxOutputSize geometry.Size        `json:"max_output_size"`
	ShowSubmit    bool                 `json:"show_submit"`
	ShowCancel    bool                 `json:"show_cancel"`
	Labels        types.Labels         `json:"labels"`
}

// CropperConfig holds configuration for rasterizing crops
type CropperConfig struct {
	Filter       string  `json:"filter"`
	ShadeOpacity float64 `json:"shade_opacity"`
	BorderWidth  int     `json:"border_width"`
}

// DownloadConfig holds configuration for the default download capability
type DownloadConfig struct {
	Timeout   Duration `json:"timeout"`
	UserAgent string   `json:"user_agent"`
	MaxBytes  int64    `json:"max_bytes"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	types.OutputConfig
	OutputDir string `json:"output_dir"`
	Suffix    string `json:"suffix"`
}

// Duration is a time.Duration written as a string such as "30s"
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			Cursor:     geometry.CursorCircle,
			Zoom:       geometry.NormalZoom(),
			ViewSize:   session.DefaultViewSize,
			ShowSubmit: true,
			ShowCancel: true,
			Labels:     types.DefaultLabels(),
		},
		Cropper: CropperConfig{
			Filter:       "lanczos",
			ShadeOpacity: 0.75,
			BorderWidth:  2,
		},
		Download: DownloadConfig{
			Timeout:   Duration(30 * time.Second),
			UserAgent: "Image-Cropper/1.0 (+https://github.com/menta2k/image-cropper)",
			MaxBytes:  64 << 20,
		},
		Output: OutputConfig{
			OutputConfig: types.OutputConfig{
				Format:  "jpg",
				Quality: 90,
			},
			OutputDir: "./output",
			Suffix:    "_cropped",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Missing fields keep
// their defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !c.Session.ViewSize.Positive() {
		return fmt.Errorf("session.view_size must be positive")
	}

	if c.Session.ViewSize.Height <= geometry.ButtonsPanelHeight+2*geometry.FrameOffset {
		return fmt.Errorf("session.view_size height must leave room for the buttons panel")
	}

	if c.Session.MaxOutputSize.Width < 0 || c.Session.MaxOutputSize.Height < 0 {
		return fmt.Errorf("session.max_output_size cannot be negative")
	}

	if c.Session.Zoom.Kind == geometry.ZoomCustom && c.Session.Zoom.Scale <= 0 {
		return fmt.Errorf("session.zoom must be a positive scale")
	}

	if c.Cropper.ShadeOpacity < 0 || c.Cropper.ShadeOpacity > 1 {
		return fmt.Errorf("cropper.shade_opacity must be between 0 and 1")
	}

	if c.Cropper.BorderWidth < 0 {
		return fmt.Errorf("cropper.border_width cannot be negative")
	}

	if c.Download.Timeout <= 0 {
		return fmt.Errorf("download.timeout must be positive")
	}

	if c.Download.MaxBytes <= 0 {
		return fmt.Errorf("download.max_bytes must be positive")
	}

	switch strings.ToLower(c.Output.Format) {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("output.format must be jpg, png or webp")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

// SessionOptions converts the session section into session.Options
func (c *Config) SessionOptions() session.Options {
	var buttons types.Button
	if c.Session.ShowSubmit {
		buttons |= types.ButtonSubmit
	}
	if c.Session.ShowCancel {
		buttons |= types.ButtonCancel
	}

	return session.Options{
		Cursor:        c.Session.Cursor,
		Zoom:          c.Session.Zoom,
		Preview:       c.Session.Preview,
		MaxOutputSize: c.Session.MaxOutputSize,
		ViewSize:      c.Session.ViewSize,
		Buttons:       buttons,
		Labels:        c.Session.Labels,
	}
}

// CropConfig converts the cropper section into cropper.CropConfig
func (c *Config) CropConfig() cropper.CropConfig {
	return cropper.CropConfig{
		Filter:       c.Cropper.Filter,
		ShadeOpacity: c.Cropper.ShadeOpacity,
		BorderWidth:  c.Cropper.BorderWidth,
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "image-cropper", "config.json")
}
