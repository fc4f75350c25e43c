package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/types"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Session.Cursor = geometry.CursorRoundedRect
	cfg.Session.Zoom = geometry.CustomZoom(1.5)
	cfg.Session.MaxOutputSize = geometry.Size{Width: 512, Height: 512}
	cfg.Download.Timeout = Duration(5 * time.Second)
	cfg.Output.Format = "webp"

	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if loaded.Session.Cursor != geometry.CursorRoundedRect {
		t.Errorf("Expected rounded cursor, got %s", loaded.Session.Cursor)
	}
	if loaded.Session.Zoom != geometry.CustomZoom(1.5) {
		t.Errorf("Expected custom zoom 1.5, got %s", loaded.Session.Zoom)
	}
	if loaded.Session.MaxOutputSize.Width != 512 {
		t.Errorf("Expected max width 512, got %f", loaded.Session.MaxOutputSize.Width)
	}
	if time.Duration(loaded.Download.Timeout) != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", time.Duration(loaded.Download.Timeout))
	}
	if loaded.Output.Format != "webp" {
		t.Errorf("Expected webp, got %s", loaded.Output.Format)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"session": {"cursor": "none", "zoom": "min", "preview": true}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Session.Cursor != geometry.CursorNone || cfg.Session.Zoom != geometry.MinZoom() || !cfg.Session.Preview {
		t.Errorf("Unexpected session section %+v", cfg.Session)
	}
	if cfg.Output.Quality != 90 {
		t.Errorf("Expected default quality 90, got %d", cfg.Output.Quality)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Partial config should validate: %v", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"session": {"cursor": "hexagon"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromFile(path); err == nil {
		t.Error("Expected error for unknown cursor shape")
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero view", func(c *Config) { c.Session.ViewSize = geometry.Size{} }},
		{"view too short", func(c *Config) { c.Session.ViewSize = geometry.Size{Width: 300, Height: 60} }},
		{"negative max size", func(c *Config) { c.Session.MaxOutputSize = geometry.Size{Width: -1} }},
		{"shade opacity", func(c *Config) { c.Cropper.ShadeOpacity = 2 }},
		{"border width", func(c *Config) { c.Cropper.BorderWidth = -1 }},
		{"timeout", func(c *Config) { c.Download.Timeout = 0 }},
		{"max bytes", func(c *Config) { c.Download.MaxBytes = 0 }},
		{"format", func(c *Config) { c.Output.Format = "gif" }},
		{"quality", func(c *Config) { c.Output.Quality = 101 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestSessionOptions(t *testing.T) {
	cfg := Default()
	cfg.Session.ShowSubmit = false
	cfg.Session.Labels.Cancel = "Back"

	opts := cfg.SessionOptions()
	if opts.Buttons.Contains(types.ButtonSubmit) {
		t.Error("Submit should be hidden")
	}
	if !opts.Buttons.Contains(types.ButtonCancel) {
		t.Error("Cancel should be shown")
	}
	if opts.Labels.Cancel != "Back" {
		t.Errorf("Expected cancel label Back, got %s", opts.Labels.Cancel)
	}
	if opts.Cursor != geometry.CursorCircle {
		t.Errorf("Expected circle cursor, got %s", opts.Cursor)
	}
}
