package poseinterface

// TOML dataset configuration for migration runs.

import (
	"fmt"
	"os"
	"regexp"

	"github.com/pelletier/go-toml/v2"
)

// Dataset identifies one video's place in the benchmark dataset layout.
type Dataset struct {
	Subject string `toml:"subject"`
	Session string `toml:"session"`
	View    string `toml:"view"`
}

// Conversion holds the converter settings.
type Conversion struct {
	Visibility   string `toml:"visibility"`     // "ternary" or "binary".
	FrameRegexp  string `toml:"frame_regexp"`   // Pattern extracting frame numbers from image names.
	KeepImageIDs bool   `toml:"keep_image_ids"` // Keep sequential ids instead of frame numbers.
}

// Frames holds the frame export settings.
type Frames struct {
	ResizeLonger int `toml:"resize_longer"`
	JPEGQuality  int `toml:"jpeg_quality"`
}

// Config is the top-level dataset configuration file.
type Config struct {
	Dataset    Dataset    `toml:"dataset"`
	Conversion Conversion `toml:"conversion"`
	Frames     Frames     `toml:"frames"`
}

// DefaultConfig returns a Config with the converter defaults filled in.
func DefaultConfig() Config {
	return Config{
		Conversion: Conversion{
			Visibility:  string(VisibilityTernary),
			FrameRegexp: DefaultFrameRegexp.String(),
		},
		Frames: Frames{JPEGQuality: 90},
	}
}

// LoadConfig reads and validates the TOML config at path, applying the
// defaults for unset fields.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	enc, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := toml.Unmarshal(enc, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %q: %v", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %q: %v", path, err)
	}
	return cfg, nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if !VisibilityEncoding(c.Conversion.Visibility).valid() {
		return fmt.Errorf("visibility must be %q or %q, got %q",
			VisibilityTernary, VisibilityBinary, c.Conversion.Visibility)
	}
	re, err := regexp.Compile(c.Conversion.FrameRegexp)
	if err != nil {
		return fmt.Errorf("invalid frame_regexp: %v", err)
	}
	if re.NumSubexp() < 1 {
		return fmt.Errorf("frame_regexp %q needs a capture group for the digits", c.Conversion.FrameRegexp)
	}
	if c.Frames.ResizeLonger < 0 {
		return fmt.Errorf("resize_longer must not be negative")
	}
	if c.Frames.JPEGQuality < 1 || c.Frames.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be in [1, 100]")
	}
	return nil
}

// ConvertOptions translates the config into the options AnnotationsToCOCO
// expects.
func (c *Config) ConvertOptions() *ConvertOptions {
	return &ConvertOptions{
		Visibility:  VisibilityEncoding(c.Conversion.Visibility),
		FrameRegexp: regexp.MustCompile(c.Conversion.FrameRegexp),
		Naming: NamingScheme{
			Subject: c.Dataset.Subject,
			Session: c.Dataset.Session,
			View:    c.Dataset.View,
		},
		KeepImageIDs: c.Conversion.KeepImageIDs,
	}
}
