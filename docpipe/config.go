// CLAUDE:SUMMARY Configuration struct and defaults for the HTML import pipeline.
package docpipe

import "log/slog"

// Config configures an HTML conversion.
type Config struct {
	// MaxBytes is the maximum HTML document size (default: 10 MB).
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`

	// MaxParts caps the number of parts one import can produce
	// (default: 200).
	MaxParts int `json:"max_parts" yaml:"max_parts"`

	// Logger for skip/truncation warnings.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.MaxParts <= 0 {
		c.MaxParts = 200
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
