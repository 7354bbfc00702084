package logger

import (
	"io"
	"log/slog"
)

// Option adjusts how New builds a logger.
type Option func(*config)

// WithDebug lowers the level to Debug. False keeps Info.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty switches to the charmbracelet/log handler for terminals.
func WithPretty(pretty bool) Option {
	return func(c *config) { c.pretty = pretty }
}

// WithJSON writes one JSON object per record. It takes precedence over
// WithPretty.
func WithJSON(json bool) Option {
	return func(c *config) { c.json = json }
}

// WithWriter sends records to w instead of os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(c *config) { c.w = w }
}

// WithSource records the calling file and line.
func WithSource(source bool) Option {
	return func(c *config) { c.source = source }
}
