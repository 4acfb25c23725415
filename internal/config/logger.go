package config

import (
	"io"
	"log/slog"

	"github.com/samber/oops"
)

// NewLogger builds the process logger described by c
func (c LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("level", c.Level).Wrap(err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch c.Format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json", "":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, oops.Code("CONFIG_INVALID").With("format", c.Format).Errorf("unknown log format")
	}
}
