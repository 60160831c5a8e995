package engine

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/arloliu/spanq/color"
	"github.com/arloliu/spanq/errs"
	"github.com/arloliu/spanq/frame"
	"github.com/arloliu/spanq/internal/options"
)

// DefaultPixelSize is the bucket width in device pixels.
const DefaultPixelSize = 1.0

// Config holds the engine settings assembled from Options.
type Config struct {
	name      string
	pixelSize float64
	policy    color.Policy
	logger    *slog.Logger
	metrics   *Metrics
	convert   frame.TimeConverter
}

// Option configures an Engine.
type Option = options.Option[*Config]

func defaultConfig() *Config {
	return &Config{
		pixelSize: DefaultPixelSize,
		policy:    color.Fixed(color.Green),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithName labels the engine in logs and metrics.
func WithName(name string) Option {
	return options.NoError(func(c *Config) {
		c.name = name
	})
}

// WithPixelSize sets how many device pixels one bucket covers.
func WithPixelSize(px float64) Option {
	return options.New(func(c *Config) error {
		if math.IsNaN(px) || math.IsInf(px, 0) || px <= 0 {
			return fmt.Errorf("%w: pixel size must be positive and finite, got %v", errs.ErrInvalidConfig, px)
		}
		c.pixelSize = px

		return nil
	})
}

// WithPolicy sets the color policy. The default paints every row green.
func WithPolicy(p color.Policy) Option {
	return options.New(func(c *Config) error {
		if p == nil {
			return fmt.Errorf("%w: nil color policy", errs.ErrInvalidConfig)
		}
		c.policy = p

		return nil
	})
}

// WithLogger sets the logger. A nil logger keeps the default, which
// discards everything.
func WithLogger(l *slog.Logger) Option {
	return options.NoError(func(c *Config) {
		if l != nil {
			c.logger = l
		}
	})
}

// WithMetrics records engine activity into m.
func WithMetrics(m *Metrics) Option {
	return options.NoError(func(c *Config) {
		c.metrics = m
	})
}

// WithTimeConverter overrides the picosecond to output unit conversion.
// The default yields seconds.
func WithTimeConverter(fn frame.TimeConverter) Option {
	return options.NoError(func(c *Config) {
		c.convert = fn
	})
}
