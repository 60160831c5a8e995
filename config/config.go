// Package config loads track definitions from YAML.
//
// A minimal file:
//
//	database: trace.db
//	compression: zstd
//	metrics:
//	  namespace: spanq
//	tracks:
//	  - name: app frames
//	    kind: actual_frames
//	    track_ids: [12, 13]
//	    max_depth: 2
//	  - name: expected
//	    kind: expected_frames
//	    track_ids: [14]
//	    pixel_size: 2
//
// Unknown keys are rejected. Missing optional values take the defaults
// documented on each field.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/spanq/errs"
	"github.com/arloliu/spanq/format"
)

// Track kinds accepted in the kind field.
const (
	KindActualFrames   = "actual_frames"
	KindExpectedFrames = "expected_frames"
)

// DefaultNamespace is the metrics namespace used when none is configured.
const DefaultNamespace = "spanq"

// Config is the root of a config file.
type Config struct {
	// Database is the SQLite trace database path. Optional; the CLI flag
	// takes precedence.
	Database string `yaml:"database"`
	// Compression applies to encoded frames. Defaults to none.
	Compression format.CompressionType `yaml:"compression"`
	Metrics     MetricsConfig          `yaml:"metrics"`
	Tracks      []TrackConfig          `yaml:"tracks" validate:"required,min=1,unique=Name,dive"`
}

// MetricsConfig configures Prometheus instrumentation.
type MetricsConfig struct {
	// Namespace prefixes every metric name. Defaults to DefaultNamespace.
	Namespace string `yaml:"namespace" validate:"omitempty,metricname"`
}

// TrackConfig describes one frame timeline track.
type TrackConfig struct {
	Name     string  `yaml:"name" validate:"required"`
	Kind     string  `yaml:"kind" validate:"required,oneof=actual_frames expected_frames"`
	TrackIDs []int64 `yaml:"track_ids" validate:"required,min=1"`
	// MaxDepth is the deepest layout level the track expects to draw.
	// Nil leaves depth unchecked; 0 allows top-level slices only.
	MaxDepth *int `yaml:"max_depth,omitempty" validate:"omitempty,gte=0"`
	// PixelSize is the bucket width in device pixels. Defaults to 1.
	PixelSize float64 `yaml:"pixel_size" validate:"gte=0"`
}

// DepthLimit returns MaxDepth and whether it is set.
func (t TrackConfig) DepthLimit() (int, bool) {
	if t.MaxDepth == nil {
		return 0, false
	}

	return *t.MaxDepth, true
}

var metricNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("metricname", func(fl validator.FieldLevel) bool {
		return metricNameRe.MatchString(fl.Field().String())
	})

	return v
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{Compression: format.CompressionNone}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidConfig, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	for i := range c.Tracks {
		if c.Tracks[i].PixelSize == 0 {
			c.Tracks[i].PixelSize = 1
		}
	}
}

// Validate checks field constraints and reports every violation at once.
func (c *Config) Validate() error {
	if !c.Compression.IsValid() {
		return fmt.Errorf("%w: unknown compression %d", errs.ErrInvalidConfig, uint8(c.Compression))
	}

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", errs.ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}

	return fmt.Errorf("%w: %s", errs.ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Track returns the track with the given name.
func (c *Config) Track(name string) (TrackConfig, bool) {
	for _, t := range c.Tracks {
		if t.Name == name {
			return t, true
		}
	}

	return TrackConfig{}, false
}
