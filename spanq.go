// Package spanq turns interval events into screen-resolution frames for
// frame timeline tracks.
//
// Given slices (start, duration, depth, name, optional jank tag) confined to
// a viewport, an engine downsamples them into pixel-sized buckets and
// returns parallel columns a renderer can draw directly.
//
// # Track Kinds
//
// Two track kinds share one engine and differ only in their color policy:
//
//   - KindActualFrames colors each slice by its jank tag (color.Jank).
//   - KindExpectedFrames paints every slice green (color.Fixed).
//
// # Basic Usage
//
//	src := source.NewMemory(source.Bounds{EndPs: traceEnd}, slices...)
//	eng, _ := spanq.NewActualFramesEngine(src, []int64{12, 13})
//
//	f, err := eng.OnBoundsChange(ctx, 0.5, 1.5, 1e-6)
//	if err != nil {
//	    return err
//	}
//	for i := 0; i < f.Len(); i++ {
//	    fmt.Println(f.Starts[i], f.Ends[i], f.Title(i), f.ColorKey(i))
//	}
//
// # Package Structure
//
// This package wires the lower level packages together: bucket (quantization
// arithmetic), color (policies), frame (aggregation and the wire codec),
// source (interval sources, with source/sqlsource for SQLite traces),
// engine (lifecycle, metrics, parallel refresh) and config (YAML tracks).
package spanq

import (
	"fmt"

	"github.com/arloliu/spanq/color"
	"github.com/arloliu/spanq/config"
	"github.com/arloliu/spanq/engine"
	"github.com/arloliu/spanq/errs"
	"github.com/arloliu/spanq/source"
)

// Kind identifies a frame timeline track type.
type Kind string

const (
	KindActualFrames   Kind = "ActualFramesSliceTrack"
	KindExpectedFrames Kind = "ExpectedFramesSliceTrack"
)

// Kinds returns every supported track kind.
func Kinds() []Kind {
	return []Kind{KindActualFrames, KindExpectedFrames}
}

// ParseKind accepts a canonical kind name or its config file spelling
// (actual_frames, expected_frames).
func ParseKind(name string) (Kind, error) {
	switch name {
	case string(KindActualFrames), config.KindActualFrames:
		return KindActualFrames, nil
	case string(KindExpectedFrames), config.KindExpectedFrames:
		return KindExpectedFrames, nil
	default:
		return "", fmt.Errorf("%w: %q", errs.ErrUnknownTrackKind, name)
	}
}

// Policy returns the color policy of the kind.
func (k Kind) Policy() (color.Policy, error) {
	switch k {
	case KindActualFrames:
		return color.Jank(), nil
	case KindExpectedFrames:
		return color.Fixed(color.Green), nil
	default:
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownTrackKind, string(k))
	}
}

// NewEngine creates an engine for a track of the given kind. The kind's
// color policy is applied before opts, so an explicit engine.WithPolicy
// overrides it.
func NewEngine(kind Kind, src source.IntervalSource, scope source.Scope, opts ...engine.Option) (*engine.Engine, error) {
	policy, err := kind.Policy()
	if err != nil {
		return nil, err
	}

	all := make([]engine.Option, 0, len(opts)+1)
	all = append(all, engine.WithPolicy(policy))
	all = append(all, opts...)

	return engine.New(src, scope, all...)
}

// NewActualFramesEngine creates a jank-colored engine over trackIDs.
func NewActualFramesEngine(src source.IntervalSource, trackIDs []int64, opts ...engine.Option) (*engine.Engine, error) {
	return NewEngine(KindActualFrames, src, source.NewScope(trackIDs...), opts...)
}

// NewExpectedFramesEngine creates a fixed-color engine over trackIDs.
func NewExpectedFramesEngine(src source.IntervalSource, trackIDs []int64, opts ...engine.Option) (*engine.Engine, error) {
	return NewEngine(KindExpectedFrames, src, source.NewScope(trackIDs...), opts...)
}

// NewEngineFromConfig creates the engine described by a config track. The
// track name and pixel size are applied before opts.
func NewEngineFromConfig(track config.TrackConfig, src source.IntervalSource, opts ...engine.Option) (*engine.Engine, error) {
	kind, err := ParseKind(track.Kind)
	if err != nil {
		return nil, err
	}

	all := []engine.Option{engine.WithName(track.Name)}
	if track.PixelSize > 0 {
		all = append(all, engine.WithPixelSize(track.PixelSize))
	}
	all = append(all, opts...)

	return NewEngine(kind, src, source.NewScope(track.TrackIDs...), all...)
}

// NewGroupFromConfig creates one engine per configured track, all reading
// from src, and registers them in a group refreshing at most limit tracks
// at once.
func NewGroupFromConfig(cfg *config.Config, src source.IntervalSource, limit int, opts ...engine.Option) (*engine.Group, error) {
	g := engine.NewGroup(limit)
	for _, track := range cfg.Tracks {
		e, err := NewEngineFromConfig(track, src, opts...)
		if err != nil {
			return nil, fmt.Errorf("track %q: %w", track.Name, err)
		}
		if err := g.Add(e); err != nil {
			return nil, err
		}
	}

	return g, nil
}
