package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"

	"github.com/arloliu/spanq"
	"github.com/arloliu/spanq/compress"
	"github.com/arloliu/spanq/config"
	"github.com/arloliu/spanq/engine"
	"github.com/arloliu/spanq/format"
	"github.com/arloliu/spanq/frame"
	"github.com/arloliu/spanq/section"
	"github.com/arloliu/spanq/source/sqlsource"
)

type framesOptions struct {
	configPath  string
	dbPath      string
	outDir      string
	compression string
	byteOrder   string
	start       float64
	end         float64
	resolution  float64
	parallel    int
	showMetrics bool
}

func newFramesCmd(root *rootOptions) *cobra.Command {
	opts := &framesOptions{}

	cmd := &cobra.Command{
		Use:   "frames",
		Short: "Build one frame per configured track for a viewport",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFrames(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "spanq.yaml", "track config file")
	f.StringVar(&opts.dbPath, "db", "", "SQLite trace database, overrides the config file")
	f.StringVarP(&opts.outDir, "out", "o", "", "directory to write encoded frames to")
	f.StringVar(&opts.compression, "compression", "", "frame compression (none, zstd, s2, lz4), overrides the config file")
	f.StringVar(&opts.byteOrder, "byte-order", "little", "frame byte order (little, big, native)")
	f.Float64Var(&opts.start, "start", 0, "viewport start in seconds")
	f.Float64Var(&opts.end, "end", 1, "viewport end in seconds")
	f.Float64Var(&opts.resolution, "resolution", 1e-6, "seconds per pixel")
	f.IntVar(&opts.parallel, "parallel", 4, "tracks refreshed at once, 0 for no limit")
	f.BoolVar(&opts.showMetrics, "metrics", false, "print engine metrics after the run")

	return cmd
}

func runFrames(cmd *cobra.Command, root *rootOptions, opts *framesOptions) error {
	logger, err := root.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	dbPath := cfg.Database
	if opts.dbPath != "" {
		dbPath = opts.dbPath
	}
	if dbPath == "" {
		return errors.New("no trace database: set --db or database in the config file")
	}

	compression := cfg.Compression
	if opts.compression != "" {
		if compression, err = format.ParseCompressionType(opts.compression); err != nil {
			return err
		}
	}

	byteOrder, err := byteOrderOption(opts.byteOrder)
	if err != nil {
		return err
	}

	var fileNames map[string]string
	if opts.outDir != "" {
		if fileNames, err = frameFileNames(cfg.Tracks); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	db, err := sqlsource.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	src, err := sqlsource.New(db)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg, cfg.Metrics.Namespace)
	group, err := spanq.NewGroupFromConfig(cfg, src, opts.parallel,
		engine.WithLogger(logger),
		engine.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	logger.Info("building frames",
		"tracks", group.Len(),
		"start", opts.start,
		"end", opts.end,
		"resolution", opts.resolution,
	)
	results, err := group.OnBoundsChange(ctx, opts.start, opts.end, opts.resolution)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		track, _ := cfg.Track(r.Track)
		warnDepth(logger, track, r.Frame)

		fmt.Fprintf(out, "%s\trows=%d\tstrings=%d\tbucket_ps=%d\tfingerprint=%016x\n",
			r.Track, r.Frame.Len(), len(r.Frame.Strings), r.Frame.BucketPs, r.Frame.Fingerprint())

		if opts.outDir == "" {
			continue
		}
		path := filepath.Join(opts.outDir, fileNames[r.Track])
		stats, err := writeFrame(path, r.Frame, frame.WithCompression(compression), byteOrder)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\twrote %s (%s, %d -> %d bytes, %.1f%% saved)\n",
			path, stats.Algorithm, stats.OriginalSize, stats.CompressedSize, stats.SpaceSavings())
	}

	if opts.showMetrics {
		return printMetrics(out, reg)
	}

	return nil
}

// warnDepth reports frames deeper than the track's configured max depth.
func warnDepth(logger *slog.Logger, track config.TrackConfig, f *frame.Frame) {
	limit, ok := track.DepthLimit()
	if !ok {
		return
	}
	for i, d := range f.Depths {
		if int(d) > limit {
			logger.Warn("slice deeper than max_depth",
				"track", track.Name, "slice_id", f.SliceIDs[i], "depth", d, "max_depth", limit)

			return
		}
	}
}

func byteOrderOption(name string) (frame.EncodeOption, error) {
	switch strings.ToLower(name) {
	case "little", "le":
		return frame.WithLittleEndian(), nil
	case "big", "be":
		return frame.WithBigEndian(), nil
	case "native":
		return frame.WithNativeEndian(), nil
	default:
		return nil, fmt.Errorf("unknown --byte-order %q, want little, big or native", name)
	}
}

func writeFrame(path string, f *frame.Frame, opts ...frame.EncodeOption) (compress.Stats, error) {
	data, err := frame.Encode(f, opts...)
	if err != nil {
		return compress.Stats{}, fmt.Errorf("encoding %s: %w", path, err)
	}
	header, err := frame.DecodeHeader(data)
	if err != nil {
		return compress.Stats{}, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return compress.Stats{}, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint: gosec
		return compress.Stats{}, err
	}

	return compress.Stats{
		Algorithm:      header.Flag.GetCompression(),
		OriginalSize:   int64(section.HeaderSize) + int64(header.PayloadSize),
		CompressedSize: int64(len(data)),
	}, nil
}

// frameFileNames maps every track to its output file name. Tracks whose
// names sanitize to the same file, ignoring case, are rejected.
func frameFileNames(tracks []config.TrackConfig) (map[string]string, error) {
	names := make(map[string]string, len(tracks))
	owners := make(map[string]string, len(tracks))
	for _, t := range tracks {
		name := frameFileName(t.Name)
		key := strings.ToLower(name)
		if other, ok := owners[key]; ok {
			return nil, fmt.Errorf("tracks %q and %q would both be written to %s", other, t.Name, name)
		}
		owners[key] = t.Name
		names[t.Name] = name
	}

	return names, nil
}

// frameFileName maps a track name to a safe file name.
func frameFileName(track string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, track)

	return name + ".frame"
}

func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName() + "{" + strings.Join(labels, ",") + "}"

			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%g", name, h.GetSampleCount(), h.GetSampleSum()))
			default:
			}
		}
	}
	sort.Strings(lines)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}
