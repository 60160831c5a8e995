// Package sqlsource implements source.IntervalSource on top of a SQL trace
// database.
//
// The expected layout is one slice table, one optional category table keyed
// by slice id, and a single-row trace bounds table:
//
//	slice(id, track_id, ts, dur, depth, name)
//	actual_frame_timeline_slice(id, jank_tag)
//	trace_bounds(start_ts, end_ts)
//
// Grouping happens inside the database. FetchIntervals groups by quantized
// start and depth and relies on SQLite's bare column rule: with a single
// max() aggregate, the other selected columns come from the row holding the
// maximum, which makes the longest slice of each group its representative.
package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/arloliu/spanq/internal/options"
	"github.com/arloliu/spanq/source"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Default table names.
const (
	DefaultSliceTable    = "slice"
	DefaultCategoryTable = "actual_frame_timeline_slice"
	DefaultBoundsTable   = "trace_bounds"
)

// Config holds the table names the source queries.
type Config struct {
	sliceTable    string
	categoryTable string
	boundsTable   string
}

// Option configures a Source.
type Option = options.Option[*Config]

// WithSliceTable overrides the slice table name.
func WithSliceTable(name string) Option {
	return options.New(func(c *Config) error {
		return setTable(&c.sliceTable, name)
	})
}

// WithCategoryTable overrides the table holding the jank_tag column.
func WithCategoryTable(name string) Option {
	return options.New(func(c *Config) error {
		return setTable(&c.categoryTable, name)
	})
}

// WithBoundsTable overrides the trace bounds table name.
func WithBoundsTable(name string) Option {
	return options.New(func(c *Config) error {
		return setTable(&c.boundsTable, name)
	})
}

func setTable(dst *string, name string) error {
	if !isIdentifier(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	*dst = name

	return nil
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}

	return true
}

// Source reads grouped intervals from a database handle. It is safe for
// concurrent use as long as db is.
type Source struct {
	db  *sql.DB
	cfg *Config
}

var _ source.IntervalSource = (*Source)(nil)

// New creates a source over db. The caller keeps ownership of db.
func New(db *sql.DB, opts ...Option) (*Source, error) {
	if db == nil {
		return nil, errors.New("sqlsource: nil database")
	}

	cfg := &Config{
		sliceTable:    DefaultSliceTable,
		categoryTable: DefaultCategoryTable,
		boundsTable:   DefaultBoundsTable,
	}
	if err := options.ApplyAndValidate(cfg, (*Config).validate, opts...); err != nil {
		return nil, err
	}

	return &Source{db: db, cfg: cfg}, nil
}

func (c *Config) validate() error {
	if c.sliceTable == c.categoryTable || c.sliceTable == c.boundsTable || c.categoryTable == c.boundsTable {
		return fmt.Errorf("table names must be distinct: slice=%s category=%s bounds=%s",
			c.sliceTable, c.categoryTable, c.boundsTable)
	}

	return nil
}

// effectiveDurExpr measures open slices up to the trace end.
func (s *Source) effectiveDurExpr() string {
	return fmt.Sprintf("iif(s.dur = -1, (SELECT end_ts FROM %s) - s.ts, s.dur)", s.cfg.boundsTable)
}

// ProbeMaxDuration implements source.IntervalSource.
func (s *Source) ProbeMaxDuration(ctx context.Context, scope source.Scope) (int64, bool, error) {
	if len(scope.TrackIDs) == 0 {
		return 0, false, nil
	}

	query := fmt.Sprintf("SELECT max(%s) FROM %s s WHERE s.track_id IN (%s)",
		s.effectiveDurExpr(), s.cfg.sliceTable, placeholders(len(scope.TrackIDs)))

	var maxDur sql.NullInt64
	if err := s.db.QueryRowContext(ctx, query, trackArgs(scope)...).Scan(&maxDur); err != nil {
		return 0, false, fmt.Errorf("max duration query: %w", err)
	}

	return maxDur.Int64, maxDur.Valid, nil
}

// TraceBounds implements source.IntervalSource.
func (s *Source) TraceBounds(ctx context.Context) (source.Bounds, error) {
	query := fmt.Sprintf("SELECT start_ts, end_ts FROM %s LIMIT 1", s.cfg.boundsTable)

	var b source.Bounds
	err := s.db.QueryRowContext(ctx, query).Scan(&b.StartPs, &b.EndPs)
	if errors.Is(err, sql.ErrNoRows) {
		return source.Bounds{}, fmt.Errorf("%s is empty: %w", s.cfg.boundsTable, err)
	}
	if err != nil {
		return source.Bounds{}, fmt.Errorf("trace bounds query: %w", err)
	}

	return b, nil
}

// FetchIntervals implements source.IntervalSource.
func (s *Source) FetchIntervals(ctx context.Context, q source.Query) ([]source.Row, error) {
	if len(q.Scope.TrackIDs) == 0 {
		return []source.Row{}, nil
	}

	bucketPs := max(q.BucketPs, 1)
	category, join := "''", ""
	if q.WithCategory {
		category = "coalesce(c.jank_tag, '')"
		join = fmt.Sprintf("LEFT JOIN %s c ON c.id = s.id", s.cfg.categoryTable)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT s.id, s.ts, s.dur, s.depth, coalesce(s.name, ''), %s,", category)
	sb.WriteString(" (s.ts + ?) / ? * ? AS tsq,")
	fmt.Fprintf(&sb, " max(%s) AS eff_dur", s.effectiveDurExpr())
	fmt.Fprintf(&sb, " FROM %s s %s", s.cfg.sliceTable, join)
	fmt.Fprintf(&sb, " WHERE s.track_id IN (%s) AND s.ts >= ? AND s.ts <= ?", placeholders(len(q.Scope.TrackIDs)))
	sb.WriteString(" GROUP BY tsq, s.depth ORDER BY tsq, s.depth")

	args := make([]any, 0, len(q.Scope.TrackIDs)+5)
	args = append(args, bucketPs/2, bucketPs, bucketPs)
	args = append(args, trackArgs(q.Scope)...)
	args = append(args, q.WindowStartPs, q.WindowEndPs)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("interval query: %w", err)
	}
	defer rows.Close()

	var out []source.Row
	for rows.Next() {
		var (
			r      source.Row
			depth  int64
			tsq    int64
			effDur sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Ts, &r.Dur, &depth, &r.Name, &r.Category, &tsq, &effDur); err != nil {
			return nil, fmt.Errorf("interval scan: %w", err)
		}
		if depth < 0 || depth > int64(^uint32(0)) {
			return nil, fmt.Errorf("slice %d has out of range depth %d", r.ID, depth)
		}
		r.Depth = uint32(depth)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("interval rows: %w", err)
	}
	if out == nil {
		out = []source.Row{}
	}

	return out, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}

	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func trackArgs(scope source.Scope) []any {
	args := make([]any, len(scope.TrackIDs))
	for i, id := range scope.TrackIDs {
		args[i] = id
	}

	return args
}
