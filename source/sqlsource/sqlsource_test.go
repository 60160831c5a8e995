package sqlsource

import (
	"context"
	"database/sql"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/spanq/bucket"
	"github.com/arloliu/spanq/color"
	"github.com/arloliu/spanq/source"
)

var testBounds = source.Bounds{StartPs: 0, EndPs: 1_000_000}

func openTestDB(t *testing.T, items ...source.Slice) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, InitSchema(ctx, db))
	require.NoError(t, Load(ctx, db, testBounds, items...))

	return db
}

func newTestSource(t *testing.T, items ...source.Slice) *Source {
	t.Helper()
	src, err := New(openTestDB(t, items...))
	require.NoError(t, err)

	return src
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	db := openTestDB(t)
	for _, name := range []string{"", "1slice", "slice; DROP TABLE slice", "a-b"} {
		_, err := New(db, WithSliceTable(name))
		require.Error(t, err, "table name %q", name)
	}

	_, err = New(db, WithSliceTable("slice"), WithCategoryTable("tags_2"), WithBoundsTable("Bounds"))
	require.NoError(t, err)

	_, err = New(db, WithCategoryTable("slice"))
	require.ErrorContains(t, err, "distinct")
}

func TestProbeMaxDuration(t *testing.T) {
	src := newTestSource(t,
		source.Slice{ID: 1, TrackID: 1, Ts: 0, Dur: 300},
		source.Slice{ID: 2, TrackID: 1, Ts: 900_000, Dur: bucket.OpenDuration},
		source.Slice{ID: 3, TrackID: 2, Ts: 0, Dur: 500_000},
	)
	ctx := context.Background()

	maxDur, ok, err := src.ProbeMaxDuration(ctx, source.NewScope(1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(100_000), maxDur)

	maxDur, ok, err = src.ProbeMaxDuration(ctx, source.NewScope(1, 2))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(500_000), maxDur)

	_, ok, err = src.ProbeMaxDuration(ctx, source.NewScope(42))
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = src.ProbeMaxDuration(ctx, source.NewScope())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTraceBounds(t *testing.T) {
	src := newTestSource(t)

	b, err := src.TraceBounds(context.Background())
	require.NoError(t, err)
	require.Equal(t, testBounds, b)

	db, err := Open(context.Background(), MemoryDSN)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, InitSchema(context.Background(), db))

	empty, err := New(db)
	require.NoError(t, err)
	_, err = empty.TraceBounds(context.Background())
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFetchIntervals_Grouping(t *testing.T) {
	src := newTestSource(t,
		source.Slice{ID: 1, TrackID: 1, Ts: 100, Dur: 100, Name: "short", Category: color.TagNoJank},
		source.Slice{ID: 2, TrackID: 1, Ts: 300, Dur: 900, Name: "long", Category: color.TagSelfJank},
		source.Slice{ID: 3, TrackID: 1, Ts: 200, Dur: 50, Depth: 1, Name: "child"},
		source.Slice{ID: 4, TrackID: 1, Ts: 2_000, Dur: 0, Name: "instant", Category: "Unknown Tag"},
		source.Slice{ID: 5, TrackID: 2, Ts: 300, Dur: 5_000, Name: "other track"},
	)

	rows, err := src.FetchIntervals(context.Background(), source.Query{
		Scope:         source.NewScope(1),
		WindowStartPs: 0,
		WindowEndPs:   10_000,
		BucketPs:      1000,
		WithCategory:  true,
	})
	require.NoError(t, err)

	require.Equal(t, []source.Row{
		{ID: 2, Ts: 300, Dur: 900, Depth: 0, Name: "long", Category: color.TagSelfJank},
		{ID: 3, Ts: 200, Dur: 50, Depth: 1, Name: "child", Category: ""},
		{ID: 4, Ts: 2_000, Dur: 0, Depth: 0, Name: "instant", Category: "Unknown Tag"},
	}, rows)
}

func TestFetchIntervals_WithoutCategory(t *testing.T) {
	src := newTestSource(t, source.Slice{ID: 1, TrackID: 1, Ts: 0, Dur: 10, Name: "a", Category: color.TagSelfJank})

	rows, err := src.FetchIntervals(context.Background(), source.Query{
		Scope: source.NewScope(1), WindowEndPs: 100, BucketPs: 10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Empty(t, rows[0].Category)
}

func TestFetchIntervals_OpenSliceWinsGroup(t *testing.T) {
	src := newTestSource(t,
		source.Slice{ID: 1, TrackID: 1, Ts: 100, Dur: 5_000, Name: "closed"},
		source.Slice{ID: 2, TrackID: 1, Ts: 200, Dur: bucket.OpenDuration, Name: "open"},
	)

	rows, err := src.FetchIntervals(context.Background(), source.Query{
		Scope: source.NewScope(1), WindowEndPs: 1_000, BucketPs: 1_000,
	})
	require.NoError(t, err)
	require.Equal(t, []source.Row{{ID: 2, Ts: 200, Dur: bucket.OpenDuration, Name: "open"}}, rows)
}

func TestFetchIntervals_EmptyScope(t *testing.T) {
	src := newTestSource(t, source.Slice{ID: 1, TrackID: 1, Ts: 0, Dur: 10})

	rows, err := src.FetchIntervals(context.Background(), source.Query{WindowEndPs: 100, BucketPs: 10})
	require.NoError(t, err)
	require.NotNil(t, rows)
	require.Empty(t, rows)
}

func TestFetchIntervals_CanceledContext(t *testing.T) {
	src := newTestSource(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.FetchIntervals(ctx, source.Query{Scope: source.NewScope(1), WindowEndPs: 100, BucketPs: 10})
	require.Error(t, err)
}

// uniqueSlices generates slices whose effective durations never tie, so the
// representative of every group is well defined.
func uniqueSlices(r *rand.Rand, n int) []source.Slice {
	used := make(map[int64]bool)
	items := make([]source.Slice, 0, n)
	for id := int64(1); len(items) < n; id++ {
		ts := r.Int64N(testBounds.EndPs)
		dur := r.Int64N(20_000)
		if r.IntN(15) == 0 {
			dur = bucket.OpenDuration
		}
		eff := bucket.EffectiveDuration(ts, dur, testBounds.EndPs)
		if used[eff] {
			continue
		}
		used[eff] = true
		items = append(items, source.Slice{
			ID:       id,
			TrackID:  r.Int64N(3),
			Ts:       ts,
			Dur:      dur,
			Depth:    uint32(r.IntN(3)), //nolint: gosec
			Name:     []string{"a", "b", "c"}[r.IntN(3)],
			Category: []string{"", color.TagSelfJank, color.TagDroppedFrame}[r.IntN(3)],
		})
	}

	return items
}

func TestFetchIntervals_MatchesMemory(t *testing.T) {
	items := uniqueSlices(rand.New(rand.NewPCG(11, 12)), 2_000)
	sqlSrc := newTestSource(t, items...)
	memSrc := source.NewMemory(testBounds, items...)
	ctx := context.Background()

	queries := []source.Query{
		{Scope: source.NewScope(0), WindowStartPs: 0, WindowEndPs: testBounds.EndPs, BucketPs: 1_000, WithCategory: true},
		{Scope: source.NewScope(1, 2), WindowStartPs: 100_000, WindowEndPs: 400_000, BucketPs: 10_000},
		{Scope: source.NewScope(0, 1, 2), WindowStartPs: -50_000, WindowEndPs: 250_000, BucketPs: 2, WithCategory: true},
		{Scope: source.NewScope(2), WindowStartPs: 0, WindowEndPs: testBounds.EndPs, BucketPs: 1},
	}
	for _, q := range queries {
		want, err := memSrc.FetchIntervals(ctx, q)
		require.NoError(t, err)
		got, err := sqlSrc.FetchIntervals(ctx, q)
		require.NoError(t, err)
		require.Equal(t, want, got, "scope %s bucket %d", q.Scope, q.BucketPs)

		wantMax, wantOK, err := memSrc.ProbeMaxDuration(ctx, q.Scope)
		require.NoError(t, err)
		gotMax, gotOK, err := sqlSrc.ProbeMaxDuration(ctx, q.Scope)
		require.NoError(t, err)
		require.Equal(t, wantOK, gotOK)
		require.Equal(t, wantMax, gotMax)
	}
}
