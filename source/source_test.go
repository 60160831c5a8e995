package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/spanq/bucket"
)

func TestScope(t *testing.T) {
	s := NewScope(3, 14, 15)

	require.Equal(t, "3,14,15", s.String())
	require.True(t, s.Contains(14))
	require.False(t, s.Contains(9))
	require.Empty(t, Scope{}.String())
	require.False(t, Scope{}.Contains(0))
}

func newTestMemory() *Memory {
	return NewMemory(Bounds{StartPs: 0, EndPs: 100_000},
		Slice{ID: 1, TrackID: 7, Ts: 100, Dur: 300, Depth: 0, Name: "short", Category: "No Jank"},
		Slice{ID: 2, TrackID: 7, Ts: 400, Dur: 900, Depth: 0, Name: "long", Category: "Self Jank"},
		Slice{ID: 3, TrackID: 7, Ts: 450, Dur: 10, Depth: 1, Name: "child"},
		Slice{ID: 4, TrackID: 7, Ts: 5_000, Dur: bucket.OpenDuration, Depth: 0, Name: "open"},
		Slice{ID: 5, TrackID: 8, Ts: 200, Dur: 99_000, Depth: 0, Name: "other track"},
		Slice{ID: 6, TrackID: 7, Ts: 2_000, Dur: 0, Depth: 0, Name: "instant"},
	)
}

func TestMemory_ProbeMaxDuration(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	t.Run("open slice measured to trace end", func(t *testing.T) {
		maxDur, ok, err := m.ProbeMaxDuration(ctx, NewScope(7))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, int64(95_000), maxDur)
	})

	t.Run("scope filters tracks", func(t *testing.T) {
		maxDur, ok, err := m.ProbeMaxDuration(ctx, NewScope(8))
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, int64(99_000), maxDur)
	})

	t.Run("empty scope", func(t *testing.T) {
		_, ok, err := m.ProbeMaxDuration(ctx, NewScope(99))
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err := m.ProbeMaxDuration(cctx, NewScope(7))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestMemory_FetchIntervals(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()

	t.Run("groups by bucket and depth keeping longest", func(t *testing.T) {
		rows, err := m.FetchIntervals(ctx, Query{
			Scope:         NewScope(7),
			WindowStartPs: 0,
			WindowEndPs:   10_000,
			BucketPs:      1000,
			WithCategory:  true,
		})
		require.NoError(t, err)

		ids := make([]int64, len(rows))
		for i, r := range rows {
			ids[i] = r.ID
		}
		// bucket 0: ids 1 and 2 share depth 0 (2 is longer); bucket 0 depth 1: id 3
		// bucket 2000: id 6; bucket 5000: id 4
		require.Equal(t, []int64{2, 3, 6, 4}, ids)
		require.Equal(t, "Self Jank", rows[0].Category)
		require.Equal(t, bucket.OpenDuration, rows[3].Dur, "raw sentinel is preserved")
	})

	t.Run("categories omitted unless requested", func(t *testing.T) {
		rows, err := m.FetchIntervals(ctx, Query{
			Scope:       NewScope(7),
			WindowEndPs: 10_000,
			BucketPs:    1000,
		})
		require.NoError(t, err)
		for _, r := range rows {
			require.Empty(t, r.Category)
		}
	})

	t.Run("window bounds are inclusive on start", func(t *testing.T) {
		rows, err := m.FetchIntervals(ctx, Query{
			Scope:         NewScope(7),
			WindowStartPs: 2_000,
			WindowEndPs:   5_000,
			BucketPs:      2,
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		require.Equal(t, int64(6), rows[0].ID)
		require.Equal(t, int64(4), rows[1].ID)
	})

	t.Run("ties keep first inserted", func(t *testing.T) {
		tie := NewMemory(Bounds{EndPs: 1000},
			Slice{ID: 10, TrackID: 1, Ts: 0, Dur: 50},
			Slice{ID: 11, TrackID: 1, Ts: 10, Dur: 50},
		)
		rows, err := tie.FetchIntervals(ctx, Query{Scope: NewScope(1), WindowEndPs: 1000, BucketPs: 100})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, int64(10), rows[0].ID)
	})

	t.Run("no rows", func(t *testing.T) {
		rows, err := m.FetchIntervals(ctx, Query{Scope: NewScope(42), WindowEndPs: 10_000, BucketPs: 10})
		require.NoError(t, err)
		require.Empty(t, rows)
	})
}

func TestMemory_TraceBounds(t *testing.T) {
	m := newTestMemory()
	b, err := m.TraceBounds(context.Background())
	require.NoError(t, err)
	require.Equal(t, Bounds{StartPs: 0, EndPs: 100_000}, b)
}
