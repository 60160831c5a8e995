package spanq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/spanq/color"
	"github.com/arloliu/spanq/config"
	"github.com/arloliu/spanq/engine"
	"github.com/arloliu/spanq/errs"
	"github.com/arloliu/spanq/source"
)

func testSource() *source.Memory {
	return source.NewMemory(source.Bounds{EndPs: 1_000_000},
		source.Slice{ID: 1, TrackID: 1, Ts: 0, Dur: 500, Name: "frame 1", Category: color.TagSelfJank},
		source.Slice{ID: 2, TrackID: 1, Ts: 2_000, Dur: 500, Name: "frame 2", Category: color.TagBufferStuffing},
		source.Slice{ID: 3, TrackID: 2, Ts: 0, Dur: 1_500, Name: "frame 1"},
	)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"ActualFramesSliceTrack", KindActualFrames},
		{"actual_frames", KindActualFrames},
		{"ExpectedFramesSliceTrack", KindExpectedFrames},
		{"expected_frames", KindExpectedFrames},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}

	_, err := ParseKind("CounterTrack")
	require.ErrorIs(t, err, errs.ErrUnknownTrackKind)
	require.Len(t, Kinds(), 2)
}

func TestKind_Policy(t *testing.T) {
	p, err := KindActualFrames.Policy()
	require.NoError(t, err)
	require.True(t, p.NeedsCategory())

	p, err = KindExpectedFrames.Policy()
	require.NoError(t, err)
	require.False(t, p.NeedsCategory())
	require.Equal(t, color.Green, p.Color(&source.Row{Category: color.TagSelfJank}))

	_, err = Kind("bogus").Policy()
	require.ErrorIs(t, err, errs.ErrUnknownTrackKind)

	_, err = NewEngine("bogus", testSource(), source.NewScope(1))
	require.ErrorIs(t, err, errs.ErrUnknownTrackKind)
}

func TestActualFramesEngine(t *testing.T) {
	e, err := NewActualFramesEngine(testSource(), []int64{1})
	require.NoError(t, err)

	f, err := e.OnBoundsChange(context.Background(), 0, 1e-8, 1e-9)
	require.NoError(t, err)
	require.Equal(t, 2, f.Len())
	require.Equal(t, color.Red, f.ColorKey(0))
	require.Equal(t, color.LightGreen, f.ColorKey(1))
	require.Equal(t, "1", e.Name())
}

func TestExpectedFramesEngine(t *testing.T) {
	e, err := NewExpectedFramesEngine(testSource(), []int64{2})
	require.NoError(t, err)

	f, err := e.OnBoundsChange(context.Background(), 0, 1e-8, 1e-9)
	require.NoError(t, err)
	require.Equal(t, []string{color.Green, "frame 1"}, f.Strings)
	require.Equal(t, []int64{3}, f.SliceIDs)
}

func TestNewEngine_PolicyOverride(t *testing.T) {
	e, err := NewEngine(KindActualFrames, testSource(), source.NewScope(1), engine.WithPolicy(color.Fixed(color.Blue)))
	require.NoError(t, err)

	f, err := e.OnBoundsChange(context.Background(), 0, 1e-8, 1e-9)
	require.NoError(t, err)
	require.Equal(t, color.Blue, f.ColorKey(0))
	require.Equal(t, color.Blue, f.ColorKey(1))
}

func TestNewGroupFromConfig(t *testing.T) {
	cfg, err := config.Parse([]byte(`
tracks:
  - name: actual
    kind: actual_frames
    track_ids: [1]
  - name: expected
    kind: expected_frames
    track_ids: [2]
    pixel_size: 2
`))
	require.NoError(t, err)

	g, err := NewGroupFromConfig(cfg, testSource(), 0)
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())

	results, err := g.OnBoundsChange(context.Background(), 0, 1e-8, 1e-9)
	require.NoError(t, err)
	require.Equal(t, "actual", results[0].Track)
	require.Equal(t, int64(1000), results[0].Frame.BucketPs)
	require.Equal(t, "expected", results[1].Track)
	require.Equal(t, int64(2000), results[1].Frame.BucketPs)

	cfg.Tracks[0].Kind = "counter"
	_, err = NewGroupFromConfig(cfg, testSource(), 0)
	require.ErrorIs(t, err, errs.ErrUnknownTrackKind)
}
