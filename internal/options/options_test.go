package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	pixelSize float64
	name      string
	calls     []string
}

func withPixelSize(v float64) Option[*testConfig] {
	return New(func(c *testConfig) error {
		if v < 0 {
			return errors.New("pixel size cannot be negative")
		}
		c.pixelSize = v
		c.calls = append(c.calls, "pixelSize")

		return nil
	})
}

func withName(name string) Option[*testConfig] {
	return NoError(func(c *testConfig) {
		c.name = name
		c.calls = append(c.calls, "name")
	})
}

func TestApply(t *testing.T) {
	t.Run("applies options in order", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withName("track"), withPixelSize(2))

		require.NoError(t, err)
		require.Equal(t, "track", cfg.name)
		require.InDelta(t, 2.0, cfg.pixelSize, 0)
		require.Equal(t, []string{"name", "pixelSize"}, cfg.calls)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withPixelSize(-1), withName("never"))

		require.EqualError(t, err, "pixel size cannot be negative")
		require.Empty(t, cfg.name)
	})

	t.Run("skips nil options", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, nil, withName("x"), nil)

		require.NoError(t, err)
		require.Equal(t, "x", cfg.name)
	})

	t.Run("no options", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, Apply(cfg))
		require.Empty(t, cfg.calls)
	})
}

func TestApplyAndValidate(t *testing.T) {
	requireName := func(c *testConfig) error {
		if c.name == "" {
			return errors.New("name is required")
		}

		return nil
	}

	t.Run("validation passes", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, ApplyAndValidate(cfg, requireName, withName("ok")))
	})

	t.Run("validation fails after options", func(t *testing.T) {
		cfg := &testConfig{}
		err := ApplyAndValidate(cfg, requireName, withPixelSize(1))

		require.EqualError(t, err, "name is required")
		require.Equal(t, []string{"pixelSize"}, cfg.calls)
	})

	t.Run("option error wins over validation", func(t *testing.T) {
		cfg := &testConfig{}
		err := ApplyAndValidate(cfg, requireName, withPixelSize(-5))
		require.EqualError(t, err, "pixel size cannot be negative")
	})

	t.Run("nil validator", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, ApplyAndValidate(cfg, nil, withName("x")))
	})
}
