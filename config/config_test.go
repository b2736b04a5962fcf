package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "content/catalog.json", cfg.Paths.Catalog)
	assert.Equal(t, "content/rotation_state.json", cfg.Paths.State)
	assert.Equal(t, "unsplash", cfg.Fetch.Service)
	assert.Equal(t, 6, cfg.Fetch.RequestCount)
	assert.Equal(t, 3, cfg.Fetch.MinCount)
	assert.Equal(t, 50, cfg.Quota.DailyLimit)
	assert.Equal(t, 40, cfg.Quota.WarnThreshold)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 15.0, cfg.Voice.MinDurationSec)
	assert.Equal(t, 45.0, cfg.Voice.MaxDurationSec)
	assert.Equal(t, 1080, cfg.Collage.Width)
	assert.Equal(t, 1920, cfg.Collage.Height)
	assert.Equal(t, []string{"vertical_stack", "hero_top", "hero_bottom"}, cfg.Collage.Layouts)
	assert.Equal(t, 3.0, cfg.Render.ToleranceSec)
	assert.Equal(t, int64(500*1024), cfg.Render.MinSizeBytes)
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
paths:
  catalog: data/tales.json
quota:
  daily_limit: 25
collage:
  layouts: [hero_top]
render:
  duration_tolerance_sec: 1.5
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// overridden
	assert.Equal(t, "data/tales.json", cfg.Paths.Catalog)
	assert.Equal(t, 25, cfg.Quota.DailyLimit)
	assert.Equal(t, []string{"hero_top"}, cfg.Collage.Layouts)
	assert.Equal(t, 1.5, cfg.Render.ToleranceSec)

	// untouched keys still get defaults
	assert.Equal(t, "content/rotation_state.json", cfg.Paths.State)
	assert.Equal(t, 500*1024, int(cfg.Render.MinSizeBytes))
	assert.Equal(t, 30, cfg.Render.FPS)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths: [not a map"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}
