package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePresets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datasets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGetDatasetPreset_LoadsNamedPreset(t *testing.T) {
	path := writePresets(t, `
version: "1"
datasets:
  trajnet_sdd:
    collision_radius: 0.5
    traj_scale: 2.0
    frame_skip: 12
    observed_steps: 8
    future_steps: 12
`)

	p := GetDatasetPreset(path, "trajnet_sdd")
	assert.Equal(t, 0.5, p.CollisionRadius)
	assert.Equal(t, 2.0, p.TrajScale)
	assert.Equal(t, 12, p.FrameSkip)
}

func TestGetDatasetPreset_MissingFileFallsBack(t *testing.T) {
	p := GetDatasetPreset(filepath.Join(t.TempDir(), "nope.yaml"), "eth")
	assert.Equal(t, builtinPreset, p)
}

func TestGetDatasetPreset_UnknownDatasetFallsBack(t *testing.T) {
	path := writePresets(t, `
version: "1"
datasets:
  eth:
    collision_radius: 0.1
`)

	p := GetDatasetPreset(path, "made_up")
	assert.Equal(t, builtinPreset, p)
}

func TestGetDatasetPreset_PartialPresetGetsDefaults(t *testing.T) {
	// Only the radius is overridden; every other field takes the builtin.
	path := writePresets(t, `
version: "1"
datasets:
  hotel:
    collision_radius: 0.3
`)

	p := GetDatasetPreset(path, "hotel")
	assert.Equal(t, 0.3, p.CollisionRadius)
	assert.Equal(t, builtinPreset.TrajScale, p.TrajScale)
	assert.Equal(t, builtinPreset.FrameSkip, p.FrameSkip)
	assert.Equal(t, builtinPreset.ObservedSteps, p.ObservedSteps)
	assert.Equal(t, builtinPreset.FutureSteps, p.FutureSteps)
}

func TestShippedPresetsParse(t *testing.T) {
	// The checked-in datasets.yaml must stay loadable under strict parsing.
	for _, name := range []string{"eth", "hotel", "univ", "zara1", "zara2", "trajnet_sdd"} {
		p := GetDatasetPreset("datasets.yaml", name)
		assert.Positive(t, p.CollisionRadius, "dataset %s", name)
		assert.Positive(t, p.TrajScale, "dataset %s", name)
		assert.Positive(t, p.FrameSkip, "dataset %s", name)
	}
}
