package cmd

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DatasetPreset describes one dataset's evaluation parameters in
// datasets.yaml.
type DatasetPreset struct {
	CollisionRadius float64 `yaml:"collision_radius"`
	TrajScale       float64 `yaml:"traj_scale"`
	FrameSkip       int     `yaml:"frame_skip"`
	ObservedSteps   int     `yaml:"observed_steps"`
	FutureSteps     int     `yaml:"future_steps"`
}

// DatasetsConfig represents the full datasets.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type DatasetsConfig struct {
	Version  string                   `yaml:"version"`
	Datasets map[string]DatasetPreset `yaml:"datasets"`
}

// builtinPreset is the fallback when no presets file exists or the dataset
// is unknown: the standard pedestrian-benchmark settings.
var builtinPreset = DatasetPreset{
	CollisionRadius: 0.1,
	TrajScale:       1.0,
	FrameSkip:       10,
	ObservedSteps:   8,
	FutureSteps:     12,
}

// GetDatasetPreset loads the preset for the named dataset. A missing presets
// file falls back to the builtin defaults; a malformed one is fatal (typos
// must cause errors, not silently evaluate with wrong parameters).
func GetDatasetPreset(path, name string) DatasetPreset {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Warnf("Presets file %s not found, using builtin defaults", path)
			return builtinPreset
		}
		logrus.Fatalf("Failed to read presets file %s: %v", path, err)
	}

	// Parse YAML with strict field checking
	var cfg DatasetsConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		logrus.Fatalf("Failed to parse presets YAML %s: %v", path, err)
	}

	preset, ok := cfg.Datasets[name]
	if !ok {
		logrus.Warnf("Dataset %q not in %s, using builtin defaults", name, path)
		return builtinPreset
	}
	applyPresetDefaults(&preset)
	return preset
}

// applyPresetDefaults fills zero-valued preset fields from the builtin.
func applyPresetDefaults(p *DatasetPreset) {
	if p.CollisionRadius == 0 {
		p.CollisionRadius = builtinPreset.CollisionRadius
	}
	if p.TrajScale == 0 {
		p.TrajScale = builtinPreset.TrajScale
	}
	if p.FrameSkip == 0 {
		p.FrameSkip = builtinPreset.FrameSkip
	}
	if p.ObservedSteps == 0 {
		p.ObservedSteps = builtinPreset.ObservedSteps
	}
	if p.FutureSteps == 0 {
		p.FutureSteps = builtinPreset.FutureSteps
	}
}
