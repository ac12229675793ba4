// eval/config_test.go
package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRejectionConfig_SetsAllFields(t *testing.T) {
	cfg := NewRejectionConfig(PolicyIncremental, 10, 25, 200, 0.2, 2.0)
	assert.Equal(t, PolicyIncremental, cfg.Policy)
	assert.Equal(t, 10, cfg.SampleK)
	assert.Equal(t, 25, cfg.SamplesPerForward)
	assert.Equal(t, 200, cfg.MaxNumSamples)
	assert.Equal(t, 0.2, cfg.CollisionRadius)
	assert.Equal(t, 2.0, cfg.TrajScale)
}

func TestDefaultRejectionConfig_StandardProtocol(t *testing.T) {
	cfg := DefaultRejectionConfig(PolicyPerSample)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.SampleK)
	assert.Equal(t, 30, cfg.SamplesPerForward)
	assert.Equal(t, 300, cfg.MaxNumSamples)
	assert.Equal(t, 0.1, cfg.CollisionRadius)
	assert.Equal(t, 1.0, cfg.TrajScale)
}

func TestRejectionConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RejectionConfig)
		wantErr bool
	}{
		{"defaults pass", func(c *RejectionConfig) {}, false},
		{"unknown policy", func(c *RejectionConfig) { c.Policy = "greedy" }, true},
		{"zero sample_k", func(c *RejectionConfig) { c.SampleK = 0 }, true},
		{"zero samples_per_forward", func(c *RejectionConfig) { c.SamplesPerForward = 0 }, true},
		{"budget below target", func(c *RejectionConfig) { c.MaxNumSamples = c.SampleK - 1 }, true},
		{"negative radius", func(c *RejectionConfig) { c.CollisionRadius = -0.1 }, true},
		{"zero traj scale", func(c *RejectionConfig) { c.TrajScale = 0 }, true},
		{"budget equals target", func(c *RejectionConfig) { c.MaxNumSamples = c.SampleK }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRejectionConfig(PolicyOneShot)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsValidPolicy(t *testing.T) {
	assert.True(t, IsValidPolicy("one-shot"))
	assert.True(t, IsValidPolicy("per-sample"))
	assert.True(t, IsValidPolicy("incremental"))
	assert.False(t, IsValidPolicy("oneshot"))
	assert.False(t, IsValidPolicy(""))
}

func TestNewEvalConfig_SetsAllFields(t *testing.T) {
	rej := DefaultRejectionConfig(PolicyOneShot)
	cfg := NewEvalConfig(rej, true, 4)
	assert.Equal(t, rej, cfg.Rejection)
	assert.True(t, cfg.CollisionsOK)
	assert.Equal(t, 4, cfg.Workers)
}
