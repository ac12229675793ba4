// eval/config.go
package eval

import "fmt"

// Rejection sampling defaults. SampleK and the retry budget follow the
// standard pedestrian-forecasting evaluation protocol (20 samples per scene).
const (
	DefaultSampleK           = 20
	DefaultMaxNumSamples     = 300
	DefaultSamplesPerForward = 30
	DefaultTrajScale         = 1.0
)

// RejectionConfig groups collision-rejection parameters.
type RejectionConfig struct {
	Policy            Policy  // which rejection strategy to run
	SampleK           int     // target number of returned samples
	SamplesPerForward int     // draw size per model call (incremental policy)
	MaxNumSamples     int     // total model-sample budget across retries
	CollisionRadius   float64 // distance threshold for a collision
	TrajScale         float64 // world-unit scale applied to model output and ground truth
}

// NewRejectionConfig creates a RejectionConfig.
func NewRejectionConfig(policy Policy, sampleK, samplesPerForward, maxNumSamples int, collisionRadius, trajScale float64) RejectionConfig {
	return RejectionConfig{
		Policy:            policy,
		SampleK:           sampleK,
		SamplesPerForward: samplesPerForward,
		MaxNumSamples:     maxNumSamples,
		CollisionRadius:   collisionRadius,
		TrajScale:         trajScale,
	}
}

// DefaultRejectionConfig returns the standard evaluation configuration for
// the given policy.
func DefaultRejectionConfig(policy Policy) RejectionConfig {
	return NewRejectionConfig(policy, DefaultSampleK, DefaultSamplesPerForward,
		DefaultMaxNumSamples, DefaultCollisionRadius, DefaultTrajScale)
}

// Validate checks that the configuration can terminate and make progress.
func (c RejectionConfig) Validate() error {
	if !IsValidPolicy(string(c.Policy)) {
		return fmt.Errorf("unknown rejection policy %q", c.Policy)
	}
	if c.SampleK <= 0 {
		return fmt.Errorf("sample_k must be positive, got %d", c.SampleK)
	}
	if c.SamplesPerForward <= 0 {
		return fmt.Errorf("samples_per_forward must be positive, got %d", c.SamplesPerForward)
	}
	if c.MaxNumSamples < c.SampleK {
		return fmt.Errorf("max_num_samples %d below sample_k %d: budget can never be met", c.MaxNumSamples, c.SampleK)
	}
	if c.CollisionRadius <= 0 {
		return fmt.Errorf("collision_radius must be positive, got %v", c.CollisionRadius)
	}
	if c.TrajScale <= 0 {
		return fmt.Errorf("traj_scale must be positive, got %v", c.TrajScale)
	}
	return nil
}

// EvalConfig groups evaluation-loop parameters.
type EvalConfig struct {
	Rejection    RejectionConfig
	CollisionsOK bool // true = plain forward pass, no rejection sampling
	Workers      int  // metric-computation pool size (0 = NumCPU)
}

// NewEvalConfig creates an EvalConfig.
func NewEvalConfig(rejection RejectionConfig, collisionsOK bool, workers int) EvalConfig {
	return EvalConfig{Rejection: rejection, CollisionsOK: collisionsOK, Workers: workers}
}
