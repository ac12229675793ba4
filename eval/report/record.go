// Package report provides per-scene evaluation records, run summaries, and
// the TSV result writers. It depends on eval/ only for metric values — it
// stores pure data types.
package report

// SceneRecord captures one scene's rejection-sampling outcome.
type SceneRecord struct {
	Seq        string
	Frame      int
	AgentCount int
	// Residual is the number of returned samples still colliding after the
	// retry budget ran out. Zero means the target was fully met.
	Residual int
	// Tries is the number of model invocations the policy performed.
	Tries int
	// ZeroStreak counts draws that produced no collision-free sample.
	ZeroStreak int
}

// HasResidual reports whether the scene exhausted its retry budget with
// colliding samples left over.
func (r SceneRecord) HasResidual() bool { return r.Residual > 0 }
