// eval/sampler.go
package eval

// ModelSampler adapts an opaque forecasting model for the rejection policies.
// Implementations wrap whatever inference backend produced the predictions;
// the policies only ever see this interface.
//
// Contract: successive Infer calls for the same scene must produce different
// output. Rejection sampling cannot make progress against a deterministic
// sampler, so two bit-identical draws in a row are treated as a fatal
// precondition violation by the policies, not as a recoverable condition.
type ModelSampler interface {
	// SetScene conditions the model on a scene's observed history.
	SetScene(sc *Scene)

	// Infer draws n stochastic future samples for the current scene.
	// n <= 0 requests the model's natural batch size.
	Infer(n int) ([]Sample, error)

	// BatchSize reports the model's natural sample count per forward pass.
	BatchSize() int
}

// drawsIdentical reports whether two raw draws are bit-identical.
// NaN coordinates never compare equal, which is the behavior we want: a
// sentinel-filled buffer is never mistaken for a repeated draw.
func drawsIdentical(a, b []Sample) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for t := range a[i] {
			if len(a[i][t]) != len(b[i][t]) {
				return false
			}
			for j := range a[i][t] {
				if a[i][t][j] != b[i][t][j] {
					return false
				}
			}
		}
	}
	return true
}
