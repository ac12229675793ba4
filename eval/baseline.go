// eval/baseline.go
package eval

import (
	"fmt"
	"math/rand"
)

// CVSampler is a constant-velocity baseline sampler: each agent continues at
// its last observed velocity, with independent Gaussian noise added per
// sample. It is the stand-in model for the CLI and for exercising the
// rejection policies without a neural backend.
//
// The noise source is injected, never global, so runs are reproducible under
// a fixed RunKey.
type CVSampler struct {
	Horizon int     // future timesteps per sample
	NK      int     // natural batch size
	Noise   float64 // per-step Gaussian noise sigma

	rng   *rand.Rand
	scene *Scene
}

// NewCVSampler creates a constant-velocity sampler.
func NewCVSampler(horizon, nk int, noise float64, rng *rand.Rand) *CVSampler {
	return &CVSampler{Horizon: horizon, NK: nk, Noise: noise, rng: rng}
}

// SetScene conditions the sampler on a scene's observed history.
func (cv *CVSampler) SetScene(sc *Scene) { cv.scene = sc }

// BatchSize reports the sampler's natural sample count per call.
func (cv *CVSampler) BatchSize() int { return cv.NK }

// Infer extrapolates n noisy constant-velocity futures for the current
// scene. n <= 0 draws the natural batch size.
func (cv *CVSampler) Infer(n int) ([]Sample, error) {
	if cv.scene == nil {
		return nil, fmt.Errorf("cv sampler: no scene set")
	}
	obs := cv.scene.Observed
	if len(obs) < 2 {
		return nil, fmt.Errorf("cv sampler: scene %s has %d observed steps, need at least 2", cv.scene.ID(), len(obs))
	}
	if n <= 0 {
		n = cv.NK
	}

	agents := cv.scene.AgentCount()
	lastPos := obs[len(obs)-1]
	prevPos := obs[len(obs)-2]

	batch := make([]Sample, n)
	for s := 0; s < n; s++ {
		sample := make(Sample, cv.Horizon)
		for t := 0; t < cv.Horizon; t++ {
			sample[t] = make([]Point, agents)
		}
		for a := 0; a < agents; a++ {
			vx := lastPos[a].X - prevPos[a].X
			vy := lastPos[a].Y - prevPos[a].Y
			x, y := lastPos[a].X, lastPos[a].Y
			for t := 0; t < cv.Horizon; t++ {
				x += vx + cv.rng.NormFloat64()*cv.Noise
				y += vy + cv.rng.NormFloat64()*cv.Noise
				sample[t][a] = Point{X: x, Y: y}
			}
		}
		batch[s] = sample
	}
	return batch, nil
}
