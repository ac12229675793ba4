// eval/metrics.go
package eval

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// SceneMetrics holds every per-scene number the reporting and visualization
// layers consume.
type SceneMetrics struct {
	AgentCount int

	// Marginal displacement errors: the best sample is chosen independently
	// per agent.
	ADE float64
	FDE float64
	// ArgminADE[a] / ArgminFDE[a] is the sample index that achieved agent
	// a's minimum error.
	ArgminADE []int
	ArgminFDE []int

	// Joint displacement errors: one best sample for the whole scene.
	SADE       float64
	SFDE       float64
	ArgminSADE int
	ArgminSFDE int

	// CR is the fraction of samples with at least one collision.
	CR float64

	// SampleSADE[s] is sample s's scene-average displacement error, kept for
	// display-sample selection.
	SampleSADE []float64

	// Masks[s] is sample s's collision mask, kept for visualization.
	Masks []CollisionMask
}

// EvalScene computes all per-scene metrics for a set of predicted samples
// against the ground-truth future. Pure function: safe to call concurrently
// for disjoint scenes.
func EvalScene(samples []Sample, gt [][]Point, radius float64) (SceneMetrics, error) {
	if len(samples) == 0 {
		return SceneMetrics{}, fmt.Errorf("no samples to evaluate")
	}
	if len(gt) == 0 || len(gt[0]) == 0 {
		return SceneMetrics{}, fmt.Errorf("empty ground truth")
	}
	steps := len(gt)
	agents := len(gt[0])
	for s, sample := range samples {
		if sample.Timesteps() != steps || sample.Agents() != agents {
			return SceneMetrics{}, fmt.Errorf("sample %d has shape (%d,%d), ground truth is (%d,%d)",
				s, sample.Timesteps(), sample.Agents(), steps, agents)
		}
	}

	// adeErr[s][a] / fdeErr[s][a]: agent a's average / final displacement
	// error within sample s.
	nSamples := len(samples)
	adeErr := make([][]float64, nSamples)
	fdeErr := make([][]float64, nSamples)
	for s, sample := range samples {
		adeErr[s] = make([]float64, agents)
		fdeErr[s] = make([]float64, agents)
		for a := 0; a < agents; a++ {
			sum := 0.0
			for t := 0; t < steps; t++ {
				sum += sample[t][a].Dist(gt[t][a])
			}
			adeErr[s][a] = sum / float64(steps)
			fdeErr[s][a] = sample[steps-1][a].Dist(gt[steps-1][a])
		}
	}

	m := SceneMetrics{
		AgentCount: agents,
		ArgminADE:  make([]int, agents),
		ArgminFDE:  make([]int, agents),
		SampleSADE: make([]float64, nSamples),
	}

	// Marginal: minimize over samples per agent, average over agents.
	adeSum, fdeSum := 0.0, 0.0
	for a := 0; a < agents; a++ {
		bestADE, bestFDE := 0, 0
		for s := 1; s < nSamples; s++ {
			// NaN errors come from sentinel-padded samples; never pick them.
			if adeErr[s][a] < adeErr[bestADE][a] || math.IsNaN(adeErr[bestADE][a]) {
				bestADE = s
			}
			if fdeErr[s][a] < fdeErr[bestFDE][a] || math.IsNaN(fdeErr[bestFDE][a]) {
				bestFDE = s
			}
		}
		m.ArgminADE[a] = bestADE
		m.ArgminFDE[a] = bestFDE
		adeSum += adeErr[bestADE][a]
		fdeSum += fdeErr[bestFDE][a]
	}
	m.ADE = adeSum / float64(agents)
	m.FDE = fdeSum / float64(agents)

	// Joint: average over agents first, then minimize over samples.
	sfde := make([]float64, nSamples)
	for s := 0; s < nSamples; s++ {
		m.SampleSADE[s] = floats.Sum(adeErr[s]) / float64(agents)
		sfde[s] = floats.Sum(fdeErr[s]) / float64(agents)
	}
	m.ArgminSADE = floats.MinIdx(m.SampleSADE)
	m.ArgminSFDE = floats.MinIdx(sfde)
	m.SADE = m.SampleSADE[m.ArgminSADE]
	m.SFDE = sfde[m.ArgminSFDE]

	// Collision rate over samples, same distance rule as rejection.
	m.Masks = CheckBatch(samples, radius)
	colliding := 0
	for _, mask := range m.Masks {
		if mask.Any() {
			colliding++
		}
	}
	m.CR = float64(colliding) / float64(nSamples)

	return m, nil
}
