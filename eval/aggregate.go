// eval/aggregate.go
package eval

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// AggregateMetrics holds dataset-split level numbers.
//
// Weighting matters: marginal metrics (ADE/FDE) are averages over agents, so
// scenes contribute proportionally to their agent count. Joint metrics
// (SADE/SFDE) and the collision rate are per-scene quantities and are
// averaged unweighted. Mixing these up silently corrupts reported numbers.
type AggregateMetrics struct {
	ADE  float64 // agent-count-weighted mean of scene ADEs
	FDE  float64 // agent-count-weighted mean of scene FDEs
	SADE float64 // unweighted mean of scene SADEs
	SFDE float64 // unweighted mean of scene SFDEs
	CR   float64 // unweighted mean of scene collision rates

	Scenes      int
	TotalAgents int

	// Residual-collision bookkeeping from rejection sampling.
	ScenesWithResidual       int // scenes whose retry budget ran out
	ResidualCollidingSamples int // sum of still-colliding sample counts
}

// Aggregate combines per-scene metrics across a dataset split. infos carries
// each scene's CollisionInfo (nil entries mean the target was fully met);
// pass nil when no rejection sampling ran. len(infos) must match
// len(scenes) when non-nil.
func Aggregate(scenes []SceneMetrics, infos []*CollisionInfo) (AggregateMetrics, error) {
	if len(scenes) == 0 {
		return AggregateMetrics{}, fmt.Errorf("no scenes to aggregate")
	}
	if infos != nil && len(infos) != len(scenes) {
		return AggregateMetrics{}, fmt.Errorf("%d collision infos for %d scenes", len(infos), len(scenes))
	}

	n := len(scenes)
	ades := make([]float64, n)
	fdes := make([]float64, n)
	sades := make([]float64, n)
	sfdes := make([]float64, n)
	crs := make([]float64, n)
	weights := make([]float64, n)
	agg := AggregateMetrics{Scenes: n}
	for i, sm := range scenes {
		ades[i] = sm.ADE
		fdes[i] = sm.FDE
		sades[i] = sm.SADE
		sfdes[i] = sm.SFDE
		crs[i] = sm.CR
		weights[i] = float64(sm.AgentCount)
		agg.TotalAgents += sm.AgentCount
	}

	agg.ADE = stat.Mean(ades, weights)
	agg.FDE = stat.Mean(fdes, weights)
	agg.SADE = stat.Mean(sades, nil)
	agg.SFDE = stat.Mean(sfdes, nil)
	agg.CR = stat.Mean(crs, nil)

	for _, info := range infos {
		if info == nil {
			continue
		}
		agg.ScenesWithResidual++
		agg.ResidualCollidingSamples += info.NumColliding
	}
	return agg, nil
}

// MetricField is one named metric value, used by the results writers.
type MetricField struct {
	Name  string
	Value float64
}

// Fields returns the reported metrics as ordered name/value pairs, the order
// results files use.
func (a AggregateMetrics) Fields() []MetricField {
	return []MetricField{
		{"ADE_marginal", a.ADE},
		{"FDE_marginal", a.FDE},
		{"ADE_joint", a.SADE},
		{"FDE_joint", a.SFDE},
		{"CR_mean", a.CR},
	}
}
