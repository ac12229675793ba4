// eval/rejection.go
package eval

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Policy names a collision-rejection strategy. Selected at configuration
// time per model family; every policy satisfies the same Run contract.
type Policy string

const (
	// PolicyOneShot draws once at the model's natural batch size and keeps
	// the non-colliding samples first. For samplers that already return a
	// full, intrinsically diverse sample set per call.
	PolicyOneShot Policy = "one-shot"

	// PolicyPerSample fills a fixed-size accumulator index by index across
	// redraws. For samplers whose per-index output varies run to run.
	PolicyPerSample Policy = "per-sample"

	// PolicyIncremental grows a result buffer from repeated fixed-size
	// draws. The default, general strategy.
	PolicyIncremental Policy = "incremental"
)

// validPolicies maps accepted policy strings.
var validPolicies = map[Policy]bool{
	PolicyOneShot:     true,
	PolicyPerSample:   true,
	PolicyIncremental: true,
}

// IsValidPolicy returns true if the given string names a known policy.
func IsValidPolicy(s string) bool {
	return validPolicies[Policy(s)]
}

// Fatal precondition violations. These indicate a broken sampler or broken
// collision math, not a data condition to recover from; callers should
// surface them immediately.
var (
	// ErrIdenticalDraw means two successive draws were bit-identical: the
	// sampler is not randomized and rejection sampling cannot progress.
	ErrIdenticalDraw = errors.New("sampler returned identical batch twice in a row")

	// ErrIndexOutOfBounds means a selected non-colliding index fell outside
	// the draw it was selected from.
	ErrIndexOutOfBounds = errors.New("non-colliding sample index out of draw bounds")

	// ErrEmptyBuffer means the rejection loop exited without admitting a
	// single sample, which no control path should allow.
	ErrEmptyBuffer = errors.New("rejection loop finished with an empty sample buffer")
)

// CollisionInfo summarizes a rejection episode that could not fully meet its
// target: NumColliding of the returned samples still contain collisions.
// Diagnostic only; nothing branches on it after creation.
type CollisionInfo struct {
	AgentCount   int
	NumColliding int
}

// RejectionResult is what a rejection policy hands back to the evaluation
// loop. All trajectories are scaled to world units and fully owned by the
// caller; no further sampler or device context is needed to read them.
type RejectionResult struct {
	// Samples holds exactly the target sample count, collision-free samples
	// first. Under an exhausted retry budget, the tail may still collide
	// (one-shot, incremental) or hold NaN sentinel slots (per-sample).
	Samples []Sample

	// GroundTruth and Observed are the scene's trajectories scaled by
	// TrajScale, timestep-major.
	GroundTruth [][]Point
	Observed    [][]Point

	// Info is nil when the target was met without residual collisions.
	Info *CollisionInfo

	// Tries is the number of model invocations performed.
	Tries int

	// ZeroStreak counts draws that produced no collision-free sample.
	// Diagnostic only; control flow depends solely on the retry budget.
	ZeroStreak int
}

// Rejector runs collision-rejection sampling for one configured policy.
type Rejector struct {
	cfg RejectionConfig
}

// NewRejector creates a Rejector. The configuration must be valid.
func NewRejector(cfg RejectionConfig) (*Rejector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Rejector{cfg: cfg}, nil
}

// Run draws samples for the scene until the configured policy's target is
// met or the retry budget is exhausted. Budget exhaustion is a recorded
// partial success (Info != nil), never an error; errors are reserved for
// fatal precondition violations and sampler failures.
func (r *Rejector) Run(sc *Scene, m ModelSampler) (*RejectionResult, error) {
	m.SetScene(sc)
	var (
		res *RejectionResult
		err error
	)
	switch r.cfg.Policy {
	case PolicyOneShot:
		res, err = r.runOneShot(sc, m)
	case PolicyPerSample:
		res, err = r.runPerSample(sc, m)
	case PolicyIncremental:
		res, err = r.runIncremental(sc, m)
	default:
		return nil, fmt.Errorf("unknown rejection policy %q", r.cfg.Policy)
	}
	if err != nil {
		return nil, err
	}
	r.attachScene(res, sc)
	return res, nil
}

// RunPlain performs a single forward pass with no collision handling, for
// splits where collisions are acceptable. Info is always nil.
func (r *Rejector) RunPlain(sc *Scene, m ModelSampler) (*RejectionResult, error) {
	m.SetScene(sc)
	batch, err := m.Infer(r.cfg.SampleK)
	if err != nil {
		return nil, fmt.Errorf("scene %s: sampler: %w", sc.ID(), err)
	}
	res := &RejectionResult{
		Samples: truncateSamples(scaleSamples(batch, r.cfg.TrajScale), r.cfg.SampleK),
		Tries:   1,
	}
	r.attachScene(res, sc)
	return res, nil
}

// attachScene copies the scene's scaled trajectories onto the result.
func (r *Rejector) attachScene(res *RejectionResult, sc *Scene) {
	res.GroundTruth = scalePositions(sc.Future, r.cfg.TrajScale)
	res.Observed = scalePositions(sc.Observed, r.cfg.TrajScale)
}

// runOneShot implements the single-shot truncation policy: exactly one model
// invocation, non-colliding samples ordered first, truncated to SampleK.
func (r *Rejector) runOneShot(sc *Scene, m ModelSampler) (*RejectionResult, error) {
	batch, err := m.Infer(0)
	if err != nil {
		return nil, fmt.Errorf("scene %s: sampler: %w", sc.ID(), err)
	}
	scaled := scaleSamples(batch, r.cfg.TrajScale)

	// Single agent: collisions are impossible by definition.
	if sc.AgentCount() == 1 {
		return &RejectionResult{Samples: truncateSamples(scaled, r.cfg.SampleK), Tries: 1}, nil
	}

	masks := CheckBatch(scaled, r.cfg.CollisionRadius)
	clean, dirty := partitionByCollision(masks)

	ordered := make([]Sample, 0, len(scaled))
	for _, i := range clean {
		ordered = append(ordered, scaled[i])
	}
	for _, i := range dirty {
		ordered = append(ordered, scaled[i])
	}

	var info *CollisionInfo
	if len(clean) < r.cfg.SampleK {
		info = &CollisionInfo{AgentCount: sc.AgentCount(), NumColliding: r.cfg.SampleK - len(clean)}
	}
	return &RejectionResult{
		Samples: truncateSamples(ordered, r.cfg.SampleK),
		Info:    info,
		Tries:   1,
	}, nil
}

// runPerSample implements the per-sample accumulation policy: an accumulator
// of the model's natural batch size is filled index by index across redraws.
// An index recorded non-colliding once is never overwritten, even if a later
// draw collides at that index.
func (r *Rejector) runPerSample(sc *Scene, m ModelSampler) (*RejectionResult, error) {
	nk := m.BatchSize()
	agents := sc.AgentCount()

	var (
		acc      []Sample
		prev     []Sample
		filled   = make(map[int]struct{})
		info     *CollisionInfo
		tries    int
		zeroRuns int
	)
	for len(filled) < nk {
		if tries*nk >= r.cfg.MaxNumSamples {
			logrus.Warnf("scene %s with %d agents: drew %d samples, only %d non-colliding",
				sc.ID(), agents, tries*nk, len(filled))
			info = &CollisionInfo{AgentCount: agents, NumColliding: nk - len(filled)}
			break
		}

		batch, err := m.Infer(nk)
		if err != nil {
			return nil, fmt.Errorf("scene %s: sampler: %w", sc.ID(), err)
		}
		if len(batch) != nk {
			return nil, fmt.Errorf("scene %s: sampler returned %d samples, want %d", sc.ID(), len(batch), nk)
		}
		if prev != nil && drawsIdentical(prev, batch) {
			return nil, fmt.Errorf("scene %s: %w", sc.ID(), ErrIdenticalDraw)
		}
		prev = batch
		tries++
		if tries > 1 {
			logrus.Debugf("scene %s: per-sample retry %d", sc.ID(), tries)
		}

		scaled := scaleSamples(batch, r.cfg.TrajScale)
		if acc == nil {
			acc = make([]Sample, nk)
			for i := range acc {
				acc[i] = nanSample(scaled[0].Timesteps(), agents)
			}
		}

		// Single agent: return the raw first batch unfiltered.
		if agents == 1 {
			acc = scaled
			break
		}

		masks := CheckBatch(scaled, r.cfg.CollisionRadius)
		clean := nonCollidingIndices(masks)
		if len(clean) == 0 {
			zeroRuns++
			continue
		}
		for _, i := range clean {
			if _, seen := filled[i]; seen {
				continue
			}
			acc[i] = scaled[i]
			filled[i] = struct{}{}
		}
	}

	return &RejectionResult{Samples: acc, Info: info, Tries: tries, ZeroStreak: zeroRuns}, nil
}

// runIncremental implements the incremental concatenation policy: fixed-size
// draws, collision-free samples appended to a pre-sized buffer until SampleK
// is reached or the budget runs out, in which case the buffer is padded with
// raw samples from the last draw.
func (r *Rejector) runIncremental(sc *Scene, m ModelSampler) (*RejectionResult, error) {
	set := NewSampleSet(r.cfg.SampleK)
	agents := sc.AgentCount()

	var (
		prev     []Sample
		last     []Sample
		info     *CollisionInfo
		tries    int
		zeroRuns int
	)
	for !set.Full() {
		if tries > 0 && tries*r.cfg.SamplesPerForward >= r.cfg.MaxNumSamples {
			logrus.Warnf("scene %s with %d agents: drew %d samples, only %d non-colliding",
				sc.ID(), agents, tries*r.cfg.SamplesPerForward, set.Len())
			info = &CollisionInfo{AgentCount: agents, NumColliding: r.cfg.SampleK - set.Len()}
			set.AppendAll(last)
			break
		}

		batch, err := m.Infer(r.cfg.SamplesPerForward)
		if err != nil {
			return nil, fmt.Errorf("scene %s: sampler: %w", sc.ID(), err)
		}
		if prev != nil && drawsIdentical(prev, batch) {
			return nil, fmt.Errorf("scene %s: %w", sc.ID(), ErrIdenticalDraw)
		}
		prev = batch
		tries++

		scaled := scaleSamples(batch, r.cfg.TrajScale)
		last = scaled

		// Single agent: the first draw is the answer.
		if agents == 1 {
			set = NewSampleSet(r.cfg.SampleK)
			set.AppendAll(scaled)
			break
		}

		masks := CheckBatch(scaled, r.cfg.CollisionRadius)
		clean := nonCollidingIndices(masks)
		if len(clean) == 0 {
			zeroRuns++
			continue
		}
		for _, i := range clean {
			if i < 0 || i >= len(scaled) {
				return nil, fmt.Errorf("scene %s: index %d of draw size %d: %w",
					sc.ID(), i, len(scaled), ErrIndexOutOfBounds)
			}
		}
		for _, i := range clean {
			if !set.Append(scaled[i]) {
				break
			}
		}
	}

	if set.Len() == 0 {
		return nil, fmt.Errorf("scene %s: %w", sc.ID(), ErrEmptyBuffer)
	}
	return &RejectionResult{Samples: set.Samples(), Info: info, Tries: tries, ZeroStreak: zeroRuns}, nil
}
