// eval/trajectory.go
package eval

import (
	"fmt"
	"math"
)

// Point is a 2D world-coordinate position.
type Point struct {
	X float64
	Y float64
}

// Dist returns the Euclidean distance to q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Trajectory is one agent's position sequence, one Point per timestep.
type Trajectory []Point

// Sample is one stochastic multi-agent future drawn from a forecasting model.
// Timestep-major: Sample[t][a] is agent a's position at future timestep t.
type Sample [][]Point

// Timesteps returns the prediction horizon of the sample.
func (s Sample) Timesteps() int { return len(s) }

// Agents returns the number of agents in the sample.
func (s Sample) Agents() int {
	if len(s) == 0 {
		return 0
	}
	return len(s[0])
}

// Agent returns agent a's trajectory through the sample.
func (s Sample) Agent(a int) Trajectory {
	path := make(Trajectory, len(s))
	for t := range s {
		path[t] = s[t][a]
	}
	return path
}

// Clone returns a deep copy of the sample.
func (s Sample) Clone() Sample {
	out := make(Sample, len(s))
	for t := range s {
		out[t] = make([]Point, len(s[t]))
		copy(out[t], s[t])
	}
	return out
}

// Scale multiplies every coordinate by f, in place.
func (s Sample) Scale(f float64) {
	for t := range s {
		for a := range s[t] {
			s[t][a].X *= f
			s[t][a].Y *= f
		}
	}
}

// Scene is one prediction instance: an observed history plus the ground-truth
// continuation. Scenes are produced by the data-loading boundary and are
// read-only inside the core.
type Scene struct {
	Seq   string // sequence name (e.g. "zara1", "coupa_0")
	Frame int    // frame number of the last observed timestep

	// Observed is the conditioning history, timestep-major: [obsSteps][agents].
	Observed [][]Point
	// Future is the ground-truth continuation, timestep-major: [futSteps][agents].
	Future [][]Point

	// AgentIDs optionally carries dataset track IDs per agent column.
	// Nil means the column index is the ID.
	AgentIDs []int
}

// AgentCount returns the number of agents in the scene.
func (sc *Scene) AgentCount() int {
	if len(sc.Future) == 0 {
		return 0
	}
	return len(sc.Future[0])
}

// ID returns the immutable scene identifier.
func (sc *Scene) ID() string {
	return fmt.Sprintf("%s/frame_%06d", sc.Seq, sc.Frame)
}

// AgentID returns the dataset track ID for agent column a.
func (sc *Scene) AgentID(a int) int {
	if sc.AgentIDs == nil {
		return a
	}
	return sc.AgentIDs[a]
}

// Validate checks the scene's shape invariants. The downstream pipeline
// assumes fixed-shape arrays, so malformed scenes must fail here, loudly.
func (sc *Scene) Validate() error {
	if sc.AgentCount() < 1 {
		return fmt.Errorf("scene %s: no agents", sc.ID())
	}
	n := sc.AgentCount()
	for t, row := range sc.Observed {
		if len(row) != n {
			return fmt.Errorf("scene %s: observed timestep %d has %d agents, want %d", sc.ID(), t, len(row), n)
		}
	}
	for t, row := range sc.Future {
		if len(row) != n {
			return fmt.Errorf("scene %s: future timestep %d has %d agents, want %d", sc.ID(), t, len(row), n)
		}
	}
	if sc.AgentIDs != nil && len(sc.AgentIDs) != n {
		return fmt.Errorf("scene %s: %d agent IDs for %d agents", sc.ID(), len(sc.AgentIDs), n)
	}
	return nil
}

// SampleSet is a pre-sized sample buffer with an explicit fill count.
// It only ever grows toward its capacity: appends past capacity are dropped,
// and there is no way to remove a sample once admitted.
type SampleSet struct {
	buf    []Sample
	filled int
}

// NewSampleSet creates an empty set that holds at most capacity samples.
func NewSampleSet(capacity int) *SampleSet {
	return &SampleSet{buf: make([]Sample, capacity)}
}

// Len returns the number of samples admitted so far.
func (ss *SampleSet) Len() int { return ss.filled }

// Full reports whether the set has reached capacity.
func (ss *SampleSet) Full() bool { return ss.filled == len(ss.buf) }

// Append admits one sample. Returns false if the set was already full.
func (ss *SampleSet) Append(s Sample) bool {
	if ss.Full() {
		return false
	}
	ss.buf[ss.filled] = s
	ss.filled++
	return true
}

// AppendAll admits samples from batch in order until the set is full.
// Returns the number admitted.
func (ss *SampleSet) AppendAll(batch []Sample) int {
	n := 0
	for _, s := range batch {
		if !ss.Append(s) {
			break
		}
		n++
	}
	return n
}

// Samples returns the admitted samples, in admission order.
func (ss *SampleSet) Samples() []Sample { return ss.buf[:ss.filled] }

// scaleSamples returns a deep copy of batch with every coordinate multiplied
// by f. The input batch is left untouched so it can still be compared against
// the next raw draw.
func scaleSamples(batch []Sample, f float64) []Sample {
	out := make([]Sample, len(batch))
	for i, s := range batch {
		out[i] = s.Clone()
		out[i].Scale(f)
	}
	return out
}

// scalePositions returns a deep copy of a timestep-major position array with
// every coordinate multiplied by f.
func scalePositions(traj [][]Point, f float64) [][]Point {
	out := make([][]Point, len(traj))
	for t := range traj {
		out[t] = make([]Point, len(traj[t]))
		for a, p := range traj[t] {
			out[t][a] = Point{X: p.X * f, Y: p.Y * f}
		}
	}
	return out
}

// nanSample builds a sample of the given shape with every coordinate NaN.
// Used as the "slot never filled" sentinel by the per-sample policy.
func nanSample(timesteps, agents int) Sample {
	s := make(Sample, timesteps)
	for t := range s {
		s[t] = make([]Point, agents)
		for a := range s[t] {
			s[t][a] = Point{X: math.NaN(), Y: math.NaN()}
		}
	}
	return s
}

// truncateSamples returns at most the first k samples of batch.
func truncateSamples(batch []Sample, k int) []Sample {
	if len(batch) > k {
		return batch[:k]
	}
	return batch
}
