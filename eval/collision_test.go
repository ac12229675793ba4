package eval

import (
	"testing"
)

// twoAgentSample builds a sample where the agents walk parallel straight
// lines sep apart.
func twoAgentSample(steps int, sep float64) Sample {
	s := make(Sample, steps)
	for t := 0; t < steps; t++ {
		s[t] = []Point{
			{X: 0, Y: float64(t)},
			{X: sep, Y: float64(t)},
		}
	}
	return s
}

func TestCheckSample_BelowRadius_Collides(t *testing.T) {
	// GIVEN two agents 0.05 apart and radius 0.1
	s := twoAgentSample(4, 0.05)

	// WHEN the sample is checked
	mask := CheckSample(s, 0.1)

	// THEN both agents are flagged at every timestep
	if !mask.PerAgent[0] || !mask.PerAgent[1] {
		t.Errorf("PerAgent: got %v, want both true", mask.PerAgent)
	}
	for ts := range mask.PerStep {
		if !mask.PerStep[ts][0][1] {
			t.Errorf("timestep %d: pair (0,1) not flagged", ts)
		}
	}
}

func TestCheckSample_AtRadius_NoCollision(t *testing.T) {
	// GIVEN two agents exactly radius apart (strict less-than rule)
	s := twoAgentSample(4, 0.1)

	// WHEN the sample is checked
	mask := CheckSample(s, 0.1)

	// THEN no collision is flagged
	if mask.Any() {
		t.Errorf("agents exactly at radius flagged as colliding")
	}
}

func TestCheckSample_Symmetric(t *testing.T) {
	// GIVEN three agents where only the pair (0,2) comes close at step 1
	s := Sample{
		{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}},
		{{X: 3, Y: 0}, {X: 5, Y: 5}, {X: 3.05, Y: 0}},
	}

	// WHEN the sample is checked
	mask := CheckSample(s, 0.1)

	// THEN the pair is flagged in both directions
	if !mask.PerStep[1][0][2] || !mask.PerStep[1][2][0] {
		t.Errorf("collision matrix not symmetric: [0][2]=%v [2][0]=%v",
			mask.PerStep[1][0][2], mask.PerStep[1][2][0])
	}
	if mask.PerStep[1][1][0] || mask.PerStep[1][0][1] {
		t.Errorf("uninvolved pair (0,1) flagged")
	}
	if mask.PerAgent[1] {
		t.Errorf("agent 1 flagged despite never colliding")
	}
}

func TestCollisionMask_NumColliding(t *testing.T) {
	// GIVEN three agents where only the pair (0,2) collides
	s := Sample{
		{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 10, Y: 0}},
		{{X: 3, Y: 0}, {X: 5, Y: 5}, {X: 3.05, Y: 0}},
	}

	mask := CheckSample(s, 0.1)

	// THEN both members of the pair count, the bystander does not
	if got := mask.NumColliding(); got != 2 {
		t.Errorf("NumColliding = %d, want 2", got)
	}
	if got := CheckSample(singleAgentBatch(0, 1, 2)[0], 0.1).NumColliding(); got != 0 {
		t.Errorf("collision-free sample NumColliding = %d, want 0", got)
	}
}

func TestCheckSample_SingleAgent_NeverCollides(t *testing.T) {
	s := Sample{{{X: 0, Y: 0}}, {{X: 0, Y: 1}}}
	mask := CheckSample(s, 1000)
	if mask.Any() {
		t.Errorf("single agent flagged as colliding")
	}
}

func TestCheckBatch_OrderPreserved(t *testing.T) {
	// GIVEN a batch alternating colliding and clean samples
	batch := []Sample{
		twoAgentSample(3, 0.01),
		twoAgentSample(3, 1.0),
		twoAgentSample(3, 0.01),
		twoAgentSample(3, 1.0),
	}

	// WHEN checked in parallel
	masks := CheckBatch(batch, 0.1)

	// THEN masks line up with draw order
	want := []bool{true, false, true, false}
	for i, w := range want {
		if masks[i].Any() != w {
			t.Errorf("sample %d: Any() = %v, want %v", i, masks[i].Any(), w)
		}
	}
}

func TestNonCollidingIndices_Ascending(t *testing.T) {
	batch := []Sample{
		twoAgentSample(2, 1.0),
		twoAgentSample(2, 0.01),
		twoAgentSample(2, 1.0),
	}
	masks := CheckBatch(batch, 0.1)
	idx := nonCollidingIndices(masks)
	if len(idx) != 2 || idx[0] != 0 || idx[1] != 2 {
		t.Errorf("nonCollidingIndices: got %v, want [0 2]", idx)
	}
}

func TestPartitionByCollision_Disjoint(t *testing.T) {
	batch := []Sample{
		twoAgentSample(2, 0.01),
		twoAgentSample(2, 1.0),
		twoAgentSample(2, 0.01),
	}
	masks := CheckBatch(batch, 0.1)
	clean, dirty := partitionByCollision(masks)
	if len(clean) != 1 || clean[0] != 1 {
		t.Errorf("clean: got %v, want [1]", clean)
	}
	if len(dirty) != 2 || dirty[0] != 0 || dirty[1] != 2 {
		t.Errorf("dirty: got %v, want [0 2]", dirty)
	}
}
