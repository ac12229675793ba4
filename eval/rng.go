// eval/rng.go
package eval

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
)

// === RunKey ===

// RunKey uniquely identifies a reproducible evaluation run.
// Two runs with the same RunKey and identical configuration MUST produce
// bit-for-bit identical sample selections.
type RunKey int64

// NewRunKey creates a RunKey from a seed value.
func NewRunKey(seed int64) RunKey {
	return RunKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemSampler is the RNG subsystem feeding baseline samplers.
	// Uses the master seed directly.
	SubsystemSampler = "sampler"

	// SubsystemSelection prefixes the display-sample tie-break subsystems.
	// Scoped here so selection never mutates any process-wide generator.
	SubsystemSelection = "selection"
)

// SubsystemScene returns the selection subsystem name for one scene. Each
// scene gets its own stream, so the featured-sample pick does not depend on
// scene iteration order.
func SubsystemScene(id string) string {
	return fmt.Sprintf("%s/%s", SubsystemSelection, id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per
// subsystem.
//
// Derivation formula:
//   - For SubsystemSampler: uses the master seed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type PartitionedRNG struct {
	key        RunKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a RunKey.
func NewPartitionedRNG(key RunKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named
// subsystem. The same name always returns the same *rand.Rand instance
// (cached). Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemSampler {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the RunKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() RunKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

// SelectDisplaySample picks the sample to feature in visualizations: the
// minimum scene-average error, with ties broken by the scoped selection RNG
// rather than by reseeding any global generator.
func SelectDisplaySample(sampleSADE []float64, rng *rand.Rand) int {
	if len(sampleSADE) == 0 {
		return -1
	}
	// NaN entries are sentinel-padded samples and never win.
	var best []int
	for i, v := range sampleSADE {
		if math.IsNaN(v) {
			continue
		}
		switch {
		case len(best) == 0 || v < sampleSADE[best[0]]:
			best = []int{i}
		case v == sampleSADE[best[0]]:
			best = append(best, i)
		}
	}
	if len(best) == 0 {
		return 0
	}
	if len(best) == 1 {
		return best[0]
	}
	return best[rng.Intn(len(best))]
}
