// eval/collision.go
package eval

import (
	"runtime"
	"sync"
)

// DefaultCollisionRadius is the distance threshold below which two agents
// are considered colliding, in world units after trajectory scaling.
const DefaultCollisionRadius = 0.1

// CollisionMask is the collision status of one sample.
type CollisionMask struct {
	// PerAgent[a] is true if agent a comes within the collision radius of
	// any other agent at any timestep.
	PerAgent []bool
	// PerStep[t][i][j] is true if agents i and j collide at timestep t.
	// Symmetric: PerStep[t][i][j] == PerStep[t][j][i].
	PerStep [][][]bool
}

// Any reports whether the sample contains at least one collision.
func (m CollisionMask) Any() bool {
	for _, c := range m.PerAgent {
		if c {
			return true
		}
	}
	return false
}

// NumColliding returns the number of agents involved in any collision.
func (m CollisionMask) NumColliding() int {
	n := 0
	for _, c := range m.PerAgent {
		if c {
			n++
		}
	}
	return n
}

// CheckSample computes the collision mask of a single sample. Two agents
// collide at a timestep when their Euclidean distance is below radius.
// Pure function: safe to call concurrently.
func CheckSample(s Sample, radius float64) CollisionMask {
	steps := s.Timesteps()
	agents := s.Agents()
	mask := CollisionMask{
		PerAgent: make([]bool, agents),
		PerStep:  make([][][]bool, steps),
	}
	for t := 0; t < steps; t++ {
		mat := make([][]bool, agents)
		for i := range mat {
			mat[i] = make([]bool, agents)
		}
		for i := 0; i < agents; i++ {
			for j := i + 1; j < agents; j++ {
				if s[t][i].Dist(s[t][j]) < radius {
					mat[i][j] = true
					mat[j][i] = true
					mask.PerAgent[i] = true
					mask.PerAgent[j] = true
				}
			}
		}
		mask.PerStep[t] = mat
	}
	return mask
}

// CheckBatch computes collision masks for every sample in the batch,
// fanning out across a worker pool of min(len(samples), NumCPU) goroutines.
// Results are gathered in sample order. Samples are disjoint, so workers
// share no mutable state.
func CheckBatch(samples []Sample, radius float64) []CollisionMask {
	masks := make([]CollisionMask, len(samples))
	workers := runtime.NumCPU()
	if len(samples) < workers {
		workers = len(samples)
	}
	if workers <= 1 {
		for i, s := range samples {
			masks[i] = CheckSample(s, radius)
		}
		return masks
	}

	jobs := make(chan int, len(samples))
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				masks[i] = CheckSample(samples[i], radius)
			}
		}()
	}
	for i := range samples {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return masks
}

// nonCollidingIndices returns the indices of samples with zero collisions,
// in ascending order.
func nonCollidingIndices(masks []CollisionMask) []int {
	idx := make([]int, 0, len(masks))
	for i, m := range masks {
		if !m.Any() {
			idx = append(idx, i)
		}
	}
	return idx
}

// partitionByCollision splits sample indices into collision-free and
// colliding, preserving draw order within each group.
func partitionByCollision(masks []CollisionMask) (clean, dirty []int) {
	for i, m := range masks {
		if m.Any() {
			dirty = append(dirty, i)
		} else {
			clean = append(clean, i)
		}
	}
	return clean, dirty
}
