// eval/evaluator.go
package eval

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
)

// SceneResult pairs a scene with its rejection outcome and metrics.
type SceneResult struct {
	Scene     *Scene
	Rejection *RejectionResult
	Metrics   SceneMetrics
}

// SplitResults is everything one evaluation pass over a dataset split
// produced, ready for the reporting, persistence, and visualization sinks.
type SplitResults struct {
	Scenes    []SceneResult
	Aggregate AggregateMetrics
}

// Evaluator drives one evaluation pass: per-scene rejection sampling (or a
// plain forward pass when collisions are acceptable), then scene-parallel
// metric computation and cross-scene aggregation.
type Evaluator struct {
	cfg EvalConfig
	rej *Rejector
}

// NewEvaluator creates an Evaluator. The rejection configuration must be
// valid even in CollisionsOK mode, since SampleK and TrajScale still apply.
func NewEvaluator(cfg EvalConfig) (*Evaluator, error) {
	rej, err := NewRejector(cfg.Rejection)
	if err != nil {
		return nil, err
	}
	return &Evaluator{cfg: cfg, rej: rej}, nil
}

// Run evaluates every scene in the split with the given sampler.
//
// Sampling is strictly sequential: the sampler is conditioned on one scene
// at a time and never invoked concurrently. Metric computation afterwards
// fans out across a bounded worker pool; results are gathered in scene
// order so aggregation is deterministic.
func (e *Evaluator) Run(scenes []*Scene, m ModelSampler) (*SplitResults, error) {
	if len(scenes) == 0 {
		return nil, fmt.Errorf("empty dataset split")
	}

	results := make([]SceneResult, len(scenes))
	for i, sc := range scenes {
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		var (
			res *RejectionResult
			err error
		)
		if e.cfg.CollisionsOK {
			res, err = e.rej.RunPlain(sc, m)
		} else {
			res, err = e.rej.Run(sc, m)
		}
		if err != nil {
			return nil, err
		}
		results[i] = SceneResult{Scene: sc, Rejection: res}
		logrus.Debugf("scene %s: %d samples in %d tries", sc.ID(), len(res.Samples), res.Tries)
	}

	if err := e.computeMetrics(results); err != nil {
		return nil, err
	}

	metrics := make([]SceneMetrics, len(results))
	infos := make([]*CollisionInfo, len(results))
	for i, r := range results {
		metrics[i] = r.Metrics
		infos[i] = r.Rejection.Info
	}
	agg, err := Aggregate(metrics, infos)
	if err != nil {
		return nil, err
	}
	logrus.Infof("evaluated %d scenes, %d agents: ADE %.4f FDE %.4f SADE %.4f SFDE %.4f CR %.4f",
		agg.Scenes, agg.TotalAgents, agg.ADE, agg.FDE, agg.SADE, agg.SFDE, agg.CR)

	return &SplitResults{Scenes: results, Aggregate: agg}, nil
}

// computeMetrics fills in results[i].Metrics, fanning scenes out across a
// pool of min(scenes, workers) goroutines. Each scene's computation is
// independent; slots are disjoint, so no locking is needed beyond the join.
func (e *Evaluator) computeMetrics(results []SceneResult) error {
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if len(results) < workers {
		workers = len(results)
	}

	radius := e.cfg.Rejection.CollisionRadius
	errs := make([]error, len(results))
	jobs := make(chan int, len(results))
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				r := &results[i]
				sm, err := EvalScene(r.Rejection.Samples, r.Rejection.GroundTruth, radius)
				if err != nil {
					errs[i] = fmt.Errorf("scene %s: %w", r.Scene.ID(), err)
					continue
				}
				r.Metrics = sm
			}
		}()
	}
	for i := range results {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
