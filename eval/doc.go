// Package eval provides the collision-aware evaluation core for multi-agent
// trajectory forecasting.
//
// # Reading Guide
//
// Start with these three files to understand the pipeline:
//   - trajectory.go: Scene, Sample, and SampleSet array types and their shape conventions
//   - rejection.go: the three collision-rejection policies behind one Run contract
//   - evaluator.go: the per-split evaluation loop and metric fan-out
//
// # Architecture
//
// The eval package holds the core algorithms; boundary concerns live in
// sub-packages:
//   - eval/report/: per-scene collision records, summaries, and TSV writers
//   - eval/trajfile/: plain-text trajectory file reading and writing
//   - eval/store/: SQLite persistence of run results
//   - eval/viz/: animated-grid frame rendering
//
// # Key Interfaces
//
// The single extension point is ModelSampler (sampler.go): an adapter over an
// opaque forecasting model that draws stochastic future samples per scene.
// The rejection policies only ever see that interface; baseline.go ships a
// constant-velocity implementation used by the CLI and tests.
package eval
