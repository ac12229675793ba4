package cmd

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/traj-eval/traj-eval/eval"
	"github.com/traj-eval/traj-eval/eval/report"
	"github.com/traj-eval/traj-eval/eval/store"
	"github.com/traj-eval/traj-eval/eval/trajfile"
	"github.com/traj-eval/traj-eval/eval/viz"
)

var (
	// CLI flags for the evaluation pass
	seed              int64   // Seed for the partitioned run RNG
	logLevel          string  // Log verbosity level
	dataset           string  // Dataset preset name (datasets.yaml)
	dataDir           string  // Root directory of the dataset split (seq/frame_*/{obs,gt}.txt)
	policy            string  // Rejection policy: one-shot, per-sample, incremental
	sampleK           int     // Target number of samples per scene
	samplesPerForward int     // Draw size per model call (incremental policy)
	maxNumSamples     int     // Total per-scene sample budget across retries
	collisionRad      float64 // Collision radius override (0 = dataset preset)
	trajScale         float64 // Trajectory scale override (0 = dataset preset)
	collisionsOK      bool    // Skip rejection sampling entirely
	workers           int     // Metric-computation workers (0 = NumCPU)

	// CLI flags for the baseline sampler
	horizon     int     // Future timesteps per sample
	batchSize   int     // Sampler natural batch size (nk)
	sampleNoise float64 // Baseline sampler noise sigma

	// CLI flags for output sinks
	resultsPath   string // TSV results file path ("" = skip)
	collidingPath string // Colliding-frames TSV path ("" = skip)
	saveTrajDir   string // Trajectory text file root ("" = skip)
	vizDir        string // Animated-grid frame root ("" = skip)
	dbPath        string // SQLite results database path ("" = skip)
	datasetsFile  string // Dataset presets YAML path
	frameSkip     int    // Frame ID stride override (0 = dataset preset)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "traj-eval",
	Short: "Collision-aware evaluation of multi-agent trajectory forecasts",
}

// runCmd evaluates a dataset split with the constant-velocity baseline
// sampler under the configured rejection policy.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run collision-rejection evaluation over a dataset split",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if dataDir == "" {
			logrus.Fatalf("Dataset split directory not provided. Exiting evaluation.")
		}

		preset := GetDatasetPreset(datasetsFile, dataset)
		if collisionRad == 0 {
			collisionRad = preset.CollisionRadius
		}
		if trajScale == 0 {
			trajScale = preset.TrajScale
		}
		if frameSkip == 0 {
			frameSkip = preset.FrameSkip
		}

		rejCfg := eval.NewRejectionConfig(eval.Policy(policy), sampleK, samplesPerForward,
			maxNumSamples, collisionRad, trajScale)
		evaluator, err := eval.NewEvaluator(eval.NewEvalConfig(rejCfg, collisionsOK, workers))
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		scenes, err := trajfile.LoadSplit(dataDir)
		if err != nil {
			logrus.Fatalf("Failed to load dataset split: %v", err)
		}
		logrus.Infof("Starting evaluation of %d scenes with policy=%s sample_k=%d radius=%v scale=%v",
			len(scenes), policy, sampleK, collisionRad, trajScale)

		startTime := time.Now()

		rng := eval.NewPartitionedRNG(eval.NewRunKey(seed))
		sampler := eval.NewCVSampler(horizon, batchSize, sampleNoise, rng.ForSubsystem(eval.SubsystemSampler))

		results, err := evaluator.Run(scenes, sampler)
		if err != nil {
			logrus.Fatalf("Evaluation failed: %v", err)
		}

		writeSinks(results, rng)

		logrus.Infof("Evaluation complete in %v.", time.Since(startTime).Round(time.Millisecond))
	},
}

// writeSinks fans the finished results out to every configured sink.
func writeSinks(results *eval.SplitResults, rng *eval.PartitionedRNG) {
	rep := report.NewEvalReport()
	for _, sr := range results.Scenes {
		residual := 0
		if sr.Rejection.Info != nil {
			residual = sr.Rejection.Info.NumColliding
		}
		rep.Record(report.SceneRecord{
			Seq:        sr.Scene.Seq,
			Frame:      sr.Scene.Frame,
			AgentCount: sr.Scene.AgentCount(),
			Residual:   residual,
			Tries:      sr.Rejection.Tries,
			ZeroStreak: sr.Rejection.ZeroStreak,
		})
	}
	summary := report.Summarize(rep)
	logrus.Infof("%d/%d scenes exhausted the retry budget (%d residual colliding samples)",
		summary.ScenesWithResidual, summary.TotalScenes, summary.ResidualSamples)

	if resultsPath != "" {
		if err := report.WriteResults(resultsPath, results.Aggregate.Fields(), results.Aggregate.TotalAgents); err != nil {
			logrus.Fatalf("Failed to write results: %v", err)
		}
	}
	if collidingPath != "" {
		if err := report.WriteCollidingFrames(collidingPath, rep.Records); err != nil {
			logrus.Fatalf("Failed to write colliding frames: %v", err)
		}
	}
	if saveTrajDir != "" {
		for _, sr := range results.Scenes {
			if err := trajfile.WriteScene(saveTrajDir, sr.Scene, sr.Rejection, frameSkip); err != nil {
				logrus.Fatalf("Failed to save trajectories: %v", err)
			}
		}
	}
	if vizDir != "" {
		cfg := viz.DefaultGridConfig()
		for _, sr := range results.Scenes {
			// Tie-break among equally good display samples stays scoped to
			// this scene's RNG stream.
			selRNG := rng.ForSubsystem(eval.SubsystemScene(sr.Scene.ID()))
			best := eval.SelectDisplaySample(sr.Metrics.SampleSADE, selRNG)
			logrus.Debugf("scene %s: featuring sample %d", sr.Scene.ID(), best)
			if err := viz.RenderScene(vizDir, cfg, sr.Scene, sr.Rejection, sr.Metrics, best); err != nil {
				logrus.Fatalf("Failed to render scene %s: %v", sr.Scene.ID(), err)
			}
		}
	}
	if dbPath != "" {
		ctx := context.Background()
		st := store.NewResultStore(dbPath)
		if err := st.Init(ctx); err != nil {
			logrus.Fatalf("Failed to open results store: %v", err)
		}
		defer st.Close()

		run := store.NewRun(dataset, policy, sampleK, collisionRad, results.Aggregate)
		if err := st.SaveRun(ctx, run); err != nil {
			logrus.Fatalf("Failed to save run: %v", err)
		}
		rows := make([]store.SceneRow, 0, len(results.Scenes))
		for i, sr := range results.Scenes {
			rows = append(rows, store.SceneRow{
				Seq:        sr.Scene.Seq,
				Frame:      sr.Scene.Frame,
				AgentCount: sr.Scene.AgentCount(),
				ADE:        sr.Metrics.ADE,
				FDE:        sr.Metrics.FDE,
				SADE:       sr.Metrics.SADE,
				SFDE:       sr.Metrics.SFDE,
				CR:         sr.Metrics.CR,
				Residual:   rep.Records[i].Residual,
			})
		}
		if err := st.SaveSceneMetrics(ctx, run.ID, rows); err != nil {
			logrus.Fatalf("Failed to save scene metrics: %v", err)
		}
		logrus.Infof("Saved run %s to %s", run.ID, dbPath)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the partitioned run RNG")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// dataset configs
	runCmd.Flags().StringVar(&dataset, "dataset", "eth", "Dataset preset name")
	runCmd.Flags().StringVar(&dataDir, "data-dir", "", "Dataset split root directory")
	runCmd.Flags().StringVar(&datasetsFile, "datasets-file", "cmd/datasets.yaml", "Dataset presets YAML file")
	runCmd.Flags().IntVar(&frameSkip, "frame-skip", 0, "Frame ID stride per timestep (0 = preset)")

	// rejection configs
	runCmd.Flags().StringVar(&policy, "policy", string(eval.PolicyIncremental), "Rejection policy (one-shot, per-sample, incremental)")
	runCmd.Flags().IntVar(&sampleK, "sample-k", eval.DefaultSampleK, "Target number of samples per scene")
	runCmd.Flags().IntVar(&samplesPerForward, "samples-per-forward", eval.DefaultSamplesPerForward, "Samples drawn per model call")
	runCmd.Flags().IntVar(&maxNumSamples, "max-num-samples", eval.DefaultMaxNumSamples, "Per-scene sample budget across retries")
	runCmd.Flags().Float64Var(&collisionRad, "collision-rad", 0, "Collision radius (0 = dataset preset)")
	runCmd.Flags().Float64Var(&trajScale, "traj-scale", 0, "Trajectory scale (0 = dataset preset)")
	runCmd.Flags().BoolVar(&collisionsOK, "collisions-ok", false, "Skip rejection sampling (plain forward pass)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Metric-computation workers (0 = NumCPU)")

	// baseline sampler configs
	runCmd.Flags().IntVar(&horizon, "horizon", 12, "Future timesteps per sample")
	runCmd.Flags().IntVar(&batchSize, "batch-size", eval.DefaultSampleK, "Sampler natural batch size")
	runCmd.Flags().Float64Var(&sampleNoise, "sample-noise", 0.05, "Baseline sampler noise sigma")

	// output sinks
	runCmd.Flags().StringVar(&resultsPath, "results", "", "TSV results file (empty = skip)")
	runCmd.Flags().StringVar(&collidingPath, "colliding-frames", "", "Colliding-frames TSV file (empty = skip)")
	runCmd.Flags().StringVar(&saveTrajDir, "save-traj", "", "Trajectory text file root (empty = skip)")
	runCmd.Flags().StringVar(&vizDir, "viz", "", "Animated-grid frame root (empty = skip)")
	runCmd.Flags().StringVar(&dbPath, "db", "", "SQLite results database (empty = skip)")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
