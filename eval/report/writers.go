package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/traj-eval/traj-eval/eval"
)

// WriteResults writes the aggregated split metrics as a tab-separated file,
// one `name<TAB>value` row per metric (4 decimals) followed by the total
// agent count. The parent directory is created if missing.
func WriteResults(path string, fields []eval.MetricField, totalAgents int) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, field := range fields {
		fmt.Fprintf(w, "%s\t%.4f\n", field.Name, field.Value)
	}
	fmt.Fprintf(w, "total_peds\t%d\n", totalAgents)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write results %s: %w", path, err)
	}
	return nil
}

// WriteCollidingFrames writes one row per budget-exhausted scene:
// `seq frame agent_count residual`, space-delimited. Scenes without residual
// collisions are skipped.
func WriteCollidingFrames(path string, records []SceneRecord) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range records {
		if !r.HasResidual() {
			continue
		}
		fmt.Fprintf(w, "%s %d %d %d\n", r.Seq, r.Frame, r.AgentCount, r.Residual)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write colliding frames %s: %w", path, err)
	}
	return nil
}

func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir for %s: %w", path, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}
