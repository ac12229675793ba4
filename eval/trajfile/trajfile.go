// Package trajfile reads and writes the plain-text trajectory interchange
// format: one row per (frame, agent) with columns `frame_id agent_id x y`,
// space-delimited, floats to 3 decimal places. Each scene gets its own
// directory holding the ground truth, the observation, and one file per
// predicted sample.
package trajfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/traj-eval/traj-eval/eval"
)

const (
	// GTFile and ObsFile are the per-scene ground-truth and observation
	// file names; samples are SampleFile(i).
	GTFile  = "gt.txt"
	ObsFile = "obs.txt"
)

// SampleFile returns the file name of predicted sample i.
func SampleFile(i int) string { return fmt.Sprintf("sample_%03d.txt", i) }

// SceneDir returns the directory of a scene under root.
func SceneDir(root, seq string, frame int) string {
	return filepath.Join(root, seq, fmt.Sprintf("frame_%06d", frame))
}

// Row is one parsed trajectory file row.
type Row struct {
	Frame int
	Agent int
	X     float64
	Y     float64
}

// WriteScene writes a scene's observation, ground truth, and every sample of
// res into the scene's directory under root. frameSkip is the dataset's
// frame stride (frame IDs advance by frameSkip per timestep).
func WriteScene(root string, sc *eval.Scene, res *eval.RejectionResult, frameSkip int) error {
	dir := SceneDir(root, sc.Seq, sc.Frame)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create scene dir %s: %w", dir, err)
	}

	if err := writeRows(filepath.Join(dir, ObsFile), observedRows(sc, res.Observed, frameSkip)); err != nil {
		return err
	}
	if err := writeRows(filepath.Join(dir, GTFile), futureRows(sc, res.GroundTruth, frameSkip)); err != nil {
		return err
	}
	for i, sample := range res.Samples {
		if err := writeRows(filepath.Join(dir, SampleFile(i)), futureRows(sc, sample, frameSkip)); err != nil {
			return err
		}
	}
	return nil
}

// futureRows lays out a timestep-major future trajectory agent-major, with
// frame IDs counting forward from the scene frame.
func futureRows(sc *eval.Scene, traj [][]eval.Point, frameSkip int) []Row {
	rows := make([]Row, 0, len(traj)*sc.AgentCount())
	for a := 0; a < sc.AgentCount(); a++ {
		for t := 0; t < len(traj); t++ {
			rows = append(rows, Row{
				Frame: sc.Frame + (t+1)*frameSkip,
				Agent: sc.AgentID(a),
				X:     traj[t][a].X,
				Y:     traj[t][a].Y,
			})
		}
	}
	return rows
}

// observedRows lays out the observation agent-major, past to recent, ending
// at the scene frame.
func observedRows(sc *eval.Scene, obs [][]eval.Point, frameSkip int) []Row {
	rows := make([]Row, 0, len(obs)*sc.AgentCount())
	for a := 0; a < sc.AgentCount(); a++ {
		for t := 0; t < len(obs); t++ {
			rows = append(rows, Row{
				Frame: sc.Frame - (len(obs)-1-t)*frameSkip,
				Agent: sc.AgentID(a),
				X:     obs[t][a].X,
				Y:     obs[t][a].Y,
			})
		}
	}
	return rows
}

func writeRows(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range rows {
		fmt.Fprintf(w, "%.3f %.3f %.3f %.3f\n", float64(r.Frame), float64(r.Agent), r.X, r.Y)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadRows parses a trajectory file. Every diagnostic names the path and
// line: downstream aggregation assumes fixed-shape arrays, so malformed
// input must fail here rather than surface as a shape error later.
func ReadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trajectory file: %w", err)
	}
	defer f.Close()

	var rows []Row
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 4 {
			return nil, fmt.Errorf("%s:%d: %d columns, want 4", path, line, len(fields))
		}
		vals := make([]float64, 4)
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: column %d: %w", path, line, i+1, err)
			}
			vals[i] = v
		}
		rows = append(rows, Row{Frame: int(vals[0]), Agent: int(vals[1]), X: vals[2], Y: vals[3]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty trajectory file", path)
	}
	return rows, nil
}

// toTimestepMajor regroups agent-major rows into a timestep-major array plus
// the agent ID per column. All agents must cover the same frames.
func toTimestepMajor(path string, rows []Row) ([][]eval.Point, []int, error) {
	agentOrder := make([]int, 0)
	byAgent := make(map[int][]Row)
	for _, r := range rows {
		if _, ok := byAgent[r.Agent]; !ok {
			agentOrder = append(agentOrder, r.Agent)
		}
		byAgent[r.Agent] = append(byAgent[r.Agent], r)
	}

	steps := len(byAgent[agentOrder[0]])
	for _, id := range agentOrder {
		if len(byAgent[id]) != steps {
			return nil, nil, fmt.Errorf("%s: agent %d has %d timesteps, agent %d has %d",
				path, id, len(byAgent[id]), agentOrder[0], steps)
		}
		sort.SliceStable(byAgent[id], func(i, j int) bool {
			return byAgent[id][i].Frame < byAgent[id][j].Frame
		})
	}

	traj := make([][]eval.Point, steps)
	for t := 0; t < steps; t++ {
		traj[t] = make([]eval.Point, len(agentOrder))
		for a, id := range agentOrder {
			traj[t][a] = eval.Point{X: byAgent[id][t].X, Y: byAgent[id][t].Y}
		}
	}
	return traj, agentOrder, nil
}

// LoadScene reads a scene's observation and ground truth from its directory
// under root. Fails fast with a path-bearing diagnostic when either file is
// missing or the agent sets disagree.
func LoadScene(root, seq string, frame int) (*eval.Scene, error) {
	dir := SceneDir(root, seq, frame)

	obsRows, err := ReadRows(filepath.Join(dir, ObsFile))
	if err != nil {
		return nil, fmt.Errorf("scene %s/frame_%06d: %w", seq, frame, err)
	}
	gtRows, err := ReadRows(filepath.Join(dir, GTFile))
	if err != nil {
		return nil, fmt.Errorf("scene %s/frame_%06d: %w", seq, frame, err)
	}

	obs, obsAgents, err := toTimestepMajor(filepath.Join(dir, ObsFile), obsRows)
	if err != nil {
		return nil, err
	}
	fut, futAgents, err := toTimestepMajor(filepath.Join(dir, GTFile), gtRows)
	if err != nil {
		return nil, err
	}
	if len(obsAgents) != len(futAgents) {
		return nil, fmt.Errorf("scene %s/frame_%06d: %d observed agents but %d ground-truth agents",
			seq, frame, len(obsAgents), len(futAgents))
	}
	for i := range obsAgents {
		if obsAgents[i] != futAgents[i] {
			return nil, fmt.Errorf("scene %s/frame_%06d: agent ID mismatch at column %d: obs %d vs gt %d",
				seq, frame, i, obsAgents[i], futAgents[i])
		}
	}

	sc := &eval.Scene{Seq: seq, Frame: frame, Observed: obs, Future: fut, AgentIDs: futAgents}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// LoadSplit loads every scene under root (root/<seq>/frame_<n>/), sorted by
// sequence name then frame number for deterministic aggregation.
func LoadSplit(root string) ([]*eval.Scene, error) {
	seqDirs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read split root %s: %w", root, err)
	}

	var scenes []*eval.Scene
	for _, seqDir := range seqDirs {
		if !seqDir.IsDir() {
			continue
		}
		seq := seqDir.Name()
		frameDirs, err := os.ReadDir(filepath.Join(root, seq))
		if err != nil {
			return nil, fmt.Errorf("read sequence dir %s: %w", filepath.Join(root, seq), err)
		}
		frames := make([]int, 0, len(frameDirs))
		for _, fd := range frameDirs {
			if !fd.IsDir() {
				continue
			}
			var frame int
			if _, err := fmt.Sscanf(fd.Name(), "frame_%d", &frame); err != nil {
				continue
			}
			frames = append(frames, frame)
		}
		sort.Ints(frames)
		for _, frame := range frames {
			sc, err := LoadScene(root, seq, frame)
			if err != nil {
				return nil, err
			}
			scenes = append(scenes, sc)
		}
	}
	if len(scenes) == 0 {
		return nil, fmt.Errorf("no scenes found under %s", root)
	}
	return scenes, nil
}
