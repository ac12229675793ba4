package trajfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/traj-eval/traj-eval/eval"
)

// testScene builds a two-agent scene with 4 observed and 3 future steps,
// agents walking parallel lines one unit apart.
func testScene(seq string, frame int) *eval.Scene {
	obs := make([][]eval.Point, 4)
	fut := make([][]eval.Point, 3)
	for t := range obs {
		obs[t] = []eval.Point{{X: 0, Y: float64(t)}, {X: 1, Y: float64(t)}}
	}
	for t := range fut {
		fut[t] = []eval.Point{{X: 0, Y: float64(4 + t)}, {X: 1, Y: float64(4 + t)}}
	}
	return &eval.Scene{Seq: seq, Frame: frame, Observed: obs, Future: fut, AgentIDs: []int{3, 8}}
}

func writeTestScene(t *testing.T, root string, sc *eval.Scene, nSamples int) {
	t.Helper()
	res := &eval.RejectionResult{
		Observed:    sc.Observed,
		GroundTruth: sc.Future,
	}
	for i := 0; i < nSamples; i++ {
		s := make(eval.Sample, len(sc.Future))
		for ti := range s {
			s[ti] = make([]eval.Point, sc.AgentCount())
			copy(s[ti], sc.Future[ti])
		}
		res.Samples = append(res.Samples, s)
	}
	if err := WriteScene(root, sc, res, 10); err != nil {
		t.Fatalf("WriteScene: %v", err)
	}
}

func TestWriteThenLoadScene_RoundTrip(t *testing.T) {
	// GIVEN a scene written with frame stride 10
	root := t.TempDir()
	sc := testScene("zara1", 780)
	writeTestScene(t, root, sc, 2)

	// WHEN loading it back
	got, err := LoadScene(root, "zara1", 780)
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}

	// THEN shape, agent IDs, and coordinates survive
	if got.AgentCount() != 2 || len(got.Observed) != 4 || len(got.Future) != 3 {
		t.Fatalf("loaded shape agents=%d obs=%d fut=%d", got.AgentCount(), len(got.Observed), len(got.Future))
	}
	if got.AgentIDs[0] != 3 || got.AgentIDs[1] != 8 {
		t.Fatalf("agent IDs %v, want [3 8]", got.AgentIDs)
	}
	for ti := range got.Future {
		for a := range got.Future[ti] {
			if got.Future[ti][a] != sc.Future[ti][a] {
				t.Fatalf("future (%d,%d) = %v, want %v", ti, a, got.Future[ti][a], sc.Future[ti][a])
			}
		}
	}

	// AND sample files exist alongside
	dir := SceneDir(root, "zara1", 780)
	for i := 0; i < 2; i++ {
		if _, err := os.Stat(filepath.Join(dir, SampleFile(i))); err != nil {
			t.Errorf("missing %s: %v", SampleFile(i), err)
		}
	}
}

func TestWriteScene_RowLayout(t *testing.T) {
	// GIVEN a written ground-truth file
	root := t.TempDir()
	sc := testScene("eth", 40)
	writeTestScene(t, root, sc, 0)

	rows, err := ReadRows(filepath.Join(SceneDir(root, "eth", 40), GTFile))
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}

	// THEN rows are agent-major and frames advance by the stride from the
	// scene frame
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 6", len(rows))
	}
	if rows[0].Agent != 3 || rows[3].Agent != 8 {
		t.Fatalf("agent order %d,%d, want 3,8", rows[0].Agent, rows[3].Agent)
	}
	wantFrames := []int{50, 60, 70}
	for i, wf := range wantFrames {
		if rows[i].Frame != wf {
			t.Fatalf("row %d frame %d, want %d", i, rows[i].Frame, wf)
		}
	}
}

func TestReadRows_Diagnostics(t *testing.T) {
	dir := t.TempDir()

	// Column-count errors carry path and line number.
	bad := filepath.Join(dir, "bad.txt")
	os.WriteFile(bad, []byte("10.0 1.0 0.5 0.5\n20.0 1.0 0.5\n"), 0o644)
	_, err := ReadRows(bad)
	if err == nil || !strings.Contains(err.Error(), "bad.txt:2") {
		t.Fatalf("column error = %v, want path:line", err)
	}

	// Parse errors name the offending column.
	unparsable := filepath.Join(dir, "nan.txt")
	os.WriteFile(unparsable, []byte("10.0 1.0 x 0.5\n"), 0o644)
	_, err = ReadRows(unparsable)
	if err == nil || !strings.Contains(err.Error(), "column 3") {
		t.Fatalf("parse error = %v, want column diagnostic", err)
	}

	// Empty files are an error, not an empty scene.
	empty := filepath.Join(dir, "empty.txt")
	os.WriteFile(empty, []byte("\n\n"), 0o644)
	if _, err := ReadRows(empty); err == nil {
		t.Fatal("empty file accepted")
	}
}

func TestLoadScene_AgentMismatch(t *testing.T) {
	// GIVEN obs and gt naming different agents
	root := t.TempDir()
	dir := SceneDir(root, "hotel", 0)
	os.MkdirAll(dir, 0o755)
	os.WriteFile(filepath.Join(dir, ObsFile), []byte("0.0 1.0 0.0 0.0\n10.0 1.0 0.0 1.0\n"), 0o644)
	os.WriteFile(filepath.Join(dir, GTFile), []byte("20.0 2.0 0.0 2.0\n"), 0o644)

	_, err := LoadScene(root, "hotel", 0)
	if err == nil || !strings.Contains(err.Error(), "agent ID mismatch") {
		t.Fatalf("err = %v, want agent ID mismatch", err)
	}
}

func TestLoadSplit_SortedAndComplete(t *testing.T) {
	// GIVEN scenes written out of order across two sequences
	root := t.TempDir()
	writeTestScene(t, root, testScene("zara1", 200), 0)
	writeTestScene(t, root, testScene("zara1", 100), 0)
	writeTestScene(t, root, testScene("eth", 50), 0)

	scenes, err := LoadSplit(root)
	if err != nil {
		t.Fatalf("LoadSplit: %v", err)
	}

	// THEN ordering is sequence name, then frame number
	if len(scenes) != 3 {
		t.Fatalf("got %d scenes, want 3", len(scenes))
	}
	gotIDs := []string{scenes[0].ID(), scenes[1].ID(), scenes[2].ID()}
	wantIDs := []string{"eth/frame_000050", "zara1/frame_000100", "zara1/frame_000200"}
	for i := range wantIDs {
		if gotIDs[i] != wantIDs[i] {
			t.Fatalf("scene order %v, want %v", gotIDs, wantIDs)
		}
	}
}

func TestLoadSplit_EmptyRootFails(t *testing.T) {
	if _, err := LoadSplit(t.TempDir()); err == nil {
		t.Fatal("empty split root accepted")
	}
}
