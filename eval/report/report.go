package report

// EvalReport collects scene records during an evaluation pass.
type EvalReport struct {
	Records []SceneRecord
}

// NewEvalReport creates an EvalReport ready for recording.
func NewEvalReport() *EvalReport {
	return &EvalReport{Records: make([]SceneRecord, 0)}
}

// Record appends a scene record.
func (er *EvalReport) Record(record SceneRecord) {
	er.Records = append(er.Records, record)
}

// Residuals returns the records of scenes with residual collisions, in
// recording order.
func (er *EvalReport) Residuals() []SceneRecord {
	out := make([]SceneRecord, 0)
	for _, r := range er.Records {
		if r.HasResidual() {
			out = append(out, r)
		}
	}
	return out
}
