package report

// ReportSummary aggregates statistics from an EvalReport.
type ReportSummary struct {
	TotalScenes        int
	ScenesWithResidual int
	ResidualSamples    int
	MaxResidual        int
	TotalTries         int
	// ResidualByAgents maps agent count → number of budget-exhausted scenes
	// with that many agents. Crowded scenes dominate in practice.
	ResidualByAgents map[int]int
}

// Summarize computes aggregate statistics from an EvalReport.
// Safe for nil or empty reports (returns zero-value fields).
func Summarize(er *EvalReport) *ReportSummary {
	summary := &ReportSummary{
		ResidualByAgents: make(map[int]int),
	}
	if er == nil {
		return summary
	}

	summary.TotalScenes = len(er.Records)
	for _, r := range er.Records {
		summary.TotalTries += r.Tries
		if !r.HasResidual() {
			continue
		}
		summary.ScenesWithResidual++
		summary.ResidualSamples += r.Residual
		summary.ResidualByAgents[r.AgentCount]++
		if r.Residual > summary.MaxResidual {
			summary.MaxResidual = r.Residual
		}
	}
	return summary
}
