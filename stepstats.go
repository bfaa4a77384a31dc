package hivsim

// StepStats accumulates the per-step bookkeeping sets spec.md names
// explicitly: the agents that crossed each named transition during the
// step currently in progress (new infections, new diagnoses, new
// incarceration releases, new high-risk entries, new PrEP enrollments,
// deaths). Model.Step resets this to empty before running the step's
// pipeline and ReportRow reads the counts afterward, mirroring
// `original_source/titan/ABM_core.py`'s per-step `new_*` tracking sets.
type StepStats struct {
	NewInfections   []*Agent
	NewDx           []*Agent
	NewIncarRelease []*Agent
	NewHighRisk     []*Agent
	NewPrEP         []*Agent
	Deaths          []*Agent
}

func (s *StepStats) reset() {
	s.NewInfections = nil
	s.NewDx = nil
	s.NewIncarRelease = nil
	s.NewHighRisk = nil
	s.NewPrEP = nil
	s.Deaths = nil
}
