package hivsim

import "testing"

func TestNewModelSeedsRunRandomIndependently(t *testing.T) {
	params := minimalSimParams()
	m, err := NewModel(params, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.RunRandom == nil {
		t.Fatalf("expected RunRandom to be initialized")
	}
	if m.Population.PopRandom == nil {
		t.Fatalf("expected Population.PopRandom to be initialized")
	}
}

func TestModelStepAdvancesTime(t *testing.T) {
	params := minimalSimParams()
	m, err := NewModel(params, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := m.CurrentTime()
	if err := m.Step(); err != nil {
		t.Fatalf("unexpected error stepping: %v", err)
	}
	if m.CurrentTime() != start+1 {
		t.Errorf("expected CurrentTime incremented by exactly 1, got %d (started at %d)", m.CurrentTime(), start)
	}
}

func TestModelRunReachesNumSteps(t *testing.T) {
	params := minimalSimParams()
	params.Model.Time.NumSteps = 3
	params.Model.Time.BurnSteps = 0
	m, err := NewModel(params, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("unexpected error running: %v", err)
	}
	if m.CurrentTime() != 3 {
		t.Errorf("expected CurrentTime==NumSteps==3 after Run, got %d", m.CurrentTime())
	}
}

func TestModelRunLogsOneRowPerStep(t *testing.T) {
	params := minimalSimParams()
	params.Model.Time.NumSteps = 4
	params.Model.Time.BurnSteps = 0
	logger := &countingLogger{}
	m, err := NewModel(params, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("unexpected error running: %v", err)
	}
	if !logger.initCalled {
		t.Errorf("expected Logger.Init called")
	}
	if !logger.closeCalled {
		t.Errorf("expected Logger.Close called")
	}
	if logger.rows != 4 {
		t.Errorf("expected 4 report rows logged (one per step), got %d", logger.rows)
	}
}

func TestInfectIsANoOpOnAlreadyPositiveAgent(t *testing.T) {
	params := minimalSimParams()
	m, err := NewModel(params, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	agent := m.Population.AllAgents.Members()[0]
	agent.HIV = true
	agent.HIVTime = 42
	m.Population.HIVAgents.Add(agent)

	m.infect(agent)

	if agent.HIVTime != 42 {
		t.Errorf("expected infect() on an already-positive agent to be a no-op, got HIVTime=%d", agent.HIVTime)
	}
}

func TestInfectSetsFreshInfectionState(t *testing.T) {
	params := minimalSimParams()
	m, err := NewModel(params, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	agent := m.Population.AllAgents.Members()[0]
	agent.HIV = false
	agent.HIVTime = 99

	m.infect(agent)

	if !agent.HIV || !agent.HIVEver {
		t.Fatalf("expected HIV and HIVEver both set")
	}
	if agent.HIVTime != 0 {
		t.Errorf("expected HIVTime reset to 0 on fresh infection, got %d", agent.HIVTime)
	}
	if !m.Population.HIVAgents.Contains(agent) {
		t.Errorf("expected agent registered in HIVAgents")
	}
	if len(m.Population.StepStats.NewInfections) != 1 || m.Population.StepStats.NewInfections[0] != agent {
		t.Errorf("expected agent recorded in StepStats.NewInfections, got %v", m.Population.StepStats.NewInfections)
	}
}

func TestStepResetsBookkeepingSetsEachCall(t *testing.T) {
	params := minimalSimParams()
	m, err := NewModel(params, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.Population.StepStats.NewInfections = []*Agent{m.Population.AllAgents.Members()[0]}

	if err := m.Step(); err != nil {
		t.Fatalf("unexpected error stepping: %v", err)
	}

	if len(m.Population.StepStats.NewInfections) != 0 {
		t.Errorf("expected Step to reset NewInfections at its start, got %v", m.Population.StepStats.NewInfections)
	}
}

func TestBurnInSuppressesTransmissionAndClinicalUpdates(t *testing.T) {
	params := minimalSimParams()
	params.Model.Time.BurnSteps = 2
	params.Model.Time.NumSteps = 0
	m, err := NewModel(params, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.CurrentTime() != -2 {
		t.Fatalf("expected CurrentTime to start at -BurnSteps==-2, got %d", m.CurrentTime())
	}

	agent := m.Population.AllAgents.Members()[0]
	agent.HIV = true
	agent.HIVDx = false
	m.Population.HIVAgents.Add(agent)

	if err := m.Step(); err != nil {
		t.Fatalf("unexpected error stepping: %v", err)
	}

	if len(m.Population.StepStats.NewDx) != 0 {
		t.Errorf("expected diagnosis updates suppressed during burn-in, got new_dx=%v", m.Population.StepStats.NewDx)
	}
	if agent.HIVTime != 0 {
		t.Errorf("expected updateClinical (and its HIVTime increment) suppressed during burn-in, got HIVTime=%d", agent.HIVTime)
	}
}

func TestSeedAgentZeroInfectsAPWIDAndFormsPartners(t *testing.T) {
	params := minimalSimParams()
	params.Features.AgentZero = true
	params.Model.AgentZeroNumPartners = 2
	params.Classes.BondTypes["Inject"] = BondTypeDef{ActsAllowed: []string{"injection"}}
	params.Partnership.Injection = DurationParams{Duration: DistDef{DistType: "uniform", Var1: 2, Var2: 4}}
	m, err := NewModel(params, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 5; i++ {
		a, err := m.Population.createAgent(m.Population.Geography.Locations["default"], "Black", 0, "HM")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		a.DrugType = "Inj"
		a.Partners["Inject"] = make(map[int]*Agent)
		a.TargetPartners["Inject"] = 3
		m.Population.addAgent(a)
		m.Population.updatePartnerability(a)
	}
	if m.Population.PWIDAgents.Count() == 0 {
		t.Fatalf("expected at least one PWID agent to seed from")
	}

	m.seedAgentZero()

	infected := 0
	for _, a := range m.Population.AllAgents.Members() {
		if a.HIV {
			infected++
		}
	}
	if infected != 1 {
		t.Errorf("expected exactly one agent infected by seedAgentZero, got %d", infected)
	}
	if len(m.Population.Relationships) == 0 {
		t.Errorf("expected seedAgentZero to force at least one injection-bond relationship")
	}
}

func TestSeedAgentZeroIsNoOpWithoutPWIDAgents(t *testing.T) {
	params := minimalSimParams()
	params.Features.AgentZero = true
	m, err := NewModel(params, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, a := range m.Population.AllAgents.Members() {
		m.Population.PWIDAgents.Remove(a)
	}

	m.seedAgentZero() // must not panic with an empty PWID set
}

type countingLogger struct {
	initCalled  bool
	closeCalled bool
	rows        int
}

func (l *countingLogger) SetBasePath(path string, i int) {}
func (l *countingLogger) Init() error                    { l.initCalled = true; return nil }
func (l *countingLogger) WriteReportRow(row ReportRow) error {
	l.rows++
	return nil
}
func (l *countingLogger) Close() error { l.closeCalled = true; return nil }
