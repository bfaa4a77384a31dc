package hivsim

import (
	"math/rand"
	"sort"

	"github.com/segmentio/ksuid"
)

// Model orchestrates a single simulation run: it owns the Population, the
// run-phase random stream, and the current time step (spec §2, §5).
// Model never touches Population's internal sets directly except through
// the methods Population already exposes — the same no-global-singleton,
// explicit-DI design spec §9 asks for elsewhere.
type Model struct {
	Params     *Params
	Population *Population
	RunRandom  *rand.Rand
	Logger     DataLogger
	InstanceID int

	// RunID tags every report row from this run with a sortable, unique
	// identifier — separate from agents' own small sequential int ids,
	// which stable iteration order depends on.
	RunID ksuid.KSUID

	currentTime int
}

// NewModel builds a fresh Population from params and wires it to a new
// run-phase random stream seeded from model.seed.run (spec §5's second
// named seed, kept independent of population.seed.ppl precisely so that
// re-running the same population under a different run seed — or vice
// versa — is a meaningful, supported operation).
func NewModel(params *Params, logger DataLogger) (*Model, error) {
	pop, err := NewPopulation(params)
	if err != nil {
		return nil, err
	}
	runSeed := checkedSeed(params.Model.Seed.Run)
	return &Model{
		Params:      params,
		Population:  pop,
		RunRandom:   rand.New(rand.NewSource(runSeed)),
		Logger:      logger,
		RunID:       ksuid.New(),
		currentTime: -params.Model.Time.BurnSteps,
	}, nil
}

// CurrentTime returns the step the model is about to run (or just ran, if
// called after Run returns).
func (m *Model) CurrentTime() int {
	return m.currentTime
}

// Run drives the model from its current time through model.time.num_steps,
// writing one ReportRow per step if a logger is attached. The caller is
// responsible for having already called Logger.SetBasePath — Run only
// calls Init/Close, treating SetBasePath as a construction-time concern
// and Init/Close as the pair that brackets a run.
func (m *Model) Run() error {
	if m.Logger != nil {
		if err := m.Logger.Init(); err != nil {
			return err
		}
		defer m.Logger.Close()
	}
	for m.currentTime < m.Params.Model.Time.NumSteps {
		if m.currentTime == 0 && m.Params.Features.AgentZero {
			m.seedAgentZero()
		}
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// seedAgentZero implements spec §4.4 step 2: once burn-in ends, pick one
// PWID uniformly via the run stream (not the population stream — this is
// a run-phase decision, reproducible independently of how the population
// was built), force a fixed number of new injection-bond partnerships
// onto it, then mark it HIV-positive. Grounded on
// `original_source/titan/ABM_core.py`'s `makeAgentZero`.
func (m *Model) seedAgentZero() {
	pop := m.Population
	candidates := pop.PWIDAgents.Members()
	if len(candidates) == 0 {
		return
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	agentZero := candidates[m.RunRandom.Intn(len(candidates))]

	if bond := injectionBondName(m.Params); bond != "" {
		breakPoint := m.Params.Calibration.Partnership.BreakPoint
		for i := 0; i < m.Params.Model.AgentZeroNumPartners; i++ {
			partner, ok := pop.selectPartner(agentZero, bond, breakPoint)
			if !ok {
				break
			}
			duration := sampleInt(pop.durationFor(bond), pop.PopRandom)
			if duration <= 0 {
				duration = 1
			}
			pop.formRelationship(agentZero, partner, bond, duration)
		}
	}
	m.infect(agentZero)
}

// injectionBondName returns the first (in declared-sorted order) bond
// type permitting the injection act, or "" if none is configured.
func injectionBondName(params *Params) string {
	for _, bond := range sortedBondNames(params) {
		if params.Classes.BondTypes[bond].allows("injection") {
			return bond
		}
	}
	return ""
}

// Step advances the simulation by exactly one time step, in a fixed order
// (spec §4, §5's determinism contract — the sequence itself is part of
// what must stay identical across runs with the same seed):
//
//  0. reset the step's new_infections/new_dx/... bookkeeping sets
//  1. evaluate transmission over every active relationship
//  2. per-agent clinical state (MSMW seroconversion, diagnosis, AIDS
//     progression, HAART, incarceration, high risk)
//  3. population-level PrEP targeting and load decay
//  4. syringe/needle-exchange enrollment threshold check
//  5. relationship duration countdown and dissolution
//  6. new partnership formation
//  7. death and replacement
//  8. periodic network trimming
//  9. report-row logging
//
// While currentTime is negative (burn-in, model.time.burn_steps), HIV
// transmission, MSMW seroconversion, diagnosis/AIDS/HAART/PrEP updates,
// and needle-exchange enrollment are all suppressed; partnership
// turnover, incarceration, high risk, and death-and-replacement still
// run, matching spec.md's "suppresses HIV interaction and
// diagnosis/treatment updates but permits partnership turnover and
// death/replacement" burn-in rule.
func (m *Model) Step() error {
	t := m.currentTime
	rng := m.RunRandom
	pop := m.Population
	burn := t < 0

	pop.StepStats.reset()

	if !burn {
		for _, rel := range pop.orderedRelationships() {
			if !rel.Active() {
				continue
			}
			ev := evaluateTransmission(m.Params, rel, rng)
			if ev.Occurred {
				m.infect(ev.Infected)
			}
		}
	}

	for _, agent := range pop.AllAgents.Members() {
		if !burn {
			if pop.updateMSMWSeroconversion(agent, rng) {
				m.infect(agent)
			}
			pop.updateClinical(agent, t, rng)
		}
		pop.updateIncarceration(agent, rng)
		pop.updateHighRisk(agent, rng)
	}

	if !burn {
		pop.updatePrEP(t, rng)
		pop.enrollNeedleExchange(rng)
	}

	for _, rel := range pop.orderedRelationships() {
		if rel.Progress(false) {
			pop.terminateRelationship(rel)
		}
	}

	pop.updatePartnerAssignments(t)

	for _, agent := range pop.AllAgents.Members() {
		pop.updateDeathAndReplacement(agent, t, rng)
	}

	if pop.graphEnabled && t%networkTrimInterval == 0 {
		pop.trimGraph(rng)
	}

	if m.Logger != nil {
		row := computeReportRow(m.InstanceID, m.RunID, t, pop)
		if err := m.Logger.WriteReportRow(row); err != nil {
			return err
		}
	}

	m.currentTime++
	return nil
}

// networkTrimInterval is how often (in steps) trimGraph reconsiders
// oversized components rather than trimming every single step.
const networkTrimInterval = 10

// infect transitions agent into the HIV-positive state: sets the clinical
// flags a fresh infection carries and registers it in hiv_agents. A no-op
// if the agent is already HIV-positive (spec §4.5 invariant: infection is
// never re-applied to an already-positive target).
func (m *Model) infect(agent *Agent) {
	if agent.HIV {
		return
	}
	agent.HIV = true
	agent.HIVEver = true
	agent.HIVTime = 0
	m.Population.HIVAgents.Add(agent)
	m.Population.StepStats.NewInfections = append(m.Population.StepStats.NewInfections, agent)
}
