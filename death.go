package hivsim

import "math/rand"

// updateDeathAndReplacement runs one step of the death-and-replacement
// model for a single agent (spec §4.10): incarcerated agents are skipped
// outright, then a per-(HIV, AIDS, race, adherence) death rate roll; on
// death, every active relationship is atomically terminated, the agent is
// removed from every AgentSet and the graph, and a freshly-created
// replacement agent preserving the dead agent's race and sex type is added
// back in, keeping total population size constant.
func (p *Population) updateDeathAndReplacement(agent *Agent, currentTime int, rng *rand.Rand) bool {
	if agent.Incar {
		return false
	}

	demo, ok := p.Params.demographicParams(agent.Race, agent.SexType)
	if !ok {
		return false
	}

	rate := deathRate(demo, agent)
	if rng.Float64() >= rate {
		agent.TimeAlive++
		return false
	}

	p.StepStats.Deaths = append(p.StepStats.Deaths, agent)

	for _, rel := range agent.Relationships() {
		rel.Progress(true)
		p.terminateRelationship(rel)
	}
	p.removeAgent(agent)

	location := agent.Location
	replacement, err := p.createAgent(location, agent.Race, currentTime, agent.SexType)
	if err != nil {
		return true
	}
	p.addAgent(replacement)
	return true
}

// deathRate looks up the per-step death probability for agent's current
// clinical state (spec §4.10): HIV-negative agents use the demographic
// background rate; HIV-positive agents use the AIDS-stage rate once AIDS
// has progressed, otherwise the chronic-stage rate, both discounted by
// full (class 5) HAART adherence the way ABM_core.py discounts
// AIDS progression for suppressed agents.
func deathRate(demo *DemographicParams, agent *Agent) float64 {
	if !agent.HIV {
		return demo.Death.Base
	}
	rate := demo.Death.Chronic
	if agent.AIDS {
		rate = demo.Death.AIDS
	}
	if agent.HAART && agent.HAARTAdherence >= 5 {
		rate /= 2
	}
	return rate
}
