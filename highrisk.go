package hivsim

import "math/rand"

// highRiskPartnerMultiplier scales target partner counts up while an agent
// carries high-risk status (spec §4.9), mirroring ABM_core.py's flat
// doubling of target partners for high-risk agents.
const highRiskPartnerMultiplier = 2.0

// updateHighRisk runs one step of high-risk expiry for a single agent
// (spec §4.9). An agent already in high-risk status has its remaining time
// decremented and, on expiry, has its target partner counts redrawn back
// to its baseline mean (the "reversal" of the entry scaling). An agent not
// in high-risk status is left unchanged; entry happens only through
// enterHighRisk.
func (p *Population) updateHighRisk(agent *Agent, rng *rand.Rand) {
	if !p.Params.Features.HighRisk {
		return
	}

	if agent.HighRisk {
		agent.HighRiskTime--
		if agent.HighRiskTime <= 0 {
			agent.HighRisk = false
			p.HighRiskAgents.Remove(agent)
			p.updatePartnerTargets(agent, 1.0)
		}
		return
	}
}

// enterHighRisk flips an agent into high-risk status (spec §4.9): used by
// incarceration release (the released agent and its sexual partners go
// high risk). The demographic high_risk.init roll at population
// construction sets the flags in createAgent directly and does not call
// this.
// Target partner counts are doubled immediately so the partnership engine
// seeks more partners on the very next pass.
func (p *Population) enterHighRisk(agent *Agent, duration int) {
	if agent.HighRisk {
		return
	}
	agent.HighRisk = true
	agent.HighRiskEver = true
	agent.HighRiskTime = duration
	p.HighRiskAgents.Add(agent)
	p.updatePartnerTargets(agent, highRiskPartnerMultiplier)
	p.StepStats.NewHighRisk = append(p.StepStats.NewHighRisk, agent)
}
