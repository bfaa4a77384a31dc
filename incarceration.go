package hivsim

import "math/rand"

// updateIncarceration runs one step of the incarceration state machine for
// a single agent (spec §4.7). An incarcerated agent's remaining time
// counts down; at release, its sexual partners are cascaded into high-risk
// status and the agent itself enters a post-release treatment re-engagement
// window (see haart.go's RIC override). A free agent rolls against the
// demographic incarceration probability, scaled by calibration.incar; on a
// hit, duration is drawn from the "ongoing" bin table (distinct from the
// "init" table used at population construction, per spec §4.7); an
// undiagnosed HIV+ agent then gets a diagnosis roll, and a diagnosed agent
// not on HAART gets a HAART enrollment roll at calibration.art_cov.
func (p *Population) updateIncarceration(agent *Agent, rng *rand.Rand) {
	if !p.Params.Features.Incar {
		return
	}

	if agent.Incar {
		agent.IncarTime--
		if agent.IncarTime <= 0 {
			p.releaseFromIncarceration(agent)
		}
		return
	}

	demo, ok := p.Params.demographicParams(agent.Race, agent.SexType)
	if !ok {
		return
	}

	incarProb := demo.Incar.Prob * p.Params.Calibration.Incar
	if rng.Float64() >= incarProb {
		return
	}

	agent.Incar = true
	agent.IncarEver = true
	bin := cumulativeBin(demo.Incar.Duration.Ongoing, rng)
	b := demo.Incar.Duration.Ongoing[bin]
	if b.Max > b.Min {
		agent.IncarTime = b.Min + rng.Intn(b.Max-b.Min)
	} else {
		agent.IncarTime = b.Min
	}

	if agent.HIV && !agent.HIVDx {
		p.updateDiagnosis(agent, rng)
	}
	if agent.HIVDx && !agent.HAART {
		if rng.Float64() < p.Params.Calibration.ArtCov {
			p.enrollHAART(agent, demo, rng)
		}
	}
}

// releaseFromIncarceration clears incar status, cascades the agent's
// current sexual partners into high risk (spec §4.7's "partner high-risk
// cascading"), starts the post-release treatment re-engagement window if
// the agent was ever enrolled on HAART, and transitions the released
// agent itself into high risk (spec §4.9's incarceration-release trigger).
func (p *Population) releaseFromIncarceration(agent *Agent) {
	agent.Incar = false
	agent.IncarTime = 0
	p.StepStats.NewIncarRelease = append(p.StepStats.NewIncarRelease, agent)

	if agent.HAARTEver {
		agent.IncarTreatmentTime = p.Params.Calibration.Partnership.BreakPoint
	}

	if p.Params.Features.HighRisk {
		p.enterHighRisk(agent, defaultHighRiskDuration)
		for bond, partners := range agent.Partners {
			def := p.Params.Classes.BondTypes[bond]
			if !def.allows("sex") {
				continue
			}
			for _, partner := range partners {
				p.enterHighRisk(partner, defaultHighRiskDuration)
			}
		}
	}
}

// defaultHighRiskDuration is used when a high-risk trigger (incarceration
// release, partner cascade) doesn't have its own duration distribution
// configured. TODO: source this from a demographic high_risk duration
// table once one is added to params.go.
const defaultHighRiskDuration = 26
