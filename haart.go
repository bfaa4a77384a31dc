package hivsim

import "math/rand"

// updateHAART runs one step of HAART enrollment/discontinuation for a
// diagnosed HIV-positive agent (spec §4.6). An unenrolled agent rolls
// against the demographic HAART initiation rate scaled by
// calibration.art_cov; an enrolled agent rolls against its discontinuation
// rate. A released agent that was ever on HAART before release is instead
// inside a re-engagement window (IncarTreatmentTime > 0): the window counts
// down by one each step and, if the agent is off HAART, it is re-enrolled
// via enrollHAART with a freshly drawn adherence class — the
// "post-incarceration RIC override" (Re-engagement In Care) supplement,
// grounded in ABM_core.py's incar_treatment handling.
func (p *Population) updateHAART(agent *Agent, currentTime int, rng *rand.Rand) {
	demo, ok := p.Params.demographicParams(agent.Race, agent.SexType)
	if !ok {
		return
	}

	if agent.IncarEver && !agent.Incar && agent.IncarTreatmentTime > 0 {
		agent.IncarTreatmentTime--
		if !agent.HAART {
			p.enrollHAART(agent, demo, rng)
		}
		return
	}

	if agent.HAART {
		agent.HAARTTime++
		if rng.Float64() < demo.HAART.Disc {
			p.discontinueHAART(agent)
		}
		return
	}

	initProb := demo.HAART.Prev * p.Params.Calibration.ArtCov
	if rng.Float64() < initProb {
		p.enrollHAART(agent, demo, rng)
	}
}

// enrollHAART flips an agent onto HAART, assigning an adherence class
// (spec §4.6: adherence classes 1-5, 5 fully adherent) and updating the
// population's per-(race, sex_type) HAART counters.
func (p *Population) enrollHAART(agent *Agent, demo *DemographicParams, rng *rand.Rand) {
	agent.HAART = true
	agent.HAARTEver = true
	agent.HAARTTime = 0
	if rng.Float64() < demo.HAART.Adherence {
		agent.HAARTAdherence = 5
	} else {
		agent.HAARTAdherence = 1 + rng.Intn(4)
	}
	p.HAARTCounts[agent.Race][agent.SexType]++
}

// discontinueHAART flips an agent off HAART, decrementing the
// population's HAART counter. HAARTEver and the accrued adherence class
// are left untouched since re-enrollment (enrollHAART) always redraws
// them.
func (p *Population) discontinueHAART(agent *Agent) {
	agent.HAART = false
	p.HAARTCounts[agent.Race][agent.SexType]--
}
