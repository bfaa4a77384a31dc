package hivsim

import "math/rand"

// updateDiagnosis runs one step of HIV testing for an undiagnosed
// HIV-positive agent (spec §4.6): a Bernoulli draw against the
// demographic test probability, scaled by calibration.test_freq. A
// positive draw sets hiv_dx and registers the agent in the population's
// per-(race, sex_type) diagnosis counters, which HAART enrollment reads.
func (p *Population) updateDiagnosis(agent *Agent, rng *rand.Rand) {
	if !agent.HIV || agent.HIVDx {
		return
	}
	demo, ok := p.Params.demographicParams(agent.Race, agent.SexType)
	if !ok {
		return
	}
	testProb := demo.HIVTest * p.Params.Calibration.TestFreq
	if rng.Float64() < testProb {
		agent.HIVDx = true
		agent.Tested = true
		p.DxCounts[agent.Race][agent.SexType]++
		p.StepStats.NewDx = append(p.StepStats.NewDx, agent)
	}
}

// updateAIDSProgression advances an HIV-positive agent toward an AIDS
// diagnosis (spec §4.6): the per-step probability is
// calibration.prog_aids, halved for an agent who is on HAART with full
// (class 5) adherence, mirroring ABM_core.py's HAART-suppression discount
// on disease progression.
func (p *Population) updateAIDSProgression(agent *Agent, rng *rand.Rand) {
	if !agent.HIV || agent.AIDS {
		return
	}
	prob := p.Params.Calibration.ProgAIDS
	if agent.HAART && agent.HAARTAdherence >= 5 {
		prob /= 2
	}
	if rng.Float64() < prob {
		agent.AIDS = true
	}
}

// updateMSMWSeroconversion gives an HIV-negative MSMW-flagged agent a
// fixed per-step chance of becoming HIV-positive outside of partnership
// transmission, modeling risk from the off-network contacts the partner
// graph doesn't represent (spec §4.4 step (e); `ABM_core.py
// _update_AllAgents`'s `if agent._MSMW and rand < params.HIV_MSMW`). The
// caller (Model.infect) is responsible for registering the agent in
// hiv_agents; this only decides whether seroconversion occurs.
func (p *Population) updateMSMWSeroconversion(agent *Agent, rng *rand.Rand) bool {
	if !p.Params.Features.MSMW || !agent.MSMW || agent.HIV {
		return false
	}
	return rng.Float64() < p.Params.HIV.MSMWProb
}

// enrollNeedleExchange implements spec §4.4 step (g): once the
// population's cumulative HIV-diagnosis count crosses
// calibration.syringe_services.init_treatment, syringe/needle-exchange
// enrollment flips on as a one-shot population-level flag; every step
// afterward, each not-yet-enrolled PWID agent gets one Bernoulli draw at
// calibration.syringe_services.coverage (`ABM_core.py
// _enroll_treatment`). The flag never turns back off even if the
// diagnosed count later drops via death-and-replace.
func (p *Population) enrollNeedleExchange(rng *rand.Rand) {
	if !p.Params.Features.SyringeServices {
		return
	}
	if !p.needleExchangeEnabled {
		total := 0
		for _, byRace := range p.DxCounts {
			for _, n := range byRace {
				total += n
			}
		}
		if total < p.Params.Calibration.SyringeServices.InitTreatment {
			return
		}
		p.needleExchangeEnabled = true
	}
	for _, agent := range p.AllAgents.Members() {
		if agent.DrugType != "Inj" || agent.SyringeExchange {
			continue
		}
		if rng.Float64() < p.Params.Calibration.SyringeServices.Coverage {
			agent.SyringeExchange = true
		}
	}
}

// updateClinical runs the per-step clinical state machine for a single
// HIV-positive agent in a fixed order: diagnosis, then AIDS progression,
// then HAART bookkeeping for a diagnosed agent, and finally the hiv_time
// increment, matching the sequencing in ABM_core.py's update_agent loop. Call sites iterate a
// stable AgentSet snapshot (spec §9) so this never mutates set membership
// out from under the caller; Model.Step is responsible for moving an
// agent in/out of hiv_agents if this call changes agent.HIV.
func (p *Population) updateClinical(agent *Agent, currentTime int, rng *rand.Rand) {
	if !agent.HIV {
		return
	}
	p.updateDiagnosis(agent, rng)
	p.updateAIDSProgression(agent, rng)

	if agent.HIVDx {
		p.updateHAART(agent, currentTime, rng)
	}
	agent.HIVTime++
}
