package hivsim

import (
	"math/rand"
	"sort"
)

// updatePrEP runs one step of PrEP targeting and enrollment across the
// whole population (spec supplement 3/4: PrEP targeting models). At
// prep.start_t under the RandomTrial model, connected components are
// randomized into arms first (assignTrialArms); then, on that and every
// later step, eligible candidates for the configured targeting model are
// gathered, and as many as needed to reach prep.target (as a share of all
// agents) are enrolled.
func (p *Population) updatePrEP(currentTime int, rng *rand.Rand) {
	if !p.Params.Features.PrEP {
		return
	}

	if p.Params.PrEP.TargetModel == "RandomTrial" && currentTime == p.Params.PrEP.StartT {
		p.assignTrialArms(rng)
	}

	if currentTime < p.Params.PrEP.StartT {
		return
	}

	candidates := p.prepCandidates(currentTime)
	targetCount := int(p.Params.PrEP.Target * float64(p.AllAgents.Count()))
	currentlyEnrolled := 0
	for _, a := range p.AllAgents.Members() {
		if a.PrEPBool {
			currentlyEnrolled++
		}
	}

	for _, agent := range candidates {
		if currentlyEnrolled >= targetCount {
			break
		}
		p.initiatePrEP(agent, rng)
		currentlyEnrolled++
	}

	for _, agent := range p.AllAgents.Members() {
		if agent.PrEPBool {
			p.updatePrEPLoad(agent)
		}
	}
}

// prepCandidates gathers every PrEP-eligible agent (HIV negative, not
// already enrolled) matching the configured targeting model, in a stable
// id-ascending order so enrollment is reproducible under a given seed.
func (p *Population) prepCandidates(currentTime int) []*Agent {
	var out []*Agent
	for _, agent := range p.AllAgents.Members() {
		if !agent.PrEPEligible() {
			continue
		}
		if p.prepTargetMatch(agent, currentTime) {
			out = append(out, agent)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// prepTargetMatch reports whether agent qualifies under the configured
// prep.target_model (spec supplement 3):
//   - "Clinical": agent's partner count falls within one of
//     prep.clinic_agents' configured bins for their race.
//   - "RandomTrial": agent was assigned to the treatment arm by
//     assignTrialArms.
//   - "Incar": agent is currently incarcerated.
//   - "IncarHR": agent is currently incarcerated and high risk.
//   - "Racial": agent's race matches prep.clinic_category.
//   - default: every eligible agent qualifies (uniform targeting).
func (p *Population) prepTargetMatch(agent *Agent, currentTime int) bool {
	switch p.Params.PrEP.TargetModel {
	case "Clinical":
		return clinicalBinMatch(p.Params, agent)
	case "RandomTrial":
		return agent.prepTrialArm == trialArmTreatment
	case "Incar":
		return agent.Incar
	case "IncarHR":
		return agent.Incar && agent.HighRisk
	case "Racial":
		return agent.Race == p.Params.PrEP.ClinicCategory
	default:
		return true
	}
}

// clinicalBinMatch reports whether agent's total partner count falls
// within any of prep.clinic_agents[race]'s configured [min, max) bins.
func clinicalBinMatch(params *Params, agent *Agent) bool {
	bins, ok := params.PrEP.ClinicAgents[agent.Race]
	if !ok {
		return false
	}
	n := float64(agent.NumPartners())
	for _, b := range bins {
		if n >= b.Min && n < b.Max {
			return true
		}
	}
	return false
}

// initiatePrEP enrolls agent onto PrEP (spec supplement 3): assigns the
// configured prep.type (oral vs injectable), draws adherence and
// resistance, and for injectable PrEP sets the initial load to the peak;
// oral PrEP leaves the load untouched.
func (p *Population) initiatePrEP(agent *Agent, rng *rand.Rand) {
	agent.PrEPBool = true
	agent.PrEPEver = true
	agent.PrEPTime = 0
	agent.PrEPType = p.Params.PrEP.Type
	if agent.PrEPType == "Inj" {
		agent.PrEPLoad = p.Params.PrEP.PeakLoad
	}
	agent.PrEPLastDose = 0

	demo, ok := p.Params.demographicParams(agent.Race, agent.SexType)
	adherence := p.Params.PrEP.AdherenceEfficacy
	if ok {
		adherence = demo.PrEP.Adherence
	}
	if agent.Location != nil {
		if override, ok := p.Params.Locations[agent.Location.Name]; ok {
			if v, ok := override.PrEPAdherence[agent.Race]; ok {
				adherence = v
			}
		}
	}
	agent.PrEPAdherent = rng.Float64() < adherence
	agent.PrEPResistance = rng.Float64() < p.Params.PrEP.Resist
	p.StepStats.NewPrEP = append(p.StepStats.NewPrEP, agent)
}

// updatePrEPLoad advances PrEP pharmacokinetic state by one step (spec
// supplement 3): oral PrEP load is a flat on/off signal tracked by
// PrEPAdherent, injectable PrEP decays exponentially from its peak and
// falls off (PrEPBool cleared) once fallout_t steps have elapsed since
// the last dose.
func (p *Population) updatePrEPLoad(agent *Agent) {
	agent.PrEPTime++
	if agent.PrEPType != "Inj" {
		return
	}
	agent.PrEPLastDose++
	if agent.PrEPLastDose >= p.Params.PrEP.FalloutT {
		agent.PrEPBool = false
		agent.PrEPLoad = 0
		return
	}
	agent.PrEPLoad = p.Params.PrEP.PeakLoad * decayFactor(agent.PrEPLastDose)
}

// decayFactor is a simple exponential decay curve over doses-since-last,
// 0.95^stepsSinceDose; the rate is fixed here rather than read from
// params, so the shape (not the rate) is what matters here —
// load strictly decreases toward zero as PrEPLastDose grows.
func decayFactor(stepsSinceDose int) float64 {
	half := 1.0
	for i := 0; i < stepsSinceDose; i++ {
		half *= 0.95
	}
	return half
}

type trialArm int

const (
	trialArmControl trialArm = iota
	trialArmTreatment
)

// assignTrialArms randomizes every connected component into a PrEP trial
// arm as a block (spec supplement 3: "random-trial per-connected-component
// arm randomization at t==PrEP_startT") so that a component's internal
// transmission dynamics aren't split across arms. Agents outside any
// tracked component (graph disabled, or isolated nodes never added) are
// randomized individually.
func (p *Population) assignTrialArms(rng *rand.Rand) {
	assigned := make(map[int]bool)
	if p.graphEnabled {
		components := p.graph.ConnectedComponents()
		ids := make([]int, 0, len(components))
		componentByFirstID := make(map[int]map[int]struct{})
		for _, c := range components {
			minID := -1
			for id := range c {
				if minID == -1 || id < minID {
					minID = id
				}
			}
			ids = append(ids, minID)
			componentByFirstID[minID] = c
		}
		sort.Ints(ids)
		for _, id := range ids {
			arm := trialArmControl
			if rng.Float64() < 0.5 {
				arm = trialArmTreatment
			}
			for memberID := range componentByFirstID[id] {
				if agent, ok := p.AllAgents.Get(memberID); ok {
					agent.prepTrialArm = arm
					assigned[memberID] = true
				}
			}
		}
	}

	for _, agent := range p.AllAgents.Members() {
		if assigned[agent.ID] {
			continue
		}
		if rng.Float64() < 0.5 {
			agent.prepTrialArm = trialArmTreatment
		} else {
			agent.prepTrialArm = trialArmControl
		}
	}
}
