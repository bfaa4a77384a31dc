package hivsim

import (
	"math"
	"math/rand"
)

// transmissionEvent reports one attempted transmission: which relationship
// was evaluated, whether it fired, and (if so) which agent newly acquired
// HIV (spec §4.5). Model.Step uses this to update clinical bookkeeping
// (hiv_time, hiv_agents membership) exactly once per infection.
type transmissionEvent struct {
	Relationship *Relationship
	Infected     *Agent
	Occurred     bool
}

// evaluateTransmission runs the full per-act transmission model for one
// active relationship over one time step (spec §4.5): it identifies the
// HIV+ source and HIV- target (skipping concordant-positive and
// concordant-negative pairs), computes the needle and/or sex transmission
// probability depending on which acts the bond allows, and combines them
// into a single per-step infection draw using run_random.
func evaluateTransmission(params *Params, rel *Relationship, rng *rand.Rand) transmissionEvent {
	ev := transmissionEvent{Relationship: rel}

	source, target := discordantPair(rel)
	if source == nil {
		return ev
	}

	def := params.Classes.BondTypes[rel.BondType]
	var pNeedle, pSex float64

	if def.allows("injection") && source.DrugType == "Inj" && target.DrugType == "Inj" {
		pNeedle = needleTransmissionProb(params, source, target, rng)
	}
	if def.allows("sex") {
		pSex = sexTransmissionProb(params, source, target, rel, rng)
	}

	pTotal := 1 - (1-pNeedle)*(1-pSex)
	if pTotal <= 0 {
		return ev
	}

	if rng.Float64() < pTotal {
		ev.Infected = target
		ev.Occurred = true
	}
	return ev
}

// discordantPair returns (HIV+ endpoint, HIV- endpoint) if the
// relationship is serodiscordant, or (nil, nil) if both endpoints share
// HIV status — concordant pairs have nothing to transmit (spec §4.5
// invariant: "transmission only evaluated for discordant pairs").
func discordantPair(rel *Relationship) (*Agent, *Agent) {
	switch {
	case rel.Agent1.HIV && !rel.Agent2.HIV:
		return rel.Agent1, rel.Agent2
	case rel.Agent2.HIV && !rel.Agent1.HIV:
		return rel.Agent2, rel.Agent1
	default:
		return nil, nil
	}
}

// needleTransmissionProb computes the probability of transmission via
// shared injection equipment over one step (spec §4.5): a Poisson-drawn act
// count from the same sex_acts table sexual transmission uses (scaled by
// calibration.needle_act_scaling rather than the sex-act scaling factor), a
// needle-sharing probability set to hiv.needle_share_floor (0.02 when unset)
// once the source is enrolled in syringe services, otherwise the
// demographic needle-share rate, each act
// independently retained as "shared" via retainedActs, and the standard
// total-probability-over-n-acts formula.
func needleTransmissionProb(params *Params, source, target *Agent, rng *rand.Rand) float64 {
	demo, ok := params.demographicParams(source.Race, source.SexType)
	if !ok {
		return 0
	}

	meanActs := demo.NumSexActs * params.Calibration.NeedleActScaling
	acts := int(poissonDraw(meanActs, rng))
	if acts <= 0 {
		return 0
	}

	shareProb := demo.NeedleShare
	if source.SyringeExchange {
		shareProb = params.HIV.NeedleShareFloor
		if shareProb <= 0 {
			shareProb = 0.02
		}
	}

	sharedActs := retainedActs(acts, shareProb, rng)
	if sharedActs <= 0 {
		return 0
	}

	perAct := source.TransmissionProbability(params, "NEEDLE", params.HIV.NeedleTransmission)
	return totalProbability(perAct, sharedActs)
}

// sexTransmissionProb computes the probability of sexual transmission over
// one step (spec §4.5): a Poisson-drawn act count scaled by
// calibration.sex_act_scaling, condom-use retention (unsafe acts only, each
// act independently retained via retainedActs), PrEP risk reduction applied
// to the source's base per-act probability when the HIV- endpoint (the one
// who would be protected) is the target, and the total-probability formula.
// The retained unsafe-act count is folded into rel's running
// total_sex_acts, which condom_use_type=="" or any value other than "Race"
// feeds back into the next evaluation via unsafeSexProbByActs.
func sexTransmissionProb(params *Params, source, target *Agent, rel *Relationship, rng *rand.Rand) float64 {
	demo, ok := params.demographicParams(source.Race, source.SexType)
	if !ok {
		return 0
	}

	meanActs := demo.NumSexActs * params.Calibration.Sex.Act * params.Calibration.SexActScaling
	acts := int(poissonDraw(meanActs, rng))
	if acts <= 0 {
		return 0
	}

	pUnsafe := unsafeSexProb(params, demo, rel)
	unsafeActs := retainedActs(acts, pUnsafe, rng)
	if unsafeActs <= 0 {
		return 0
	}
	rel.TotalSexActs += unsafeActs

	basePerAct := params.HIV.sexTransmissionProb(source.SexType, target.SexType)
	perAct := source.TransmissionProbability(params, "SEX", basePerAct)
	perAct *= prepRiskMultiplier(params, target)

	return totalProbability(perAct, unsafeActs)
}

// unsafeSexProb selects the per-act unsafe-sex probability (spec §4.5's
// condom_use_type switch): "Race" reads the fixed demographic unsafe_sex
// rate directly; any other setting (including unset, the default) derives
// it from the relationship's accumulated total_sex_acts instead, so condom
// use responds to how established the partnership already is.
func unsafeSexProb(params *Params, demo *DemographicParams, rel *Relationship) float64 {
	if params.HIV.CondomUseType == "Race" {
		return demo.UnsafeSex
	}
	return unsafeSexProbByActs(rel.TotalSexActs)
}

// unsafeSexProbByActs is a monotonically increasing function of a
// relationship's accumulated total_sex_acts, starting at 0 and approaching
// but never reaching a ceiling of 0.9: newly-formed partnerships start cautious and condom use erodes
// the longer the relationship has been sexually active. No original
// implementation of this curve survives in the source material this was
// distilled from (original_source/titan/probabilities.py is an empty
// stub), so this is a resolved Open Question rather than a ported formula —
// see DESIGN.md.
func unsafeSexProbByActs(totalSexActs int) float64 {
	const rate = 0.02
	const ceiling = 0.9
	return ceiling * (1 - math.Exp(-rate*float64(totalSexActs)))
}

// prepRiskMultiplier scales down per-act transmission risk for a PrEP
// enrolled target (spec supplement: "PrEP risk-reduction factors by type").
// Oral PrEP applies a flat adherent/non-adherent multiplier; injectable
// PrEP applies an exponential decay from the peak-load multiplier based on
// time since the last dose.
func prepRiskMultiplier(params *Params, target *Agent) float64 {
	if !target.PrEPBool {
		return 1.0
	}

	switch target.PrEPType {
	case "Inj":
		decay := target.PrEPLoad
		if decay <= 0 {
			return 1.0
		}
		return 1.0 - decay*params.PrEP.PeakLoad
	default: // "Oral"
		if target.PrEPAdherent {
			return 1.0 - params.PrEP.AdherenceEfficacy
		}
		return 1.0 - params.PrEP.NonAdherenceEfficacy
	}
}
