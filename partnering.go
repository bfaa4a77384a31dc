package hivsim

import (
	"math/rand"
	"sort"
)

// updatePartnerAssignments runs one full partner-seeking pass over every
// bond type (spec §4.3): agents below their buffered target partner count
// for a bond attempt to form a new relationship, retrying against fresh
// candidates up to calibration.partnership.break_point times before giving
// up for this pass — a depleted pool is a normal outcome (spec §7), not an
// error.
func (p *Population) updatePartnerAssignments(currentTime int) {
	for _, bond := range sortedBondNames(p.Params) {
		p.formBondPartnerships(bond, currentTime)
	}
}

// formBondPartnerships iterates the bond's partnerable agents in a fixed,
// id-ordered snapshot (design note in spec §9: iterate a stable copy, then
// mutate) and tries to pair each one that still needs partners.
func (p *Population) formBondPartnerships(bond string, currentTime int) {
	breakPoint := p.Params.Calibration.Partnership.BreakPoint
	if breakPoint <= 0 {
		breakPoint = 10
	}

	candidates := p.orderedPartnerable(bond)
	for _, agent := range candidates {
		buffer := p.Params.Calibration.Partnership.Buffer
		for float64(len(agent.Partners[bond])) < float64(agent.TargetPartners[bond])*buffer {
			partner, ok := p.selectPartner(agent, bond, breakPoint)
			if !ok {
				break
			}
			duration := sampleInt(p.durationFor(bond), p.PopRandom)
			if duration <= 0 {
				duration = 1
			}
			p.formRelationship(agent, partner, bond, duration)
		}
	}
}

// durationFor returns the relationship-duration distribution for a bond
// type, keyed off which act it permits (spec §4.2).
func (p *Population) durationFor(bond string) DistDef {
	def := p.Params.Classes.BondTypes[bond]
	if def.allows("sex") {
		return p.Params.Partnership.Sex.Duration
	}
	return p.Params.Partnership.Injection.Duration
}

// selectPartner finds a compatible partner for agent under the given bond
// type (spec §4.3): act compatibility (injection requires both endpoints
// PWID, sex requires mutual sleeps_with), same-component mixing
// restriction when a graph is active, and assortative weighting by
// declared attribute when features.assort_mix is set. Retries up to
// breakPoint times against freshly-gathered candidate pools before
// reporting a depleted pool (ok=false).
func (p *Population) selectPartner(agent *Agent, bond string, breakPoint int) (*Agent, bool) {
	for attempt := 0; attempt < breakPoint; attempt++ {
		candidates := p.candidatePartners(agent, bond)
		if len(candidates) == 0 {
			continue
		}

		if p.Params.Features.AssortMix {
			if chosen, ok := p.assortativeChoice(agent, candidates); ok {
				return chosen, true
			}
			continue
		}

		if chosen, ok := uniformChoice(candidates, p.PopRandom); ok {
			return chosen, true
		}
	}
	return nil, false
}

// candidatePartners returns, in id order, every partnerable agent eligible
// to bond with agent under bond: distinct from agent, not already bonded
// under this bond type, act-compatible, and (when a graph exists) subject
// to the same-component mixing restriction (spec §4.3 steps 3-5).
func (p *Population) candidatePartners(agent *Agent, bond string) []*Agent {
	def := p.Params.Classes.BondTypes[bond]
	pool := p.orderedPartnerable(bond)

	restrictSameComponent := p.graphEnabled && p.PopRandom.Float64() < p.Params.Partnership.Network.SameComponent.Prob
	var agentComponent map[int]struct{}
	if restrictSameComponent {
		agentComponent = p.componentOf(agent.ID)
	}

	out := make([]*Agent, 0, len(pool))
	for _, other := range pool {
		if other.ID == agent.ID {
			continue
		}
		if _, already := agent.Partners[bond][other.ID]; already {
			continue
		}
		if def.allows("injection") && (agent.DrugType != "Inj" || other.DrugType != "Inj") {
			continue
		}
		if def.allows("sex") && !p.Params.sleepsWith(agent.SexType, other.SexType) {
			continue
		}
		if restrictSameComponent && agentComponent != nil {
			if _, inSame := agentComponent[other.ID]; !inSame {
				continue
			}
		}
		out = append(out, other)
	}
	return out
}

// assortativeChoice applies assort_mix weighting on top of the
// plain candidate pool (spec §4.3 step 6): candidates are grouped by the
// configured partner attribute value, weighted per assort_mix, and a group
// is chosen before a uniform pick within it. Unlisted attribute values fall
// back to the "__other__" catch-all weight when present.
func (p *Population) assortativeChoice(agent *Agent, candidates []*Agent) (*Agent, bool) {
	def, ok := p.assortDefFor(agent)
	if !ok {
		return uniformChoice(candidates, p.PopRandom)
	}

	groups := make(map[string][]*Agent)
	for _, c := range candidates {
		key := assortValue(c, def.Attribute)
		groups[key] = append(groups[key], c)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, 0, len(keys))
	weights := make([]float64, 0, len(keys))
	for _, k := range keys {
		w, ok := def.PartnerValues[k]
		if !ok {
			w, ok = def.PartnerValues["__other__"]
			if !ok {
				continue
			}
		}
		values = append(values, k)
		weights = append(weights, w)
	}

	chosenKey, ok := weightedChoice(values, weights, p.PopRandom)
	if !ok {
		return uniformChoice(candidates, p.PopRandom)
	}
	return uniformChoice(groups[chosenKey], p.PopRandom)
}

// assortDefFor looks up the assort_mix entry keyed by the agent's own
// attribute value, if assort_mix declares one for this agent.
func (p *Population) assortDefFor(agent *Agent) (AssortDef, bool) {
	for _, def := range p.Params.AssortMix {
		if assortValue(agent, def.Attribute) == def.AgentValue {
			return def, true
		}
	}
	return AssortDef{}, false
}

// assortValue reads the named attribute off an agent for assortative
// mixing purposes. Only the attributes assort_mix is documented to
// support are handled; anything else reports "__other__".
func assortValue(a *Agent, attribute string) string {
	switch attribute {
	case "race":
		return a.Race
	case "sex_type":
		return a.SexType
	case "drug_type":
		return a.DrugType
	default:
		return "__other__"
	}
}

// orderedPartnerable returns a stable, id-ascending snapshot of the
// partnerable set for a bond type. Sorting by id rather than relying on map
// order keeps partner-seeking reproducible across process runs under the
// same seed (spec §5), since Go's map iteration order is intentionally
// randomized per process.
func (p *Population) orderedPartnerable(bond string) []*Agent {
	members := p.partnerable[bond]
	out := make([]*Agent, 0, len(members))
	for _, a := range members {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// orderedRelationships returns every active relationship in a stable order
// (by the lower endpoint id, then higher, then bond type), for the same
// reproducibility reason as orderedPartnerable.
func (p *Population) orderedRelationships() []*Relationship {
	out := make([]*Relationship, 0, len(p.Relationships))
	for r := range p.Relationships {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		lo1, hi1 := orderedIDs(a.Agent1.ID, a.Agent2.ID)
		lo2, hi2 := orderedIDs(b.Agent1.ID, b.Agent2.ID)
		if lo1 != lo2 {
			return lo1 < lo2
		}
		if hi1 != hi2 {
			return hi1 < hi2
		}
		return a.BondType < b.BondType
	})
	return out
}

func orderedIDs(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}

// componentOf returns the connected component containing id, or nil if id
// isn't tracked by the graph.
func (p *Population) componentOf(id int) map[int]struct{} {
	for _, component := range p.graph.ConnectedComponents() {
		if _, ok := component[id]; ok {
			return component
		}
	}
	return nil
}

// trimGraph enforces network.component_size.max (spec §4.3's network
// maintenance step): every relationship whose two endpoints both lie in a
// connected component larger than the configured maximum is considered
// once and force-terminated with probability
// calibration.network.trim.prob. Component sizes are measured once before
// the pass and are not re-checked, so a component can still exceed the
// limit afterwards. Iterates relationships in a fixed order so the outcome is
// reproducible under a given seed regardless of Go's randomized map
// iteration (spec §5).
func (p *Population) trimGraph(rng *rand.Rand) {
	if !p.graphEnabled {
		return
	}
	maxSize := p.Params.Model.Network.ComponentSize.Max
	if maxSize <= 0 {
		return
	}
	trimProb := p.Params.Calibration.Network.Trim.Prob

	oversized := make(map[int]struct{})
	for _, component := range p.graph.ConnectedComponents() {
		if len(component) > maxSize {
			for id := range component {
				oversized[id] = struct{}{}
			}
		}
	}
	if len(oversized) == 0 {
		return
	}

	for _, rel := range p.orderedRelationships() {
		_, a1 := oversized[rel.Agent1.ID]
		_, a2 := oversized[rel.Agent2.ID]
		if !a1 || !a2 {
			continue
		}
		if !rel.Active() {
			continue
		}
		if rng.Float64() < trimProb {
			rel.Progress(true)
			p.terminateRelationship(rel)
		}
	}
}

// updatePartnerTargets redraws target partner counts for agent across every
// bond type (spec §4.9: high-risk entry/expiry rescales target partners),
// applying the supplied multiplier to the agent's precomputed mean.
func (p *Population) updatePartnerTargets(agent *Agent, multiplier float64) {
	for bond, mean := range agent.MeanNumPartners {
		agent.TargetPartners[bond] = int(mean * multiplier)
	}
	p.updatePartnerability(agent)
}
