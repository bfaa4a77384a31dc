package hivsim

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

// Population owns every agent, every relationship, the undirected
// partnership graph (if enabled), and the two population-phase random
// streams (spec §2, §3, §5). Population mediates every cross-agent
// mutation; agents never reach back into it.
type Population struct {
	Params *Params

	PopRandom *rand.Rand // params.model.seed.ppl — all population-construction and partner-selection decisions
	NPRandom  *rand.Rand // derived from the same seed, reserved for distribution draws (spec §5)

	Geography *Geography

	AllAgents      *AgentSet
	HIVAgents      *AgentSet
	PWIDAgents     *AgentSet
	HighRiskAgents *AgentSet

	Relationships map[*Relationship]struct{}

	graph          *partnerGraph
	graphEnabled   bool
	sexPartners    map[string]map[int]*Agent // sex type -> agents willing to sleep with it
	partnerable    map[string]map[int]*Agent // bond type -> agents below target*buffer

	DxCounts    map[string]map[string]int
	HAARTCounts map[string]map[string]int

	needleExchangeEnabled bool

	// StepStats holds the current step's new_infections/new_dx/... sets.
	// Model.Step resets it before each step's pipeline runs.
	StepStats StepStats

	meanRelDuration map[string]int

	nextAgentID int
}

// NewPopulation builds an initial population per spec §3's Lifecycle
// section and §4.3's t=0 partnership assignment, mirroring
// original_source/titan/population.py's Population.__init__.
func NewPopulation(params *Params) (*Population, error) {
	if params.Model.NumPop <= 0 {
		return nil, newConfigError("model.num_pop", errNonPositivePop)
	}
	popSeed := checkedSeed(params.Model.Seed.Ppl)

	p := &Population{
		Params:      params,
		PopRandom:   rand.New(rand.NewSource(popSeed)),
		NPRandom:    rand.New(rand.NewSource(popSeed ^ 0x5bd1e995)),
		Geography:   NewGeography(params),
		sexPartners: make(map[string]map[int]*Agent),
		partnerable: make(map[string]map[int]*Agent),
	}

	p.AllAgents = NewAgentSet("AllAgents")
	p.HIVAgents = p.AllAgents.AddSubset("HIV")
	p.PWIDAgents = p.AllAgents.AddSubset("PWID")
	p.HighRiskAgents = p.AllAgents.AddSubset("HighRisk")

	p.Relationships = make(map[*Relationship]struct{})

	for bond := range params.Classes.BondTypes {
		p.partnerable[bond] = make(map[int]*Agent)
	}
	for so := range params.Classes.SexTypes {
		p.sexPartners[so] = make(map[int]*Agent)
	}

	agentCounts := func() map[string]map[string]int {
		m := make(map[string]map[string]int)
		for _, race := range params.Classes.Races {
			m[race] = make(map[string]int)
			for so := range params.Classes.SexTypes {
				m[race][so] = 0
			}
		}
		return m
	}
	p.DxCounts = agentCounts()
	p.HAARTCounts = agentCounts()

	p.meanRelDuration = meanRelDuration(params)

	if params.Model.Network.Enable {
		p.graphEnabled = true
		p.graph = newPartnerGraph()
	}

	locationNames := make([]string, 0, len(p.Geography.Locations))
	for name := range p.Geography.Locations {
		locationNames = append(locationNames, name)
	}
	sort.Strings(locationNames)

	initTime := -params.Model.Time.BurnSteps
	for _, locName := range locationNames {
		location := p.Geography.Locations[locName]
		for _, race := range params.Classes.Races {
			n := int(math.Round(float64(params.Model.NumPop) * location.Ppl * raceShare(params, location, race)))
			for i := 0; i < n; i++ {
				agent, err := p.createAgent(location, race, initTime, "")
				if err != nil {
					return nil, err
				}
				p.addAgent(agent)
			}
		}
	}

	if params.Features.Incar {
		p.initializeIncarceration()
	}

	p.updatePartnerAssignments(0)

	if p.graphEnabled {
		p.trimGraph(p.PopRandom)
	}

	return p, nil
}

// raceShare sums the population share across sex types for a race, i.e.
// demographics[race][*].ppl, matching population.py's
// location.params.demographics[race].ppl usage (there, ppl is a single
// per-race scalar; here demographics are keyed by (race, sex_type), so the
// per-race share is the sum across sex types).
func raceShare(params *Params, location *Location, race string) float64 {
	bySex, ok := params.Demographics[race]
	if !ok {
		return 0
	}
	var total float64
	for _, d := range bySex {
		total += d.Ppl
	}
	return total
}

// sortedBondNames returns every declared bond type name in a fixed,
// deterministic order. Map iteration order in Go is randomized per process,
// and several call sites here consume a random-stream draw once per bond
// type, so iterating classes.bond_types directly would break the
// same-seed-same-outcome contract (spec §5) across separate runs.
func sortedBondNames(params *Params) []string {
	names := make([]string, 0, len(params.Classes.BondTypes))
	for bond := range params.Classes.BondTypes {
		names = append(names, bond)
	}
	sort.Strings(names)
	return names
}

// checkedSeed mirrors original_source/titan/utils.py's get_check_rand_int:
// a zero seed means "pick a fresh one" from wall-clock entropy, anything
// else passes through unchanged. cmd/hivsim's -seed flag treats 0 as "no
// override", so a configured 0 still reaches this rule.
func checkedSeed(seed int64) int64 {
	if seed == 0 {
		return time.Now().UnixNano()
	}
	return seed
}

// meanRelDuration precomputes, per bond type, the expected relationship
// duration implied by its distribution — used to scale a freshly-sampled
// mean partner count so that agents with short relationships churn through
// more partners for the same target "coverage" (spec §4.3).
func meanRelDuration(params *Params) map[string]int {
	out := make(map[string]int)
	for bond, def := range params.Classes.BondTypes {
		var dd DistDef
		if def.allows("sex") {
			dd = params.Partnership.Sex.Duration
		} else if def.allows("injection") {
			dd = params.Partnership.Injection.Duration
		}
		out[bond] = expectedDuration(dd)
	}
	return out
}

// expectedDuration returns E[duration] for a DistDef, used only to seed
// meanRelDuration — a coarse estimate (bin midpoints, or the parametric
// mean for the distribution families we support) is sufficient since it
// only scales the initial mean partner count.
func expectedDuration(d DistDef) int {
	if d.Type == "bins" && len(d.Bins) > 0 {
		var sum, weight float64
		for _, b := range d.Bins {
			mid := float64(b.Min+b.Max) / 2
			sum += mid * b.Prob
			weight += b.Prob
		}
		if weight == 0 {
			return 1
		}
		return int(sum / weight)
	}
	if d.Var1 > 0 {
		return int(d.Var1)
	}
	return 1
}

// createAgent builds a new agent with demographics drawn from location's
// precomputed weight tables (spec §4.1's "creation with (sex_type, age,
// race, drug_type, location)"), optionally forcing sexType (used by
// die-and-replace, which preserves race and sex type of the dead agent).
func (p *Population) createAgent(location *Location, race string, time int, forceSexType string) (*Agent, error) {
	sexType := forceSexType
	if sexType == "" {
		chosen, ok := weightedChoice(location.pop.values, location.pop.weights, p.PopRandom)
		if !ok {
			return nil, newConfigError("demographics."+race, errMissingDemographic)
		}
		sexType = chosen
	}

	drugTable, ok := location.drug[race+"|"+sexType]
	if !ok {
		return nil, newConfigError("demographics."+race+"."+sexType, errUnknownDrugType)
	}
	drugType, ok := weightedChoice(drugTable.values, drugTable.weights, p.PopRandom)
	if !ok {
		return nil, newConfigError("demographics."+race+"."+sexType, errUnknownDrugType)
	}

	age, ageBin := p.sampleAge(location, race)

	bondNames := sortedBondNames(p.Params)

	p.nextAgentID++
	agent := NewAgent(p.nextAgentID, sexType, age, race, drugType, location, bondNames)
	agent.AgeBin = ageBin

	roleTable := location.role[race+"|"+sexType]
	if role, ok := weightedChoice(roleTable.values, roleTable.weights, p.PopRandom); ok {
		agent.SexRole = role
	}

	if p.Params.Features.MSMW && sexType == "HM" {
		msmwProb := 0.0
		if override, ok := p.Params.Locations[location.Name]; ok {
			msmwProb = override.MSMW.Prob
		}
		if p.PopRandom.Float64() < msmwProb {
			agent.MSMW = true
		}
	}

	demo, ok := p.Params.demographicParams(race, sexType)
	if !ok {
		return nil, newConfigError("demographics."+race+"."+sexType, errMissingDemographic)
	}

	if p.PopRandom.Float64() < demo.HIV.Init && time >= p.Params.HIV.StartTime {
		agent.HIV = true
		agent.HIVEver = true

		if p.PopRandom.Float64() < demo.AIDS.Init {
			agent.AIDS = true
		}
		if p.PopRandom.Float64() < demo.HIV.Dx.Init {
			agent.HIVDx = true
			agent.Tested = true
			p.DxCounts[race][sexType]++

			if p.PopRandom.Float64() < demo.HAART.Init {
				agent.HAART = true
				agent.HAARTEver = true
				p.HAARTCounts[race][sexType]++
				agent.HAARTAdherence = p.sampleHAARTAdherence(demo)
			}
		}

		maxInit := demo.HIV.MaxInitTime
		if maxInit < 1 {
			maxInit = 1
		}
		agent.HIVTime = 1 + p.PopRandom.Intn(maxInit)
	}

	if p.Params.Features.HighRisk && p.PopRandom.Float64() < demo.HighRisk.Init {
		agent.HighRisk = true
		agent.HighRiskEver = true
		agent.HighRiskTime = defaultHighRiskDuration
	}

	for _, bond := range sortedBondNames(p.Params) {
		def := p.Params.Classes.BondTypes[bond]
		dist := demo.NumPartners[bond]
		mean := sampleParametric(dist, p.NPRandom) * safeDivide(p.Params.Calibration.Sex.Partner, float64(p.meanRelDuration[bond]))
		agent.MeanNumPartners[bond] = math.Ceil(mean)
		agent.TargetPartners[bond] = int(agent.MeanNumPartners[bond])
		if def.allows("injection") && agent.DrugType != "Inj" && agent.TargetPartners[bond] != 0 {
			agent.TargetPartners[bond] = 0
		}
		if agent.TargetPartners[bond] > 0 {
			p.partnerable[bond][agent.ID] = agent
		}
	}

	if p.Params.Features.PCA {
		if p.PopRandom.Float64() < p.Params.PrEP.PCA.Awareness.Init {
			agent.PrEPAwareness = true
		}
		attProb := p.PopRandom.Float64()
		var cum float64
		for bin := 1; bin <= len(p.Params.PrEP.PCA.Attitude); bin++ {
			fields, ok := p.Params.PrEP.PCA.Attitude[bin]
			if !ok {
				continue
			}
			cum += fields.Prob
			if attProb < cum {
				agent.PrEPOpinion = bin
				break
			}
		}
	}

	return agent, nil
}

func (p *Population) sampleHAARTAdherence(demo *DemographicParams) int {
	if p.PopRandom.Float64() < demo.HAART.Adherence {
		return 5
	}
	return 1 + p.PopRandom.Intn(4)
}

// sampleAge draws an age within a demographic age-bin table (spec §4.1,
// population.py's get_age).
func (p *Population) sampleAge(location *Location, race string) (int, int) {
	demo := location.Params.Demographics[race]
	sexTypeNames := make([]string, 0, len(demo))
	for so := range demo {
		sexTypeNames = append(sexTypeNames, so)
	}
	sort.Strings(sexTypeNames)

	var bins map[int]AgeBinParams
	for _, so := range sexTypeNames {
		bins = demo[so].Age
		break
	}
	if len(bins) == 0 {
		return 18, 1
	}
	roll := p.PopRandom.Float64()
	chosenBin := 1
	minAge, maxAge := 18, 65
	for i := 1; i <= len(bins); i++ {
		b, ok := bins[i]
		if !ok {
			continue
		}
		chosenBin = i
		minAge, maxAge = b.Min, b.Max
		if roll < b.Prob {
			break
		}
	}
	if maxAge <= minAge {
		return minAge, chosenBin
	}
	return minAge + p.PopRandom.Intn(maxAge-minAge), chosenBin
}

// initializeIncarceration seeds incarceration state at t=0 using the
// distinct init duration table (spec §4.7's note that "the duration of
// incarceration at initialization is different than the ongoing" table).
func (p *Population) initializeIncarceration() {
	for _, agent := range p.AllAgents.Members() {
		demo, ok := p.Params.demographicParams(agent.Race, agent.SexType)
		if !ok {
			continue
		}
		if p.PopRandom.Float64() < demo.Incar.Init {
			agent.Incar = true
			agent.IncarEver = true
			bin := cumulativeBin(demo.Incar.Duration.Init, p.PopRandom)
			b := demo.Incar.Duration.Init[bin]
			if b.Max > b.Min {
				agent.IncarTime = b.Min + p.PopRandom.Intn(b.Max-b.Min)
			} else {
				agent.IncarTime = b.Min
			}
		}
	}
}

// addAgent registers agent with every derived set it currently belongs to
// (spec §3 Lifecycle) — all_agents always, hiv_agents/pwid_agents
// conditionally, sex_partners by declared sleeps_with adjacency, and the
// graph node if enabled.
func (p *Population) addAgent(agent *Agent) {
	p.AllAgents.Add(agent)

	if agent.HIV {
		p.HIVAgents.Add(agent)
	}
	if agent.DrugType == "Inj" {
		p.PWIDAgents.Add(agent)
	}
	if agent.HighRisk {
		p.HighRiskAgents.Add(agent)
	}

	if def, ok := p.Params.Classes.SexTypes[agent.SexType]; ok {
		for _, so := range def.SleepsWith {
			if p.sexPartners[so] == nil {
				p.sexPartners[so] = make(map[int]*Agent)
			}
			p.sexPartners[so][agent.ID] = agent
		}
	}

	if p.graphEnabled {
		p.graph.AddNode(agent.ID)
	}
}

// removeAgent deregisters agent from every set and the graph (spec §4.8:
// "remove from graph, all AgentSets, and partnerable sets").
func (p *Population) removeAgent(agent *Agent) {
	p.AllAgents.Remove(agent)

	for _, members := range p.sexPartners {
		delete(members, agent.ID)
	}
	for _, members := range p.partnerable {
		delete(members, agent.ID)
	}

	if agent.HIVDx {
		p.DxCounts[agent.Race][agent.SexType]--
		if agent.HAART {
			p.HAARTCounts[agent.Race][agent.SexType]--
		}
	}

	if p.graphEnabled {
		p.graph.RemoveNode(agent.ID)
	}
}

// formRelationship creates a new Relationship between agent and partner,
// registers it with the population's bookkeeping and graph, and updates
// partner's partnerable status if it just crossed its buffer threshold
// (spec §4.3's update_agent_partners).
func (p *Population) formRelationship(agent, partner *Agent, bondType string, duration int) *Relationship {
	rel := NewRelationship(agent, partner, bondType, duration)
	p.Relationships[rel] = struct{}{}

	if p.graphEnabled {
		p.graph.AddEdge(agent.ID, partner.ID)
	}

	p.updatePartnerability(partner)
	p.updatePartnerability(agent)
	return rel
}

// terminateRelationship removes rel from the population's bookkeeping and
// graph, and re-evaluates both endpoints' partnerable status (spec §4.2:
// "removed from the population's relationship set and graph").
func (p *Population) terminateRelationship(rel *Relationship) {
	delete(p.Relationships, rel)
	if p.graphEnabled {
		p.graph.RemoveEdge(rel.Agent1.ID, rel.Agent2.ID)
	}
	p.updatePartnerability(rel.Agent1)
	p.updatePartnerability(rel.Agent2)
}

// updatePartnerability re-evaluates whether agent belongs in the
// partnerable set for each bond type, per spec §4.3's buffer rule.
func (p *Population) updatePartnerability(agent *Agent) {
	buffer := p.Params.Calibration.Partnership.Buffer
	for bond := range p.Params.Classes.BondTypes {
		_, inSet := p.partnerable[bond][agent.ID]
		underTarget := float64(len(agent.Partners[bond])) < float64(agent.TargetPartners[bond])*buffer
		switch {
		case inSet && !underTarget:
			delete(p.partnerable[bond], agent.ID)
		case !inSet && underTarget:
			p.partnerable[bond][agent.ID] = agent
		}
	}
}
