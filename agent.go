package hivsim

// Agent is the smallest entity in the simulation: demographics fixed at
// creation, clinical flags and timers that mutate over the run, and
// per-bond-type partner bookkeeping (spec §3).
//
// Agents never hold a reference back to the Population that owns them
// (design note in spec §9): every cross-agent mutation — bonding,
// unbonding, set membership — is mediated by Population methods.
type Agent struct {
	ID       int
	Race     string
	SexType  string
	DrugType string // "Inj", "NonInj", "None"
	Location *Location

	Age      int
	AgeBin   int
	SexRole  string
	MSMW     bool

	// Clinical flags
	HIV       bool
	HIVEver   bool
	AIDS      bool
	HIVDx     bool
	HAART     bool
	HAARTEver bool
	PrEPBool  bool
	PrEPEver  bool
	Incar     bool
	IncarEver bool
	HighRisk  bool
	HighRiskEver bool

	// Clinical timers/counters
	HIVTime           int
	HAARTTime         int
	HAARTAdherence    int // 1..5, 5 == fully adherent
	IncarTime         int
	IncarTreatmentTime int
	HighRiskTime      int
	TimeAlive         int

	// PrEP sub-state
	PrEPTime       int
	PrEPType       string // "Oral" or "Inj", set on enrollment
	PrEPAdherent   bool
	PrEPResistance bool
	PrEPLastDose   int
	PrEPLoad       float64
	PrEPAwareness  bool
	PrEPOpinion    int
	PrEPFalloutT   int
	prepTrialArm   trialArm // RandomTrial targeting model arm assignment

	// Needle-exchange / syringe-services enrollment
	SyringeExchange bool

	// Incarceration-adjacent testing state
	Tested bool

	// Partnership bookkeeping, keyed by bond type name
	Partners       map[string]map[int]*Agent
	TargetPartners map[string]int
	MeanNumPartners map[string]float64

	relationships []*Relationship
}

// NewAgent creates an agent with the given demographics. Partner maps are
// initialized empty for every bond type so later code never has to nil
// check agent.Partners[bond].
func NewAgent(id int, sexType string, age int, race string, drugType string, location *Location, bondTypes []string) *Agent {
	a := &Agent{
		ID:              id,
		Race:            race,
		SexType:         sexType,
		DrugType:        drugType,
		Location:        location,
		Age:             age,
		Partners:        make(map[string]map[int]*Agent),
		TargetPartners:  make(map[string]int),
		MeanNumPartners: make(map[string]float64),
	}
	for _, bond := range bondTypes {
		a.Partners[bond] = make(map[int]*Agent)
	}
	return a
}

// HasPartners reports whether the agent currently has at least one partner
// of any bond type.
func (a *Agent) HasPartners() bool {
	for _, partners := range a.Partners {
		if len(partners) > 0 {
			return true
		}
	}
	return false
}

// NumPartners returns the total partner count across all bond types.
func (a *Agent) NumPartners() int {
	total := 0
	for _, partners := range a.Partners {
		total += len(partners)
	}
	return total
}

// Relationships returns the agent's active relationships in stable
// insertion order. The returned slice is a copy.
func (a *Agent) Relationships() []*Relationship {
	out := make([]*Relationship, len(a.relationships))
	copy(out, a.relationships)
	return out
}

// bond creates the bidirectional partner-set linkage for rel between its
// two endpoints (spec §4.1, "bond/unbond ... bidirectional, mutates both
// partner sets"). It does not create the Relationship itself or touch
// Population state — see Population.formRelationship for that.
func (a *Agent) bond(partner *Agent, bondType string, rel *Relationship) {
	a.Partners[bondType][partner.ID] = partner
	a.relationships = append(a.relationships, rel)
}

// unbond reverses bond for one endpoint: removes partner from the named
// bond's partner set and drops rel from the agent's relationship list.
func (a *Agent) unbond(partner *Agent, bondType string, rel *Relationship) {
	delete(a.Partners[bondType], partner.ID)
	for i, r := range a.relationships {
		if r == rel {
			a.relationships = append(a.relationships[:i], a.relationships[i+1:]...)
			break
		}
	}
}

// AcuteStatus reports whether the agent is within the acute window (spec
// §4.5, §4.6 glossary entry): hiv_time < acute.duration.
func (a *Agent) AcuteStatus(params *Params) bool {
	return a.HIV && a.HIVTime < params.HIV.Acute.Duration
}

// TransmissionProbability looks up the per-act transmission probability for
// this agent as the HIV+ source of a given act kind ("SEX" or "NEEDLE"),
// applying the acute-window multiplier when applicable (spec §4.1, §4.5).
// The caller supplies the base per-act probability (hiv.needle_transmission
// for injection acts, the hiv.sex_transmission pairing table for sex acts),
// so this function only owns the acute multiplier and the clamp at 1.
func (a *Agent) TransmissionProbability(params *Params, kind string, baseProb float64) float64 {
	p := baseProb
	if a.AcuteStatus(params) {
		p *= params.HIV.Acute.Infectivity
	}
	if p > 1 {
		p = 1
	}
	return p
}

// PrEPEligible reports whether the agent is a valid PrEP initiation
// candidate: HIV-negative and not already enrolled (spec §4.6's invariant
// "PrEP only valid for agents not on prep and are HIV negative").
func (a *Agent) PrEPEligible() bool {
	return !a.HIV && !a.PrEPBool
}
