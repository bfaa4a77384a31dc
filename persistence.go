package hivsim

import (
	"encoding/json"
	"os"
)

// snapshot is the JSON-serializable projection of a Model's state used to
// pause and resume a run (spec §6). Pointer-heavy fields (Agent.Location,
// Relationship endpoints, AgentSet membership) are flattened to ids on
// save and re-linked on load, since encoding/json can't round-trip the
// pointer graph directly.
type snapshot struct {
	Time       int                `json:"time"`
	NextAgentID int               `json:"next_agent_id"`
	Agents     []agentSnapshot    `json:"agents"`
	Relations  []relationSnapshot `json:"relations"`
}

type agentSnapshot struct {
	ID              int                `json:"id"`
	Race            string             `json:"race"`
	SexType         string             `json:"sex_type"`
	DrugType        string             `json:"drug_type"`
	Location        string             `json:"location"`
	Age             int                `json:"age"`
	AgeBin          int                `json:"age_bin"`
	SexRole         string             `json:"sex_role"`
	MSMW            bool               `json:"msmw"`
	HIV             bool               `json:"hiv"`
	HIVEver         bool               `json:"hiv_ever"`
	AIDS            bool               `json:"aids"`
	HIVDx           bool               `json:"hiv_dx"`
	HAART           bool               `json:"haart"`
	HAARTEver       bool               `json:"haart_ever"`
	PrEPBool        bool               `json:"prep_bool"`
	PrEPEver        bool               `json:"prep_ever"`
	Incar           bool               `json:"incar"`
	IncarEver       bool               `json:"incar_ever"`
	HighRisk        bool               `json:"high_risk"`
	HighRiskEver    bool               `json:"high_risk_ever"`
	HIVTime         int                `json:"hiv_time"`
	HAARTTime       int                `json:"haart_time"`
	HAARTAdherence  int                `json:"haart_adherence"`
	IncarTime       int                `json:"incar_time"`
	IncarTreatmentTime int             `json:"incar_treatment_time"`
	HighRiskTime    int                `json:"high_risk_time"`
	TimeAlive       int                `json:"time_alive"`
	PrEPTime        int                `json:"prep_time"`
	PrEPType        string             `json:"prep_type"`
	PrEPAdherent    bool               `json:"prep_adherent"`
	PrEPResistance  bool               `json:"prep_resistance"`
	PrEPLastDose    int                `json:"prep_last_dose"`
	PrEPLoad        float64            `json:"prep_load"`
	SyringeExchange bool               `json:"syringe_exchange"`
	Tested          bool               `json:"tested"`
	TargetPartners  map[string]int     `json:"target_partners"`
	MeanNumPartners map[string]float64 `json:"mean_num_partners"`
}

type relationSnapshot struct {
	Agent1ID     int    `json:"agent1_id"`
	Agent2ID     int    `json:"agent2_id"`
	BondType     string `json:"bond_type"`
	Duration     int    `json:"duration"`
	TotalSexActs int    `json:"total_sex_acts"`
}

// Save writes the model's current state to path as JSON (spec §6). The
// two named random streams are not part of the snapshot: only their seeds
// are (via Params, already on disk as the loaded config), so a resumed run
// continues the simulation's agent/relationship state exactly but starts
// the random streams fresh from their configured seeds rather than from
// the exact draw position at save time. This is flagged as a resume
// limitation, not silently glossed over: a resumed run is reproducible
// given its own seed, but is not byte-identical to the uninterrupted run
// it was split from.
func (m *Model) Save(path string) error {
	snap := snapshot{Time: m.currentTime, NextAgentID: m.Population.nextAgentID}

	for _, agent := range m.Population.AllAgents.Members() {
		snap.Agents = append(snap.Agents, agentSnapshot{
			ID: agent.ID, Race: agent.Race, SexType: agent.SexType,
			DrugType: agent.DrugType, Location: agent.Location.Name,
			Age: agent.Age, AgeBin: agent.AgeBin, SexRole: agent.SexRole, MSMW: agent.MSMW,
			HIV: agent.HIV, HIVEver: agent.HIVEver, AIDS: agent.AIDS, HIVDx: agent.HIVDx,
			HAART: agent.HAART, HAARTEver: agent.HAARTEver, PrEPBool: agent.PrEPBool,
			PrEPEver: agent.PrEPEver, Incar: agent.Incar, IncarEver: agent.IncarEver,
			HighRisk: agent.HighRisk, HighRiskEver: agent.HighRiskEver,
			HIVTime: agent.HIVTime, HAARTTime: agent.HAARTTime, HAARTAdherence: agent.HAARTAdherence,
			IncarTime: agent.IncarTime, IncarTreatmentTime: agent.IncarTreatmentTime,
			HighRiskTime: agent.HighRiskTime, TimeAlive: agent.TimeAlive,
			PrEPTime: agent.PrEPTime, PrEPType: agent.PrEPType, PrEPAdherent: agent.PrEPAdherent,
			PrEPResistance: agent.PrEPResistance, PrEPLastDose: agent.PrEPLastDose, PrEPLoad: agent.PrEPLoad,
			SyringeExchange: agent.SyringeExchange, Tested: agent.Tested,
			TargetPartners: agent.TargetPartners, MeanNumPartners: agent.MeanNumPartners,
		})
	}

	for _, rel := range m.Population.orderedRelationships() {
		snap.Relations = append(snap.Relations, relationSnapshot{
			Agent1ID: rel.Agent1.ID, Agent2ID: rel.Agent2.ID,
			BondType: rel.BondType, Duration: rel.Duration, TotalSexActs: rel.TotalSexActs,
		})
	}

	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// LoadSnapshot restores a Model from a JSON snapshot plus the params it
// was configured with — params must match the ones the snapshot was saved
// under (same classes, same demographics) since agent state references
// them by name, not by value.
func LoadSnapshot(path string, params *Params) (*Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}

	m, err := NewModel(params, nil)
	if err != nil {
		return nil, err
	}
	pop := m.Population

	pop.AllAgents = NewAgentSet("AllAgents")
	pop.HIVAgents = pop.AllAgents.AddSubset("HIV")
	pop.PWIDAgents = pop.AllAgents.AddSubset("PWID")
	pop.HighRiskAgents = pop.AllAgents.AddSubset("HighRisk")
	pop.Relationships = make(map[*Relationship]struct{})
	if pop.graphEnabled {
		pop.graph = newPartnerGraph()
	}
	pop.nextAgentID = snap.NextAgentID

	bondNames := sortedBondNames(params)
	byID := make(map[int]*Agent, len(snap.Agents))
	for _, as := range snap.Agents {
		loc, ok := pop.Geography.Locations[as.Location]
		if !ok {
			return nil, newInvariantError("LoadSnapshot", "unknown location "+as.Location)
		}
		agent := NewAgent(as.ID, as.SexType, as.Age, as.Race, as.DrugType, loc, bondNames)
		agent.AgeBin = as.AgeBin
		agent.SexRole = as.SexRole
		agent.MSMW = as.MSMW
		agent.HIV, agent.HIVEver, agent.AIDS, agent.HIVDx = as.HIV, as.HIVEver, as.AIDS, as.HIVDx
		agent.HAART, agent.HAARTEver = as.HAART, as.HAARTEver
		agent.PrEPBool, agent.PrEPEver = as.PrEPBool, as.PrEPEver
		agent.Incar, agent.IncarEver = as.Incar, as.IncarEver
		agent.HighRisk, agent.HighRiskEver = as.HighRisk, as.HighRiskEver
		agent.HIVTime, agent.HAARTTime, agent.HAARTAdherence = as.HIVTime, as.HAARTTime, as.HAARTAdherence
		agent.IncarTime, agent.IncarTreatmentTime = as.IncarTime, as.IncarTreatmentTime
		agent.HighRiskTime, agent.TimeAlive = as.HighRiskTime, as.TimeAlive
		agent.PrEPTime, agent.PrEPType = as.PrEPTime, as.PrEPType
		agent.PrEPAdherent, agent.PrEPResistance = as.PrEPAdherent, as.PrEPResistance
		agent.PrEPLastDose, agent.PrEPLoad = as.PrEPLastDose, as.PrEPLoad
		agent.SyringeExchange, agent.Tested = as.SyringeExchange, as.Tested
		agent.TargetPartners = as.TargetPartners
		agent.MeanNumPartners = as.MeanNumPartners

		pop.addAgent(agent)
		byID[agent.ID] = agent
	}

	for _, rs := range snap.Relations {
		a1, ok1 := byID[rs.Agent1ID]
		a2, ok2 := byID[rs.Agent2ID]
		if !ok1 || !ok2 {
			continue
		}
		rel := pop.formRelationship(a1, a2, rs.BondType, rs.Duration)
		rel.TotalSexActs = rs.TotalSexActs
	}

	m.currentTime = snap.Time
	return m, nil
}
