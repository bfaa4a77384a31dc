package hivsim

import "testing"

func testBondTypes() []string {
	return []string{"Sex", "Inject"}
}

func TestNewAgentEmptyPartnerMaps(t *testing.T) {
	a := NewAgent(1, "MSM", 30, "Black", "None", nil, testBondTypes())
	for _, bond := range testBondTypes() {
		if a.Partners[bond] == nil {
			t.Errorf("expected Partners[%q] to be initialized, got nil", bond)
		}
		if len(a.Partners[bond]) != 0 {
			t.Errorf("expected Partners[%q] to start empty, got %d", bond, len(a.Partners[bond]))
		}
	}
	if a.HasPartners() {
		t.Errorf("expected fresh agent to have no partners")
	}
	if n := a.NumPartners(); n != 0 {
		t.Errorf("expected 0 partners, got %d", n)
	}
}

func TestBondUnbondBidirectional(t *testing.T) {
	a1 := NewAgent(1, "MSM", 30, "Black", "None", nil, testBondTypes())
	a2 := NewAgent(2, "MSM", 32, "Black", "None", nil, testBondTypes())

	rel := NewRelationship(a1, a2, "Sex", 10)

	if !a1.HasPartners() || !a2.HasPartners() {
		t.Fatalf("expected both endpoints to carry the bond")
	}
	if _, ok := a1.Partners["Sex"][a2.ID]; !ok {
		t.Errorf("a1 missing a2 in Sex partner set")
	}
	if _, ok := a2.Partners["Sex"][a1.ID]; !ok {
		t.Errorf("a2 missing a1 in Sex partner set")
	}
	if len(a1.Relationships()) != 1 || len(a2.Relationships()) != 1 {
		t.Fatalf("expected each endpoint to carry exactly one relationship")
	}

	a1.unbond(a2, "Sex", rel)
	a2.unbond(a1, "Sex", rel)

	if a1.HasPartners() || a2.HasPartners() {
		t.Errorf("expected unbond to clear both partner sets")
	}
	if len(a1.Relationships()) != 0 || len(a2.Relationships()) != 0 {
		t.Errorf("expected unbond to drop the relationship from both agents' lists")
	}
}

func TestRelationshipsReturnsCopy(t *testing.T) {
	a1 := NewAgent(1, "MSM", 30, "Black", "None", nil, testBondTypes())
	a2 := NewAgent(2, "MSM", 32, "Black", "None", nil, testBondTypes())
	NewRelationship(a1, a2, "Sex", 10)

	out := a1.Relationships()
	out[0] = nil

	if a1.relationships[0] == nil {
		t.Errorf("mutating the returned slice affected the agent's internal list")
	}
}

func TestAcuteStatus(t *testing.T) {
	params := &Params{HIV: HIVParams{Acute: AcuteParams{Duration: 90, Infectivity: 5.0}}}

	a := NewAgent(1, "MSM", 30, "Black", "None", nil, nil)
	a.HIV = true
	a.HIVTime = 10
	if !a.AcuteStatus(params) {
		t.Errorf("expected hiv_time=10 < duration=90 to be acute")
	}

	a.HIVTime = 90
	if a.AcuteStatus(params) {
		t.Errorf("expected hiv_time==duration to no longer be acute")
	}

	a.HIV = false
	a.HIVTime = 10
	if a.AcuteStatus(params) {
		t.Errorf("expected HIV-negative agent to never report acute")
	}
}

func TestTransmissionProbabilityAcuteMultiplier(t *testing.T) {
	params := &Params{HIV: HIVParams{Acute: AcuteParams{Duration: 90, Infectivity: 3.0}}}

	a := NewAgent(1, "MSM", 30, "Black", "None", nil, nil)
	a.HIV = true
	a.HIVTime = 5

	got := a.TransmissionProbability(params, "SEX", 0.25)
	if got != 0.75 {
		t.Errorf("expected acute multiplier applied: 0.25*3.0=0.75, got %v", got)
	}

	a.HIVTime = 1000
	got = a.TransmissionProbability(params, "SEX", 0.5)
	if got != 0.5 {
		t.Errorf("expected chronic-stage probability unmultiplied, got %v", got)
	}
}

func TestTransmissionProbabilityClampedAtOne(t *testing.T) {
	params := &Params{HIV: HIVParams{Acute: AcuteParams{Duration: 90, Infectivity: 10.0}}}
	a := NewAgent(1, "MSM", 30, "Black", "None", nil, nil)
	a.HIV = true
	a.HIVTime = 0

	got := a.TransmissionProbability(params, "SEX", 0.5)
	if got != 1.0 {
		t.Errorf("expected probability clamped to 1.0, got %v", got)
	}
}

func TestPrEPEligible(t *testing.T) {
	a := NewAgent(1, "MSM", 30, "Black", "None", nil, nil)
	if !a.PrEPEligible() {
		t.Errorf("expected HIV-negative, non-enrolled agent to be PrEP eligible")
	}

	a.PrEPBool = true
	if a.PrEPEligible() {
		t.Errorf("expected already-enrolled agent to be ineligible")
	}

	a.PrEPBool = false
	a.HIV = true
	if a.PrEPEligible() {
		t.Errorf("expected HIV-positive agent to be ineligible")
	}
}
