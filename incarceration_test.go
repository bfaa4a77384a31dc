package hivsim

import (
	"math/rand"
	"testing"
)

func testPopulationForIncar() *Population {
	params := minimalSimParams()
	params.Features.Incar = true
	params.Features.HighRisk = true
	pop, err := NewPopulation(params)
	if err != nil {
		panic(err)
	}
	return pop
}

func TestUpdateIncarcerationCountsDownAndReleases(t *testing.T) {
	pop := testPopulationForIncar()
	agent := pop.AllAgents.Members()[0]
	agent.Incar = true
	agent.IncarTime = 1

	rng := rand.New(rand.NewSource(1))
	pop.updateIncarceration(agent, rng)

	if agent.Incar {
		t.Errorf("expected release once IncarTime reaches 0")
	}
}

func TestUpdateIncarcerationNoOpWhenFeatureDisabled(t *testing.T) {
	pop := testPopulationForIncar()
	pop.Params.Features.Incar = false
	agent := pop.AllAgents.Members()[0]
	agent.Incar = true
	agent.IncarTime = 1

	rng := rand.New(rand.NewSource(1))
	pop.updateIncarceration(agent, rng)

	if agent.IncarTime != 1 {
		t.Errorf("expected no change when the incar feature flag is off, got IncarTime=%d", agent.IncarTime)
	}
}

func TestReleaseFromIncarcerationClearsStateAndCascadesHighRisk(t *testing.T) {
	pop := testPopulationForIncar()
	a1, err := pop.createAgent(pop.Geography.Locations["default"], "Black", 0, "HM")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a2, err := pop.createAgent(pop.Geography.Locations["default"], "Black", 0, "HF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pop.addAgent(a1)
	pop.addAgent(a2)
	pop.formRelationship(a1, a2, "Sex", 10)

	a1.Incar = true
	a1.IncarTime = 5
	a1.HAARTEver = true

	pop.releaseFromIncarceration(a1)

	if a1.Incar {
		t.Errorf("expected Incar cleared on release")
	}
	if a1.IncarTreatmentTime != pop.Params.Calibration.Partnership.BreakPoint {
		t.Errorf("expected re-engagement window set from break_point, got %d", a1.IncarTreatmentTime)
	}
	if !a1.HighRisk {
		t.Errorf("expected the released agent itself to enter high risk")
	}
	if !a2.HighRisk {
		t.Errorf("expected the released agent's sexual partner to be cascaded into high risk")
	}
}

func TestReleaseFromIncarcerationNoTreatmentWindowWithoutPriorHAART(t *testing.T) {
	pop := testPopulationForIncar()
	agent := pop.AllAgents.Members()[0]
	agent.Incar = true
	agent.HAARTEver = false

	pop.releaseFromIncarceration(agent)

	if agent.IncarTreatmentTime != 0 {
		t.Errorf("expected no re-engagement window for an agent never on HAART, got %d", agent.IncarTreatmentTime)
	}
}
