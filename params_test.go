package hivsim

import "testing"

func TestBondAllows(t *testing.T) {
	p := &Params{Classes: ClassParams{BondTypes: map[string]BondTypeDef{
		"Sex":    {ActsAllowed: []string{"sex"}},
		"Inject": {ActsAllowed: []string{"injection"}},
	}}}

	if !p.bondAllows("Sex", "sex") {
		t.Errorf("expected Sex bond to allow sex acts")
	}
	if p.bondAllows("Sex", "injection") {
		t.Errorf("expected Sex bond to not allow injection acts")
	}
	if p.bondAllows("Unknown", "sex") {
		t.Errorf("expected unknown bond type to allow nothing")
	}
}

func TestSleepsWithRequiresBothDirections(t *testing.T) {
	p := &Params{Classes: ClassParams{SexTypes: map[string]SexTypeDef{
		"MSM": {SleepsWith: []string{"MSM"}},
		"HF":  {SleepsWith: []string{"MSM"}},
		"HM":  {SleepsWith: []string{"HF"}},
	}}}

	if !p.sleepsWith("MSM", "MSM") {
		t.Errorf("expected MSM-MSM mutual compatibility")
	}
	// HF declares MSM, but MSM doesn't declare HF back.
	if p.sleepsWith("HF", "MSM") {
		t.Errorf("expected one-directional declaration to fail the mutual check")
	}
	if p.sleepsWith("HM", "HF") {
		t.Errorf("expected HM-HF to fail since HF doesn't declare HM back")
	}
	if p.sleepsWith("Unknown", "MSM") {
		t.Errorf("expected unknown sex type to report false")
	}
}

func TestDemographicParamsLookup(t *testing.T) {
	demo := &DemographicParams{Ppl: 0.5}
	p := &Params{Demographics: map[string]map[string]*DemographicParams{
		"Black": {"MSM": demo},
	}}

	got, ok := p.demographicParams("Black", "MSM")
	if !ok || got != demo {
		t.Fatalf("expected lookup to find the configured demographic")
	}

	if _, ok := p.demographicParams("Black", "HF"); ok {
		t.Errorf("expected missing sex type to report false")
	}
	if _, ok := p.demographicParams("White", "MSM"); ok {
		t.Errorf("expected missing race to report false")
	}
}

func TestSexTransmissionProbFallsBackToOther(t *testing.T) {
	hiv := HIVParams{SexTransmission: map[string]float64{
		"MSM|MSM":  0.01,
		"__other__": 0.004,
	}}

	if got := hiv.sexTransmissionProb("MSM", "MSM"); got != 0.01 {
		t.Errorf("expected exact pairing match, got %v", got)
	}
	if got := hiv.sexTransmissionProb("HM", "HF"); got != 0.004 {
		t.Errorf("expected fallback to __other__, got %v", got)
	}

	hivNoFallback := HIVParams{SexTransmission: map[string]float64{}}
	if got := hivNoFallback.sexTransmissionProb("HM", "HF"); got != 0 {
		t.Errorf("expected 0 when no pairing and no fallback configured, got %v", got)
	}
}
