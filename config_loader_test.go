package hivsim

import (
	"os"
	"path/filepath"
	"testing"
)

func validParamsForValidation() *Params {
	return &Params{
		Model: ModelParams{
			NumPop: 100,
			Seed:   SeedParams{Ppl: 1, Run: 2},
		},
		Classes: ClassParams{
			Races:     []string{"Black"},
			SexTypes:  map[string]SexTypeDef{"MSM": {SleepsWith: []string{"MSM"}}},
			BondTypes: map[string]BondTypeDef{"Sex": {ActsAllowed: []string{"sex"}}},
		},
		Demographics: map[string]map[string]*DemographicParams{
			"Black": {"MSM": {}},
		},
	}
}

func TestValidateParamsAccepts(t *testing.T) {
	if err := validateParams(validParamsForValidation()); err != nil {
		t.Fatalf("expected a well-formed config to validate, got %v", err)
	}
}

func TestValidateParamsRejectsNonPositivePopulation(t *testing.T) {
	p := validParamsForValidation()
	p.Model.NumPop = 0
	if err := validateParams(p); err == nil {
		t.Errorf(ExpectedErrorWhileError, "validating num_pop<=0")
	}
}

func TestValidateParamsRejectsNegativeSeed(t *testing.T) {
	p := validParamsForValidation()
	p.Model.Seed.Ppl = -1
	if err := validateParams(p); err == nil {
		t.Errorf(ExpectedErrorWhileError, "validating a negative seed")
	}
}

func TestValidateParamsRejectsMissingRaces(t *testing.T) {
	p := validParamsForValidation()
	p.Classes.Races = nil
	if err := validateParams(p); err == nil {
		t.Errorf(ExpectedErrorWhileError, "validating empty classes.races")
	}
}

func TestValidateParamsRejectsMissingDemographicForRace(t *testing.T) {
	p := validParamsForValidation()
	p.Classes.Races = append(p.Classes.Races, "White")
	if err := validateParams(p); err == nil {
		t.Errorf(ExpectedErrorWhileError, "validating a race with no demographics entry")
	}
}

func TestLoadParamsRejectsMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(path, []byte("this is not = [valid toml"), 0o644); err != nil {
		t.Fatalf("unexpected error writing fixture: %v", err)
	}

	if _, err := LoadParams(path); err == nil {
		t.Errorf(ExpectedErrorWhileError, "loading malformed TOML")
	}
}

func TestLoadParamsRejectsMissingFile(t *testing.T) {
	if _, err := LoadParams(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf(ExpectedErrorWhileError, "loading a nonexistent file")
	}
}

func TestLoadParamsParsesSampleFixture(t *testing.T) {
	params, err := LoadParams(filepath.Join("testdata", "sample.toml"))
	if err != nil {
		t.Fatalf("unexpected error loading testdata/sample.toml: %v", err)
	}
	if params.Model.NumPop != 500 {
		t.Errorf("expected model.num_pop=500, got %d", params.Model.NumPop)
	}
	if params.Model.AgentZeroNumPartners != 2 {
		t.Errorf("expected model.agent_zero_num_partners=2, got %d", params.Model.AgentZeroNumPartners)
	}
	if params.Calibration.SyringeServices.InitTreatment != 50 {
		t.Errorf("expected calibration.syringe_services.init_treatment=50, got %d", params.Calibration.SyringeServices.InitTreatment)
	}
	if got := params.Locations["default"].MSMW.Prob; got != 0.1 {
		t.Errorf("expected locations.default.msmw.prob=0.1, got %v", got)
	}
	if _, ok := params.Classes.SexTypes["MSM"]; !ok {
		t.Errorf("expected classes.sex_types.MSM to be parsed")
	}
	if _, ok := params.Demographics["Black"]["MSM"]; !ok {
		t.Errorf("expected demographics.Black.MSM to be parsed")
	}
}
