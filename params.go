package hivsim

// Params is the immutable, deeply nested configuration tree every other
// component looks values up in (spec §2, §6). It is built once by
// LoadParams; the simulation itself does not mutate it (cmd/hivsim may
// override model.seed.run before building a Model). Population and Model
// hold a reference to the same tree.
type Params struct {
	Model       ModelParams                  `toml:"model"`
	Classes     ClassParams                   `toml:"classes"`
	Features    FeatureFlags                  `toml:"features"`
	Demographics map[string]map[string]*DemographicParams `toml:"demographics"`
	Partnership PartnershipParams             `toml:"partnership"`
	Calibration CalibrationParams             `toml:"calibration"`
	HIV         HIVParams                     `toml:"hiv"`
	PrEP        PrEPParams                    `toml:"prep"`
	AssortMix   map[string]AssortDef          `toml:"assort_mix"`
	Locations   map[string]*LocationParams    `toml:"locations"`
}

// ModelParams holds model.* — population size, run length, network
// behavior and the two named random seeds (spec §5).
type ModelParams struct {
	NumPop  int              `toml:"num_pop"`
	Time    TimeParams       `toml:"time"`
	Network NetworkParams    `toml:"network"`
	Seed    SeedParams       `toml:"seed"`

	// AgentZeroNumPartners is the fixed number of new partners forced
	// onto the seeded agent-zero PWID before the main loop starts
	// (spec §4.4 step 2), read only when features.agent_zero is set.
	AgentZeroNumPartners int `toml:"agent_zero_num_partners"`
}

type TimeParams struct {
	NumSteps    int `toml:"num_steps"`
	BurnSteps   int `toml:"burn_steps"`
	StepsPerYear int `toml:"steps_per_year"`
}

type NetworkParams struct {
	Enable          bool                `toml:"enable"`
	Type            string              `toml:"type"`
	ComponentSize   ComponentSizeParams `toml:"component_size"`
}

type ComponentSizeParams struct {
	Max int `toml:"max"`
}

type SeedParams struct {
	Ppl int64 `toml:"ppl"`
	Run int64 `toml:"run"`
}

// ClassParams holds classes.* — the enumerations every other section keys
// into by name.
type ClassParams struct {
	Races      []string                 `toml:"races"`
	SexTypes   map[string]SexTypeDef    `toml:"sex_types"`
	BondTypes  map[string]BondTypeDef   `toml:"bond_types"`
	Populations []string                `toml:"populations"`
}

// SexTypeDef declares, via SleepsWith, which sex types this one can form a
// sex-bonded relationship with. Spec §4.3 requires the relation to be
// checked in both directions.
type SexTypeDef struct {
	SleepsWith []string `toml:"sleeps_with"`
}

// BondTypeDef declares the acts a bond type permits. A bond requiring
// "injection" is restricted to PWID-PWID pairs; one requiring "sex" is
// restricted to mutually compatible sex types (spec §4.3).
type BondTypeDef struct {
	ActsAllowed []string `toml:"acts_allowed"`
}

func (b BondTypeDef) allows(act string) bool {
	for _, a := range b.ActsAllowed {
		if a == act {
			return true
		}
	}
	return false
}

// FeatureFlags is features.* — toggles for optional subsystems.
type FeatureFlags struct {
	Incar          bool `toml:"incar"`
	PrEP           bool `toml:"prep"`
	HighRisk       bool `toml:"high_risk"`
	StaticNetwork  bool `toml:"static_network"`
	MSMW           bool `toml:"msmw"`
	SyringeServices bool `toml:"syringe_services"`
	AssortMix      bool `toml:"assort_mix"`
	PCA            bool `toml:"pca"`
	AgentZero      bool `toml:"agent_zero"`
}

// DemographicParams is demographics[race][sex_type].* (spec §6).
type DemographicParams struct {
	Ppl         float64                    `toml:"ppl"`
	NumPartners map[string]DistDef         `toml:"num_partners"`
	HIV         HIVInitParams              `toml:"hiv"`
	AIDS        InitParam                  `toml:"aids"`
	HAART       HAARTDemoParams            `toml:"haart"`
	PrEP        PrEPDemoParams             `toml:"prep"`
	Incar       IncarDemoParams            `toml:"incar"`
	HighRisk    InitParam                  `toml:"high_risk"`
	Age         map[int]AgeBinParams       `toml:"age"`
	NumSexActs  float64                    `toml:"num_sex_acts"`
	NeedleShare float64                    `toml:"needle_share"`
	HIVTest     float64                    `toml:"hiv_test_prob"`
	UnsafeSex   float64                    `toml:"unsafe_sex"`
	Death       DeathParams                `toml:"death"`
}

// DeathParams is demographics[race][sex_type].death.* — the per-step
// mortality rate table keyed by clinical stage (spec §4.10). Adherence
// discounting is applied on top of Chronic/AIDS in death.go, not baked
// into the table.
type DeathParams struct {
	Base    float64 `toml:"base"`    // HIV-negative background rate
	Chronic float64 `toml:"chronic"` // HIV+, pre-AIDS
	AIDS    float64 `toml:"aids"`    // HIV+, AIDS-staged
}

type InitParam struct {
	Init float64 `toml:"init"`
}

type HIVInitParams struct {
	Init        float64  `toml:"init"`
	Dx          InitParam `toml:"dx"`
	MaxInitTime int      `toml:"max_init_time"`
}

type HAARTDemoParams struct {
	Init      float64 `toml:"init"`
	Adherence float64 `toml:"adherence"`
	Prev      float64 `toml:"prev"`
	Disc      float64 `toml:"disc"`
}

type PrEPDemoParams struct {
	Adherence float64 `toml:"adherence"`
	Disc      float64 `toml:"disc"`
}

type IncarDemoParams struct {
	Init     float64          `toml:"init"`
	Duration IncarDurationParams `toml:"duration"`
	Prob     float64          `toml:"prob"`
}

type IncarDurationParams struct {
	Init map[int]BinParams `toml:"init"`
	Ongoing map[int]BinParams `toml:"ongoing"`
}

type AgeBinParams struct {
	Prob float64 `toml:"prob"`
	Min  int     `toml:"min"`
	Max  int     `toml:"max"`
}

type BinParams struct {
	Prob float64 `toml:"prob"`
	Min  int     `toml:"min"`
	Max  int     `toml:"max"`
}

// DistDef is a distribution definition used wherever spec.md calls for a
// "distribution defined in params" (mean partner counts, durations). See
// distributions.go for how it's sampled.
type DistDef struct {
	DistType string          `toml:"dist_type"`
	Var1     float64         `toml:"var_1"`
	Var2     float64         `toml:"var_2"`
	Type     string          `toml:"type"` // "bins" or "" (parametric)
	Bins     map[int]BinParams `toml:"bins"`
}

// PartnershipParams is partnership.* (spec §4.3).
type PartnershipParams struct {
	Bonds     map[string]map[string]BondProb `toml:"bonds"`
	Sex       DurationParams                 `toml:"sex"`
	Injection DurationParams                 `toml:"injection"`
	Network   PartnershipNetworkParams       `toml:"network"`
}

type BondProb struct {
	Prob float64 `toml:"prob"`
}

type DurationParams struct {
	Duration DistDef `toml:"duration"`
}

type PartnershipNetworkParams struct {
	SameComponent SameComponentParams `toml:"same_component"`
}

type SameComponentParams struct {
	Prob float64 `toml:"prob"`
}

// CalibrationParams is calibration.* — the scalar knobs that adjust
// demographic rates without changing their shape.
type CalibrationParams struct {
	Sex               SexCalibration       `toml:"sex"`
	Partnership       PartnershipCalibration `toml:"partnership"`
	NeedleActScaling  float64              `toml:"needle_act_scaling"`
	SexActScaling     float64              `toml:"sex_act_scaling"`
	TestFreq          float64              `toml:"test_freq"`
	ArtCov            float64              `toml:"art_cov"`
	ProgAIDS          float64              `toml:"prog_aids"`
	Incar             float64              `toml:"incar"`
	Network           NetworkCalibration   `toml:"network"`
	SyringeServices   SyringeServicesCalibration `toml:"syringe_services"`
}

// SyringeServicesCalibration is calibration.syringe_services.* — the
// cumulative-diagnosis threshold and per-step enrollment probability
// controlling when PWID agents flip into needle/syringe exchange
// (`ABM_core.py _enroll_treatment`'s `initTreatment`/`treatmentCov`).
type SyringeServicesCalibration struct {
	InitTreatment int     `toml:"init_treatment"`
	Coverage      float64 `toml:"coverage"`
}

type SexCalibration struct {
	Partner float64 `toml:"partner"`
	Act     float64 `toml:"act"`
}

type PartnershipCalibration struct {
	Buffer     float64 `toml:"buffer"`
	BreakPoint int     `toml:"break_point"`
}

type NetworkCalibration struct {
	Trim TrimParams `toml:"trim"`
}

type TrimParams struct {
	Prob float64 `toml:"prob"`
}

// HIVParams is hiv.* — global HIV-clock parameters.
type HIVParams struct {
	StartTime          int                `toml:"start_time"`
	Acute              AcuteParams        `toml:"acute"`
	MSMWProb           float64            `toml:"msmw_prob"`
	SexTransmission    map[string]float64 `toml:"sex_transmission"`
	NeedleTransmission float64            `toml:"needle_transmission"`
	NeedleShareFloor   float64            `toml:"needle_share_floor"`

	// CondomUseType selects how the per-act unsafe-sex probability is
	// derived (spec §4.5): "Race" reads demographics[race][sex_type].
	// unsafe_sex directly; anything else (including unset) derives it
	// from the relationship's accumulated total_sex_acts via
	// unsafeSexProbByActs.
	CondomUseType string `toml:"condom_use_type"`
}

type AcuteParams struct {
	Duration    int     `toml:"duration"`
	Infectivity float64 `toml:"infectivity"`
}

// sexTransmissionProb looks up the per-act sexual transmission probability
// for an (source sex type, target sex type) pairing, falling back to the
// "__other__" catch-all key when the specific pairing isn't configured.
func (p *HIVParams) sexTransmissionProb(sourceSexType, targetSexType string) float64 {
	key := sourceSexType + "|" + targetSexType
	if prob, ok := p.SexTransmission[key]; ok {
		return prob
	}
	if prob, ok := p.SexTransmission["__other__"]; ok {
		return prob
	}
	return 0
}

// PrEPParams is prep.* — global PrEP parameters, independent of race/sex.
type PrEPParams struct {
	Target               float64       `toml:"target"`
	TargetModel          string        `toml:"target_model"`
	Type                 string        `toml:"type"`
	PeakLoad             float64       `toml:"peak_load"`
	FalloutT             int           `toml:"fallout_t"`
	AdherenceEfficacy    float64       `toml:"adherence_efficacy"`
	NonAdherenceEfficacy float64       `toml:"non_adherence_efficacy"`
	Resist               float64       `toml:"resist"`
	StartT               int           `toml:"start_t"`
	ClinicCategory       string        `toml:"clinic_category"`
	PCA                  PrEPPCAParams `toml:"pca"`
	ClinicAgents         map[string][]ClinicBin `toml:"clinic_agents"`
}

type PrEPPCAParams struct {
	Awareness InitParam            `toml:"awareness"`
	Attitude  map[int]AttitudeBin  `toml:"attitude"`
}

type AttitudeBin struct {
	Prob float64 `toml:"prob"`
}

// ClinicBin is one row of the clinical-agent partner-count matching table
// used by the "Clinical" PrEP targeting model (supplement 3 in
// SPEC_FULL.md).
type ClinicBin struct {
	Prob float64 `toml:"prob"`
	Min  float64 `toml:"min"`
	Max  float64 `toml:"max"`
}

// AssortDef is one entry of assort_mix[key] (spec §4.3 step 6).
type AssortDef struct {
	Attribute     string             `toml:"attribute"`
	AgentValue    string             `toml:"agent_value"`
	PartnerValues map[string]float64 `toml:"partner_values"`
}

// LocationParams is the per-location parameter overlay (spec §2). A zero
// value LocationParams inherits everything from the population-wide Params;
// only fields actually set override.
type LocationParams struct {
	Ppl              float64                 `toml:"ppl"`
	PrEPAdherence    map[string]float64      `toml:"prep_adherence"`
	MSMW             MSMWLocationParams      `toml:"msmw"`
}

// MSMWLocationParams is location[name].msmw.* — the probability an HM
// agent created at this location is flagged MSMW at creation time
// (`original_source/titan/population.py create_agent`'s
// `location.params.msmw.prob`). Distinct from hiv.msmw_prob, which is the
// per-step seroconversion probability applied to already-flagged MSMW
// agents in clinical.go.
type MSMWLocationParams struct {
	Prob float64 `toml:"prob"`
}

// bondAllows reports whether the named bond type permits the given act
// ("sex" or "injection"). Unknown bond types report false for every act.
func (p *Params) bondAllows(bond, act string) bool {
	def, ok := p.Classes.BondTypes[bond]
	if !ok {
		return false
	}
	return def.allows(act)
}

// sleepsWith reports whether sex between `a` and `b` sex types is mutually
// declared compatible (spec §4.3: "both directions must hold").
func (p *Params) sleepsWith(a, b string) bool {
	aDef, ok := p.Classes.SexTypes[a]
	if !ok {
		return false
	}
	bDef, ok := p.Classes.SexTypes[b]
	if !ok {
		return false
	}
	aMatches := false
	for _, s := range aDef.SleepsWith {
		if s == b {
			aMatches = true
			break
		}
	}
	bMatches := false
	for _, s := range bDef.SleepsWith {
		if s == a {
			bMatches = true
			break
		}
	}
	return aMatches && bMatches
}

// demographicParams looks up demographics[race][sexType], returning a
// ConfigError-flavored problem via ok=false if absent so that callers can
// surface the spec §7 "missing demographic key" configuration error rather
// than panic on a nil pointer mid-run.
func (p *Params) demographicParams(race, sexType string) (*DemographicParams, bool) {
	bySex, ok := p.Demographics[race]
	if !ok {
		return nil, false
	}
	d, ok := bySex[sexType]
	return d, ok
}
