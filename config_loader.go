package hivsim

import "github.com/BurntSushi/toml"

// LoadParams parses a TOML configuration file into a Params tree and
// validates it: decode via BurntSushi/toml, wrap any decode failure as
// a ConfigError so callers can distinguish a malformed config from an
// invariant violation encountered later during the run.
func LoadParams(path string) (*Params, error) {
	params := new(Params)
	if _, err := toml.DecodeFile(path, params); err != nil {
		return nil, newConfigError(path, err)
	}
	if err := validateParams(params); err != nil {
		return nil, err
	}
	return params, nil
}

// validateParams runs the configuration-error checks spec §7 requires to
// fail fast at construction rather than surface as a confusing panic or
// invariant violation mid-run.
func validateParams(p *Params) error {
	if p.Model.NumPop <= 0 {
		return newConfigError("model.num_pop", errNonPositivePop)
	}
	if p.Model.Seed.Ppl < 0 || p.Model.Seed.Run < 0 {
		return newConfigError("model.seed", errNonIntegerSeed)
	}
	if len(p.Classes.Races) == 0 {
		return newConfigError("classes.races", errMissingDemographic)
	}
	if len(p.Classes.SexTypes) == 0 {
		return newConfigError("classes.sex_types", errUnknownSexType)
	}
	if len(p.Classes.BondTypes) == 0 {
		return newConfigError("classes.bond_types", errUnknownBondType)
	}
	for _, race := range p.Classes.Races {
		if _, ok := p.Demographics[race]; !ok {
			return newConfigError("demographics."+race, errMissingDemographic)
		}
	}
	return nil
}
