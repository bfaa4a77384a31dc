package hivsim

import "sort"

// Location is a named place agents can live in, carrying its own parameter
// overlay plus precomputed per-race weight tables for sex type, drug type,
// and sex role (spec §2). Locations let a population be heterogeneous
// without every agent re-deriving the same weighted-choice tables from
// Params on every creation.
type Location struct {
	Name    string
	Ppl     float64 // share of the overall population living here
	Params  *Params // the effective (possibly overlaid) parameter tree
	pop     weightTable            // race -> sex type weights
	drug    map[string]weightTable // (race, sex type) -> drug type weights, keyed "race|sexType"
	role    map[string]weightTable // (race, sex type) -> sex role weights
}

// weightTable is a parallel (values, weights) pair suitable for
// weightedChoice.
type weightTable struct {
	values  []string
	weights []float64
}

// Geography owns the set of named Locations a Population draws agents from.
type Geography struct {
	Locations map[string]*Location
}

// NewGeography builds precomputed weight tables for every location named in
// params.Locations (or a single implicit "default" location if none are
// configured), per spec §2 ("per-location precomputed weight tables").
func NewGeography(params *Params) *Geography {
	g := &Geography{Locations: make(map[string]*Location)}

	if len(params.Locations) == 0 {
		g.Locations["default"] = newLocation("default", 1.0, params)
		return g
	}

	for name, lp := range params.Locations {
		ppl := lp.Ppl
		if ppl == 0 {
			ppl = 1.0 / float64(len(params.Locations))
		}
		g.Locations[name] = newLocation(name, ppl, params)
	}
	return g
}

func newLocation(name string, ppl float64, params *Params) *Location {
	loc := &Location{
		Name:   name,
		Ppl:    ppl,
		Params: params,
		pop:    weightTable{},
		drug:   make(map[string]weightTable),
		role:   make(map[string]weightTable),
	}

	sexTypeNames := make([]string, 0, len(params.Classes.SexTypes))
	for so := range params.Classes.SexTypes {
		sexTypeNames = append(sexTypeNames, so)
	}
	sort.Strings(sexTypeNames)

	for _, race := range params.Classes.Races {
		var popValues []string
		var popWeights []float64
		for _, so := range sexTypeNames {
			d, ok := params.demographicParams(race, so)
			if !ok {
				continue
			}
			popValues = append(popValues, so)
			popWeights = append(popWeights, d.Ppl)
		}
		// all races share the same sex-type population weighting in the
		// absence of a per-race override, but keyed by race for clarity and
		// future per-race overlays.
		loc.pop = weightTable{values: popValues, weights: popWeights}

		for _, so := range popValues {
			loc.drug[race+"|"+so] = weightTable{
				values:  []string{"Inj", "NonInj", "None"},
				weights: drugWeights(params, race, so),
			}
			loc.role[race+"|"+so] = weightTable{
				values:  []string{"Insertive", "Receptive", "Versatile"},
				weights: []float64{1, 1, 1},
			}
		}
	}

	return loc
}

// drugWeights derives relative weights for the three drug-type classes from
// whatever the demographic params imply; concrete parameter trees may
// override this via demographics[race][sexType].num_partners["Inj"] being
// present. Kept deliberately simple: the core engine cares about the
// resulting partition, not how finely the source weighting is specified.
func drugWeights(params *Params, race, so string) []float64 {
	d, ok := params.demographicParams(race, so)
	if !ok {
		return []float64{0, 0, 1}
	}
	_, hasInj := d.NumPartners["Inj"]
	if hasInj {
		return []float64{0.15, 0.25, 0.60}
	}
	return []float64{0, 0.3, 0.7}
}
