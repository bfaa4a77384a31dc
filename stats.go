package hivsim

import (
	"github.com/montanaflynn/stats"
	"github.com/segmentio/ksuid"
)

// ReportRow is one step's worth of population-level summary statistics
// (spec §6's reporting requirement), the unit both DataLogger backends
// persist.
type ReportRow struct {
	InstanceID int
	RunID      ksuid.KSUID
	Time       int

	NumAgents    int
	NumHIV       int
	NumAIDS      int
	NumDx        int
	NumHAART     int
	NumPrEP      int
	NumIncar     int
	NumHighRisk  int
	NumPWID      int
	NumRelations int

	MeanAge            float64
	MeanPartnersStdDev float64

	// NewInfections..Deaths are this step's bookkeeping-set sizes (spec
	// §4.4 step 3b's new_infections/new_dx/new_incar_release/
	// new_high_risk/new_prep/deaths), incidence rather than the
	// cumulative Num* counts above.
	NewInfections   int
	NewDx           int
	NewIncarRelease int
	NewHighRisk     int
	NewPrEP         int
	Deaths          int
}

// computeReportRow reduces a Population's current state into one
// ReportRow. The mean age and the partner-count standard deviation go through
// montanaflynn/stats rather than a hand-rolled accumulator (a real
// dependency of jndunlap-gohypo, not fabricated for this purpose).
func computeReportRow(instanceID int, runID ksuid.KSUID, currentTime int, pop *Population) ReportRow {
	row := ReportRow{
		InstanceID:   instanceID,
		RunID:        runID,
		Time:         currentTime,
		NumAgents:    pop.AllAgents.Count(),
		NumHIV:       pop.HIVAgents.Count(),
		NumPWID:      pop.PWIDAgents.Count(),
		NumHighRisk:  pop.HighRiskAgents.Count(),
		NumRelations: len(pop.Relationships),

		NewInfections:   len(pop.StepStats.NewInfections),
		NewDx:           len(pop.StepStats.NewDx),
		NewIncarRelease: len(pop.StepStats.NewIncarRelease),
		NewHighRisk:     len(pop.StepStats.NewHighRisk),
		NewPrEP:         len(pop.StepStats.NewPrEP),
		Deaths:          len(pop.StepStats.Deaths),
	}

	ages := make([]float64, 0, row.NumAgents)
	partnerCounts := make([]float64, 0, row.NumAgents)
	for _, agent := range pop.AllAgents.Members() {
		ages = append(ages, float64(agent.Age))
		partnerCounts = append(partnerCounts, float64(agent.NumPartners()))
		if agent.AIDS {
			row.NumAIDS++
		}
		if agent.HIVDx {
			row.NumDx++
		}
		if agent.HAART {
			row.NumHAART++
		}
		if agent.PrEPBool {
			row.NumPrEP++
		}
		if agent.Incar {
			row.NumIncar++
		}
	}

	if mean, err := stats.Mean(ages); err == nil {
		row.MeanAge = mean
	}
	if sd, err := stats.StandardDeviation(partnerCounts); err == nil {
		row.MeanPartnersStdDev = sd
	}

	return row
}
