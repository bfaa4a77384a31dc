package hivsim

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// sampleInt unifies the bins-vs-parametric distribution split (design note
// in spec §9): call sites never branch on DistDef.Type themselves, they
// just call sampleInt and get an integer back, whether the definition names
// five cumulative-probability bins or a parametric family.
func sampleInt(d DistDef, rng *rand.Rand) int {
	if d.Type == "bins" {
		return sampleBin(d.Bins, rng)
	}
	return int(sampleParametric(d, rng))
}

// sampleBin draws an integer within one of the bins of a five-bin
// cumulative-probability table (spec §4.3, "relationship duration ... bins
// distribution") — the first bin with cumulative probability exceeding the
// draw is used, and the final bin catches any residual due to floating
// point rounding.
func sampleBin(bins map[int]BinParams, rng *rand.Rand) int {
	if len(bins) == 0 {
		return 0
	}
	roll := rng.Float64()
	chosen := bins[len(bins)]
	for i := 1; i <= len(bins); i++ {
		b, ok := bins[i]
		if !ok {
			continue
		}
		if roll < b.Prob {
			chosen = b
			break
		}
	}
	if chosen.Max <= chosen.Min {
		return chosen.Min
	}
	return chosen.Min + rng.Intn(chosen.Max-chosen.Min)
}

// sampleParametric draws from the named parametric family. poisson and
// negative-binomial-like partner-count distributions are the common case
// (spec §4.3); Poisson draws are delegated to gonum's distuv so the
// population's np_random stream determines the outcome deterministically
// for a given seed.
func sampleParametric(d DistDef, rng *rand.Rand) float64 {
	switch d.DistType {
	case "poisson":
		return poissonDraw(d.Var1, rng)
	case "normal", "gauss":
		return d.Var1 + d.Var2*rng.NormFloat64()
	case "uniform":
		if d.Var2 <= d.Var1 {
			return d.Var1
		}
		return d.Var1 + rng.Float64()*(d.Var2-d.Var1)
	case "exponential":
		if d.Var1 <= 0 {
			return 0
		}
		return rng.ExpFloat64() / d.Var1
	default:
		return d.Var1
	}
}

// poissonDraw mirrors scipy.stats.poisson.rvs(mu) (original_source's
// utils.py poisson() wraps np_random.poisson) using gonum's distuv.Poisson,
// seeded from the caller-supplied population stream so draws stay
// reproducible under the determinism contract in spec §5.
func poissonDraw(mean float64, rng *rand.Rand) float64 {
	if mean <= 0 {
		return 0
	}
	dist := distuv.Poisson{Lambda: mean, Src: rng}
	return dist.Rand()
}

// retainedActs draws acts independent Bernoulli(prob) trials against rng,
// one draw per act, and returns how many were retained (spec §4.5: "each of
// the share_acts/sex_acts acts is independently retained with probability
// p"). Consuming exactly acts run-stream draws, rather than a single scaled
// uniform draw, keeps the determinism contract in spec §5 honest about how
// many numbers a given act count pulls off the stream.
func retainedActs(acts int, prob float64, rng *rand.Rand) int {
	retained := 0
	for i := 0; i < acts; i++ {
		if rng.Float64() < prob {
			retained++
		}
	}
	return retained
}

// totalProbability converts a per-act probability and a retained-act count
// into the probability that at least one of those acts transmits (spec
// §4.5): 1 − (1−p)^n, with the n==1 case returned directly to avoid a
// needless exponentiation and to match the original's branch in
// ABM_core.py's _needle_transmission/_sex_transmission.
func totalProbability(p float64, n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return p
	default:
		return 1.0 - binomialZeroMass(n, p)
	}
}

// binomialZeroMass is (1-p)^n, the probability of zero successes in n
// independent Bernoulli(p) trials — what original_source/titan/utils.py
// calls binom_0, mirroring scipy.stats.binom.pmf(0, n, p).
func binomialZeroMass(n int, p float64) float64 {
	q := 1 - p
	result := 1.0
	for i := 0; i < n; i++ {
		result *= q
	}
	return result
}
