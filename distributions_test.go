package hivsim

import (
	"math/rand"
	"testing"
)

func TestBinomialZeroMass(t *testing.T) {
	if got := binomialZeroMass(0, 0.5); got != 1.0 {
		t.Errorf("expected (1-p)^0 == 1, got %v", got)
	}
	if got := binomialZeroMass(3, 0); got != 1.0 {
		t.Errorf("expected p=0 to always give zero mass 1, got %v", got)
	}
	if got := binomialZeroMass(2, 1.0); got != 0.0 {
		t.Errorf("expected p=1 to give zero mass 0, got %v", got)
	}
}

func TestTotalProbability(t *testing.T) {
	if got := totalProbability(0.3, 0); got != 0 {
		t.Errorf("expected n<=0 to give probability 0, got %v", got)
	}
	if got := totalProbability(0.3, 1); got != 0.3 {
		t.Errorf("expected n==1 to return p directly, got %v", got)
	}
	// 1 - (1-0.5)^2 = 0.75
	if got := totalProbability(0.5, 2); got != 0.75 {
		t.Errorf("expected 1-(1-p)^n formula, got %v", got)
	}
}

func TestRetainedActsZeroProbRetainsNone(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if got := retainedActs(10, 0, rng); got != 0 {
		t.Errorf("expected p=0 to retain nothing, got %d", got)
	}
}

func TestRetainedActsProbOneRetainsAll(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		if got := retainedActs(10, 1.0, rng); got != 10 {
			t.Fatalf("expected p=1 to retain every act (rand.Float64 is always <1), got %d", got)
		}
	}
}

func TestRetainedActsConsumesOneDrawPerAct(t *testing.T) {
	acts := 25
	a := rand.New(rand.NewSource(9))
	retainedActs(acts, 0.5, a)
	// a has now consumed exactly `acts` draws; a fresh stream seeded
	// identically and advanced by the same count should be in lockstep.
	b := rand.New(rand.NewSource(9))
	for i := 0; i < acts; i++ {
		b.Float64()
	}
	if a.Int63() != b.Int63() {
		t.Errorf("expected retainedActs to consume exactly acts draws from rng")
	}
}

func TestSampleBinRespectsCumulativeProbability(t *testing.T) {
	bins := map[int]BinParams{
		1: {Prob: 0.0, Min: 1, Max: 2},
		2: {Prob: 1.0, Min: 5, Max: 6},
	}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		v := sampleBin(bins, rng)
		if v != 5 {
			t.Fatalf("expected every draw to land in the second bin (min=5), got %d", v)
		}
	}
}

func TestSampleBinEmptyReturnsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if got := sampleBin(map[int]BinParams{}, rng); got != 0 {
		t.Errorf("expected empty bin table to return 0, got %d", got)
	}
}

func TestSampleParametricUniformBounds(t *testing.T) {
	d := DistDef{DistType: "uniform", Var1: 2, Var2: 4}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		v := sampleParametric(d, rng)
		if v < 2 || v >= 4 {
			t.Fatalf("expected uniform draw within [2,4), got %v", v)
		}
	}
}

func TestSampleParametricUniformDegenerate(t *testing.T) {
	d := DistDef{DistType: "uniform", Var1: 5, Var2: 5}
	rng := rand.New(rand.NewSource(1))
	if got := sampleParametric(d, rng); got != 5 {
		t.Errorf("expected degenerate uniform range to return Var1, got %v", got)
	}
}

func TestPoissonDrawNonPositiveMeanIsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if got := poissonDraw(0, rng); got != 0 {
		t.Errorf("expected mean<=0 to short-circuit to 0, got %v", got)
	}
	if got := poissonDraw(-1, rng); got != 0 {
		t.Errorf("expected negative mean to short-circuit to 0, got %v", got)
	}
}

func TestSampleIntDispatchesOnType(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	bins := DistDef{Type: "bins", Bins: map[int]BinParams{1: {Prob: 1.0, Min: 3, Max: 4}}}
	if got := sampleInt(bins, rng); got != 3 {
		t.Errorf("expected bins dispatch, got %d", got)
	}

	parametric := DistDef{DistType: "uniform", Var1: 7, Var2: 7}
	if got := sampleInt(parametric, rng); got != 7 {
		t.Errorf("expected parametric dispatch, got %d", got)
	}
}

func TestSameSeedSameSequence(t *testing.T) {
	d := DistDef{DistType: "poisson", Var1: 3.5}

	draw := func(seed int64) []int {
		rng := rand.New(rand.NewSource(seed))
		out := make([]int, 10)
		for i := range out {
			out[i] = sampleInt(d, rng)
		}
		return out
	}

	a := draw(7)
	b := draw(7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical seeds to reproduce identical draw sequences, diverged at index %d: %v vs %v", i, a, b)
		}
	}
}
