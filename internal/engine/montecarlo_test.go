package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"option-pricer/internal/errors"
	"option-pricer/internal/models"
	"option-pricer/internal/payoff"
)

func seedPtr(s int64) *int64 { return &s }

func mcRun(t *testing.T, cfg models.SimulationConfig) models.PriceResult {
	t.Helper()
	result, err := PriceMonteCarlo(context.Background(), testMarket, 1, cfg, VanillaPayoff(models.Call, 100))
	if err != nil {
		t.Fatalf("PriceMonteCarlo failed: %v", err)
	}
	if result.StandardError == nil {
		t.Fatal("StandardError is nil")
	}
	return result
}

func TestMonteCarloSeededRunsAreReproducible(t *testing.T) {
	cfg := models.SimulationConfig{Steps: 50, Paths: 5000, Seed: seedPtr(42), Workers: 2}

	first := mcRun(t, cfg)
	second := mcRun(t, cfg)

	if first.Value != second.Value {
		t.Errorf("same seed gave %v then %v", first.Value, second.Value)
	}
	if *first.StandardError != *second.StandardError {
		t.Errorf("same seed gave SE %v then %v", *first.StandardError, *second.StandardError)
	}
}

func TestMonteCarloResultIndependentOfWorkerCount(t *testing.T) {
	// Per-path random streams plus an ordered reduction make the result
	// a pure function of the seed, not of scheduling.
	base := models.SimulationConfig{Steps: 50, Paths: 5000, Seed: seedPtr(7)}

	var values []float64
	for _, workers := range []int{1, 2, 4, 16} {
		cfg := base
		cfg.Workers = workers
		values = append(values, mcRun(t, cfg).Value)
	}
	for i := 1; i < len(values); i++ {
		if values[i] != values[0] {
			t.Errorf("workers variant %d gave %v, baseline gave %v", i, values[i], values[0])
		}
	}
}

func TestMonteCarloDifferentSeedsDiffer(t *testing.T) {
	cfg := models.SimulationConfig{Steps: 50, Paths: 2000, Seed: seedPtr(1), Workers: 2}
	first := mcRun(t, cfg)
	cfg.Seed = seedPtr(2)
	second := mcRun(t, cfg)
	if first.Value == second.Value {
		t.Errorf("distinct seeds both gave %v", first.Value)
	}
}

func TestMonteCarloConvergesToBlackScholes(t *testing.T) {
	reference := BlackScholes(testMarket, atmCall(1))

	cfg := models.SimulationConfig{Steps: 100, Paths: 50000, Seed: seedPtr(42), Workers: 4}
	result := mcRun(t, cfg)

	if diff := math.Abs(result.Value - reference); diff > 3*(*result.StandardError) {
		t.Errorf("|mc - bs| = %.4f exceeds 3*SE = %.4f", diff, 3*(*result.StandardError))
	}
}

func TestMonteCarloStandardErrorScaling(t *testing.T) {
	// Quadrupling the path count should roughly halve the standard error.
	small := mcRun(t, models.SimulationConfig{Steps: 50, Paths: 4000, Seed: seedPtr(9), Workers: 2})
	large := mcRun(t, models.SimulationConfig{Steps: 50, Paths: 16000, Seed: seedPtr(9), Workers: 2})

	ratio := *small.StandardError / *large.StandardError
	if ratio < 1.6 || ratio > 2.5 {
		t.Errorf("SE ratio 4k/16k paths = %.2f, want near 2", ratio)
	}
}

func TestMonteCarloCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := models.SimulationConfig{Steps: 100, Paths: 200000, Seed: seedPtr(3), Workers: 2}
	_, err := PriceMonteCarlo(ctx, testMarket, 1, cfg, VanillaPayoff(models.Call, 100))
	if !errors.Is(err, errors.ErrCancelled) {
		t.Errorf("got %v, want ErrCancelled", err)
	}
}

func TestMonteCarloTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	cfg := models.SimulationConfig{Steps: 500, Paths: 2000000, Seed: seedPtr(3), Workers: 1}
	_, err := PriceMonteCarlo(ctx, testMarket, 1, cfg, VanillaPayoff(models.Call, 100))
	if !errors.Is(err, errors.ErrCancelled) {
		t.Errorf("got %v, want ErrCancelled", err)
	}
}

func TestMonteCarloCompiledPayoff(t *testing.T) {
	compiled, err := payoff.Compile("max(S - 100, 0)")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	cfg := models.SimulationConfig{Steps: 50, Paths: 5000, Seed: seedPtr(42), Workers: 2}
	viaExpr, err := PriceMonteCarlo(context.Background(), testMarket, 1, cfg, compiled)
	if err != nil {
		t.Fatalf("PriceMonteCarlo failed: %v", err)
	}
	viaNative := mcRun(t, cfg)

	// Same seed, same paths: the expression must price identically to the
	// native payoff it spells out.
	if viaExpr.Value != viaNative.Value {
		t.Errorf("expression gave %v, native gave %v", viaExpr.Value, viaNative.Value)
	}
}

func TestMonteCarloAsianPayoff(t *testing.T) {
	compiled, err := payoff.Compile("max(sum(path) / len(path) - 100, 0)")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	cfg := models.SimulationConfig{Steps: 50, Paths: 20000, Seed: seedPtr(42), Workers: 4}
	asian, err := PriceMonteCarlo(context.Background(), testMarket, 1, cfg, compiled)
	if err != nil {
		t.Fatalf("PriceMonteCarlo failed: %v", err)
	}
	european := mcRun(t, cfg)

	// Averaging dampens volatility, so the Asian call is worth less than
	// the European one.
	if asian.Value <= 0 {
		t.Errorf("Asian price = %v, want positive", asian.Value)
	}
	if asian.Value >= european.Value {
		t.Errorf("Asian price %v not below European %v", asian.Value, european.Value)
	}
}

func TestMonteCarloPayoffErrorPropagates(t *testing.T) {
	compiled, err := payoff.Compile("1 / (S - S)")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	cfg := models.SimulationConfig{Steps: 10, Paths: 100, Seed: seedPtr(1), Workers: 2}
	_, err = PriceMonteCarlo(context.Background(), testMarket, 1, cfg, compiled)
	if !errors.Is(err, errors.ErrEvaluation) {
		t.Errorf("got %v, want ErrEvaluation", err)
	}
}

func TestMonteCarloInvalidParameters(t *testing.T) {
	valid := models.SimulationConfig{Steps: 10, Paths: 100, Workers: 1}
	native := VanillaPayoff(models.Call, 100)

	cases := []struct {
		name     string
		market   models.MarketParameters
		maturity float64
		cfg      models.SimulationConfig
		payoff   Payoff
	}{
		{"zero spot", models.MarketParameters{Spot: 0, Rate: 0.05, Volatility: 0.2}, 1, valid, native},
		{"zero volatility", models.MarketParameters{Spot: 100, Rate: 0.05, Volatility: 0}, 1, valid, native},
		{"zero maturity", testMarket, 0, valid, native},
		{"zero steps", testMarket, 1, models.SimulationConfig{Steps: 0, Paths: 100}, native},
		{"zero paths", testMarket, 1, models.SimulationConfig{Steps: 10, Paths: 0}, native},
		{"nil payoff", testMarket, 1, valid, nil},
	}

	for _, tc := range cases {
		_, err := PriceMonteCarlo(context.Background(), tc.market, tc.maturity, tc.cfg, tc.payoff)
		if !errors.Is(err, errors.ErrInvalidParameter) {
			t.Errorf("%s: got %v, want ErrInvalidParameter", tc.name, err)
		}
	}
}

func TestVanillaPayoff(t *testing.T) {
	call := VanillaPayoff(models.Call, 100)
	put := VanillaPayoff(models.Put, 100)
	path := []float64{100, 95, 108}

	if v, _ := call.Evaluate(path); v != 8 {
		t.Errorf("call payoff = %g, want 8", v)
	}
	if v, _ := put.Evaluate(path); v != 0 {
		t.Errorf("put payoff = %g, want 0", v)
	}
	if v, _ := put.Evaluate([]float64{100, 91}); v != 9 {
		t.Errorf("put payoff = %g, want 9", v)
	}
}
