package engine

import (
	"math"
	"testing"

	"option-pricer/internal/errors"
	"option-pricer/internal/models"
)

var testMarket = models.MarketParameters{Spot: 100, Rate: 0.05, Volatility: 0.2}

func atmCall(maturity float64) models.OptionSpec {
	return models.OptionSpec{Kind: models.Call, Strike: 100, Maturity: maturity}
}

func TestLatticeMatchesBlackScholesScenario(t *testing.T) {
	// spot=100, rate=0.05, vol=0.2, strike=100, maturity=1, steps=200
	// must land within 0.05 of the Black-Scholes value 10.4506.
	value, err := PriceLattice(testMarket, atmCall(1), models.LatticeConfig{Steps: 200})
	if err != nil {
		t.Fatalf("PriceLattice failed: %v", err)
	}
	if math.Abs(value-10.4506) > 0.05 {
		t.Errorf("lattice price = %.4f, want within 0.05 of 10.4506", value)
	}
}

func TestLatticeConvergesToBlackScholes(t *testing.T) {
	reference := BlackScholes(testMarket, atmCall(1))
	if math.Abs(reference-10.4506) > 1e-3 {
		t.Fatalf("Black-Scholes reference = %.6f, want 10.4506", reference)
	}

	// Tolerance tightens as the step count grows.
	cases := []struct {
		steps     int
		tolerance float64
	}{
		{50, 0.1},
		{500, 0.02},
		{5000, 0.005},
	}
	for _, tc := range cases {
		value, err := PriceLattice(testMarket, atmCall(1), models.LatticeConfig{Steps: tc.steps})
		if err != nil {
			t.Fatalf("PriceLattice(steps=%d) failed: %v", tc.steps, err)
		}
		if diff := math.Abs(value - reference); diff > tc.tolerance {
			t.Errorf("steps=%d: |lattice - bs| = %.5f, want <= %.5f", tc.steps, diff, tc.tolerance)
		}
	}
}

func TestLatticePutCallParity(t *testing.T) {
	cases := []struct {
		market   models.MarketParameters
		strike   float64
		maturity float64
		steps    int
	}{
		{models.MarketParameters{Spot: 100, Rate: 0.05, Volatility: 0.2}, 100, 1, 1},
		{models.MarketParameters{Spot: 100, Rate: 0.05, Volatility: 0.2}, 100, 1, 200},
		{models.MarketParameters{Spot: 80, Rate: -0.01, Volatility: 0.35}, 95, 0.5, 37},
		{models.MarketParameters{Spot: 250, Rate: 0.03, Volatility: 0.15}, 200, 2, 500},
	}

	for _, tc := range cases {
		call, err := PriceLattice(tc.market,
			models.OptionSpec{Kind: models.Call, Strike: tc.strike, Maturity: tc.maturity},
			models.LatticeConfig{Steps: tc.steps})
		if err != nil {
			t.Fatalf("call failed: %v", err)
		}
		put, err := PriceLattice(tc.market,
			models.OptionSpec{Kind: models.Put, Strike: tc.strike, Maturity: tc.maturity},
			models.LatticeConfig{Steps: tc.steps})
		if err != nil {
			t.Fatalf("put failed: %v", err)
		}

		parity := tc.market.Spot - tc.strike*math.Exp(-tc.market.Rate*tc.maturity)
		if diff := math.Abs(call - put - parity); diff > 1e-8 {
			t.Errorf("steps=%d: call-put parity violated by %.2e", tc.steps, diff)
		}
	}
}

func TestLatticeBoundaryProbabilities(t *testing.T) {
	// rate*dt == +/- vol*sqrt(dt) puts p exactly at 1 or 0; the pricer
	// must still return a value without division errors.
	market := models.MarketParameters{Spot: 100, Rate: 0.2, Volatility: 0.2}
	value, err := PriceLattice(market, atmCall(1), models.LatticeConfig{Steps: 1})
	if err != nil {
		t.Fatalf("p=1 boundary failed: %v", err)
	}
	if value < 0 {
		t.Errorf("price = %g, want non-negative", value)
	}

	// The p=0 side computes exp(-0.2) against 1/exp(0.2), which may land
	// an ulp apart; both a price and a degenerate report are acceptable.
	market.Rate = -0.2
	value, err = PriceLattice(market, atmCall(1), models.LatticeConfig{Steps: 1})
	if err != nil {
		if !errors.Is(err, errors.ErrDegenerateLattice) {
			t.Fatalf("p=0 boundary failed: %v", err)
		}
		return
	}
	if value < 0 {
		t.Errorf("price = %g, want non-negative", value)
	}
}

func TestLatticeDegenerateParameters(t *testing.T) {
	// Growth factor above the up move makes p > 1: arbitrage-inconsistent
	// inputs are reported, not clamped.
	market := models.MarketParameters{Spot: 100, Rate: 1.0, Volatility: 0.05}
	_, err := PriceLattice(market, atmCall(1), models.LatticeConfig{Steps: 1})
	if !errors.Is(err, errors.ErrDegenerateLattice) {
		t.Errorf("got %v, want ErrDegenerateLattice", err)
	}

	var latticeErr *errors.LatticeError
	if !errors.As(err, &latticeErr) {
		t.Fatalf("got %T, want *errors.LatticeError", err)
	}
	if latticeErr.Probability <= 1 {
		t.Errorf("reported probability = %g, want > 1", latticeErr.Probability)
	}
}

func TestLatticeInvalidParameters(t *testing.T) {
	valid := atmCall(1)
	cases := []struct {
		name   string
		market models.MarketParameters
		option models.OptionSpec
		cfg    models.LatticeConfig
	}{
		{"zero spot", models.MarketParameters{Spot: 0, Rate: 0.05, Volatility: 0.2}, valid, models.LatticeConfig{Steps: 10}},
		{"negative spot", models.MarketParameters{Spot: -5, Rate: 0.05, Volatility: 0.2}, valid, models.LatticeConfig{Steps: 10}},
		{"zero volatility", models.MarketParameters{Spot: 100, Rate: 0.05, Volatility: 0}, valid, models.LatticeConfig{Steps: 10}},
		{"zero strike", testMarket, models.OptionSpec{Kind: models.Call, Strike: 0, Maturity: 1}, models.LatticeConfig{Steps: 10}},
		{"zero maturity", testMarket, models.OptionSpec{Kind: models.Call, Strike: 100, Maturity: 0}, models.LatticeConfig{Steps: 10}},
		{"bad kind", testMarket, models.OptionSpec{Kind: "straddle", Strike: 100, Maturity: 1}, models.LatticeConfig{Steps: 10}},
		{"zero steps", testMarket, valid, models.LatticeConfig{Steps: 0}},
	}

	for _, tc := range cases {
		if _, err := PriceLattice(tc.market, tc.option, tc.cfg); !errors.Is(err, errors.ErrInvalidParameter) {
			t.Errorf("%s: got %v, want ErrInvalidParameter", tc.name, err)
		}
	}
}

func TestLatticeSingleStep(t *testing.T) {
	value, err := PriceLattice(testMarket, atmCall(1), models.LatticeConfig{Steps: 1})
	if err != nil {
		t.Fatalf("PriceLattice failed: %v", err)
	}

	// Hand-computed one-step tree.
	u := math.Exp(0.2)
	d := 1 / u
	p := (math.Exp(0.05) - d) / (u - d)
	want := math.Exp(-0.05) * p * (100*u - 100)
	if math.Abs(value-want) > 1e-12 {
		t.Errorf("one-step price = %.10f, want %.10f", value, want)
	}
}

func TestBlackScholesGreeksSanity(t *testing.T) {
	call := BlackScholesGreeks(testMarket, atmCall(1))
	if call.Delta <= 0 || call.Delta >= 1 {
		t.Errorf("call delta = %g, want in (0, 1)", call.Delta)
	}
	if call.Gamma <= 0 || call.Vega <= 0 {
		t.Errorf("gamma/vega = %g/%g, want positive", call.Gamma, call.Vega)
	}

	put := BlackScholesGreeks(testMarket, models.OptionSpec{Kind: models.Put, Strike: 100, Maturity: 1})
	if put.Delta >= 0 || put.Delta <= -1 {
		t.Errorf("put delta = %g, want in (-1, 0)", put.Delta)
	}
	if diff := math.Abs(call.Delta - put.Delta - 1); diff > 1e-12 {
		t.Errorf("delta parity violated by %.2e", diff)
	}
}
