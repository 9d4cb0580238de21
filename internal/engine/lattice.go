// Package engine implements the pricing models: a Cox-Ross-Rubinstein
// binomial lattice, a Black-Scholes closed form, and a Monte Carlo path
// simulator under geometric Brownian motion.
package engine

import (
	"math"

	"option-pricer/internal/errors"
	"option-pricer/internal/models"
)

// PriceLattice values a European option on a recombining binomial tree.
// It fails with ErrInvalidParameter on violated input invariants and with
// ErrDegenerateLattice when the tree collapses or the risk-neutral
// probability leaves [0, 1] (arbitrage-inconsistent inputs are reported,
// never clamped).
func PriceLattice(market models.MarketParameters, option models.OptionSpec, cfg models.LatticeConfig) (float64, error) {
	if err := market.Validate(); err != nil {
		return 0, err
	}
	if err := option.Validate(); err != nil {
		return 0, err
	}
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	steps := cfg.Steps
	dt := option.Maturity / float64(steps)
	logMove := market.Volatility * math.Sqrt(dt)
	u := math.Exp(logMove)
	d := 1 / u
	if u == d {
		return 0, errors.NewLatticeError(math.NaN(), "up and down factors coincide")
	}

	growth := math.Exp(market.Rate * dt)
	p := (growth - d) / (u - d)
	if p < 0 || p > 1 {
		return 0, errors.NewLatticeError(p, "risk-neutral probability outside [0, 1]")
	}
	disc := math.Exp(-market.Rate * dt)

	// Terminal price at node i is spot * u^i * d^(steps-i); the log form
	// keeps large step counts away from overflow.
	values := make([]float64, steps+1)
	for i := range values {
		terminal := market.Spot * math.Exp(float64(2*i-steps)*logMove)
		values[i] = intrinsic(option.Kind, option.Strike, terminal)
	}

	// Backward induction: each node is the discounted risk-neutral
	// expectation of its two children. European only, no exercise check.
	for step := steps - 1; step >= 0; step-- {
		for i := 0; i <= step; i++ {
			values[i] = disc * (p*values[i+1] + (1-p)*values[i])
		}
	}
	return values[0], nil
}

// intrinsic is the terminal payoff of a vanilla European option.
func intrinsic(kind models.OptionKind, strike, terminal float64) float64 {
	if kind == models.Call {
		return math.Max(terminal-strike, 0)
	}
	return math.Max(strike-terminal, 0)
}
