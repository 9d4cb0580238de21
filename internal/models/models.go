// Package models defines the value objects consumed by the pricing engine.
package models

import (
	"fmt"
	"strings"

	"option-pricer/internal/errors"
)

// OptionKind identifies the side of a vanilla option contract.
type OptionKind string

const (
	Call OptionKind = "call"
	Put  OptionKind = "put"
)

// ParseOptionKind parses a user-supplied option kind string.
func ParseOptionKind(s string) (OptionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	default:
		return "", errors.NewParameterError("kind", s, "must be 'call' or 'put'")
	}
}

// OptionSpec describes a European option contract. Immutable once built.
type OptionSpec struct {
	Kind     OptionKind `json:"kind"`
	Strike   float64    `json:"strike"`
	Maturity float64    `json:"maturity"` // years
}

// Validate checks the contract invariants.
func (o OptionSpec) Validate() error {
	if o.Kind != Call && o.Kind != Put {
		return errors.NewParameterError("kind", string(o.Kind), "must be 'call' or 'put'")
	}
	if o.Strike <= 0 {
		return errors.NewParameterError("strike", o.Strike, "must be positive")
	}
	if o.Maturity <= 0 {
		return errors.NewParameterError("maturity", o.Maturity, "must be positive")
	}
	return nil
}

// MarketParameters describes the underlying and the risk-free rate.
// The rate is continuously compounded and may be negative.
type MarketParameters struct {
	Spot       float64 `json:"spot"`
	Rate       float64 `json:"rate"`
	Volatility float64 `json:"volatility"`
}

// Validate checks the market invariants.
func (m MarketParameters) Validate() error {
	if m.Spot <= 0 {
		return errors.NewParameterError("spot", m.Spot, "must be positive")
	}
	if m.Volatility <= 0 {
		return errors.NewParameterError("volatility", m.Volatility, "must be positive")
	}
	return nil
}

// LatticeConfig configures the binomial tree.
type LatticeConfig struct {
	Steps int `json:"steps"`
}

// Validate checks the lattice invariants.
func (c LatticeConfig) Validate() error {
	if c.Steps < 1 {
		return errors.NewParameterError("steps", c.Steps, "must be >= 1")
	}
	return nil
}

// SimulationConfig configures a Monte Carlo run. A nil Seed selects a
// non-deterministic stream; a set Seed fixes the pseudo-random stream so
// results reproduce bit-for-bit regardless of worker count.
type SimulationConfig struct {
	Steps   int    `json:"steps"`
	Paths   int    `json:"paths"`
	Seed    *int64 `json:"seed,omitempty"`
	Workers int    `json:"workers,omitempty"` // 0 selects runtime.NumCPU()
}

// Validate checks the simulation invariants.
func (c SimulationConfig) Validate() error {
	if c.Steps < 1 {
		return errors.NewParameterError("steps", c.Steps, "must be >= 1")
	}
	if c.Paths < 1 {
		return errors.NewParameterError("paths", c.Paths, "must be >= 1")
	}
	if c.Workers < 0 {
		return errors.NewParameterError("workers", c.Workers, "must be >= 0")
	}
	return nil
}

// PriceResult is the outcome of a pricing call. StandardError is set only
// for Monte Carlo estimates; lattice prices are deterministic.
type PriceResult struct {
	Value         float64  `json:"value"`
	StandardError *float64 `json:"standard_error,omitempty"`
}

func (r PriceResult) String() string {
	if r.StandardError != nil {
		return fmt.Sprintf("%.6f (se %.6f)", r.Value, *r.StandardError)
	}
	return fmt.Sprintf("%.6f", r.Value)
}
