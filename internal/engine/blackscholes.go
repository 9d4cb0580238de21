package engine

import (
	"math"

	"option-pricer/internal/models"
)

// BlackScholes returns the closed-form price of a European option. It is
// the continuous-time limit of the lattice model and serves as the
// reference value for convergence checks.
func BlackScholes(market models.MarketParameters, option models.OptionSpec) float64 {
	d1, d2 := dValues(market, option)
	discountedStrike := option.Strike * math.Exp(-market.Rate*option.Maturity)
	if option.Kind == models.Call {
		return market.Spot*normCDF(d1) - discountedStrike*normCDF(d2)
	}
	return discountedStrike*normCDF(-d2) - market.Spot*normCDF(-d1)
}

// Greeks holds the standard Black-Scholes sensitivities.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// BlackScholesGreeks returns the closed-form sensitivities of a European
// option. Theta is per year; Vega and Rho are per unit change.
func BlackScholesGreeks(market models.MarketParameters, option models.OptionSpec) Greeks {
	d1, d2 := dValues(market, option)
	sqrtT := math.Sqrt(option.Maturity)
	discount := math.Exp(-market.Rate * option.Maturity)
	pdf := normPDF(d1)

	g := Greeks{
		Gamma: pdf / (market.Spot * market.Volatility * sqrtT),
		Vega:  market.Spot * pdf * sqrtT,
	}
	common := -market.Spot * pdf * market.Volatility / (2 * sqrtT)
	if option.Kind == models.Call {
		g.Delta = normCDF(d1)
		g.Theta = common - market.Rate*option.Strike*discount*normCDF(d2)
		g.Rho = option.Strike * option.Maturity * discount * normCDF(d2)
	} else {
		g.Delta = normCDF(d1) - 1
		g.Theta = common + market.Rate*option.Strike*discount*normCDF(-d2)
		g.Rho = -option.Strike * option.Maturity * discount * normCDF(-d2)
	}
	return g
}

func dValues(market models.MarketParameters, option models.OptionSpec) (float64, float64) {
	sqrtT := math.Sqrt(option.Maturity)
	d1 := (math.Log(market.Spot/option.Strike) + (market.Rate+0.5*market.Volatility*market.Volatility)*option.Maturity) /
		(market.Volatility * sqrtT)
	d2 := d1 - market.Volatility*sqrtT
	return d1, d2
}

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// normPDF is the standard normal density.
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
