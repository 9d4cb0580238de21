package payoff

import (
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: compilation of arbitrary input never panics and never
// produces a compiled expression from garbage without an error surfacing
// first. This is the safety boundary for untrusted payoff text.
func TestProperty_CompileNeverPanics(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500

	properties := gopter.NewProperties(parameters)

	properties.Property("Compile handles arbitrary input without panicking", prop.ForAll(
		func(src string) bool {
			c, err := Compile(src)
			return (c == nil) != (err == nil)
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// Property: simple arithmetic expressions evaluate to the same value the
// host language computes.
func TestProperty_ArithmeticMatchesHost(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("a + b * c evaluates correctly", prop.ForAll(
		func(a, b, c float64) bool {
			expr := fmt.Sprintf("%g + %g * %g", a, b, c)
			compiled, err := Compile(expr)
			if err != nil {
				return false
			}
			got, err := compiled.Evaluate([]float64{100})
			if err != nil {
				return false
			}
			want := a + b*c
			return math.Abs(got-want) <= 1e-9*math.Max(1, math.Abs(want))
		},
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(-1e6, 1e6),
		gen.Float64Range(-1e6, 1e6),
	))

	properties.TestingRun(t)
}

// Property: a vanilla call payoff is non-negative and zero exactly when
// the option finishes out of the money.
func TestProperty_CallPayoffNonNegative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("max(S - K, 0) is non-negative", prop.ForAll(
		func(s, k float64) bool {
			compiled, err := Compile(fmt.Sprintf("max(S - %g, 0)", k))
			if err != nil {
				return false
			}
			got, err := compiled.Evaluate([]float64{s})
			if err != nil {
				return false
			}
			if got < 0 {
				return false
			}
			if s <= k && got != 0 {
				return false
			}
			return math.Abs(got-math.Max(s-k, 0)) <= 1e-9
		},
		gen.Float64Range(1, 1e4),
		gen.Float64Range(1, 1e4),
	))

	properties.TestingRun(t)
}

// Property: S is always the terminal element of the bound path.
func TestProperty_TerminalIsLastPathElement(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("S equals path's last element", prop.ForAll(
		func(prices []float64) bool {
			if len(prices) == 0 {
				return true
			}
			compiled, err := Compile("S")
			if err != nil {
				return false
			}
			got, err := compiled.Evaluate(prices)
			if err != nil {
				return false
			}
			return got == prices[len(prices)-1]
		},
		gen.SliceOf(gen.Float64Range(0.01, 1e6)),
	))

	properties.TestingRun(t)
}
