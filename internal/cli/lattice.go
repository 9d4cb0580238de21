package cli

import (
	"github.com/spf13/cobra"

	"option-pricer/internal/engine"
	"option-pricer/internal/logging"
	"option-pricer/internal/models"
)

func newLatticeCmd(app *App) *cobra.Command {
	var (
		spot       float64
		strike     float64
		rate       float64
		volatility float64
		maturity   float64
		kind       string
		steps      int
		greeks     bool
	)

	cmd := &cobra.Command{
		Use:   "lattice",
		Short: "Price a European option on a binomial lattice",
		Long: `Price a European call or put with the Cox-Ross-Rubinstein binomial
tree. The Black-Scholes closed form is printed alongside as the
continuous-time reference.`,
		Example: `  pricer lattice --spot 100 --strike 100 --rate 0.05 --volatility 0.2 --maturity 1
  pricer lattice --kind put --spot 100 --strike 110 --rate 0.02 --volatility 0.3 --maturity 0.5 --steps 500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			optionKind, err := models.ParseOptionKind(kind)
			if err != nil {
				return err
			}
			if steps == 0 {
				steps = app.Config.Pricing.DefaultSteps
			}

			market := models.MarketParameters{Spot: spot, Rate: rate, Volatility: volatility}
			option := models.OptionSpec{Kind: optionKind, Strike: strike, Maturity: maturity}

			value, err := engine.PriceLattice(market, option, models.LatticeConfig{Steps: steps})
			if err != nil {
				return err
			}
			logging.LogLattice(app.Logger, steps, value)

			reference := engine.BlackScholes(market, option)

			if output.IsJSON() {
				payload := map[string]interface{}{
					"value":         value,
					"black_scholes": reference,
					"steps":         steps,
				}
				if greeks {
					payload["greeks"] = engine.BlackScholesGreeks(market, option)
				}
				return output.JSON(payload)
			}

			output.Bold("Lattice price (%d steps)", steps)
			output.Printf("  %.6f\n", value)
			output.Dim("Black-Scholes reference: %.6f", reference)
			if greeks {
				g := engine.BlackScholesGreeks(market, option)
				output.Println()
				output.Bold("Greeks (Black-Scholes)")
				output.Printf("  Delta: %9.4f\n", g.Delta)
				output.Printf("  Gamma: %9.4f\n", g.Gamma)
				output.Printf("  Theta: %9.4f\n", g.Theta)
				output.Printf("  Vega:  %9.4f\n", g.Vega)
				output.Printf("  Rho:   %9.4f\n", g.Rho)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&spot, "spot", 0, "current underlying price")
	cmd.Flags().Float64Var(&strike, "strike", 0, "strike price")
	cmd.Flags().Float64Var(&rate, "rate", 0, "risk-free rate, continuously compounded")
	cmd.Flags().Float64Var(&volatility, "volatility", 0, "annualized volatility")
	cmd.Flags().Float64Var(&maturity, "maturity", 0, "time to maturity in years")
	cmd.Flags().StringVar(&kind, "kind", "call", "option kind: call or put")
	cmd.Flags().IntVar(&steps, "steps", 0, "tree steps (default from config)")
	cmd.Flags().BoolVar(&greeks, "greeks", false, "also print Black-Scholes greeks")
	cmd.MarkFlagRequired("spot")
	cmd.MarkFlagRequired("strike")
	cmd.MarkFlagRequired("volatility")
	cmd.MarkFlagRequired("maturity")

	return cmd
}
