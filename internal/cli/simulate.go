package cli

import (
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"option-pricer/internal/engine"
	"option-pricer/internal/errors"
	"option-pricer/internal/logging"
	"option-pricer/internal/models"
	"option-pricer/internal/payoff"
)

func newSimulateCmd(app *App) *cobra.Command {
	var (
		spot       float64
		rate       float64
		volatility float64
		maturity   float64
		steps      int
		paths      int
		seed       int64
		workers    int
		payoffExpr string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Estimate an option price by Monte Carlo simulation",
		Long: `Estimate an option price by simulating geometric Brownian motion
paths and averaging the discounted payoffs.

The payoff is an expression over 'S' (terminal price) or 'path' (the full
simulated path). Ctrl-C cancels a running simulation; no partial price is
reported.`,
		Example: `  pricer simulate --spot 100 --rate 0.05 --volatility 0.2 --maturity 1 \
      --payoff 'max(S - 100, 0)' --paths 50000 --seed 42
  pricer simulate --spot 100 --rate 0.05 --volatility 0.2 --maturity 1 \
      --payoff 'max(sum(path)/len(path) - 100, 0)'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			compiled, err := payoff.Compile(payoffExpr)
			if err != nil {
				return err
			}

			cfg := models.SimulationConfig{Steps: steps, Paths: paths, Workers: workers}
			if cfg.Steps == 0 {
				cfg.Steps = app.Config.Pricing.DefaultSteps
			}
			if cfg.Paths == 0 {
				cfg.Paths = app.Config.Pricing.DefaultPaths
			}
			if cfg.Workers == 0 {
				cfg.Workers = app.Config.Pricing.Workers
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = &seed
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			start := time.Now()
			result, err := engine.PriceMonteCarlo(ctx,
				models.MarketParameters{Spot: spot, Rate: rate, Volatility: volatility},
				maturity, cfg, compiled)
			if err != nil {
				if errors.Is(err, errors.ErrCancelled) {
					output.Warning("Simulation cancelled, no price computed")
				}
				return err
			}
			elapsed := time.Since(start)
			logging.LogSimulation(app.Logger, cfg.Paths, cfg.Steps, cfg.Workers, elapsed, result.Value)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"value":          result.Value,
					"standard_error": result.StandardError,
					"paths":          cfg.Paths,
					"steps":          cfg.Steps,
					"elapsed_ms":     elapsed.Milliseconds(),
				})
			}

			output.Bold("Monte Carlo estimate (%d paths, %d steps)", cfg.Paths, cfg.Steps)
			output.Printf("  %.6f\n", result.Value)
			if result.StandardError != nil {
				output.Dim("Standard error: %.6f (95%% interval roughly +/- %.6f)",
					*result.StandardError, 1.96*(*result.StandardError))
			}
			output.Dim("Elapsed: %s", elapsed.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().Float64Var(&spot, "spot", 0, "current underlying price")
	cmd.Flags().Float64Var(&rate, "rate", 0, "risk-free rate, continuously compounded")
	cmd.Flags().Float64Var(&volatility, "volatility", 0, "annualized volatility")
	cmd.Flags().Float64Var(&maturity, "maturity", 0, "time to maturity in years")
	cmd.Flags().IntVar(&steps, "steps", 0, "time steps per path (default from config)")
	cmd.Flags().IntVar(&paths, "paths", 0, "number of simulated paths (default from config)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed for reproducible results")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (default: all CPUs)")
	cmd.Flags().StringVar(&payoffExpr, "payoff", "", "payoff expression, e.g. 'max(S - 100, 0)'")
	cmd.MarkFlagRequired("spot")
	cmd.MarkFlagRequired("volatility")
	cmd.MarkFlagRequired("maturity")
	cmd.MarkFlagRequired("payoff")

	return cmd
}
