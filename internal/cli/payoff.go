package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"option-pricer/internal/payoff"
)

func newPayoffCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payoff",
		Short: "Work with payoff expressions",
	}

	cmd.AddCommand(newPayoffValidateCmd())
	cmd.AddCommand(newPayoffEvalCmd())

	return cmd
}

func newPayoffValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <expression>",
		Short: "Check a payoff expression without running a simulation",
		Example: `  pricer payoff validate 'max(S - 100, 0)'
  pricer payoff validate 'max(sum(path)/len(path) - 100, 0)'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			compiled, err := payoff.Compile(args[0])
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"valid":         true,
					"uses_terminal": compiled.UsesTerminal(),
					"uses_path":     compiled.UsesPath(),
				})
			}
			output.Success("Expression is valid")
			if compiled.UsesPath() {
				output.Info("References the full price path")
			} else if compiled.UsesTerminal() {
				output.Info("References only the terminal price S")
			}
			return nil
		},
	}
}

// newPayoffEvalCmd evaluates an expression against an explicit path,
// which makes payoff debugging possible without a simulation.
func newPayoffEvalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <expression> <price>...",
		Short: "Evaluate a payoff expression against a given price path",
		Example: `  pricer payoff eval 'max(S - 100, 0)' 105.2
  pricer payoff eval 'max(path) - min(path)' 100 95 108 103`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			compiled, err := payoff.Compile(args[0])
			if err != nil {
				return err
			}

			path := make([]float64, 0, len(args)-1)
			for _, arg := range args[1:] {
				v, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return err
				}
				path = append(path, v)
			}

			value, err := compiled.Evaluate(path)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]float64{"value": value})
			}
			output.Printf("%.6f\n", value)
			return nil
		},
	}
}
