package server

import (
	"context"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"option-pricer/internal/engine"
	"option-pricer/internal/errors"
	"option-pricer/internal/models"
	"option-pricer/internal/payoff"
)

const formTemplate = `<!doctype html>
<html lang="en">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>Monte Carlo Option Pricer</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 2rem auto; max-width: 800px; line-height: 1.5; }
        form { display: grid; grid-template-columns: 1fr 1fr; gap: 0.75rem 1.5rem; }
        label { display: flex; flex-direction: column; font-weight: 600; }
        input[type="text"], input[type="number"] { padding: 0.4rem; font-size: 1rem; }
        .full { grid-column: 1 / -1; }
        .actions { grid-column: 1 / -1; }
        .error { color: #b00020; font-weight: 600; margin-top: 1rem; }
        .result { background: #f5f5f5; padding: 1rem; border-radius: 6px; margin-top: 1rem; }
        .hint { font-size: 0.95rem; color: #444; margin-top: -0.4rem; }
    </style>
</head>
<body>
    <h1>Monte Carlo Option Pricer</h1>
    <p>Simulate option prices under geometric Brownian motion. Supply a payoff expression
    using <code>S</code> for the terminal price or <code>path</code> for the full simulated path.</p>
    <form method="post" action="/price">
        <label>Spot
            <input type="number" name="spot" step="any" value="{{.Spot}}" required>
        </label>
        <label>Rate (r)
            <input type="number" name="rate" step="any" value="{{.Rate}}" required>
            <span class="hint">Continuously compounded annual rate (e.g., 0.05 for 5%).</span>
        </label>
        <label>Volatility (sigma)
            <input type="number" name="volatility" step="any" value="{{.Volatility}}" required>
        </label>
        <label>Maturity (years)
            <input type="number" name="maturity" step="any" value="{{.Maturity}}" required>
        </label>
        <label>Steps per path
            <input type="number" name="steps" step="1" min="1" value="{{.Steps}}" required>
        </label>
        <label>Simulation paths
            <input type="number" name="paths" step="1" min="1" value="{{.Paths}}" required>
        </label>
        <label class="full">Payoff expression
            <input type="text" name="payoff" value="{{.Payoff}}" required>
            <span class="hint">Available: <code>S</code>, <code>path</code>, <code>max</code>,
            <code>min</code>, <code>abs</code>, <code>sum</code>, <code>len</code>,
            <code>exp</code>, <code>sqrt</code>, <code>log</code>, and <code>cond ? a : b</code>.</span>
        </label>
        <label>Seed (optional)
            <input type="number" name="seed" step="1" value="{{.Seed}}">
        </label>
        <div class="actions">
            <button type="submit">Price Option</button>
        </div>
    </form>
    {{if .Error}}<div class="error">{{.Error}}</div>{{end}}
    {{if .HasResult}}<div class="result">Estimated price: <strong>{{printf "%.6f" .Value}}</strong>
        (standard error {{printf "%.6f" .StandardError}})</div>{{end}}
</body>
</html>
`

var formTmpl = template.Must(template.New("form").Parse(formTemplate))

// formData carries form field values back into the template so the page
// round-trips the user's input.
type formData struct {
	Spot       string
	Rate       string
	Volatility string
	Maturity   string
	Steps      string
	Paths      string
	Payoff     string
	Seed       string

	Error         string
	HasResult     bool
	Value         float64
	StandardError float64
}

func (s *Server) defaultForm() formData {
	return formData{
		Spot:       "100",
		Rate:       "0.05",
		Volatility: "0.2",
		Maturity:   "1",
		Steps:      strconv.Itoa(s.cfg.Pricing.DefaultSteps),
		Paths:      strconv.Itoa(s.cfg.Pricing.DefaultPaths),
		Payoff:     "max(S - 100, 0)",
	}
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	data := s.defaultForm()
	if r.Method == http.MethodPost {
		data = s.priceForm(r)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTmpl.Execute(w, data); err != nil {
		s.logger.Error().Err(err).Msg("rendering form")
	}
}

// priceForm decodes the submitted form, runs the simulation and folds
// the outcome back into the page data.
func (s *Server) priceForm(r *http.Request) formData {
	data := formData{
		Spot:       r.FormValue("spot"),
		Rate:       r.FormValue("rate"),
		Volatility: r.FormValue("volatility"),
		Maturity:   r.FormValue("maturity"),
		Steps:      r.FormValue("steps"),
		Paths:      r.FormValue("paths"),
		Payoff:     r.FormValue("payoff"),
		Seed:       r.FormValue("seed"),
	}

	fail := func(err error) formData {
		data.Error = err.Error()
		return data
	}

	spot, err := parseFloat("spot", data.Spot)
	if err != nil {
		return fail(err)
	}
	rate, err := parseFloat("rate", data.Rate)
	if err != nil {
		return fail(err)
	}
	volatility, err := parseFloat("volatility", data.Volatility)
	if err != nil {
		return fail(err)
	}
	maturity, err := parseFloat("maturity", data.Maturity)
	if err != nil {
		return fail(err)
	}
	steps, err := parseInt("steps", data.Steps)
	if err != nil {
		return fail(err)
	}
	paths, err := parseInt("paths", data.Paths)
	if err != nil {
		return fail(err)
	}
	var seed *int64
	if data.Seed != "" {
		v, err := strconv.ParseInt(data.Seed, 10, 64)
		if err != nil {
			return fail(errors.NewParameterError("seed", data.Seed, "must be an integer"))
		}
		seed = &v
	}
	if steps > s.cfg.Pricing.MaxSteps {
		return fail(errors.NewParameterError("steps", steps, "exceeds server limit"))
	}
	if paths > s.cfg.Pricing.MaxPaths {
		return fail(errors.NewParameterError("paths", paths, "exceeds server limit"))
	}

	compiled, err := payoff.Compile(data.Payoff)
	if err != nil {
		return fail(err)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Server.RequestTimeout)
	defer cancel()

	start := time.Now()
	result, err := engine.PriceMonteCarlo(ctx,
		models.MarketParameters{Spot: spot, Rate: rate, Volatility: volatility},
		maturity,
		models.SimulationConfig{Steps: steps, Paths: paths, Seed: seed, Workers: s.cfg.Pricing.Workers},
		compiled,
	)
	if err != nil {
		return fail(err)
	}
	s.logger.Info().
		Int("paths", paths).
		Int("steps", steps).
		Dur("duration", time.Since(start)).
		Float64("value", result.Value).
		Msg("form pricing request")

	data.HasResult = true
	data.Value = result.Value
	if result.StandardError != nil {
		data.StandardError = *result.StandardError
	}
	return data
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.NewParameterError(field, s, "must be a number")
	}
	return v, nil
}

func parseInt(field, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.NewParameterError(field, s, "must be an integer")
	}
	return v, nil
}
