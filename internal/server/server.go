// Package server exposes the pricing engine over HTTP: a small form
// front-end for browsers and a JSON API. It decodes request parameters
// into the engine's typed structures and maps engine errors to statuses;
// all numerical work stays in the engine.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"option-pricer/internal/config"
	"option-pricer/internal/engine"
	"option-pricer/internal/errors"
	"option-pricer/internal/logging"
	"option-pricer/internal/models"
	"option-pricer/internal/payoff"
)

// Server is the HTTP front-end for the pricing engine.
type Server struct {
	cfg    *config.Config
	logger zerolog.Logger
	http   *http.Server
}

// New creates a server bound to the configured address.
func New(cfg *config.Config, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		logger: logger.With().Str("component", "server").Logger(),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/price", s.handleForm).Methods(http.MethodGet, http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/price", s.handlePrice).Methods(http.MethodPost)
	api.HandleFunc("/payoff/validate", s.handleValidatePayoff).Methods(http.MethodPost)

	s.http = &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 10*time.Second,
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe starts the server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("address", s.http.Addr).Msg("HTTP server listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/price", http.StatusFound)
}

// priceRequest is the JSON body of POST /api/price.
type priceRequest struct {
	Model      string  `json:"model"` // "lattice" or "montecarlo"
	Spot       float64 `json:"spot"`
	Rate       float64 `json:"rate"`
	Volatility float64 `json:"volatility"`
	Maturity   float64 `json:"maturity"`

	// Lattice only.
	Kind   string  `json:"kind,omitempty"`
	Strike float64 `json:"strike,omitempty"`

	Steps int `json:"steps,omitempty"`

	// Monte Carlo only.
	Paths  int    `json:"paths,omitempty"`
	Payoff string `json:"payoff,omitempty"`
	Seed   *int64 `json:"seed,omitempty"`
}

type priceResponse struct {
	Model         string   `json:"model"`
	Value         float64  `json:"value"`
	StandardError *float64 `json:"standard_error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON: " + err.Error()})
		return
	}

	result, err := s.price(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, priceResponse{
		Model:         req.Model,
		Value:         result.Value,
		StandardError: result.StandardError,
	})
}

// price dispatches a decoded request to the engine.
func (s *Server) price(ctx context.Context, req priceRequest) (models.PriceResult, error) {
	market := models.MarketParameters{
		Spot:       req.Spot,
		Rate:       req.Rate,
		Volatility: req.Volatility,
	}

	switch req.Model {
	case "lattice":
		kind, err := models.ParseOptionKind(req.Kind)
		if err != nil {
			return models.PriceResult{}, err
		}
		steps := req.Steps
		if steps == 0 {
			steps = s.cfg.Pricing.DefaultSteps
		}
		if steps > s.cfg.Pricing.MaxSteps {
			return models.PriceResult{}, errors.NewParameterError("steps", steps, "exceeds server limit")
		}
		option := models.OptionSpec{Kind: kind, Strike: req.Strike, Maturity: req.Maturity}
		value, err := engine.PriceLattice(market, option, models.LatticeConfig{Steps: steps})
		if err != nil {
			return models.PriceResult{}, err
		}
		logging.LogLattice(s.logger, steps, value)
		return models.PriceResult{Value: value}, nil

	case "montecarlo":
		compiled, err := payoff.Compile(req.Payoff)
		if err != nil {
			return models.PriceResult{}, err
		}
		cfg := models.SimulationConfig{
			Steps:   req.Steps,
			Paths:   req.Paths,
			Seed:    req.Seed,
			Workers: s.cfg.Pricing.Workers,
		}
		if cfg.Steps == 0 {
			cfg.Steps = s.cfg.Pricing.DefaultSteps
		}
		if cfg.Paths == 0 {
			cfg.Paths = s.cfg.Pricing.DefaultPaths
		}
		if cfg.Steps > s.cfg.Pricing.MaxSteps {
			return models.PriceResult{}, errors.NewParameterError("steps", cfg.Steps, "exceeds server limit")
		}
		if cfg.Paths > s.cfg.Pricing.MaxPaths {
			return models.PriceResult{}, errors.NewParameterError("paths", cfg.Paths, "exceeds server limit")
		}

		ctx, cancel := context.WithTimeout(ctx, s.cfg.Server.RequestTimeout)
		defer cancel()

		start := time.Now()
		result, err := engine.PriceMonteCarlo(ctx, market, req.Maturity, cfg, compiled)
		if err != nil {
			return models.PriceResult{}, err
		}
		logging.LogSimulation(s.logger, cfg.Paths, cfg.Steps, cfg.Workers, time.Since(start), result.Value)
		return result, nil

	default:
		return models.PriceResult{}, errors.NewParameterError("model", req.Model, "must be 'lattice' or 'montecarlo'")
	}
}

// validateRequest is the JSON body of POST /api/payoff/validate.
type validateRequest struct {
	Payoff string `json:"payoff"`
}

type validateResponse struct {
	Valid        bool `json:"valid"`
	UsesTerminal bool `json:"uses_terminal,omitempty"`
	UsesPath     bool `json:"uses_path,omitempty"`
}

// handleValidatePayoff lets a caller check an expression before paying
// for a long simulation.
func (s *Server) handleValidatePayoff(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON: " + err.Error()})
		return
	}
	compiled, err := payoff.Compile(req.Payoff)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{
		Valid:        true,
		UsesTerminal: compiled.UsesTerminal(),
		UsesPath:     compiled.UsesPath(),
	})
}

// writeError maps engine error kinds onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrInvalidParameter),
		errors.Is(err, errors.ErrSyntax),
		errors.Is(err, errors.ErrEvaluation):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrDegenerateLattice):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrCancelled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("pricing request failed")
	} else {
		s.logger.Debug().Err(err).Msg("pricing request rejected")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
