package engine

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"option-pricer/internal/errors"
	"option-pricer/internal/models"
)

// Payoff maps a simulated price path to its terminal cash value. The
// path includes the starting spot at index 0 and the terminal price at
// index steps. Implementations must not retain the slice: the simulator
// reuses each worker's buffer across paths.
type Payoff interface {
	Evaluate(path []float64) (float64, error)
}

// PayoffFunc adapts a plain function to the Payoff interface, the
// in-process "native" alternative to a compiled expression.
type PayoffFunc func(path []float64) (float64, error)

// Evaluate implements Payoff.
func (f PayoffFunc) Evaluate(path []float64) (float64, error) {
	return f(path)
}

// VanillaPayoff returns the native payoff of a European call or put on
// the terminal price.
func VanillaPayoff(kind models.OptionKind, strike float64) PayoffFunc {
	return func(path []float64) (float64, error) {
		return intrinsic(kind, strike, path[len(path)-1]), nil
	}
}

// chunkSize is the number of paths a worker claims at a time. The
// cancellation signal is checked between chunks.
const chunkSize = 1024

// chunkResult is one chunk's contribution to the aggregate. Partial
// sums are combined in chunk order after all workers finish, so the
// final reduction is independent of scheduling.
type chunkResult struct {
	sum   float64
	sumSq float64
	err   error
}

// PriceMonteCarlo estimates an option price by simulating geometric
// Brownian motion paths and averaging discounted payoffs. The reported
// standard error is the sample standard deviation of discounted payoffs
// divided by sqrt(paths).
//
// Each path draws from its own pseudo-random stream keyed by (seed, path
// index), so a seeded run reproduces bit-for-bit regardless of how paths
// are partitioned across workers. With no seed the stream key is drawn
// at random once per call.
func PriceMonteCarlo(ctx context.Context, market models.MarketParameters, maturity float64, cfg models.SimulationConfig, payoff Payoff) (models.PriceResult, error) {
	if err := market.Validate(); err != nil {
		return models.PriceResult{}, err
	}
	if maturity <= 0 {
		return models.PriceResult{}, errors.NewParameterError("maturity", maturity, "must be positive")
	}
	if err := cfg.Validate(); err != nil {
		return models.PriceResult{}, err
	}
	if payoff == nil {
		return models.PriceResult{}, errors.NewParameterError("payoff", nil, "must be supplied")
	}

	var seed uint64
	if cfg.Seed != nil {
		seed = uint64(*cfg.Seed)
	} else {
		seed = rand.Uint64()
	}

	dt := maturity / float64(cfg.Steps)
	drift := (market.Rate - 0.5*market.Volatility*market.Volatility) * dt
	diffusion := market.Volatility * math.Sqrt(dt)
	discount := math.Exp(-market.Rate * maturity)

	numChunks := (cfg.Paths + chunkSize - 1) / chunkSize
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > numChunks {
		workers = numChunks
	}

	results := make([]chunkResult, numChunks)
	chunks := make(chan int, numChunks)
	for i := 0; i < numChunks; i++ {
		chunks <- i
	}
	close(chunks)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// The path buffer is owned by this worker and reused
			// across its chunks.
			path := make([]float64, cfg.Steps+1)
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-chunks:
					if !ok {
						return
					}
					results[idx] = simulateChunk(idx, cfg.Paths, seed, market.Spot, drift, diffusion, discount, path, payoff)
				}
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return models.PriceResult{}, errors.Wrap(errors.ErrCancelled, err.Error())
	}

	var sum, sumSq float64
	for _, r := range results {
		if r.err != nil {
			return models.PriceResult{}, r.err
		}
		sum += r.sum
		sumSq += r.sumSq
	}

	n := float64(cfg.Paths)
	mean := sum / n
	variance := 0.0
	if cfg.Paths > 1 {
		variance = (sumSq - sum*sum/n) / (n - 1)
		if variance < 0 {
			variance = 0 // floating-point cancellation
		}
	}
	se := math.Sqrt(variance / n)
	return models.PriceResult{Value: mean, StandardError: &se}, nil
}

// simulateChunk generates and evaluates the paths of one chunk.
func simulateChunk(idx, totalPaths int, seed uint64, spot, drift, diffusion, discount float64, path []float64, payoff Payoff) chunkResult {
	lo := idx * chunkSize
	hi := lo + chunkSize
	if hi > totalPaths {
		hi = totalPaths
	}

	var res chunkResult
	for i := lo; i < hi; i++ {
		rng := rand.New(rand.NewPCG(seed, uint64(i)))
		price := spot
		path[0] = price
		for t := 1; t < len(path); t++ {
			price *= math.Exp(drift + diffusion*rng.NormFloat64())
			path[t] = price
		}
		v, err := payoff.Evaluate(path)
		if err != nil {
			res.err = err
			return res
		}
		x := discount * v
		res.sum += x
		res.sumSq += x * x
	}
	return res
}
