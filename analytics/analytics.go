// Package analytics estimates success probability versus noise level
// for both channels with Monte-Carlo trials, derives efficiency
// metrics, and caches complete sweeps per (message, runs) key.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/qubitlab/densecode/bitstring"
	"github.com/qubitlab/densecode/noise"
	"github.com/qubitlab/densecode/repcode"
)

// Reference sweep configuration.
const (
	DefaultRuns       = 800
	DefaultAxisPoints = 13
	DefaultAxisMax    = 0.3
)

// DefaultAxis returns the reference noise axis: a linear sweep from 0
// to 0.3 over 13 points.
func DefaultAxis() []float64 {
	return floats.Span(make([]float64, DefaultAxisPoints), 0, DefaultAxisMax)
}

// A Key identifies one cached sweep.
type Key struct {
	Message string
	Runs    int
}

// A Result holds one complete sweep: the noise axis, the estimated
// success curves, and the derived efficiency metrics.
type Result struct {
	Axis                []float64 `json:"ps"`
	Classical           []float64 `json:"classical_success"`
	Quantum             []float64 `json:"quantum_success"`
	ClassicalEfficiency float64   `json:"classical_efficiency"`
	QuantumEfficiency   float64   `json:"quantum_efficiency"`
}

// A Progress callback is invoked after each completed axis point.
type Progress func(done, total int)

// An Engine runs Monte-Carlo sweeps and caches them. It is not safe
// for concurrent use; callers serialize access, the same way they do
// for sessions.
type Engine struct {
	rand  *rand.Rand
	cache map[Key]Result
}

// New returns an Engine drawing trial randomness from r.
func New(r *rand.Rand) (*Engine, error) {
	if r == nil {
		return nil, errors.New("must provide a random source")
	}
	return &Engine{rand: r, cache: make(map[Key]Result)}, nil
}

// Cached returns the cached sweep for key, if one exists.
func (e *Engine) Cached(key Key) (Result, bool) {
	r, ok := e.cache[key]
	return r, ok
}

// Run returns the cached sweep for (msg, runs) when one exists and
// force is unset. Otherwise it recomputes and replaces the cache entry
// wholesale; entries are never merged or partially updated.
func (e *Engine) Run(ctx context.Context, msg bitstring.Message, axis []float64, runs int, force bool, progress Progress) (Result, error) {
	key := Key{Message: msg.String(), Runs: runs}
	if !force {
		if r, ok := e.cache[key]; ok {
			return r, nil
		}
	}
	r, err := e.Sweep(ctx, msg, axis, runs, progress)
	if err != nil {
		return Result{}, err
	}
	e.cache[key] = r
	return r, nil
}

// Sweep estimates, for every p on axis, the probability that each
// channel recovers msg after independent bit-flip noise at level p,
// using runs trials per point.
//
// The quantum trial is a deliberate approximation: the ideal channel
// is assumed to decode msg perfectly and the bit-flip model is applied
// to that ideal result. It measures whether post-decode noise corrupts
// the answer, not a physically faithful qubit error channel.
//
// Sweep reports progress after each axis point and checks ctx between
// points only; it never aborts mid-point.
func (e *Engine) Sweep(ctx context.Context, msg bitstring.Message, axis []float64, runs int, progress Progress) (Result, error) {
	if runs < 1 {
		return Result{}, fmt.Errorf("runs per point must be at least 1: %d", runs)
	}
	if len(axis) == 0 {
		return Result{}, errors.New("empty noise axis")
	}
	if _, err := bitstring.NewMessage(msg.String()); err != nil {
		return Result{}, err
	}

	res := Result{
		Axis:      append([]float64(nil), axis...),
		Classical: make([]float64, 0, len(axis)),
		Quantum:   make([]float64, 0, len(axis)),
	}
	msgBits := msg.Bits()
	for i, p := range axis {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		ch, err := noise.New(p, e.rand)
		if err != nil {
			return Result{}, err
		}
		correctC, correctQ := 0, 0
		for trial := 0; trial < runs; trial++ {
			received := ch.Apply(repcode.Encode(msg))
			decoded, err := repcode.Decode(received)
			if err != nil {
				return Result{}, err
			}
			if decoded.Equal(msgBits) {
				correctC++
			}

			if ch.Apply(msgBits).Equal(msgBits) {
				correctQ++
			}
		}
		res.Classical = append(res.Classical, float64(correctC)/float64(runs))
		res.Quantum = append(res.Quantum, float64(correctQ)/float64(runs))
		if progress != nil {
			progress(i+1, len(axis))
		}
	}

	codeword := repcode.Encode(msg)
	res.ClassicalEfficiency = repcode.Efficiency(msgBits.Size(), codeword.Size())
	// One qubit physically carries the whole 2-bit message.
	res.QuantumEfficiency = repcode.Efficiency(msgBits.Size(), 1)
	return res, nil
}
