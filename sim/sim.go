// Package sim defines the quantum channel evaluator: the oracle
// contract for executing an operation sequence, and the rules for
// turning observed counts into a decoded message.
package sim

import (
	"errors"
	"fmt"

	"github.com/qubitlab/densecode/circuit"
)

// ErrSimulationUnavailable reports that no simulation oracle could
// execute a sequence.
var ErrSimulationUnavailable = errors.New("simulation oracle unavailable")

// A Distribution maps 2-bit measurement outcomes, first qubit 1 then
// qubit 0, to observed counts.
type Distribution map[string]int

// Shots returns the total number of observations in d.
func (d Distribution) Shots() int {
	var total int
	for _, n := range d {
		total += n
	}
	return total
}

// An Oracle executes a complete operation sequence shots times and
// reports outcome counts. Oracles may be remote or otherwise fallible;
// they signal that with an error, and callers arrange fallbacks.
type Oracle interface {
	Counts(seq circuit.Sequence, shots int) (Distribution, error)
}

// Evaluate runs seq on o and enforces the oracle contract: outcomes
// are 2-bit strings, counts are non-negative, and counts sum to shots.
// Evaluate never retries; composing oracles is the caller's business
// (see Fallback).
func Evaluate(o Oracle, seq circuit.Sequence, shots int) (Distribution, error) {
	if shots <= 0 {
		return nil, fmt.Errorf("shots must be positive: %d", shots)
	}
	d, err := o.Counts(seq, shots)
	if err != nil {
		return nil, err
	}
	total := 0
	for outcome, n := range d {
		if !isOutcome(outcome) {
			return nil, fmt.Errorf("oracle returned malformed outcome %q", outcome)
		}
		if n < 0 {
			return nil, fmt.Errorf("oracle returned negative count %d for %q", n, outcome)
		}
		total += n
	}
	if total != shots {
		return nil, fmt.Errorf("oracle counts sum to %d, want %d", total, shots)
	}
	return d, nil
}

// MostFrequent returns the channel's decoded message: the outcome with
// the highest count. Outcomes with equal counts resolve to the
// lexicographically smallest, so decoding stays deterministic even
// when the oracle's iteration order is not.
func MostFrequent(d Distribution) (string, error) {
	if len(d) == 0 {
		return "", errors.New("empty outcome distribution")
	}
	best, bestN := "", -1
	for outcome, n := range d {
		if n > bestN || (n == bestN && outcome < best) {
			best, bestN = outcome, n
		}
	}
	return best, nil
}

// A Fallback tries each oracle in order and returns the first success.
// It fails with ErrSimulationUnavailable only once every oracle has
// failed.
type Fallback []Oracle

// Counts implements the Oracle interface.
func (f Fallback) Counts(seq circuit.Sequence, shots int) (Distribution, error) {
	for _, o := range f {
		d, err := o.Counts(seq, shots)
		if err == nil {
			return d, nil
		}
	}
	return nil, ErrSimulationUnavailable
}

func isOutcome(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, c := range s {
		if c != '0' && c != '1' {
			return false
		}
	}
	return true
}
