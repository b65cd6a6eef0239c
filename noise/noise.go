// Package noise models a binary symmetric channel: each transmitted
// bit is flipped independently with a fixed probability. This is the
// simplified educational noise model both channels share; it is not a
// density-matrix channel.
package noise

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/qubitlab/densecode/bitstring"
)

// ErrInvalidProbability reports a flip probability outside [0, 1].
var ErrInvalidProbability = errors.New("flip probability must be in [0, 1]")

// A Channel corrupts bit strings with independent per-bit flips. The
// caller provides the randomness source; every application consumes
// entropy from it.
type Channel struct {
	p    float64
	rand *rand.Rand
}

// New returns a Channel that flips each bit with probability p, drawing
// randomness from r.
func New(p float64, r *rand.Rand) (*Channel, error) {
	if err := ValidateP(p); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, errors.New("must provide a random source")
	}
	return &Channel{p: p, rand: r}, nil
}

// ValidateP checks that p is a probability.
func ValidateP(p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}
	return nil
}

// P returns the channel's per-bit flip probability.
func (c *Channel) P() float64 {
	return c.p
}

// Apply returns a copy of b in which each bit has been flipped
// independently with probability p. p=0 leaves every bit untouched and
// p=1 flips every bit, whatever the state of the random source.
func (c *Channel) Apply(b bitstring.Bits) bitstring.Bits {
	out := b.Clone()
	for i := 0; i < out.Size(); i++ {
		if c.rand.Float64() < c.p {
			out.Flip(i)
		}
	}
	return out
}
