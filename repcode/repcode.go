// Package repcode implements the classical channel's repetition code:
// each message bit is transmitted twice, and decoding recovers the
// message by majority vote per pair.
package repcode

import (
	"errors"
	"fmt"

	"github.com/qubitlab/densecode/bitstring"
)

// ErrInvalidCodewordLength reports a decode input whose length is not a
// multiple of the repetition factor.
var ErrInvalidCodewordLength = errors.New("codeword length must be even")

// Encode duplicates each message bit in place: bit i lands in codeword
// positions 2i and 2i+1. Encoding is total and deterministic.
func Encode(m bitstring.Message) bitstring.Bits {
	mb := m.Bits()
	var cw bitstring.Bits
	for i := 0; i < mb.Size(); i++ {
		cw.AppendBit(mb.Get(i))
		cw.AppendBit(mb.Get(i))
	}
	return cw
}

// Decode recovers a bit string from a repetition codeword. Each
// consecutive pair votes: two ones decode to '1'; one or zero ones
// decode to the pair's first bit. The first-bit fallback is load
// bearing: it decides which single-flip corruptions still decode
// correctly, and the analytics curves depend on it.
func Decode(cw bitstring.Bits) (bitstring.Bits, error) {
	if cw.Size()%2 != 0 {
		return bitstring.Bits{}, fmt.Errorf("%w: got %d bits", ErrInvalidCodewordLength, cw.Size())
	}
	var out bitstring.Bits
	for i := 0; i < cw.Size(); i += 2 {
		ones := 0
		if cw.Get(i) {
			ones++
		}
		if cw.Get(i + 1) {
			ones++
		}
		if ones >= 2 {
			out.AppendBit(true)
		} else {
			out.AppendBit(cw.Get(i))
		}
	}
	return out, nil
}

// Efficiency returns information bits per physically transmitted bit.
func Efficiency(msgBits, sentBits int) float64 {
	return float64(msgBits) / float64(sentBits)
}
