// Package bitstring provides small ordered bit strings and the 2-bit
// messages exchanged over the compared channels.
package bitstring

import (
	"errors"
	"fmt"
)

// MessageLen is the payload size, in bits, of every message.
const MessageLen = 2

// ErrInvalidMessageLength reports a message that is not exactly
// MessageLen bits of '0' and '1'.
var ErrInvalidMessageLength = errors.New("message must be exactly 2 bits")

// A Bits is an ordered string of bits. The zero value is an empty
// string. Bits are stored unpacked; everything in this system is a
// handful of bits wide and renders as a string constantly.
type Bits struct {
	bits []byte
}

// FromString converts a string of '1's and '0's to a Bits. Spaces are
// ignored.
func FromString(s string) (Bits, error) {
	var b Bits
	for _, c := range s {
		switch c {
		case '1':
			b.AppendBit(true)
		case '0':
			b.AppendBit(false)
		case ' ':
			continue
		default:
			return Bits{}, fmt.Errorf("invalid bit string rep: %q", s)
		}
	}
	return b, nil
}

// Empty returns an empty bit string.
func Empty() Bits {
	return Bits{}
}

// Size returns the number of bits in b.
func (b Bits) Size() int {
	return len(b.bits)
}

// Get returns the i-th bit. Bits past the end read as zero.
func (b Bits) Get(i int) bool {
	if i < 0 || i >= len(b.bits) {
		return false
	}
	return b.bits[i] != 0
}

// String renders b as a string of '0's and '1's.
func (b Bits) String() string {
	out := make([]byte, len(b.bits))
	for i, v := range b.bits {
		out[i] = '0' + v
	}
	return string(out)
}

// CountOnes returns the total number of bits set in b.
func (b Bits) CountOnes() int {
	var sum int
	for _, v := range b.bits {
		sum += int(v)
	}
	return sum
}

// Equal returns true iff a and b contain the same bits.
func (b Bits) Equal(other Bits) bool {
	if len(b.bits) != len(other.bits) {
		return false
	}
	for i, v := range b.bits {
		if v != other.bits[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of b with its own backing storage.
func (b Bits) Clone() Bits {
	out := Bits{bits: make([]byte, len(b.bits))}
	copy(out.bits, b.bits)
	return out
}

// AppendBit adds a single bit to the end of b.
func (b *Bits) AppendBit(bit bool) {
	var v byte
	if bit {
		v = 1
	}
	b.bits = append(b.bits, v)
}

// Flip inverts the i-th bit in place.
func (b *Bits) Flip(i int) {
	b.bits[i] ^= 1
}

// A Message is the 2-bit payload to transmit, written first bit first:
// "10" has b1=1, b0=0. Messages are immutable values; choosing a new
// one is a session-level action.
type Message string

// NewMessage validates s as a 2-bit message.
func NewMessage(s string) (Message, error) {
	if len(s) != MessageLen {
		return "", fmt.Errorf("%w: got %d bits", ErrInvalidMessageLength, len(s))
	}
	for _, c := range s {
		if c != '0' && c != '1' {
			return "", fmt.Errorf("%w: invalid bit %q", ErrInvalidMessageLength, c)
		}
	}
	return Message(s), nil
}

// Bits converts m to a bit string.
func (m Message) Bits() Bits {
	b, _ := FromString(string(m))
	return b
}

// String implements fmt.Stringer.
func (m Message) String() string {
	return string(m)
}
