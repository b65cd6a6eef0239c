package repcode

import (
	"errors"
	"testing"

	"github.com/qubitlab/densecode/bitstring"
)

func mustBits(t *testing.T, s string) bitstring.Bits {
	t.Helper()
	b, err := bitstring.FromString(s)
	if err != nil {
		t.Fatalf("FromString(%q): %v", s, err)
	}
	return b
}

func mustMessage(t *testing.T, s string) bitstring.Message {
	t.Helper()
	m, err := bitstring.NewMessage(s)
	if err != nil {
		t.Fatalf("NewMessage(%q): %v", s, err)
	}
	return m
}

func TestEncode(t *testing.T) {
	tcs := []struct {
		msg  string
		ecw  string
	}{
		{"00", "0000"},
		{"01", "0011"},
		{"10", "1100"},
		{"11", "1111"},
	}
	for _, tc := range tcs {
		t.Run(tc.msg, func(t *testing.T) {
			cw := Encode(mustMessage(t, tc.msg))
			if got := cw.String(); got != tc.ecw {
				t.Errorf("Encode(%q) == %q, want %q", tc.msg, got, tc.ecw)
			}
			if cw.Size() != 2*bitstring.MessageLen {
				t.Errorf("codeword size == %d, want %d", cw.Size(), 2*bitstring.MessageLen)
			}
		})
	}
}

func TestNoiselessRoundTrip(t *testing.T) {
	for _, msg := range []string{"00", "01", "10", "11"} {
		m := mustMessage(t, msg)
		decoded, err := Decode(Encode(m))
		if err != nil {
			t.Fatalf("Decode(Encode(%q)): %v", msg, err)
		}
		if got := decoded.String(); got != msg {
			t.Errorf("Decode(Encode(%q)) == %q", msg, got)
		}
	}
}

// The pair tie-break falls back to the pair's first bit, so flipping
// the second bit of a pair is always survivable while flipping the
// first bit of a mixed pair is not. Enumerate the exact behavior.
func TestDecodeSingleFlip(t *testing.T) {
	tcs := []struct {
		name string
		cw   string
		eout string
	}{
		{"zero pair, second bit hit", "0001", "00"},
		{"zero pair, first bit hit", "0010", "01"},
		{"all zeros flipped at 0", "1000", "10"},
		{"all ones flipped at 0", "0111", "01"},
		{"all ones flipped at 1", "1011", "11"},
		{"all ones flipped at 3", "1110", "11"},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := Decode(mustBits(t, tc.cw))
			if err != nil {
				t.Fatalf("Decode(%q): %v", tc.cw, err)
			}
			if got := decoded.String(); got != tc.eout {
				t.Errorf("Decode(%q) == %q, want %q", tc.cw, got, tc.eout)
			}
		})
	}
}

// Every possible single-bit flip of every codeword, checked against the
// documented per-pair rule rather than a generic majority.
func TestDecodeSingleFlipExhaustive(t *testing.T) {
	decodePair := func(a, b bool) bool {
		if a && b {
			return true
		}
		return a // one or zero ones: first bit wins
	}
	for _, msg := range []string{"00", "01", "10", "11"} {
		m := mustMessage(t, msg)
		for flip := 0; flip < 4; flip++ {
			cw := Encode(m)
			cw.Flip(flip)
			decoded, err := Decode(cw)
			if err != nil {
				t.Fatalf("Decode(%v): %v", cw, err)
			}
			var want bitstring.Bits
			want.AppendBit(decodePair(cw.Get(0), cw.Get(1)))
			want.AppendBit(decodePair(cw.Get(2), cw.Get(3)))
			if !decoded.Equal(want) {
				t.Errorf("msg %q flip %d: Decode(%v) == %v, want %v", msg, flip, cw, decoded, want)
			}
		}
	}
}

func TestDecodeOddLength(t *testing.T) {
	_, err := Decode(mustBits(t, "011"))
	if !errors.Is(err, ErrInvalidCodewordLength) {
		t.Errorf("Decode of odd codeword err == %v, want ErrInvalidCodewordLength", err)
	}
}

func TestEfficiency(t *testing.T) {
	if got := Efficiency(2, 4); got != 0.5 {
		t.Errorf("Efficiency(2, 4) == %v, want 0.5", got)
	}
	if got := Efficiency(2, 1); got != 2.0 {
		t.Errorf("Efficiency(2, 1) == %v, want 2.0", got)
	}
}
