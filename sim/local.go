package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/qubitlab/densecode/circuit"
)

// A Local is a two-qubit statevector oracle. It applies the gate
// sequence exactly and samples measurement outcomes from the resulting
// amplitudes, drawing from an injected random source.
//
// Amplitude indices put qubit 1 in the high bit: index 2 is |10>, i.e.
// qubit 1 measured 1, qubit 0 measured 0.
type Local struct {
	rand *rand.Rand
}

// NewLocal returns a statevector oracle sampling outcomes from r.
func NewLocal(r *rand.Rand) (*Local, error) {
	if r == nil {
		return nil, errors.New("must provide a random source")
	}
	return &Local{rand: r}, nil
}

// Counts implements the Oracle interface.
func (l *Local) Counts(seq circuit.Sequence, shots int) (Distribution, error) {
	state := [4]complex128{1, 0, 0, 0}
	for _, op := range seq {
		switch op.Kind {
		case circuit.Hadamard:
			if err := checkQubit(op.Target); err != nil {
				return nil, err
			}
			applyH(&state, op.Target)
		case circuit.PauliX:
			if err := checkQubit(op.Target); err != nil {
				return nil, err
			}
			applyX(&state, op.Target)
		case circuit.PauliZ:
			if err := checkQubit(op.Target); err != nil {
				return nil, err
			}
			applyZ(&state, op.Target)
		case circuit.CNot:
			if err := checkQubit(op.Target); err != nil {
				return nil, err
			}
			if err := checkQubit(op.Control); err != nil {
				return nil, err
			}
			if op.Control == op.Target {
				return nil, fmt.Errorf("CNOT with control == target == %d", op.Target)
			}
			applyCNot(&state, op.Control, op.Target)
		case circuit.Barrier, circuit.Measure:
			// Barriers are visual. Measurement happens once, below, by
			// sampling the final amplitudes.
		default:
			return nil, fmt.Errorf("unknown operation kind %q", op.Kind)
		}
	}

	var probs [4]float64
	for i, a := range state {
		probs[i] = real(a)*real(a) + imag(a)*imag(a)
	}
	d := make(Distribution)
	for s := 0; s < shots; s++ {
		d[outcomeString(sample(&probs, l.rand))]++
	}
	return d, nil
}

func checkQubit(q int) error {
	if q < 0 || q > 1 {
		return fmt.Errorf("qubit index %d outside two-qubit register", q)
	}
	return nil
}

func sample(probs *[4]float64, r *rand.Rand) int {
	x := r.Float64()
	acc := 0.0
	for i, p := range probs {
		acc += p
		if x < acc {
			return i
		}
	}
	// Float rounding can leave acc fractionally below 1.
	return 3
}

// outcomeString renders an amplitude index as "q1q0".
func outcomeString(idx int) string {
	return fmt.Sprintf("%d%d", (idx>>1)&1, idx&1)
}

func applyH(state *[4]complex128, q int) {
	mask := 1 << q
	invSqrt2 := complex(1/math.Sqrt2, 0)
	for i := 0; i < len(state); i++ {
		if i&mask != 0 {
			continue
		}
		a, b := state[i], state[i|mask]
		state[i] = (a + b) * invSqrt2
		state[i|mask] = (a - b) * invSqrt2
	}
}

func applyX(state *[4]complex128, q int) {
	mask := 1 << q
	for i := 0; i < len(state); i++ {
		if i&mask != 0 {
			continue
		}
		state[i], state[i|mask] = state[i|mask], state[i]
	}
}

func applyZ(state *[4]complex128, q int) {
	mask := 1 << q
	for i := 0; i < len(state); i++ {
		if i&mask != 0 {
			state[i] = -state[i]
		}
	}
}

func applyCNot(state *[4]complex128, control, target int) {
	cm, tm := 1<<control, 1<<target
	for i := 0; i < len(state); i++ {
		if i&cm == 0 || i&tm != 0 {
			continue
		}
		state[i], state[i|tm] = state[i|tm], state[i]
	}
}
