// Package circuit builds the stepwise pipelines of the two channels:
// the superdense protocol's gate sequence and the classical pipeline's
// stage outputs. Builders re-derive the full prefix from scratch on
// every call; there is no incremental builder state, so stepping
// backwards or replaying is just a call with a smaller step index.
package circuit

import (
	"errors"
	"fmt"

	"github.com/qubitlab/densecode/bitstring"
)

// ErrInvalidStepIndex reports a step index outside a pipeline's range.
var ErrInvalidStepIndex = errors.New("step index out of range")

// A Kind names a quantum operation.
type Kind string

const (
	Hadamard Kind = "H"
	CNot     Kind = "CX"
	PauliX   Kind = "X"
	PauliZ   Kind = "Z"
	Barrier  Kind = "BARRIER"
	Measure  Kind = "MEASURE"
)

// An Op is a single quantum operation. Target and Control are qubit
// indices; Control is -1 for everything but CNot, and Target is -1 for
// barriers.
type Op struct {
	Kind    Kind `json:"kind"`
	Target  int  `json:"target"`
	Control int  `json:"control"`
}

// A Sequence is an ordered list of quantum operations. Sequences built
// for increasing step indices are strict prefixes of one another.
type Sequence []Op

// Stage totals for the two pipelines.
const (
	TotalQuantumSteps   = 9
	TotalClassicalSteps = 8
)

var quantumTitles = [TotalQuantumSteps + 1]string{
	1: "Apply H on qubit 1",
	2: "Create Bell pair with CNOT (control 1, target 0)",
	3: "Barrier (separate entanglement and encoding)",
	4: "Encoding: apply X on qubit 1 if the second message bit is 1",
	5: "Encoding: apply Z on qubit 1 if the first message bit is 1",
	6: "Barrier (Alice's qubit travels to Bob)",
	7: "Decoding: Bob applies CNOT (control 1, target 0)",
	8: "Decoding: Bob applies H on qubit 1",
	9: "Measure both qubits",
}

var classicalTitles = [TotalClassicalSteps + 1]string{
	1: "Input: original 2-bit message",
	2: "Encoding: combine bits into a codeword",
	3: "Encoding: apply the repetition code",
	4: "Transmitting encoded bits over the channel",
	5: "Receiving encoded bits",
	6: "Decoding: check for errors (parity)",
	7: "Decoding: correct errors if any",
	8: "Output: decoded 2-bit message",
}

// QuantumTitle returns the display title of a quantum stage, or "" for
// an out-of-range step.
func QuantumTitle(step int) string {
	if step < 1 || step > TotalQuantumSteps {
		return ""
	}
	return quantumTitles[step]
}

// ClassicalTitle returns the display title of a classical stage, or ""
// for an out-of-range step.
func ClassicalTitle(step int) string {
	if step < 1 || step > TotalClassicalSteps {
		return ""
	}
	return classicalTitles[step]
}

// BuildQuantum derives the operation sequence for msg up to and
// including step upto. Alice's qubit is qubit 1. The encoding
// conditionals key off the message bits: X on the second bit, Z on the
// first.
func BuildQuantum(msg bitstring.Message, upto int) (Sequence, error) {
	if upto < 0 || upto > TotalQuantumSteps {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidStepIndex, upto, TotalQuantumSteps)
	}
	if _, err := bitstring.NewMessage(msg.String()); err != nil {
		return nil, err
	}
	var seq Sequence
	if upto >= 1 {
		seq = append(seq, Op{Kind: Hadamard, Target: 1, Control: -1})
	}
	if upto >= 2 {
		seq = append(seq, Op{Kind: CNot, Target: 0, Control: 1})
	}
	if upto >= 3 {
		seq = append(seq, Op{Kind: Barrier, Target: -1, Control: -1})
	}
	if upto >= 4 && msg[1] == '1' {
		seq = append(seq, Op{Kind: PauliX, Target: 1, Control: -1})
	}
	if upto >= 5 && msg[0] == '1' {
		seq = append(seq, Op{Kind: PauliZ, Target: 1, Control: -1})
	}
	if upto >= 6 {
		seq = append(seq, Op{Kind: Barrier, Target: -1, Control: -1})
	}
	if upto >= 7 {
		seq = append(seq, Op{Kind: CNot, Target: 0, Control: 1})
	}
	if upto >= 8 {
		seq = append(seq, Op{Kind: Hadamard, Target: 1, Control: -1})
	}
	if upto >= 9 {
		seq = append(seq,
			Op{Kind: Measure, Target: 0, Control: -1},
			Op{Kind: Measure, Target: 1, Control: -1})
	}
	return seq, nil
}
