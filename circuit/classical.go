package circuit

import (
	"fmt"

	"github.com/qubitlab/densecode/bitstring"
	"github.com/qubitlab/densecode/repcode"
)

// A Stage is one populated step of the classical pipeline. Value is
// empty for stages that only mark an action (combining bits, checking
// parity).
type Stage struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Value string `json:"value,omitempty"`
}

// A Trace is the classical pipeline built up to some step. Stages holds
// only the steps that have happened; later stages are absent rather
// than zero-valued, so a renderer cannot show a step early. The
// endpoint fields hold the full pipeline values for callers that need
// them regardless of progress.
type Trace struct {
	Stages   []Stage        `json:"stages"`
	Encoded  bitstring.Bits `json:"-"`
	Received bitstring.Bits `json:"-"`
	Decoded  bitstring.Bits `json:"-"`
}

// BuildClassical derives the classical stage outputs for msg up to and
// including step upto. received is the codeword as it arrived at the
// decoder; pass the encoder's output unchanged for a noiseless channel.
func BuildClassical(msg bitstring.Message, upto int, received bitstring.Bits) (Trace, error) {
	if upto < 0 || upto > TotalClassicalSteps {
		return Trace{}, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidStepIndex, upto, TotalClassicalSteps)
	}
	if _, err := bitstring.NewMessage(msg.String()); err != nil {
		return Trace{}, err
	}
	encoded := repcode.Encode(msg)
	decoded, err := repcode.Decode(received)
	if err != nil {
		return Trace{}, err
	}

	tr := Trace{Encoded: encoded, Received: received, Decoded: decoded}
	add := func(step int, value string) {
		if upto >= step {
			tr.Stages = append(tr.Stages, Stage{Index: step, Title: ClassicalTitle(step), Value: value})
		}
	}
	add(1, msg.String())
	add(2, "")
	add(3, encoded.String())
	add(4, encoded.String())
	add(5, received.String())
	add(6, "")
	add(7, decoded.String())
	add(8, decoded.String())
	return tr, nil
}
