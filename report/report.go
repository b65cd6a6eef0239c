// Package report exports a session's state as JSON or Markdown.
package report

import (
	"github.com/qubitlab/densecode/analytics"
	"github.com/qubitlab/densecode/circuit"
	"github.com/qubitlab/densecode/sim"
)

// A Snapshot is a read-only view of one comparison session, suitable
// for serialization. Quantum and Analytics are nil until the
// corresponding results exist.
type Snapshot struct {
	Message   string            `json:"message"`
	Classical ClassicalState    `json:"classical"`
	Stages    []circuit.Stage   `json:"stages"`
	Quantum   *QuantumState     `json:"quantum,omitempty"`
	Noise     NoiseState        `json:"noise"`
	Analytics *analytics.Result `json:"analytics,omitempty"`
}

// ClassicalState holds the endpoints of the classical pipeline.
type ClassicalState struct {
	Encoded  string `json:"encoded"`
	Received string `json:"received"`
	Decoded  string `json:"decoded"`
}

// QuantumState holds the outcome of a completed quantum evaluation.
type QuantumState struct {
	Counts       sim.Distribution `json:"counts"`
	MostFrequent string           `json:"most_frequent"`
	Decoded      string           `json:"decoded"`
}

// NoiseState records the noise setting the snapshot was taken under.
type NoiseState struct {
	Enabled     bool    `json:"enabled"`
	Probability float64 `json:"probability"`
}
