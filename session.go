// Package densecode compares two ways of transmitting a 2-bit message:
// an idealized superdense-coding channel and a classical repetition
// code, under a configurable bit-flip noise model, with Monte-Carlo
// analytics over a noise sweep.
package densecode

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/qubitlab/densecode/analytics"
	"github.com/qubitlab/densecode/bitstring"
	"github.com/qubitlab/densecode/circuit"
	"github.com/qubitlab/densecode/noise"
	"github.com/qubitlab/densecode/repcode"
	"github.com/qubitlab/densecode/report"
	"github.com/qubitlab/densecode/sim"
)

// Defaults applied by NewSession.
var (
	DefaultMessage = bitstring.Message("00")
	DefaultShots   = 1024
	DefaultRuns    = analytics.DefaultRuns
)

// processRand backs sessions that do not inject their own source.
var processRand = rand.New(rand.NewSource(time.Now().UnixNano()))

// A SessionOpts packages together the arguments necessary to construct
// a new Session. Every field has a usable default.
type SessionOpts struct {
	// Message selects the initial 2-bit payload. Defaults to "00".
	Message bitstring.Message

	// Rand provides the randomness consumed by noise injection and, for
	// the default oracle, outcome sampling. Defaults to a process-wide
	// source; tests requiring determinism must inject a seeded one.
	Rand *rand.Rand

	// Oracle executes quantum operation sequences. Defaults to the
	// bundled statevector oracle. Callers with external backends pass a
	// sim.Fallback chain here.
	Oracle sim.Oracle

	// Shots is the number of circuit executions per quantum evaluation.
	// Defaults to DefaultShots.
	Shots int

	// Axis is the noise sweep axis for analytics. Defaults to
	// analytics.DefaultAxis.
	Axis []float64

	// Runs is the Monte-Carlo trial count per axis point. Defaults to
	// DefaultRuns.
	Runs int

	// SyncSteps advances both pipelines together on every next action.
	SyncSteps bool
}

// A Session holds all state for one comparison run: the chosen
// message, the noise setting, both step counters, and cached
// analytics. Sessions are single-threaded; callers serialize access.
type Session struct {
	msg       bitstring.Message
	noiseOn   bool
	noiseP    float64
	stepQ     int
	stepC     int
	syncSteps bool
	shots     int
	axis      []float64
	runs      int
	rand      *rand.Rand
	oracle    sim.Oracle
	engine    *analytics.Engine
}

// NewSession returns a Session configured per opts, or an error if the
// options are nonsensical.
func NewSession(opts SessionOpts) (*Session, error) {
	msg := opts.Message
	if msg == "" {
		msg = DefaultMessage
	}
	if _, err := bitstring.NewMessage(msg.String()); err != nil {
		return nil, err
	}
	r := opts.Rand
	if r == nil {
		r = processRand
	}
	shots := opts.Shots
	if shots == 0 {
		shots = DefaultShots
	}
	if shots < 0 {
		return nil, fmt.Errorf("shots must be positive: %d", shots)
	}
	runs := opts.Runs
	if runs == 0 {
		runs = DefaultRuns
	}
	if runs < 0 {
		return nil, fmt.Errorf("runs must be positive: %d", runs)
	}
	axis := opts.Axis
	if len(axis) == 0 {
		axis = analytics.DefaultAxis()
	}
	for _, p := range axis {
		if err := noise.ValidateP(p); err != nil {
			return nil, err
		}
	}
	oracle := opts.Oracle
	if oracle == nil {
		local, err := sim.NewLocal(r)
		if err != nil {
			return nil, err
		}
		oracle = local
	}
	engine, err := analytics.New(r)
	if err != nil {
		return nil, err
	}
	return &Session{
		msg:       msg,
		syncSteps: opts.SyncSteps,
		shots:     shots,
		axis:      append([]float64(nil), axis...),
		runs:      runs,
		rand:      r,
		oracle:    oracle,
		engine:    engine,
	}, nil
}

// Message returns the currently selected payload.
func (s *Session) Message() bitstring.Message {
	return s.msg
}

// SetMessage selects a new payload and resets both step counters.
// Cached sweeps survive; they are keyed by message, so stale entries
// simply stop matching.
func (s *Session) SetMessage(m bitstring.Message) error {
	if _, err := bitstring.NewMessage(m.String()); err != nil {
		return err
	}
	if m == s.msg {
		return nil
	}
	s.msg = m
	s.stepQ, s.stepC = 0, 0
	return nil
}

// SetNoise configures the bit-flip channel applied to transmissions.
func (s *Session) SetNoise(enabled bool, p float64) error {
	if err := noise.ValidateP(p); err != nil {
		return err
	}
	s.noiseOn, s.noiseP = enabled, p
	return nil
}

// Noise reports whether noise is enabled and at what level.
func (s *Session) Noise() (enabled bool, p float64) {
	return s.noiseOn, s.noiseP
}

// SetSyncSteps toggles synchronized advancement of the two pipelines.
func (s *Session) SetSyncSteps(on bool) {
	s.syncSteps = on
}

// SyncSteps reports whether synchronized advancement is active.
func (s *Session) SyncSteps() bool {
	return s.syncSteps
}

// Steps returns the current step counters.
func (s *Session) Steps() (quantum, classical int) {
	return s.stepQ, s.stepC
}

// AdvanceQuantum advances the quantum pipeline by one step, clamped to
// its total. In sync mode the classical counter advances too, clamped
// to its own total. Returns the new quantum step.
func (s *Session) AdvanceQuantum() int {
	s.stepQ = clamp(s.stepQ+1, circuit.TotalQuantumSteps)
	if s.syncSteps {
		s.stepC = clamp(s.stepC+1, circuit.TotalClassicalSteps)
	}
	return s.stepQ
}

// AdvanceClassical advances the classical pipeline by one step, with
// the same clamping and sync behavior as AdvanceQuantum.
func (s *Session) AdvanceClassical() int {
	s.stepC = clamp(s.stepC+1, circuit.TotalClassicalSteps)
	if s.syncSteps {
		s.stepQ = clamp(s.stepQ+1, circuit.TotalQuantumSteps)
	}
	return s.stepC
}

// SetQuantumStep jumps the quantum pipeline to step k.
func (s *Session) SetQuantumStep(k int) error {
	if k < 0 || k > circuit.TotalQuantumSteps {
		return fmt.Errorf("%w: %d not in [0, %d]", circuit.ErrInvalidStepIndex, k, circuit.TotalQuantumSteps)
	}
	s.stepQ = k
	return nil
}

// SetClassicalStep jumps the classical pipeline to step k.
func (s *Session) SetClassicalStep(k int) error {
	if k < 0 || k > circuit.TotalClassicalSteps {
		return fmt.Errorf("%w: %d not in [0, %d]", circuit.ErrInvalidStepIndex, k, circuit.TotalClassicalSteps)
	}
	s.stepC = k
	return nil
}

// RestartQuantum resets the quantum pipeline to the beginning.
func (s *Session) RestartQuantum() {
	s.stepQ = 0
}

// RestartClassical resets the classical pipeline to the beginning.
func (s *Session) RestartClassical() {
	s.stepC = 0
}

// RestartBoth resets both pipelines.
func (s *Session) RestartBoth() {
	s.stepQ, s.stepC = 0, 0
}

// QuantumOps returns the operation sequence for the current quantum
// step.
func (s *Session) QuantumOps() circuit.Sequence {
	seq, _ := circuit.BuildQuantum(s.msg, s.stepQ) // counters stay in range
	return seq
}

// ClassicalTrace rebuilds the classical pipeline up to the current
// step, corrupting the transmitted codeword when noise is enabled.
// With noise enabled, every rebuild draws fresh entropy.
func (s *Session) ClassicalTrace() (circuit.Trace, error) {
	encoded := repcode.Encode(s.msg)
	received := encoded
	if s.noiseOn {
		ch, err := noise.New(s.noiseP, s.rand)
		if err != nil {
			return circuit.Trace{}, err
		}
		received = ch.Apply(encoded)
	}
	return circuit.BuildClassical(s.msg, s.stepC, received)
}

// An Evaluation is the outcome of running the complete quantum
// protocol through the oracle.
type Evaluation struct {
	Counts       sim.Distribution `json:"counts"`
	MostFrequent string           `json:"most_frequent"`
	Decoded      string           `json:"decoded"`
}

// EvaluateQuantum runs the full operation sequence through the
// session's oracle and decodes by most-frequent outcome. With noise
// enabled the decoded string additionally passes through the
// measurement bit-flip model, so Decoded may differ from MostFrequent.
func (s *Session) EvaluateQuantum() (Evaluation, error) {
	seq, err := circuit.BuildQuantum(s.msg, circuit.TotalQuantumSteps)
	if err != nil {
		return Evaluation{}, err
	}
	counts, err := sim.Evaluate(s.oracle, seq, s.shots)
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluating quantum channel: %w", err)
	}
	mf, err := sim.MostFrequent(counts)
	if err != nil {
		return Evaluation{}, err
	}
	decoded := mf
	if s.noiseOn {
		ch, err := noise.New(s.noiseP, s.rand)
		if err != nil {
			return Evaluation{}, err
		}
		bits, err := bitstring.FromString(mf)
		if err != nil {
			return Evaluation{}, err
		}
		decoded = ch.Apply(bits).String()
	}
	return Evaluation{Counts: counts, MostFrequent: mf, Decoded: decoded}, nil
}

// RunSweep returns Monte-Carlo success curves for the current message
// and run count, reusing the cached entry unless force is set.
func (s *Session) RunSweep(ctx context.Context, force bool, progress analytics.Progress) (analytics.Result, error) {
	return s.engine.Run(ctx, s.msg, s.axis, s.runs, force, progress)
}

// CachedSweep returns the cached sweep for the current message and run
// count, if one exists.
func (s *Session) CachedSweep() (analytics.Result, bool) {
	return s.engine.Cached(analytics.Key{Message: s.msg.String(), Runs: s.runs})
}

// Snapshot captures the session for export: the classical pipeline
// endpoints, the quantum evaluation if the quantum pipeline has
// completed, and the cached analytics if any. The snapshot is a
// read-only copy.
func (s *Session) Snapshot() (report.Snapshot, error) {
	tr, err := s.ClassicalTrace()
	if err != nil {
		return report.Snapshot{}, err
	}
	snap := report.Snapshot{
		Message: s.msg.String(),
		Classical: report.ClassicalState{
			Encoded:  tr.Encoded.String(),
			Received: tr.Received.String(),
			Decoded:  tr.Decoded.String(),
		},
		Stages: tr.Stages,
		Noise: report.NoiseState{
			Enabled:     s.noiseOn,
			Probability: s.noiseP,
		},
	}
	if s.stepQ >= circuit.TotalQuantumSteps {
		ev, err := s.EvaluateQuantum()
		if err != nil {
			return report.Snapshot{}, err
		}
		snap.Quantum = &report.QuantumState{
			Counts:       ev.Counts,
			MostFrequent: ev.MostFrequent,
			Decoded:      ev.Decoded,
		}
	}
	if res, ok := s.CachedSweep(); ok {
		snap.Analytics = &res
	}
	return snap, nil
}

func clamp(v, max int) int {
	if v > max {
		return max
	}
	return v
}
