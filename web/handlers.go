package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/qubitlab/densecode"
	"github.com/qubitlab/densecode/bitstring"
	"github.com/qubitlab/densecode/circuit"
	"github.com/qubitlab/densecode/noise"
	"github.com/qubitlab/densecode/report"
	"github.com/qubitlab/densecode/sim"
)

// sessionView is the state summary returned by most mutating
// endpoints.
type sessionView struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Steps   struct {
		Quantum   int `json:"quantum"`
		Classical int `json:"classical"`
	} `json:"steps"`
	Noise struct {
		Enabled     bool    `json:"enabled"`
		Probability float64 `json:"probability"`
	} `json:"noise"`
	Sync bool `json:"sync"`
}

func viewOf(id string, s *densecode.Session) sessionView {
	var v sessionView
	v.ID = id
	v.Message = s.Message().String()
	v.Steps.Quantum, v.Steps.Classical = s.Steps()
	v.Noise.Enabled, v.Noise.Probability = s.Noise()
	v.Sync = s.SyncSteps()
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"service":  "densecode",
		"sessions": s.sessions.Len(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.sessions.Create(req.Message)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	var v sessionView
	_ = s.sessions.With(id, func(sess *densecode.Session) error {
		v = viewOf(id, sess)
		return nil
	})
	s.writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *densecode.Session) (any, error) {
		return viewOf(id, sess), nil
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withSession(w, r, func(id string, sess *densecode.Session) (any, error) {
		if err := sess.SetMessage(bitstring.Message(req.Message)); err != nil {
			return nil, err
		}
		return viewOf(id, sess), nil
	})
}

func (s *Server) handleSetNoise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled     bool    `json:"enabled"`
		Probability float64 `json:"probability"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withSession(w, r, func(id string, sess *densecode.Session) (any, error) {
		if err := sess.SetNoise(req.Enabled, req.Probability); err != nil {
			return nil, err
		}
		return viewOf(id, sess), nil
	})
}

func (s *Server) handleSetSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withSession(w, r, func(id string, sess *densecode.Session) (any, error) {
		sess.SetSyncSteps(req.Enabled)
		return viewOf(id, sess), nil
	})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string `json:"target"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withSession(w, r, func(id string, sess *densecode.Session) (any, error) {
		switch req.Target {
		case "quantum":
			sess.RestartQuantum()
		case "classical":
			sess.RestartClassical()
		case "both", "":
			sess.RestartBoth()
		default:
			return nil, fmt.Errorf("%w: unknown restart target %q", errBadRequest, req.Target)
		}
		return viewOf(id, sess), nil
	})
}

func (s *Server) handleQuantumNext(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *densecode.Session) (any, error) {
		sess.AdvanceQuantum()
		return viewOf(id, sess), nil
	})
}

func (s *Server) handleClassicalNext(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *densecode.Session) (any, error) {
		sess.AdvanceClassical()
		return viewOf(id, sess), nil
	})
}

func (s *Server) handleQuantumStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step int `json:"step"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withSession(w, r, func(id string, sess *densecode.Session) (any, error) {
		if err := sess.SetQuantumStep(req.Step); err != nil {
			return nil, err
		}
		return viewOf(id, sess), nil
	})
}

func (s *Server) handleClassicalStep(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Step int `json:"step"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.withSession(w, r, func(id string, sess *densecode.Session) (any, error) {
		if err := sess.SetClassicalStep(req.Step); err != nil {
			return nil, err
		}
		return viewOf(id, sess), nil
	})
}

func (s *Server) handleQuantumOps(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *densecode.Session) (any, error) {
		step, _ := sess.Steps()
		ops := sess.QuantumOps()
		return map[string]any{
			"step":  step,
			"title": circuit.QuantumTitle(step),
			"ops":   ops,
		}, nil
	})
}

func (s *Server) handleClassicalTrace(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *densecode.Session) (any, error) {
		tr, err := sess.ClassicalTrace()
		if err != nil {
			return nil, err
		}
		_, step := sess.Steps()
		return map[string]any{
			"step":   step,
			"stages": tr.Stages,
		}, nil
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(id string, sess *densecode.Session) (any, error) {
		return sess.EvaluateQuantum()
	})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	s.withSession(w, r, func(id string, sess *densecode.Session) (any, error) {
		res, err := sess.RunSweep(r.Context(), force, nil)
		if err != nil {
			return nil, err
		}
		return res, nil
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	id := chi.URLParam(r, "id")
	var snap report.Snapshot
	err := s.sessions.With(id, func(sess *densecode.Session) error {
		var err error
		snap, err = sess.Snapshot()
		return err
	})
	if err != nil {
		s.writeSessionError(w, err)
		return
	}

	var buf bytes.Buffer
	var writer report.Writer
	switch format {
	case "json":
		writer = report.NewJSONWriter(&buf)
		w.Header().Set("Content-Type", "application/json")
	case "markdown":
		writer = report.NewMarkdownWriter(&buf)
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown report format %q", format))
		return
	}
	if _, err := writer.Write(&snap); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log.Error().Err(err).Msg("Failed to write report response")
	}
}

// withSession resolves the session from the URL, runs fn under its
// lock, and writes either fn's result or a mapped error.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(string, *densecode.Session) (any, error)) {
	id := chi.URLParam(r, "id")
	var result any
	err := s.sessions.With(id, func(sess *densecode.Session) error {
		var err error
		result, err = fn(id, sess)
		return err
	})
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// errBadRequest marks handler-level validation failures.
var errBadRequest = errors.New("bad request")

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errBadRequest),
		errors.Is(err, bitstring.ErrInvalidMessageLength),
		errors.Is(err, noise.ErrInvalidProbability),
		errors.Is(err, circuit.ErrInvalidStepIndex):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sim.ErrSimulationUnavailable):
		s.writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody decodes a JSON request body into dst. An empty body is
// fine; every field has a zero-value meaning.
func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
