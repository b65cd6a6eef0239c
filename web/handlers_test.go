package web

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/qubitlab/densecode"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	mgr := NewManager(densecode.SessionOpts{
		Rand:  rand.New(rand.NewSource(7)),
		Shots: 128,
		Axis:  []float64{0, 0.2},
		Runs:  40,
	})
	return New(Config{
		Port:    0,
		Log:     zerolog.Nop(),
		Manager: mgr,
	})
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func createSession(t *testing.T, s *Server, msg string) string {
	t.Helper()
	var body map[string]string
	if msg != "" {
		body = map[string]string{"message": msg}
	}
	rec := do(t, s, http.MethodPost, "/api/sessions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}
	var v sessionView
	decode(t, rec, &v)
	if v.ID == "" {
		t.Fatal("create returned an empty session ID")
	}
	return v.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health returned %d", rec.Code)
	}
	var body map[string]any
	decode(t, rec, &body)
	if body["status"] != "healthy" {
		t.Errorf("status = %v, expected healthy", body["status"])
	}
}

func TestCreateAndGetSession(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "10")

	rec := do(t, s, http.MethodGet, "/api/sessions/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get returned %d", rec.Code)
	}
	var v sessionView
	decode(t, rec, &v)
	if v.Message != "10" {
		t.Errorf("message = %q, expected %q", v.Message, "10")
	}
	if v.Steps.Quantum != 0 || v.Steps.Classical != 0 {
		t.Errorf("fresh session at steps (%d, %d)", v.Steps.Quantum, v.Steps.Classical)
	}
}

func TestCreateSessionBadMessage(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/sessions", map[string]string{"message": "abc"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("create with bad message returned %d, expected 400", rec.Code)
	}
}

func TestUnknownSession(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/sessions/no-such-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown session returned %d, expected 404", rec.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "")

	rec := do(t, s, http.MethodDelete, "/api/sessions/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete returned %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/sessions/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted session still reachable: %d", rec.Code)
	}
}

func TestSetMessageAndNoise(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "")

	rec := do(t, s, http.MethodPost, "/api/sessions/"+id+"/message", map[string]string{"message": "11"})
	if rec.Code != http.StatusOK {
		t.Fatalf("set message returned %d: %s", rec.Code, rec.Body.String())
	}
	var v sessionView
	decode(t, rec, &v)
	if v.Message != "11" {
		t.Errorf("message = %q, expected %q", v.Message, "11")
	}

	rec = do(t, s, http.MethodPost, "/api/sessions/"+id+"/noise",
		map[string]any{"enabled": true, "probability": 0.15})
	if rec.Code != http.StatusOK {
		t.Fatalf("set noise returned %d: %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &v)
	if !v.Noise.Enabled || v.Noise.Probability != 0.15 {
		t.Errorf("noise = %+v, expected enabled at 0.15", v.Noise)
	}

	rec = do(t, s, http.MethodPost, "/api/sessions/"+id+"/noise",
		map[string]any{"enabled": true, "probability": 1.5})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range probability returned %d, expected 400", rec.Code)
	}
}

func TestStepControls(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "")

	var v sessionView
	rec := do(t, s, http.MethodPost, "/api/sessions/"+id+"/quantum/next", nil)
	decode(t, rec, &v)
	if v.Steps.Quantum != 1 {
		t.Errorf("quantum step = %d, expected 1", v.Steps.Quantum)
	}

	rec = do(t, s, http.MethodPost, "/api/sessions/"+id+"/classical/step", map[string]int{"step": 5})
	decode(t, rec, &v)
	if v.Steps.Classical != 5 {
		t.Errorf("classical step = %d, expected 5", v.Steps.Classical)
	}

	rec = do(t, s, http.MethodPost, "/api/sessions/"+id+"/quantum/step", map[string]int{"step": 99})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range step returned %d, expected 400", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/sessions/"+id+"/restart", map[string]string{"target": "both"})
	decode(t, rec, &v)
	if v.Steps.Quantum != 0 || v.Steps.Classical != 0 {
		t.Errorf("steps after restart = (%d, %d)", v.Steps.Quantum, v.Steps.Classical)
	}

	rec = do(t, s, http.MethodPost, "/api/sessions/"+id+"/restart", map[string]string{"target": "sideways"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad restart target returned %d, expected 400", rec.Code)
	}
}

func TestQuantumOps(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "11")

	do(t, s, http.MethodPost, "/api/sessions/"+id+"/quantum/next", nil)
	do(t, s, http.MethodPost, "/api/sessions/"+id+"/quantum/next", nil)

	rec := do(t, s, http.MethodGet, "/api/sessions/"+id+"/quantum/ops", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ops returned %d", rec.Code)
	}
	var body struct {
		Step  int              `json:"step"`
		Title string           `json:"title"`
		Ops   []map[string]any `json:"ops"`
	}
	decode(t, rec, &body)
	if body.Step != 2 {
		t.Errorf("step = %d, expected 2", body.Step)
	}
	if len(body.Ops) != 2 {
		t.Errorf("got %d ops, expected 2", len(body.Ops))
	}
	if body.Title == "" {
		t.Error("missing step title")
	}
}

func TestClassicalTrace(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "10")

	do(t, s, http.MethodPost, "/api/sessions/"+id+"/classical/step", map[string]int{"step": 3})

	rec := do(t, s, http.MethodGet, "/api/sessions/"+id+"/classical/trace", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("trace returned %d", rec.Code)
	}
	var body struct {
		Step   int `json:"step"`
		Stages []struct {
			Index int    `json:"index"`
			Value string `json:"value"`
		} `json:"stages"`
	}
	decode(t, rec, &body)
	if len(body.Stages) != 3 {
		t.Fatalf("trace has %d stages, expected 3", len(body.Stages))
	}
	if body.Stages[2].Value != "1100" {
		t.Errorf("stage 3 value = %q, expected %q", body.Stages[2].Value, "1100")
	}
}

func TestEvaluate(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "01")

	rec := do(t, s, http.MethodPost, "/api/sessions/"+id+"/quantum/evaluate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("evaluate returned %d: %s", rec.Code, rec.Body.String())
	}
	var ev struct {
		Counts       map[string]int `json:"counts"`
		MostFrequent string         `json:"most_frequent"`
		Decoded      string         `json:"decoded"`
	}
	decode(t, rec, &ev)
	if ev.MostFrequent != "01" || ev.Decoded != "01" {
		t.Errorf("evaluate decoded (%q, %q), expected (01, 01)", ev.MostFrequent, ev.Decoded)
	}
	total := 0
	for _, n := range ev.Counts {
		total += n
	}
	if total != 128 {
		t.Errorf("counts sum to %d, expected 128", total)
	}
}

func TestSweep(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "00")

	rec := do(t, s, http.MethodPost, "/api/sessions/"+id+"/sweep", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sweep returned %d: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Axis      []float64 `json:"ps"`
		Classical []float64 `json:"classical_success"`
	}
	decode(t, rec, &res)
	if len(res.Axis) != 2 || len(res.Classical) != 2 {
		t.Fatalf("sweep shape = (%d, %d), expected (2, 2)", len(res.Axis), len(res.Classical))
	}
	if res.Classical[0] != 1 {
		t.Errorf("noiseless success = %v, expected 1", res.Classical[0])
	}
}

func TestReportFormats(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "11")

	rec := do(t, s, http.MethodGet, "/api/sessions/"+id+"/report", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("json report returned %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("json report content type = %q", ct)
	}
	var snap map[string]any
	decode(t, rec, &snap)
	if snap["message"] != "11" {
		t.Errorf("report message = %v, expected 11", snap["message"])
	}

	rec = do(t, s, http.MethodGet, "/api/sessions/"+id+"/report?format=markdown", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("markdown report returned %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/markdown") {
		t.Errorf("markdown report content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "# Dense Coding Session Report") {
		t.Error("markdown report missing title")
	}

	rec = do(t, s, http.MethodGet, "/api/sessions/"+id+"/report?format=xml", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format returned %d, expected 400", rec.Code)
	}
}

func TestSyncToggle(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "")

	rec := do(t, s, http.MethodPost, "/api/sessions/"+id+"/sync", map[string]bool{"enabled": true})
	var v sessionView
	decode(t, rec, &v)
	if !v.Sync {
		t.Fatal("sync not enabled")
	}

	rec = do(t, s, http.MethodPost, "/api/sessions/"+id+"/quantum/next", nil)
	decode(t, rec, &v)
	if v.Steps.Quantum != 1 || v.Steps.Classical != 1 {
		t.Errorf("sync advance left steps at (%d, %d), expected (1, 1)",
			v.Steps.Quantum, v.Steps.Classical)
	}
}

func TestManagerLen(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		createSession(t, s, "")
	}
	if n := s.sessions.Len(); n != 3 {
		t.Errorf("manager holds %d sessions, expected 3", n)
	}
}
