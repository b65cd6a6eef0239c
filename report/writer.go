package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/nao1215/markdown"
)

// Writer renders a Snapshot to some destination. Implementations exist
// for JSON and Markdown; the interface lets callers pick a format at
// runtime.
type Writer interface {
	// Write renders the snapshot, returning the number of bytes
	// written.
	Write(snap *Snapshot) (int, error)
}

// JSONWriter renders snapshots as indented JSON.
type JSONWriter struct {
	output io.Writer
}

// NewJSONWriter returns a JSONWriter targeting output.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{output: output}
}

func (w *JSONWriter) Write(snap *Snapshot) (int, error) {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling snapshot: %w", err)
	}
	b = append(b, '\n')
	return w.output.Write(b)
}

// MarkdownWriter renders snapshots as a human-readable Markdown
// document.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter returns a MarkdownWriter targeting output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

func (w *MarkdownWriter) Write(snap *Snapshot) (int, error) {
	md := markdown.NewMarkdown(w.output)

	writeHeader(md, snap)
	writeClassical(md, snap)
	writeQuantum(md, snap)
	writeAnalytics(md, snap)

	return len(md.String()), md.Build()
}

func writeHeader(md *markdown.Markdown, snap *Snapshot) {
	md.H1("Dense Coding Session Report")
	md.PlainText("")

	noiseText := "disabled"
	if snap.Noise.Enabled {
		noiseText = fmt.Sprintf("p = %.3f", snap.Noise.Probability)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Message", "`" + snap.Message + "`"},
			{"Noise", noiseText},
		},
	})
	md.PlainText("")
}

func writeClassical(md *markdown.Markdown, snap *Snapshot) {
	md.H2("Classical Channel")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Value"},
		Rows: [][]string{
			{"Encoded", "`" + snap.Classical.Encoded + "`"},
			{"Received", "`" + snap.Classical.Received + "`"},
			{"Decoded", "`" + snap.Classical.Decoded + "`"},
		},
	})
	md.PlainText("")

	if len(snap.Stages) == 0 {
		return
	}
	rows := make([][]string, len(snap.Stages))
	for i, st := range snap.Stages {
		v := st.Value
		if v == "" {
			v = "-"
		}
		rows[i] = []string{strconv.Itoa(st.Index), st.Title, v}
	}
	md.H3("Pipeline Progress")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Step", "Title", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeQuantum(md *markdown.Markdown, snap *Snapshot) {
	md.H2("Quantum Channel")
	md.PlainText("")

	if snap.Quantum == nil {
		md.PlainText("Protocol not yet complete.")
		md.PlainText("")
		return
	}

	outcomes := make([]string, 0, len(snap.Quantum.Counts))
	for outcome := range snap.Quantum.Counts {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)
	rows := make([][]string, len(outcomes))
	for i, outcome := range outcomes {
		rows[i] = []string{"`" + outcome + "`", strconv.Itoa(snap.Quantum.Counts[outcome])}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows:   rows,
	})
	md.PlainText("")
	md.PlainTextf("Most frequent outcome: `%s`. Decoded message: `%s`.",
		snap.Quantum.MostFrequent, snap.Quantum.Decoded)
	md.PlainText("")
}

func writeAnalytics(md *markdown.Markdown, snap *Snapshot) {
	md.H2("Noise Sweep")
	md.PlainText("")

	if snap.Analytics == nil {
		md.PlainText("No sweep has been run for this message.")
		md.PlainText("")
		return
	}

	a := snap.Analytics
	rows := make([][]string, len(a.Axis))
	for i, p := range a.Axis {
		rows[i] = []string{
			fmt.Sprintf("%.3f", p),
			fmt.Sprintf("%.3f", a.Classical[i]),
			fmt.Sprintf("%.3f", a.Quantum[i]),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"p", "Classical Success", "Quantum Success"},
		Rows:   rows,
	})
	md.PlainText("")
	md.PlainTextf("Channel efficiency: classical %.2f bits/bit, quantum %.2f bits/qubit.",
		a.ClassicalEfficiency, a.QuantumEfficiency)
}
