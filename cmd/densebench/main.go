// densebench runs a Monte-Carlo noise sweep for each entry in the
// cartesian product of a collection of tuning parameters, e.g. message
// and trials per point, and outputs a CSV of summary statistics for
// each combination.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"text/template"

	flag "github.com/spf13/pflag"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/qubitlab/densecode/analytics"
	"github.com/qubitlab/densecode/bitstring"
)

var (
	msg = flag.StringSlice("msg", []string{"00", "01", "10", "11"},
		"The 2-bit messages to sweep.")
	runs = flag.IntSlice("runs", []int{analytics.DefaultRuns},
		"The Monte-Carlo trials per sweep point.")
	points = flag.IntSlice("points", []int{analytics.DefaultAxisPoints},
		"The number of noise levels per sweep.")
	pMax = flag.Float64Slice("pMax", []float64{analytics.DefaultAxisMax},
		"The largest noise level in the sweep.")
	seed = flag.Int64("seed", 1234, "The seed for the shared entropy source.")
)

var (
	inputs  = []string{"msg", "runs", "points", "pMax"}
	columns = []string{"Msg", "Runs", "Points", "PMax",
		"ClassicalMean", "ClassicalMin", "QuantumMean", "QuantumMin",
		"ClassicalEfficiency", "QuantumEfficiency", "Succeeded"}
)

// An Experiment packages together the result of sweeping a single
// parameterization for easy formatting.
type Experiment struct {
	// Fields corresponding to experiment parameters
	Msg    string
	Runs   int
	Points int
	PMax   float64

	// Fields corresponding to experiment results
	ClassicalMean       float64
	ClassicalMin        float64
	QuantumMean         float64
	QuantumMin          float64
	ClassicalEfficiency float64
	QuantumEfficiency   float64
	Succeeded           bool
}

func main() {
	flag.Parse()
	fmt.Println(header())
	tmpl := template.Must(template.New("line").Parse(lineTmpl()))
	var args [][]interface{}
	for _, inp := range inputs {
		args = append(args, lookupInput(inp))
	}
	applyCartesian(func(args []interface{}) {
		exp := &Experiment{
			Msg:    args[inpIndex("msg")].(string),
			Runs:   args[inpIndex("runs")].(int),
			Points: args[inpIndex("points")].(int),
			PMax:   args[inpIndex("pMax")].(float64),
		}
		if err := bench(exp); err != nil {
			log.Printf("Sweeping %v: %v", exp, err)
		}
		if err := tmpl.Execute(os.Stdout, exp); err != nil {
			log.Fatalf("BUG: could not fill in line template: %v", err)
		}
	}, args)
}

func inpIndex(v string) int {
	for i, inp := range inputs {
		if inp == v {
			return i
		}
	}
	return -1
}

func bench(exp *Experiment) error {
	m, err := bitstring.NewMessage(exp.Msg)
	if err != nil {
		return err
	}
	if exp.Points < 2 {
		return fmt.Errorf("a sweep needs at least 2 points: %d", exp.Points)
	}
	engine, err := analytics.New(rand.New(rand.NewSource(*seed)))
	if err != nil {
		return err
	}
	axis := floats.Span(make([]float64, exp.Points), 0, exp.PMax)
	res, err := engine.Sweep(context.Background(), m, axis, exp.Runs, nil)
	if err != nil {
		return err
	}
	exp.ClassicalMean = stat.Mean(res.Classical, nil)
	exp.ClassicalMin = floats.Min(res.Classical)
	exp.QuantumMean = stat.Mean(res.Quantum, nil)
	exp.QuantumMin = floats.Min(res.Quantum)
	exp.ClassicalEfficiency = res.ClassicalEfficiency
	exp.QuantumEfficiency = res.QuantumEfficiency
	exp.Succeeded = true
	return nil
}

func header() string {
	return strings.Join(columns, ", ")
}

func lineTmpl() string {
	var els []string
	for _, c := range columns {
		els = append(els, "{{."+c+"}}")
	}
	return strings.Join(els, ", ") + "\n"
}

func lookupInput(name string) []interface{} {
	var r []interface{}
	if v, err := flag.CommandLine.GetIntSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := flag.CommandLine.GetFloat64Slice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else if v, err := flag.CommandLine.GetStringSlice(name); err == nil {
		for _, val := range v {
			r = append(r, val)
		}
	} else {
		log.Fatalf("Unknown type for input %s", name)
	}
	return r
}

func applyCartesian(f func([]interface{}), args [][]interface{}) {
	for i := range args {
		if len(args[i]) == 1 {
			continue
		}
		l := make([][]interface{}, len(args))
		r := make([][]interface{}, len(args))
		copy(l, args)
		copy(r, args)
		l[i] = args[i][:1]
		r[i] = args[i][1:]
		applyCartesian(f, l)
		applyCartesian(f, r)
		return
	}
	x := make([]interface{}, 0, len(args))
	for _, a := range args {
		x = append(x, a[0])
	}
	f(x)
}
