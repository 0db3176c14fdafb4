// Package signal holds named sample sequences aligned with a trajectory's
// time grid. A Signal is immutable: every transformation allocates a new
// one and records how it was produced.
package signal

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

var ErrLengthMismatch = errors.New("signal: length mismatch")

// OpRaw marks a signal taken directly from a trajectory.
const OpRaw = "raw"

// Provenance records the operation, inputs and parameters that produced a
// signal.
type Provenance struct {
	Op     string
	Inputs []string
	Params map[string]float64
}

func (p Provenance) String() string {
	if len(p.Params) == 0 {
		return fmt.Sprintf("%s%v", p.Op, p.Inputs)
	}
	keys := make([]string, 0, len(p.Params))
	for k := range p.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := fmt.Sprintf("%s%v{", p.Op, p.Inputs)
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%g", k, p.Params[k])
	}
	return s + "}"
}

func (p Provenance) clone() Provenance {
	c := Provenance{Op: p.Op}
	if p.Inputs != nil {
		c.Inputs = append([]string(nil), p.Inputs...)
	}
	if p.Params != nil {
		c.Params = make(map[string]float64, len(p.Params))
		for k, v := range p.Params {
			c.Params[k] = v
		}
	}
	return c
}

type Signal struct {
	name   string
	values []float64
	prov   Provenance
}

// New returns a raw signal holding a copy of values.
func New(name string, values []float64) Signal {
	return Signal{
		name:   name,
		values: append([]float64(nil), values...),
		prov:   Provenance{Op: OpRaw},
	}
}

// Derive wraps values produced by op. The slice is owned by the returned
// signal and must not be modified afterwards.
func Derive(name string, values []float64, op string, inputs []string, params map[string]float64) Signal {
	return Signal{
		name:   name,
		values: values,
		prov:   Provenance{Op: op, Inputs: inputs, Params: params}.clone(),
	}
}

func (s Signal) Name() string { return s.name }
func (s Signal) Len() int     { return len(s.values) }
func (s Signal) At(i int) float64 {
	return s.values[i]
}

// Values returns a copy of the samples.
func (s Signal) Values() []float64 {
	return append([]float64(nil), s.values...)
}

func (s Signal) Provenance() Provenance { return s.prov.clone() }

// IsRaw reports whether s was taken directly from a trajectory.
func (s Signal) IsRaw() bool { return s.prov.Op == OpRaw }

// Finite reports whether every sample is finite.
func (s Signal) Finite() bool {
	if floats.HasNaN(s.values) {
		return false
	}
	for _, v := range s.values {
		if math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Named returns s under a different name with unchanged provenance.
func (s Signal) Named(name string) Signal {
	s.name = name
	return s
}

// Slice returns samples [from, to). to <= 0 means the end of the signal.
func (s Signal) Slice(from, to int) (Signal, error) {
	if to <= 0 {
		to = len(s.values)
	}
	if from < 0 || from > to || to > len(s.values) {
		return Signal{}, fmt.Errorf("signal: slice [%d:%d] out of range for %s (len %d)", from, to, s.name, len(s.values))
	}
	return Derive(s.name, append([]float64(nil), s.values[from:to]...), "slice",
		[]string{s.name}, map[string]float64{"from": float64(from), "to": float64(to)}), nil
}

// Map applies fn to every sample.
func (s Signal) Map(name, op string, fn func(float64) float64) Signal {
	out := make([]float64, len(s.values))
	for i, v := range s.values {
		out[i] = fn(v)
	}
	return Derive(name, out, op, []string{s.name}, nil)
}

// Combine evaluates fn sample by sample across inputs of equal length. The
// slice passed to fn is reused between calls.
func Combine(name, op string, inputs []Signal, fn func(x []float64) float64) (Signal, error) {
	if len(inputs) == 0 {
		return Derive(name, nil, op, nil, nil), nil
	}
	n := inputs[0].Len()
	names := make([]string, len(inputs))
	for i, in := range inputs {
		if in.Len() != n {
			return Signal{}, fmt.Errorf("%w: %s has %d samples, %s has %d", ErrLengthMismatch, in.name, in.Len(), inputs[0].name, n)
		}
		names[i] = in.name
	}
	out := make([]float64, n)
	x := make([]float64, len(inputs))
	for i := 0; i < n; i++ {
		for j, in := range inputs {
			x[j] = in.values[i]
		}
		out[i] = fn(x)
	}
	return Derive(name, out, op, names, nil), nil
}
