// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package tracetest provides utility functions for testing trace decoding.
package tracetest

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/db47h/vcdtrace"
)

// Trace drives a decoding session from a test.
//
// Scopes are named by their slash separated path relative to the root scope,
// like "top/fifo". Intermediate scopes are declared as modules on first use.
type Trace struct {
	t      testing.TB
	S      *vcdtrace.Session
	scopes map[string]vcdtrace.ScopeID
}

// New returns a new Trace with a declared root scope.
func New(t testing.TB, opts ...vcdtrace.Option) *Trace {
	t.Helper()
	s := vcdtrace.New(opts...)
	root, err := s.Scope("$root", vcdtrace.ScopeRoot, vcdtrace.NoScope)
	if err != nil {
		t.Fatal(err)
	}
	return &Trace{t: t, S: s, scopes: map[string]vcdtrace.ScopeID{"": root}}
}

// Scope declares the scope at path and returns its handle.
func (tr *Trace) Scope(path string) vcdtrace.ScopeID {
	tr.t.Helper()
	if id, ok := tr.scopes[path]; ok {
		return id
	}
	parent, name := "", path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		parent, name = path[:i], path[i+1:]
	}
	id, err := tr.S.Scope(name, vcdtrace.ScopeModule, tr.Scope(parent))
	if err != nil {
		tr.t.Fatal(err)
	}
	tr.scopes[path] = id
	return id
}

// Var declares a wire named name with identifier id in the scope at path.
func (tr *Trace) Var(id, path, name string, width int) *Trace {
	tr.t.Helper()
	if err := tr.S.Var(id, tr.Scope(path), name, width, vcdtrace.VarWire); err != nil {
		tr.t.Fatal(err)
	}
	return tr
}

// End ends the declaration phase.
func (tr *Trace) End() *Trace {
	tr.t.Helper()
	if err := tr.S.EndDefinitions(); err != nil {
		tr.t.Fatal(err)
	}
	return tr
}

// Set records a value change at time t. The value is written in VCD syntax:
// a single bit character for scalars ("0", "1", "x", "z"), "b0101" for
// vectors and "r1.5" for reals.
func (tr *Trace) Set(t uint64, id, value string) *Trace {
	tr.t.Helper()
	v, err := Value(value)
	if err != nil {
		tr.t.Fatal(err)
	}
	if err = tr.S.Change(id, t, v); err != nil {
		tr.t.Fatal(err)
	}
	return tr
}

// Done ends the trace and returns all emitted entries.
func (tr *Trace) Done() []vcdtrace.Entry {
	tr.t.Helper()
	if err := tr.S.Done(); err != nil {
		tr.t.Fatal(err)
	}
	return tr.S.Entries()
}

// Value parses a value in VCD syntax.
func Value(s string) (vcdtrace.Value, error) {
	if s == "" {
		return vcdtrace.Value{}, fmt.Errorf("empty value")
	}
	switch s[0] {
	case 'b', 'B':
		bits, err := vcdtrace.ParseBits(s[1:])
		if err != nil {
			return vcdtrace.Value{}, err
		}
		return vcdtrace.VectorValue(bits), nil
	case 'r', 'R':
		f, err := strconv.ParseFloat(s[1:], 64)
		if err != nil {
			return vcdtrace.Value{}, err
		}
		return vcdtrace.RealValue(f), nil
	}
	if len(s) != 1 {
		return vcdtrace.Value{}, fmt.Errorf("invalid scalar value %q", s)
	}
	b, err := vcdtrace.ParseBit(s[0])
	if err != nil {
		return vcdtrace.Value{}, err
	}
	return vcdtrace.ScalarValue(b), nil
}

func entryString(e vcdtrace.Entry) string {
	return fmt.Sprintf("@%d %s", e.Time, e.String())
}

// CompareEntries fails the test if got and want differ.
func CompareEntries(t testing.TB, got, want []vcdtrace.Entry) {
	t.Helper()
	n := len(got)
	if len(want) > n {
		n = len(want)
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		var g, w string
		if i < len(got) {
			g = entryString(got[i])
		}
		if i < len(want) {
			w = entryString(want[i])
		}
		if g != w || (i < len(got) && i < len(want) && got[i].Kind != want[i].Kind) {
			fmt.Fprintf(&b, "\n#%d: expected %q, got %q", i, w, g)
		}
	}
	if b.Len() > 0 {
		t.Fatalf("entry mismatch:%s", b.String())
	}
}
