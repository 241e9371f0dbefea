package vcdtrace_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/db47h/vcdtrace"
	"github.com/db47h/vcdtrace/tracetest"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func call(t uint64, name string, params ...string) vcdtrace.Entry {
	e := vcdtrace.Entry{Time: t, Kind: vcdtrace.EntryCall, Name: name}
	for i := 0; i < len(params); i += 2 {
		e.Params = append(e.Params, vcdtrace.Param{Name: params[i], Value: params[i+1]})
	}
	return e
}

func sig(t uint64, name, value string) vcdtrace.Entry {
	return vcdtrace.Entry{Time: t, Kind: vcdtrace.EntrySignal, Name: name, Value: value}
}

func TestSession_callEvent(t *testing.T) {
	tr := tracetest.New(t)
	tr.Var("1", "m", "x__RDY", 1).
		Var("2", "m", "x__ENA", 1).
		Var("3", "m", "x$arg", 4).
		End()
	tr.Set(5, "1", "1").Set(5, "2", "1").Set(5, "3", "b0011")
	tracetest.CompareEntries(t, tr.Done(), []vcdtrace.Entry{
		call(5, "/m/x", "arg", "3"),
	})
}

// a call is detected once per cycle, whatever the order of changes within
// the cycle.
func TestSession_callOrderIndependent(t *testing.T) {
	orders := [][]string{
		{"r", "e", "p"},
		{"r", "p", "e"},
		{"e", "r", "p"},
		{"e", "p", "r"},
		{"p", "r", "e"},
		{"p", "e", "r"},
		{"e", "r", "e", "p"},
	}
	ids := map[string]string{"r": "1", "e": "2", "p": "3"}
	vals := map[string]string{"r": "1", "e": "1", "p": "b01"}
	for _, o := range orders {
		t.Run(strings.Join(o, ""), func(t *testing.T) {
			tr := tracetest.New(t)
			tr.Var("1", "m", "x__RDY", 1).
				Var("2", "m", "x__ENA", 1).
				Var("3", "m", "x$arg", 2).
				End()
			tr.Set(0, "1", "0").Set(0, "2", "0").Set(0, "3", "b00")
			for _, k := range o {
				tr.Set(5, ids[k], vals[k])
			}
			tracetest.CompareEntries(t, tr.Done(), []vcdtrace.Entry{
				call(5, "/m/x", "arg", "1"),
			})
		})
	}
}

func TestSession_plainEntries(t *testing.T) {
	tr := tracetest.New(t)
	tr.Var("1", "m", "a__RDY", 1).
		Var("2", "m", "a__ENA", 1).
		Var("3", "m", "a$p", 8).
		Var("4", "m", "b__RDY", 1).
		Var("5", "m", "sig", 4).
		Var("6", "m", "c$q", 1).
		End()
	tr.Set(0, "1", "1").Set(0, "2", "0").Set(0, "3", "b00000000").
		Set(0, "4", "0").Set(0, "5", "b0000").Set(0, "6", "0")
	tr.Set(10, "4", "1").Set(10, "5", "b1010").Set(10, "3", "b00010001")
	tr.Set(20, "2", "1").Set(20, "1", "0")
	tracetest.CompareEntries(t, tr.Done(), []vcdtrace.Entry{
		sig(0, "/m/c$q", "0"),
		sig(0, "/m/sig", "0"),
		{Time: 10, Kind: vcdtrace.EntryReady, Name: "/m/b__RDY", Value: "1"},
		sig(10, "/m/sig", "a"),
		{Time: 20, Kind: vcdtrace.EntryEnable, Name: "/m/a__ENA", Value: "1"},
	})
}

func TestSession_rearm(t *testing.T) {
	tr := tracetest.New(t)
	tr.Var("1", "m", "x__RDY", 1).
		Var("2", "m", "x__ENA", 1).
		Var("3", "m", "x$v", 2).
		Var("4", "m", "other", 1).
		End()
	tr.Set(0, "1", "1").Set(0, "2", "0").Set(0, "3", "b00").Set(0, "4", "0")
	tr.Set(5, "2", "1").Set(5, "3", "b11")
	tr.Set(10, "4", "1")
	tr.Set(15, "2", "0")
	tr.Set(20, "2", "1").Set(20, "3", "b10")
	tracetest.CompareEntries(t, tr.Done(), []vcdtrace.Entry{
		sig(0, "/m/other", "0"),
		call(5, "/m/x", "v", "3"),
		sig(10, "/m/other", "1"),
		call(20, "/m/x", "v", "2"),
	})
}

func TestSession_alwaysReady(t *testing.T) {
	tr := tracetest.New(t)
	tr.Var("1", "m", "go__ENA", 1).End()
	tr.Set(0, "1", "0").Set(3, "1", "1")
	tracetest.CompareEntries(t, tr.Done(), []vcdtrace.Entry{call(3, "/m/go")})
}

func TestSession_clocks(t *testing.T) {
	tr := tracetest.New(t)
	tr.Var("c", "", "CLK", 1).Var("s", "m", "sig", 1).End()
	tr.Set(0, "c", "0").Set(0, "s", "0")
	tr.Set(1, "c", "1")
	tr.Set(2, "c", "0").Set(2, "s", "1")
	tracetest.CompareEntries(t, tr.Done(), []vcdtrace.Entry{
		sig(0, "/m/sig", "0"),
		sig(2, "/m/sig", "1"),
	})
	if v, ok := tr.S.ValueAt("c", 1); !ok || v.String() != "1" {
		t.Fatalf("clock value at 1: %v, %v", v, ok)
	}
	if ts := tr.S.Times(); len(ts) != 3 {
		t.Fatalf("unexpected times %v", ts)
	}
}

func TestSession_multipleAliases(t *testing.T) {
	tr := tracetest.New(t)
	tr.Var("w", "m", "out", 1).Var("w", "n", "in", 1).End()
	tr.Set(7, "w", "z")
	tracetest.CompareEntries(t, tr.Done(), []vcdtrace.Entry{
		sig(7, "/m/out", "Z"),
		sig(7, "/n/in", "Z"),
	})
}

func TestSession_valueAt(t *testing.T) {
	tr := tracetest.New(t)
	tr.Var("a", "m", "sig", 1).End()
	tr.Set(0, "a", "0").Set(10, "a", "1")
	tr.Done()
	for _, d := range []struct {
		t uint64
		v string
	}{{5, "0"}, {10, "1"}, {100, "1"}} {
		v, ok := tr.S.ValueAt("a", d.t)
		if !ok || v.String() != d.v {
			t.Errorf("ValueAt(a, %d) = %v, %v; expected %s", d.t, v, ok, d.v)
		}
	}
}

func TestSession_untracked(t *testing.T) {
	tr := tracetest.New(t)
	tr.Var("a", "m", "sig", 1).End()
	tr.Set(4, "?", "1").Set(4, "?", "0")
	if e := tr.Done(); len(e) != 0 {
		t.Fatalf("unexpected entries %v", e)
	}
	if n := tr.S.Untracked()["?"]; n != 2 {
		t.Fatalf("expected 2 untracked changes, got %d", n)
	}
	if v, ok := tr.S.ValueAt("?", 4); !ok || v.String() != "0" {
		t.Fatalf("untracked value: %v, %v", v, ok)
	}
}

func TestSession_reals(t *testing.T) {
	for _, d := range []struct {
		numeric bool
		out     string
	}{{false, vcdtrace.RealPlaceholder}, {true, "0.5"}} {
		cfg := vcdtrace.DefaultConfig()
		cfg.NumericReals = d.numeric
		tr := tracetest.New(t, vcdtrace.WithConfig(cfg))
		tr.Var("r", "m", "temp", 64).End()
		tr.Set(1, "r", "r0.5")
		tracetest.CompareEntries(t, tr.Done(), []vcdtrace.Entry{sig(1, "/m/temp", d.out)})
	}
}

func TestSession_skipInitialZeros(t *testing.T) {
	cfg := vcdtrace.DefaultConfig()
	cfg.SkipInitialZeros = true
	tr := tracetest.New(t, vcdtrace.WithConfig(cfg))
	tr.Var("a", "m", "a", 8).Var("b", "m", "b", 1).End()
	tr.Set(0, "a", "b00000000").Set(0, "b", "1")
	tr.Set(2, "a", "b00000000")
	tracetest.CompareEntries(t, tr.Done(), []vcdtrace.Entry{
		sig(0, "/m/b", "1"),
		sig(2, "/m/a", "00"),
	})
	if _, ok := tr.S.ValueAt("a", 0); !ok {
		t.Fatal("initial zero not stored")
	}
}

func TestSession_phases(t *testing.T) {
	s := vcdtrace.New()
	root, err := s.Scope("$root", vcdtrace.ScopeRoot, vcdtrace.NoScope)
	if err != nil {
		t.Fatal(err)
	}
	if err = s.Var("a", root, "a", 1, vcdtrace.VarWire); err != nil {
		t.Fatal(err)
	}
	if err = s.Change("a", 0, v0); errors.Cause(err) != vcdtrace.ErrPhase {
		t.Fatalf("expected ErrPhase, got %v", err)
	}
	if err = s.EndDefinitions(); err != nil {
		t.Fatal(err)
	}
	if err = s.EndDefinitions(); errors.Cause(err) != vcdtrace.ErrPhase {
		t.Fatalf("expected ErrPhase, got %v", err)
	}
	if _, err = s.Scope("late", vcdtrace.ScopeModule, root); errors.Cause(err) != vcdtrace.ErrPhase {
		t.Fatalf("expected ErrPhase, got %v", err)
	}
	if err = s.Var("b", root, "b", 1, vcdtrace.VarWire); errors.Cause(err) != vcdtrace.ErrPhase {
		t.Fatalf("expected ErrPhase, got %v", err)
	}
	if err = s.Change("a", 5, v1); err != nil {
		t.Fatal(err)
	}
	if err = s.Change("a", 4, v0); errors.Cause(err) != vcdtrace.ErrTimeOrder {
		t.Fatalf("expected ErrTimeOrder, got %v", err)
	}
	if err = s.Done(); err != nil {
		t.Fatal(err)
	}
	if err = s.Done(); errors.Cause(err) != vcdtrace.ErrPhase {
		t.Fatalf("expected ErrPhase, got %v", err)
	}
	if err = s.Change("a", 6, v0); errors.Cause(err) != vcdtrace.ErrPhase {
		t.Fatalf("expected ErrPhase, got %v", err)
	}
}

func TestSession_lazyFinalize(t *testing.T) {
	cfg := vcdtrace.DefaultConfig()
	cfg.LazyFinalize = true
	tr := tracetest.New(t, vcdtrace.WithConfig(cfg))
	tr.Var("a", "m", "a", 1)
	tr.Set(1, "a", "1")
	tracetest.CompareEntries(t, tr.Done(), []vcdtrace.Entry{sig(1, "/m/a", "1")})
}

func TestSession_structure(t *testing.T) {
	s := vcdtrace.New()
	if _, err := s.Scope("m", vcdtrace.ScopeModule, 0); errors.Cause(err) != vcdtrace.ErrStructure {
		t.Fatalf("expected ErrStructure, got %v", err)
	}
}

func TestSession_sinkAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := vcdtrace.NewMetrics(reg)
	if err != nil {
		t.Fatal(err)
	}
	var got []vcdtrace.Entry
	tr := tracetest.New(t, vcdtrace.WithMetrics(m), vcdtrace.WithSink(func(e vcdtrace.Entry) {
		got = append(got, e)
	}))
	tr.Var("1", "m", "x__RDY", 1).Var("2", "m", "x__ENA", 1).Var("3", "m", "s", 1).End()
	tr.Set(0, "1", "1").Set(0, "2", "0").Set(0, "3", "0")
	tr.Set(1, "2", "1")
	tr.Set(2, "?", "1")
	entries := tr.Done()
	tracetest.CompareEntries(t, got, entries)
	tracetest.CompareEntries(t, entries, []vcdtrace.Entry{sig(0, "/m/s", "0"), call(1, "/m/x")})

	if v := testutil.ToFloat64(m.Changes); v != 5 {
		t.Errorf("changes: expected 5, got %v", v)
	}
	if v := testutil.ToFloat64(m.Untracked); v != 1 {
		t.Errorf("untracked: expected 1, got %v", v)
	}
	if v := testutil.ToFloat64(m.Cycles); v != 2 {
		t.Errorf("cycles: expected 2, got %v", v)
	}
	if v := testutil.ToFloat64(m.Entries.WithLabelValues("call")); v != 1 {
		t.Errorf("call entries: expected 1, got %v", v)
	}
	if _, err = vcdtrace.NewMetrics(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestWriteTrace(t *testing.T) {
	var b bytes.Buffer
	err := vcdtrace.WriteTrace(&b, []vcdtrace.Entry{
		call(5, "/m/x", "a", "1", "b", "ff"),
		sig(5, "/m/s", "3"),
		{Time: 7, Kind: vcdtrace.EntryReady, Name: "/m/y__RDY", Value: "1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := b.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], " 5 ") || !strings.Contains(lines[3], " 7 ") {
		t.Fatalf("missing cycle headers:\n%s", out)
	}
	if lines[1] != "/m/x(a=1, b=ff)" {
		t.Fatalf("unexpected call line %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "  /m/s") || !strings.HasSuffix(lines[2], "=        3") {
		t.Fatalf("unexpected signal line %q", lines[2])
	}
}
