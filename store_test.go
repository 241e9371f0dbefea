package vcdtrace_test

import (
	"math/rand"
	"testing"

	"github.com/db47h/vcdtrace"
	"github.com/pkg/errors"
)

var (
	v0 = vcdtrace.ScalarValue(vcdtrace.B0)
	v1 = vcdtrace.ScalarValue(vcdtrace.B1)
)

func TestStore_ValueAt(t *testing.T) {
	s := vcdtrace.NewStore()
	s.Init("a")
	if err := s.Append("a", 0, v0); err != nil {
		t.Fatal(err)
	}
	if err := s.Append("a", 10, v1); err != nil {
		t.Fatal(err)
	}
	td := []struct {
		t  uint64
		v  vcdtrace.Value
		ok bool
	}{
		{0, v0, true},
		{5, v0, true},
		{10, v1, true},
		{100, v1, true},
	}
	for _, d := range td {
		v, ok := s.ValueAt("a", d.t)
		if ok != d.ok || !v.Equal(d.v) {
			t.Errorf("ValueAt(a, %d) = %v, %v; expected %v, %v", d.t, v, ok, d.v, d.ok)
		}
	}
	if _, ok := s.ValueAt("unknown", 5); ok {
		t.Fatal("value found for unknown identifier")
	}
	s.Init("empty")
	if _, ok := s.ValueAt("empty", 5); ok {
		t.Fatal("value found for empty series")
	}
}

func TestStore_beforeFirst(t *testing.T) {
	s := vcdtrace.NewStore()
	if err := s.Append("a", 7, v1); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.ValueAt("a", 6); ok {
		t.Fatal("value found before first sample")
	}
}

func TestStore_ties(t *testing.T) {
	s := vcdtrace.NewStore()
	for _, v := range []vcdtrace.Value{v0, v1, v0, v1} {
		if err := s.Append("a", 3, v); err != nil {
			t.Fatal(err)
		}
	}
	if v, _ := s.ValueAt("a", 3); !v.Equal(v1) {
		t.Fatalf("expected last value at time 3, got %v", v)
	}
	if n := len(s.Samples("a")); n != 4 {
		t.Fatalf("expected 4 samples, got %d", n)
	}
	if ts := s.Times(); len(ts) != 1 || ts[0] != 3 {
		t.Fatalf("unexpected times %v", ts)
	}
}

func TestStore_timeOrder(t *testing.T) {
	s := vcdtrace.NewStore()
	_ = s.Append("a", 10, v1)
	if err := s.Append("a", 9, v0); errors.Cause(err) != vcdtrace.ErrTimeOrder {
		t.Fatalf("expected ErrTimeOrder, got %v", err)
	}
}

// queries never go backwards as time increases.
func TestStore_monotonic(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	s := vcdtrace.NewStore()
	var now uint64
	for i := 0; i < 200; i++ {
		now += uint64(r.Intn(5))
		b := vcdtrace.ScalarValue(vcdtrace.Bit(r.Intn(4)))
		if err := s.Append("a", now, b); err != nil {
			t.Fatal(err)
		}
	}
	samples := s.Samples("a")
	// index of the sample used for time q
	used := func(q uint64) int {
		i := -1
		for j, smp := range samples {
			if smp.Time <= q {
				i = j
			}
		}
		return i
	}
	last := -1
	for q := uint64(0); q <= now+3; q++ {
		i := used(q)
		if i < last {
			t.Fatalf("query at %d went backwards", q)
		}
		last = i
		v, ok := s.ValueAt("a", q)
		if i < 0 {
			if ok {
				t.Fatalf("ValueAt(%d) found a value before the first sample", q)
			}
			continue
		}
		if !ok || !v.Equal(samples[i].Value) {
			t.Fatalf("ValueAt(%d) = %v, expected %v", q, v, samples[i].Value)
		}
	}
}
