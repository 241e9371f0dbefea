// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdtrace

import (
	"sort"
	"strings"
)

// Reconstructor batches value changes by timestamp and turns every batch (a
// cycle) into trace entries.
//
// At the end of each cycle, enable signals that are high, not yet consumed,
// and whose matching ready signal is high produce a call entry with the
// current values of all the method's parameters. The remaining changes of the
// cycle produce ready, enable or plain signal entries.
//
// Enable signals, parameters and plain entries are all enumerated in
// lexicographic order of their alias paths.
type Reconstructor struct {
	reg    *Registry
	clocks map[string]bool
	sep    string

	cur     uint64
	pending bool

	value    map[string]string // current value of every alias
	names    []string          // sorted keys of value
	cycle    map[string]string // changes in the current cycle
	consumed map[string]bool   // enable signals already reported in a call

	entries []Entry
	sink    func(Entry)
	m       *Metrics
}

// NewReconstructor returns a new Reconstructor for the aliases of reg. Values
// of the clock aliases are not tracked. sep is the separator between a method
// name and its parameter names.
func NewReconstructor(reg *Registry, clocks []string, sep string) *Reconstructor {
	r := &Reconstructor{
		reg:      reg,
		clocks:   make(map[string]bool, len(clocks)),
		sep:      sep,
		value:    make(map[string]string),
		cycle:    make(map[string]string),
		consumed: make(map[string]bool),
	}
	for _, c := range clocks {
		r.clocks[c] = true
	}
	return r
}

// Seed presets the ready signal of every enable alias to "1". Methods
// without a ready signal are then always ready. It must be called after the
// registry has been finalized and before any change.
func (r *Reconstructor) Seed() {
	n := r.reg.Naming()
	for _, id := range r.reg.Identifiers() {
		for _, a := range r.reg.Aliases(id) {
			if r.reg.Class(a).Role == RoleEnable {
				if rdy := n.ReadyName(a); !r.known(rdy) {
					r.set(rdy, "1")
				}
			}
		}
	}
}

// Change records the rendered value text of identifier id at time t. Times
// must be non-decreasing.
func (r *Reconstructor) Change(id string, t uint64, text string) {
	if r.pending && t > r.cur {
		r.Flush()
	}
	r.cur = t
	for _, a := range r.reg.Aliases(id) {
		if r.clocks[a] {
			continue
		}
		r.set(a, text)
		r.cycle[a] = text
		r.pending = true
		if text != "1" && r.reg.Class(a).Role == RoleEnable {
			delete(r.consumed, a)
		}
	}
}

func (r *Reconstructor) known(alias string) bool {
	_, ok := r.value[alias]
	return ok
}

func (r *Reconstructor) set(alias, text string) {
	if !r.known(alias) {
		i := sort.SearchStrings(r.names, alias)
		r.names = append(r.names, "")
		copy(r.names[i+1:], r.names[i:])
		r.names[i] = alias
	}
	r.value[alias] = text
}

// Flush emits the entries for the pending cycle, if any.
func (r *Reconstructor) Flush() {
	if !r.pending {
		return
	}
	r.pending = false
	r.m.cycle()
	n := r.reg.Naming()

	for _, a := range r.names {
		c := r.reg.Class(a)
		if c.Role != RoleEnable || r.value[a] != "1" || r.consumed[a] {
			continue
		}
		rdy := n.ReadyName(a)
		if r.value[rdy] != "1" {
			continue
		}
		r.consumed[a] = true
		delete(r.cycle, a)
		delete(r.cycle, rdy)
		r.emit(Entry{Time: r.cur, Kind: EntryCall, Name: c.Method, Params: r.params(c.Method)})
	}

	changed := make([]string, 0, len(r.cycle))
	for a := range r.cycle {
		changed = append(changed, a)
	}
	sort.Strings(changed)
	for _, a := range changed {
		v := r.cycle[a]
		if v == "" {
			continue
		}
		switch r.reg.Class(a).Role {
		case RoleReady:
			if v == "1" && r.cur > 0 {
				r.emit(Entry{Time: r.cur, Kind: EntryReady, Name: a, Value: v})
			}
		case RoleEnable:
			if v == "1" {
				r.emit(Entry{Time: r.cur, Kind: EntryEnable, Name: a, Value: v})
			}
		default:
			if o := paramOwner(a, r.sep); o == "" || !r.reg.IsAction(o) {
				r.emit(Entry{Time: r.cur, Kind: EntrySignal, Name: a, Value: v})
			}
		}
	}
	for a := range r.cycle {
		delete(r.cycle, a)
	}
}

func (r *Reconstructor) params(method string) []Param {
	prefix := method + r.sep
	var ps []Param
	i := sort.SearchStrings(r.names, prefix)
	for ; i < len(r.names) && strings.HasPrefix(r.names[i], prefix); i++ {
		a := r.names[i]
		ps = append(ps, Param{Name: a[len(prefix):], Value: r.value[a]})
		delete(r.cycle, a)
	}
	return ps
}

func (r *Reconstructor) emit(e Entry) {
	r.entries = append(r.entries, e)
	r.m.entry(e.Kind)
	if r.sink != nil {
		r.sink(e)
	}
}

// Time returns the time of the current cycle.
func (r *Reconstructor) Time() uint64 { return r.cur }

// Entries returns all entries emitted so far.
func (r *Reconstructor) Entries() []Entry { return r.entries }

// Value returns the current value text of alias.
func (r *Reconstructor) Value(alias string) (string, bool) {
	v, ok := r.value[alias]
	return v, ok
}
