// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdtrace

import (
	"strings"

	"github.com/pkg/errors"
)

// A VarKind is the declared type of a VCD variable.
type VarKind int

// Variable kinds.
const (
	VarEvent VarKind = iota
	VarInteger
	VarParameter
	VarReal
	VarRealtime
	VarReg
	VarSupply0
	VarSupply1
	VarTime
	VarTri
	VarTriand
	VarTrior
	VarTrireg
	VarTri0
	VarTri1
	VarWand
	VarWire
	VarWor
)

var varKindNames = [...]string{
	"event", "integer", "parameter", "real", "realtime", "reg", "supply0",
	"supply1", "time", "tri", "triand", "trior", "trireg", "tri0", "tri1",
	"wand", "wire", "wor",
}

func (k VarKind) String() string {
	if k < 0 || int(k) >= len(varKindNames) {
		return "unknown"
	}
	return varKindNames[k]
}

// ParseVarKind returns the VarKind for the given VCD variable type keyword.
func ParseVarKind(s string) (VarKind, error) {
	for i, n := range varKindNames {
		if n == s {
			return VarKind(i), nil
		}
	}
	return 0, errors.Errorf("unknown variable type %q", s)
}

// A SignalID is the index of a signal declaration in a Registry.
type SignalID int

// Signal is a signal declaration.
type Signal struct {
	// ID is the identifier code of the storage slot. Several signals may share
	// the same ID.
	ID    string
	Name  string // local reference name, including any index suffix
	Scope ScopeID
	Width int
	Kind  VarKind
	// Path is the alias path: the scope path, a slash, and Name.
	Path string
}

// ErrPhase is the cause of errors due to calls made in the wrong decoding
// phase.
var ErrPhase = errors.New("wrong decoding phase")

// Registry maps identifier codes to their alias paths and classifies
// aliases once all declarations are known.
//
// An alias is internal if it contains the internal marker before its last
// path separator, like "/top/fifo$inst/count". Internal aliases are only
// kept when they are the sole alias of an identifier.
type Registry struct {
	h       *Hierarchy
	naming  Naming
	marker  string
	signals []Signal
	aliases map[string][]string
	ids     []string // identifiers in first seen order

	finalized bool
	class     map[string]Class
	actions   map[string]bool
}

// NewRegistry returns a new Registry resolving scope paths with h. If marker
// is empty, no alias is considered internal.
func NewRegistry(h *Hierarchy, naming Naming, marker string) *Registry {
	return &Registry{
		h:       h,
		naming:  naming,
		marker:  marker,
		aliases: make(map[string][]string),
	}
}

// Register adds a signal declaration. The signal's Path is computed from its
// scope.
func (r *Registry) Register(s Signal) (SignalID, error) {
	if r.finalized {
		return -1, errors.Wrapf(ErrPhase, "signal %q declared after end of definitions", s.Name)
	}
	if !r.h.valid(s.Scope) {
		return -1, errors.Wrapf(ErrStructure, "signal %q declared in unknown scope %d", s.Name, s.Scope)
	}
	s.Path = r.h.Path(s.Scope) + "/" + s.Name
	id := SignalID(len(r.signals))
	r.signals = append(r.signals, s)
	r.h.addSignal(s.Scope, id)

	as, ok := r.aliases[s.ID]
	if !ok {
		r.ids = append(r.ids, s.ID)
	}
	if len(as) > 0 && r.internal(s.Path) {
		return id, nil
	}
	for _, a := range as {
		if a == s.Path {
			return id, nil
		}
	}
	r.aliases[s.ID] = append(as, s.Path)
	return id, nil
}

func (r *Registry) internal(alias string) bool {
	if r.marker == "" {
		return false
	}
	m := strings.Index(alias, r.marker)
	if m <= 0 {
		return false
	}
	sl := strings.LastIndexByte(alias, '/')
	return sl < 0 || m < sl
}

// Finalize ends the declaration phase. It drops internal aliases from
// identifiers that have other aliases, then classifies all remaining aliases.
// Calling Finalize more than once has no effect.
func (r *Registry) Finalize() {
	if r.finalized {
		return
	}
	r.finalized = true
	r.class = make(map[string]Class)
	r.actions = make(map[string]bool)
	for _, id := range r.ids {
		as := r.aliases[id]
		for i := 0; i < len(as) && len(as) > 1; {
			if r.internal(as[i]) {
				as = append(as[:i], as[i+1:]...)
				continue
			}
			i++
		}
		r.aliases[id] = as
		for _, a := range as {
			c := r.naming.Classify(a)
			r.class[a] = c
			if c.Role == RoleEnable {
				r.actions[c.Method] = true
			}
		}
	}
}

// Finalized returns true once Finalize has been called.
func (r *Registry) Finalized() bool { return r.finalized }

// Aliases returns the alias paths of identifier id. The returned slice must
// not be modified.
func (r *Registry) Aliases(id string) []string { return r.aliases[id] }

// Tracked returns true if at least one signal was declared for id.
func (r *Registry) Tracked(id string) bool { return len(r.aliases[id]) > 0 }

// Class returns the classification of alias. Aliases are classified by
// Finalize; before that, or for unknown aliases, the alias is classified on
// the fly.
func (r *Registry) Class(alias string) Class {
	if c, ok := r.class[alias]; ok {
		return c
	}
	return r.naming.Classify(alias)
}

// IsAction returns true if method is the base name of a declared enable
// signal. Only valid after Finalize.
func (r *Registry) IsAction(method string) bool { return r.actions[method] }

// Signals returns all signal declarations in declaration order. The returned
// slice must not be modified.
func (r *Registry) Signals() []Signal { return r.signals }

// Signal returns the declaration for id.
func (r *Registry) Signal(id SignalID) *Signal { return &r.signals[id] }

// Identifiers returns the declared identifier codes in first seen order.
func (r *Registry) Identifiers() []string { return r.ids }

// Naming returns the naming rules used for classification.
func (r *Registry) Naming() Naming { return r.naming }
