// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdtrace

import (
	"strings"

	"github.com/pkg/errors"
)

// A ScopeKind is the kind of construct a scope was declared for.
type ScopeKind int

// Scope kinds.
const (
	ScopeBegin ScopeKind = iota
	ScopeFork
	ScopeFunction
	ScopeModule
	ScopeTask
	ScopeRoot
)

var scopeKindNames = [...]string{"begin", "fork", "function", "module", "task", "root"}

func (k ScopeKind) String() string {
	if k < 0 || int(k) >= len(scopeKindNames) {
		return "unknown"
	}
	return scopeKindNames[k]
}

// ParseScopeKind returns the ScopeKind for the given VCD scope type keyword.
func ParseScopeKind(s string) (ScopeKind, error) {
	for i, n := range scopeKindNames {
		if n == s {
			return ScopeKind(i), nil
		}
	}
	return 0, errors.Errorf("unknown scope type %q", s)
}

// A ScopeID is a handle to a scope in a Hierarchy.
type ScopeID int

// NoScope is the parent handle of the root scope.
const NoScope ScopeID = -1

// Scope is a node in the design hierarchy.
type Scope struct {
	Name     string
	Kind     ScopeKind
	Parent   ScopeID
	Children []ScopeID
	Signals  []SignalID
	// Path is the canonical slash separated path of the scope.
	Path string
}

// PathRules control how canonical scope paths are built.
type PathRules struct {
	// TopNames lists wrapper scope names that do not contribute to paths.
	TopNames []string
	// ResetPrefix: scopes whose name starts with this prefix start a new
	// path, discarding the path of their parent.
	ResetPrefix string
}

// Hierarchy resolves nested scope declarations into a tree with canonical
// path names.
//
// Scopes are stored in an arena and addressed by ScopeID. A scope's path is
// computed once, when it is entered, from its parent's path. The root and
// any scope named after one of the TopNames contribute nothing to paths.
type Hierarchy struct {
	rules  PathRules
	scopes []Scope
	root   ScopeID
}

// NewHierarchy returns an empty Hierarchy.
func NewHierarchy(rules PathRules) *Hierarchy {
	return &Hierarchy{rules: rules, root: NoScope}
}

// ErrStructure is the cause of errors due to malformed scope declarations.
var ErrStructure = errors.New("structural violation")

// Enter declares a scope named name of the given kind as a child of parent
// and returns its handle.
//
// The root scope must be entered first, with kind ScopeRoot and parent
// NoScope. Entering an already declared scope (same parent, name and kind)
// returns the existing handle.
func (h *Hierarchy) Enter(name string, kind ScopeKind, parent ScopeID) (ScopeID, error) {
	if kind == ScopeRoot {
		if parent != NoScope {
			return NoScope, errors.Wrapf(ErrStructure, "root scope %q declared with a parent", name)
		}
		if h.root != NoScope {
			if r := &h.scopes[h.root]; r.Name == name {
				return h.root, nil
			}
			return NoScope, errors.Wrapf(ErrStructure, "second root scope %q", name)
		}
		h.root = h.add(Scope{Name: name, Kind: kind, Parent: NoScope})
		return h.root, nil
	}

	if !h.valid(parent) {
		return NoScope, errors.Wrapf(ErrStructure, "scope %q declared before its parent (%d)", name, parent)
	}
	for _, c := range h.scopes[parent].Children {
		if s := &h.scopes[c]; s.Name == name && s.Kind == kind {
			return c, nil
		}
	}
	id := h.add(Scope{
		Name:   name,
		Kind:   kind,
		Parent: parent,
		Path:   h.path(name, h.scopes[parent].Path),
	})
	p := &h.scopes[parent]
	p.Children = append(p.Children, id)
	return id, nil
}

func (h *Hierarchy) add(s Scope) ScopeID {
	h.scopes = append(h.scopes, s)
	return ScopeID(len(h.scopes) - 1)
}

func (h *Hierarchy) path(name, parent string) string {
	if h.rules.ResetPrefix != "" && strings.HasPrefix(name, h.rules.ResetPrefix) {
		parent = ""
	}
	for _, t := range h.rules.TopNames {
		if name == t {
			return parent
		}
	}
	return parent + "/" + name
}

func (h *Hierarchy) valid(id ScopeID) bool {
	return id >= 0 && int(id) < len(h.scopes)
}

// Root returns the handle of the root scope, or NoScope if not yet declared.
func (h *Hierarchy) Root() ScopeID { return h.root }

// Scope returns the scope for the given handle. It panics if id is invalid.
func (h *Hierarchy) Scope(id ScopeID) *Scope {
	if !h.valid(id) {
		panic("invalid scope handle")
	}
	return &h.scopes[id]
}

// Path returns the canonical path of scope id.
func (h *Hierarchy) Path(id ScopeID) string {
	return h.Scope(id).Path
}

// Len returns the number of declared scopes.
func (h *Hierarchy) Len() int { return len(h.scopes) }

// Scopes returns all scopes in declaration order. The returned slice must not
// be modified.
func (h *Hierarchy) Scopes() []Scope { return h.scopes }

func (h *Hierarchy) addSignal(scope ScopeID, sig SignalID) {
	s := &h.scopes[scope]
	s.Signals = append(s.Signals, sig)
}
