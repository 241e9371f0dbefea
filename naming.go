// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdtrace

import "strings"

// Naming holds the suffix tokens that mark guarded action signals.
//
// A ready or enable signal name is made of a base name, the suffix token and
// an optional index token enclosed in brackets or parentheses:
//
//	fifo_enq__RDY
//	fifo_enq__ENA
//	port__ENA[2]
//	port__RDY[2]
//
// The method name is the signal name with the suffix token removed, the index
// token being kept: "port__ENA[2]" belongs to method "port[2]".
type Naming struct {
	Ready  string
	Enable string
}

// DefaultNaming uses the "__RDY" and "__ENA" suffix tokens.
var DefaultNaming = Naming{Ready: "__RDY", Enable: "__ENA"}

// Base returns the method name for the given signal name. Names without a
// ready or enable suffix are returned unchanged.
func (n Naming) Base(name string) string {
	for _, sfx := range [...]string{n.Enable + "[", n.Ready + "[", n.Enable + "(", n.Ready + "("} {
		if i := strings.Index(name, sfx); i > 0 {
			sl := len(sfx) - 1
			return name[:i] + name[i+sl:]
		}
	}
	if strings.HasSuffix(name, n.Enable) {
		return name[:len(name)-len(n.Enable)]
	}
	if strings.HasSuffix(name, n.Ready) {
		return name[:len(name)-len(n.Ready)]
	}
	return name
}

// ReadyName returns the name of the ready signal for the method of name.
func (n Naming) ReadyName(name string) string {
	base, idx := splitIndex(n.Base(name))
	return base + n.Ready + idx
}

// EnableName returns the name of the enable signal for the method of name.
func (n Naming) EnableName(name string) string {
	base, idx := splitIndex(n.Base(name))
	return base + n.Enable + idx
}

// IsReady returns true if name is a ready signal name.
func (n Naming) IsReady(name string) bool { return name == n.ReadyName(name) }

// IsEnable returns true if name is an enable signal name.
func (n Naming) IsEnable(name string) bool { return name == n.EnableName(name) }

// splitIndex splits a trailing [...] or (...) token from name.
func splitIndex(name string) (base, index string) {
	var open byte
	switch {
	case strings.HasSuffix(name, "]"):
		open = '['
	case strings.HasSuffix(name, ")"):
		open = '('
	default:
		return name, ""
	}
	i := strings.LastIndexByte(name, open)
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// BaseMethodName returns DefaultNaming.Base(name).
func BaseMethodName(name string) string { return DefaultNaming.Base(name) }

// ReadyName returns DefaultNaming.ReadyName(name).
func ReadyName(name string) string { return DefaultNaming.ReadyName(name) }

// EnableName returns DefaultNaming.EnableName(name).
func EnableName(name string) string { return DefaultNaming.EnableName(name) }

// IsReadyName returns DefaultNaming.IsReady(name).
func IsReadyName(name string) bool { return DefaultNaming.IsReady(name) }

// IsEnableName returns DefaultNaming.IsEnable(name).
func IsEnableName(name string) bool { return DefaultNaming.IsEnable(name) }

// MethodOf returns the method a ready or enable signal belongs to, using
// DefaultNaming. It returns "" for other signals.
func MethodOf(name string) string {
	if c := DefaultNaming.Classify(name); c.Role != RolePlain {
		return c.Method
	}
	return ""
}

// A Role tells how a signal takes part in a guarded action.
type Role int

// Signal roles.
const (
	RolePlain Role = iota
	RoleReady
	RoleEnable
)

func (r Role) String() string {
	switch r {
	case RoleReady:
		return "ready"
	case RoleEnable:
		return "enable"
	}
	return "plain"
}

// Class is the action classification of a signal alias.
type Class struct {
	Role Role
	// Method is the base method name for ready and enable signals, the alias
	// itself otherwise.
	Method string
}

// Classify returns the classification of name.
func (n Naming) Classify(name string) Class {
	switch {
	case n.IsEnable(name):
		return Class{RoleEnable, n.Base(name)}
	case n.IsReady(name):
		return Class{RoleReady, n.Base(name)}
	}
	return Class{RolePlain, name}
}

// paramOwner returns the part of name before the last sep, or "" if name
// contains no sep.
func paramOwner(name, sep string) string {
	i := strings.LastIndex(name, sep)
	if i < 0 {
		return ""
	}
	return name[:i]
}
