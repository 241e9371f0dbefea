package vcdtrace

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// An EntryKind identifies the kind of a trace Entry.
type EntryKind int

// Entry kinds.
const (
	EntryCall   EntryKind = iota // a method call: enable and ready both high
	EntryReady                   // a ready signal went high
	EntryEnable                  // an enable signal went high without a matching call
	EntrySignal                  // any other signal change
)

var entryKindNames = [...]string{"call", "ready", "enable", "signal"}

func (k EntryKind) String() string {
	if k < 0 || int(k) >= len(entryKindNames) {
		return "unknown"
	}
	return entryKindNames[k]
}

// Param is a captured method parameter.
type Param struct {
	Name  string
	Value string
}

// Entry is a line in a reconstructed trace.
type Entry struct {
	Time uint64
	Kind EntryKind
	// Name is the method name for calls, the signal alias otherwise.
	Name   string
	Value  string
	Params []Param
}

// String returns a one line representation of e, without its time.
func (e Entry) String() string {
	switch e.Kind {
	case EntryCall:
		var b strings.Builder
		b.WriteString(e.Name)
		b.WriteByte('(')
		for i, p := range e.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Name)
			b.WriteByte('=')
			b.WriteString(p.Value)
		}
		b.WriteByte(')')
		return b.String()
	case EntryReady, EntryEnable:
		return e.Kind.String() + " " + e.Name
	}
	return e.Name + " = " + e.Value
}

// WriteTrace writes entries to w, one per line, with a header line at the
// start of each cycle.
func WriteTrace(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for i, e := range entries {
		if i == 0 || entries[i-1].Time != e.Time {
			fmt.Fprintf(bw, "----------------------------- %d -----------------------------\n", e.Time)
		}
		switch e.Kind {
		case EntryCall:
			fmt.Fprintf(bw, "%s\n", e.String())
		case EntryReady:
			fmt.Fprintf(bw, "  %-50s %s\n", e.Name, "RDY")
		case EntryEnable:
			fmt.Fprintf(bw, "  %-50s %s\n", e.Name, "ENA")
		default:
			fmt.Fprintf(bw, "  %-50s = %8s\n", e.Name, e.Value)
		}
	}
	return bw.Flush()
}
