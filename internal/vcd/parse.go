// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package vcd parses Value Change Dump files.
package vcd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/db47h/vcdtrace"
	"github.com/pkg/errors"
)

// RootScope is the name of the implicit root scope.
const RootScope = "$root"

// Header holds the header sections of a VCD file.
type Header struct {
	Date      string
	Version   string
	Timescale string
	Comments  []string
}

// SyntaxError reports a malformed VCD document.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type parser struct {
	l      *Lexer
	h      vcdtrace.Handler
	hdr    Header
	scopes []vcdtrace.ScopeID
	widths map[string]int
	defs   bool // declaration phase
	time   uint64
	item   Item
}

// Parse reads a VCD document from r and sends its declarations and value
// changes to h. A root scope named RootScope is declared before anything
// else. h.Done is called once the whole input has been read.
//
// Unknown scope types are declared as modules and unknown variable types as
// wires.
func Parse(r io.Reader, h vcdtrace.Handler) (*Header, error) {
	p := &parser{l: NewLexer(r), h: h, widths: make(map[string]int), defs: true}
	root, err := h.Scope(RootScope, vcdtrace.ScopeRoot, vcdtrace.NoScope)
	if err != nil {
		return nil, err
	}
	p.scopes = append(p.scopes, root)
	if err = p.parse(); err != nil {
		return nil, err
	}
	return &p.hdr, nil
}

func (p *parser) next() Item {
	p.item = p.l.Lex()
	return p.item
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Line: p.item.Line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) wrap(err error) error {
	return errors.Wrapf(err, "line %d", p.item.Line)
}

// words returns the words up to the next $end.
func (p *parser) words() ([]string, error) {
	var ws []string
	for {
		switch i := p.next(); i.Type {
		case End:
			return ws, nil
		case Word, Keyword:
			ws = append(ws, i.Value)
		case Time:
			ws = append(ws, "#"+i.Value)
		case Error:
			return nil, p.errorf("%s", i.Value)
		default:
			return nil, p.errorf("unexpected end of input, missing $end")
		}
	}
}

func (p *parser) parse() error {
	for {
		i := p.next()
		var err error
		switch i.Type {
		case EOF:
			if p.defs {
				if err = p.h.EndDefinitions(); err != nil {
					return p.wrap(err)
				}
			}
			return p.h.Done()
		case Error:
			return p.errorf("%s", i.Value)
		case Keyword:
			err = p.keyword(i.Value)
		case End:
			// closes $dumpvars and friends
		case Time:
			if p.defs {
				return p.errorf("timestamp before $enddefinitions")
			}
			t, perr := strconv.ParseUint(i.Value, 10, 64)
			if perr != nil {
				return p.errorf("invalid timestamp %q", i.Value)
			}
			if t < p.time {
				return p.errorf("timestamp %d lower than %d", t, p.time)
			}
			p.time = t
		case Word:
			if p.defs {
				return p.errorf("value change before $enddefinitions")
			}
			err = p.change(i.Value)
		}
		if err != nil {
			return err
		}
	}
}

func (p *parser) keyword(kw string) error {
	switch kw {
	case "$date", "$version", "$timescale", "$comment":
		ws, err := p.words()
		if err != nil {
			return err
		}
		s := strings.Join(ws, " ")
		switch kw {
		case "$date":
			p.hdr.Date = s
		case "$version":
			p.hdr.Version = s
		case "$timescale":
			p.hdr.Timescale = s
		default:
			p.hdr.Comments = append(p.hdr.Comments, s)
		}
		return nil
	case "$scope":
		return p.scope()
	case "$upscope":
		if _, err := p.words(); err != nil {
			return err
		}
		if len(p.scopes) < 2 {
			return p.errorf("$upscope without matching $scope")
		}
		p.scopes = p.scopes[:len(p.scopes)-1]
		return nil
	case "$var":
		return p.variable()
	case "$enddefinitions":
		if _, err := p.words(); err != nil {
			return err
		}
		if !p.defs {
			return p.errorf("duplicate $enddefinitions")
		}
		p.defs = false
		if err := p.h.EndDefinitions(); err != nil {
			return p.wrap(err)
		}
		return nil
	case "$dumpvars", "$dumpall", "$dumpon", "$dumpoff":
		if p.defs {
			return p.errorf("%s before $enddefinitions", kw)
		}
		return nil
	}
	return p.errorf("unknown keyword %s", kw)
}

func (p *parser) scope() error {
	if !p.defs {
		return p.errorf("$scope after $enddefinitions")
	}
	ws, err := p.words()
	if err != nil {
		return err
	}
	if len(ws) != 2 {
		return p.errorf("malformed $scope")
	}
	kind, err := vcdtrace.ParseScopeKind(ws[0])
	if err != nil {
		kind = vcdtrace.ScopeModule
	}
	if kind == vcdtrace.ScopeRoot {
		return p.errorf("invalid scope type %s", ws[0])
	}
	id, err := p.h.Scope(ws[1], kind, p.scopes[len(p.scopes)-1])
	if err != nil {
		return p.wrap(err)
	}
	p.scopes = append(p.scopes, id)
	return nil
}

func (p *parser) variable() error {
	if !p.defs {
		return p.errorf("$var after $enddefinitions")
	}
	ws, err := p.words()
	if err != nil {
		return err
	}
	if len(ws) < 4 {
		return p.errorf("malformed $var")
	}
	kind, err := vcdtrace.ParseVarKind(ws[0])
	if err != nil {
		kind = vcdtrace.VarWire
	}
	width, err := strconv.Atoi(ws[1])
	if err != nil || width < 0 {
		return p.errorf("invalid variable size %q", ws[1])
	}
	id, name := ws[2], strings.Join(ws[3:], "")
	if w, ok := p.widths[id]; !ok || width > w {
		p.widths[id] = width
	}
	if err = p.h.Var(id, p.scopes[len(p.scopes)-1], name, width, kind); err != nil {
		return p.wrap(err)
	}
	return nil
}

func (p *parser) change(w string) error {
	var (
		v   vcdtrace.Value
		id  string
		err error
	)
	switch c := w[0]; c {
	case 'b', 'B':
		bits, berr := vcdtrace.ParseBits(w[1:])
		if berr != nil {
			return p.errorf("%v", berr)
		}
		if id, err = p.identifier(); err != nil {
			return err
		}
		v = vcdtrace.VectorValue(vcdtrace.ExtendBits(bits, p.widths[id]))
	case 'r', 'R':
		f, ferr := strconv.ParseFloat(w[1:], 64)
		if ferr != nil {
			return p.errorf("invalid real value %q", w)
		}
		if id, err = p.identifier(); err != nil {
			return err
		}
		v = vcdtrace.RealValue(f)
	default:
		b, berr := vcdtrace.ParseBit(c)
		if berr != nil {
			return p.errorf("invalid value change %q", w)
		}
		if len(w) < 2 {
			return p.errorf("missing identifier in %q", w)
		}
		id = w[1:]
		v = vcdtrace.ScalarValue(b)
	}
	if err = p.h.Change(id, p.time, v); err != nil {
		return p.wrap(err)
	}
	return nil
}

func (p *parser) identifier() (string, error) {
	switch i := p.next(); i.Type {
	case Word, Keyword:
		return i.Value, nil
	case Time:
		// identifier codes may start with '#'
		return "#" + i.Value, nil
	}
	return "", p.errorf("missing identifier")
}
