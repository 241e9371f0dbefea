// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vcd

import (
	"bufio"
	"io"
	"strings"
	"unicode"
)

// Token types
const (
	EOF     Type = iota
	Keyword      // $scope, $var, ...
	End          // $end
	Time         // #123
	Word         // anything else
	Error
)

// Type is the type of a lexed token.
type Type int

// Item is a lexed token.
type Item struct {
	Type  Type
	Value string
	Line  int
}

type stateFn func(l *Lexer) stateFn

// Lexer splits a VCD document into tokens. VCD tokens are separated by white
// space.
type Lexer struct {
	r     *bufio.Reader
	line  int
	buf   strings.Builder
	start int
	items []Item
	state stateFn
}

// NewLexer returns a new Lexer reading from r.
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{r: bufio.NewReader(r), line: 1, state: lexSpace}
}

// Lex returns the next token.
func (l *Lexer) Lex() Item {
	for len(l.items) == 0 {
		l.state = l.state(l)
	}
	i := l.items[0]
	l.items = l.items[1:]
	return i
}

func (l *Lexer) next() rune {
	r, _, err := l.r.ReadRune()
	if err != nil {
		if err != io.EOF {
			l.emit(Error, err.Error())
		}
		r = -1
	}
	if r == '\n' {
		l.line++
	}
	return r
}

func (l *Lexer) emit(t Type, v string) {
	l.items = append(l.items, Item{t, v, l.start})
}

func lexSpace(l *Lexer) stateFn {
	r := l.next()
	for r >= 0 && unicode.IsSpace(r) {
		r = l.next()
	}
	if r < 0 {
		l.start = l.line
		l.emit(EOF, "")
		return lexEOF
	}
	l.start = l.line
	l.buf.Reset()
	l.buf.WriteRune(r)
	return lexWord
}

func lexWord(l *Lexer) stateFn {
	r := l.next()
	for r >= 0 && !unicode.IsSpace(r) {
		l.buf.WriteRune(r)
		r = l.next()
	}
	w := l.buf.String()
	switch {
	case w == "$end":
		l.emit(End, w)
	case w[0] == '$' && len(w) > 1:
		l.emit(Keyword, w)
	case w[0] == '#' && len(w) > 1:
		l.emit(Time, w[1:])
	default:
		l.emit(Word, w)
	}
	if r < 0 {
		l.emit(EOF, "")
		return lexEOF
	}
	return lexSpace
}

func lexEOF(l *Lexer) stateFn {
	l.emit(EOF, "")
	return lexEOF
}
