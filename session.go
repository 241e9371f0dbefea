// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdtrace

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Handler receives the declaration and value change events of a trace, in
// file order.
//
// Scope and Var calls make up the declaration phase, which ends with
// EndDefinitions. Change calls follow, with non-decreasing times. Done is
// called once at end of stream.
type Handler interface {
	Scope(name string, kind ScopeKind, parent ScopeID) (ScopeID, error)
	Var(id string, scope ScopeID, name string, width int, kind VarKind) error
	EndDefinitions() error
	Change(id string, t uint64, v Value) error
	Done() error
}

// An Option configures a Session.
type Option func(*Session)

// WithConfig sets the decoding conventions. A nil config selects
// DefaultConfig.
func WithConfig(cfg *Config) Option {
	return func(s *Session) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets the logger. Sessions discard log output by default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithMetrics sets the counters updated while decoding.
func WithMetrics(m *Metrics) Option {
	return func(s *Session) { s.m = m }
}

// WithSink sets a function called for every trace entry as soon as it is
// emitted.
func WithSink(f func(Entry)) Option {
	return func(s *Session) { s.sink = f }
}

type phase int

const (
	phaseDecl phase = iota
	phaseValues
	phaseDone
)

// Session is a single decoding run. It implements Handler and gives access
// to the decoded hierarchy, values and trace entries.
//
// A Session is not safe for concurrent use.
type Session struct {
	cfg  *Config
	log  *slog.Logger
	m    *Metrics
	sink func(Entry)
	id   string

	h     *Hierarchy
	reg   *Registry
	store *Store
	rec   *Reconstructor
	fopts FormatOptions

	phase     phase
	now       uint64
	untracked map[string]int
}

// New returns a new decoding session.
func New(opts ...Option) *Session {
	s := &Session{
		cfg:       DefaultConfig(),
		id:        uuid.NewString(),
		untracked: make(map[string]int),
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.log = s.log.With(slog.String("session", s.id))
	s.h = NewHierarchy(s.cfg.PathRules())
	s.reg = NewRegistry(s.h, s.cfg.Naming(), s.cfg.InternalMarker)
	s.store = NewStore()
	s.rec = NewReconstructor(s.reg, s.cfg.ClockAliases, s.cfg.ParamSeparator)
	s.rec.sink = s.sink
	s.rec.m = s.m
	s.fopts = FormatOptions{NumericReals: s.cfg.NumericReals}
	return s
}

// ID returns the session identifier used in log records.
func (s *Session) ID() string { return s.id }

// Scope implements Handler.
func (s *Session) Scope(name string, kind ScopeKind, parent ScopeID) (ScopeID, error) {
	if s.phase != phaseDecl {
		return NoScope, errors.Wrapf(ErrPhase, "scope %q declared after end of definitions", name)
	}
	id, err := s.h.Enter(name, kind, parent)
	if err != nil {
		return NoScope, err
	}
	s.log.Debug("scope", slog.String("name", name), slog.String("kind", kind.String()), slog.String("path", s.h.Path(id)))
	return id, nil
}

// Var implements Handler.
func (s *Session) Var(id string, scope ScopeID, name string, width int, kind VarKind) error {
	if s.phase != phaseDecl {
		return errors.Wrapf(ErrPhase, "signal %q declared after end of definitions", name)
	}
	sid, err := s.reg.Register(Signal{ID: id, Name: name, Scope: scope, Width: width, Kind: kind})
	if err != nil {
		return err
	}
	s.store.Init(id)
	s.log.Debug("signal", slog.String("id", id), slog.String("path", s.reg.Signal(sid).Path),
		slog.Int("width", width), slog.String("kind", kind.String()))
	return nil
}

// EndDefinitions implements Handler. It finalizes the signal registry.
func (s *Session) EndDefinitions() error {
	if s.phase != phaseDecl {
		return errors.Wrap(ErrPhase, "duplicate end of definitions")
	}
	s.reg.Finalize()
	s.rec.Seed()
	s.phase = phaseValues
	s.log.Debug("end of definitions", slog.Int("scopes", s.h.Len()), slog.Int("signals", len(s.reg.Signals())))
	return nil
}

// Change implements Handler.
func (s *Session) Change(id string, t uint64, v Value) error {
	switch s.phase {
	case phaseDecl:
		if !s.cfg.LazyFinalize {
			return errors.Wrapf(ErrPhase, "value change for %s before end of definitions", id)
		}
		if err := s.EndDefinitions(); err != nil {
			return err
		}
	case phaseDone:
		return errors.Wrapf(ErrPhase, "value change for %s after end of stream", id)
	}
	if t < s.now {
		return errors.Wrapf(ErrTimeOrder, "value change for %s at %d after %d", id, t, s.now)
	}
	s.now = t
	if err := s.store.Append(id, t, v); err != nil {
		return err
	}

	tracked := s.reg.Tracked(id)
	s.m.change(tracked)
	if !tracked {
		if s.untracked[id] == 0 {
			s.log.Debug("untracked identifier", slog.String("id", id), slog.Uint64("time", t))
		}
		s.untracked[id]++
		return nil
	}

	text, err := v.Format(s.fopts)
	if err != nil {
		s.log.Warn("cannot render value", slog.String("id", id), slog.Uint64("time", t), slog.String("error", err.Error()))
		text = UnknownPlaceholder
	}
	if t == 0 && s.cfg.SkipInitialZeros && strings.Trim(text, "0_") == "" {
		return nil
	}
	s.rec.Change(id, t, text)
	return nil
}

// Done implements Handler. It flushes the last pending cycle.
func (s *Session) Done() error {
	if s.phase == phaseDone {
		return errors.Wrap(ErrPhase, "duplicate end of stream")
	}
	if s.phase == phaseDecl {
		s.reg.Finalize()
		s.rec.Seed()
	}
	s.rec.Flush()
	s.phase = phaseDone
	s.log.Debug("end of stream", slog.Int("times", len(s.store.Times())), slog.Int("entries", len(s.rec.Entries())))
	return nil
}

// ValueAt returns the value of identifier id at time t.
func (s *Session) ValueAt(id string, t uint64) (Value, bool) { return s.store.ValueAt(id, t) }

// Times returns the distinct times of all recorded samples.
func (s *Session) Times() []uint64 { return s.store.Times() }

// Hierarchy returns the scope tree.
func (s *Session) Hierarchy() *Hierarchy { return s.h }

// Scopes returns all scopes in declaration order.
func (s *Session) Scopes() []Scope { return s.h.Scopes() }

// Registry returns the signal registry.
func (s *Session) Registry() *Registry { return s.reg }

// Signals returns all signal declarations in declaration order.
func (s *Session) Signals() []Signal { return s.reg.Signals() }

// Store returns the value store.
func (s *Session) Store() *Store { return s.store }

// Entries returns the trace entries emitted so far.
func (s *Session) Entries() []Entry { return s.rec.Entries() }

// Untracked returns the number of value changes received for each
// undeclared identifier.
func (s *Session) Untracked() map[string]int { return s.untracked }
