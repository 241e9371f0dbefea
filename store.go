// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdtrace

import (
	"sort"

	"github.com/pkg/errors"
)

// Sample is a value tagged with the time it was set.
type Sample struct {
	Time  uint64
	Value Value
}

// ErrTimeOrder is the cause of errors due to samples going back in time.
var ErrTimeOrder = errors.New("time went backwards")

// Store is an append only, time indexed store of signal values.
type Store struct {
	series map[string][]Sample
	ids    []string
	times  []uint64
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{series: make(map[string][]Sample)}
}

// Init creates an empty series for id if it does not exist yet.
func (s *Store) Init(id string) {
	if _, ok := s.series[id]; !ok {
		s.series[id] = nil
		s.ids = append(s.ids, id)
	}
}

// Append adds a sample to the series of id. Samples for a given id must be
// appended in non-decreasing time order.
func (s *Store) Append(id string, t uint64, v Value) error {
	s.Init(id)
	ser := s.series[id]
	if n := len(ser); n > 0 && ser[n-1].Time > t {
		return errors.Wrapf(ErrTimeOrder, "signal %s: sample at %d after %d", id, t, ser[n-1].Time)
	}
	s.series[id] = append(ser, Sample{t, v})
	if n := len(s.times); n == 0 || s.times[n-1] < t {
		s.times = append(s.times, t)
	}
	return nil
}

// ValueAt returns the value of id at time t, that is the value of the last
// sample recorded at or before t. It returns false if id is unknown or has no
// such sample.
func (s *Store) ValueAt(id string, t uint64) (Value, bool) {
	ser := s.series[id]
	i := sort.Search(len(ser), func(i int) bool { return ser[i].Time > t })
	if i == 0 {
		return Value{}, false
	}
	return ser[i-1].Value, true
}

// Samples returns the samples recorded for id. The returned slice must not be
// modified.
func (s *Store) Samples(id string) []Sample { return s.series[id] }

// Times returns the distinct sample times in increasing order.
func (s *Store) Times() []uint64 { return s.times }

// Identifiers returns the identifiers known to the store in first seen order.
func (s *Store) Identifiers() []string { return s.ids }
