// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdtrace

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Bit is a four-state logic value.
type Bit byte

// Four-state bit values.
const (
	B0 Bit = iota // logic zero
	B1            // logic one
	BX            // unknown
	BZ            // high impedance
)

// Char returns the display character for b: one of '0', '1', 'X' or 'Z'.
// Out of range values render as 'X'.
func (b Bit) Char() byte {
	switch b {
	case B0:
		return '0'
	case B1:
		return '1'
	case BZ:
		return 'Z'
	}
	return 'X'
}

func (b Bit) String() string { return string(b.Char()) }

// resolved returns true if b is either B0 or B1.
func (b Bit) resolved() bool { return b == B0 || b == B1 }

// ParseBit converts a VCD value character to a Bit. Both upper and lower case
// x and z are accepted.
func ParseBit(c byte) (Bit, error) {
	switch c {
	case '0':
		return B0, nil
	case '1':
		return B1, nil
	case 'x', 'X':
		return BX, nil
	case 'z', 'Z':
		return BZ, nil
	}
	return BX, errors.Errorf("invalid bit value %q", c)
}

// ParseBits converts a string of VCD value characters, most significant bit
// first, to a bit vector.
func ParseBits(s string) ([]Bit, error) {
	bits := make([]Bit, len(s))
	for i := 0; i < len(s); i++ {
		b, err := ParseBit(s[i])
		if err != nil {
			return nil, errors.Wrapf(err, "in %q at pos %d", s, i+1)
		}
		bits[i] = b
	}
	return bits, nil
}

// ExtendBits left-extends bits to width. Vectors starting with 0 or 1 are
// extended with zeroes, X and Z are extended with themselves. Vectors already
// at least width bits wide are returned as is.
func ExtendBits(bits []Bit, width int) []Bit {
	if len(bits) >= width {
		return bits
	}
	pad := B0
	if len(bits) > 0 && !bits[0].resolved() {
		pad = bits[0]
	}
	out := make([]Bit, width)
	n := width - len(bits)
	for i := 0; i < n; i++ {
		out[i] = pad
	}
	copy(out[n:], bits)
	return out
}

// A Kind identifies the representation of a Value.
type Kind int

// Value kinds.
const (
	Scalar Kind = iota
	Vector
	Real
)

// RealPlaceholder is the text rendered for real values unless numeric
// rendering is requested.
const RealPlaceholder = "REAL"

// UnknownPlaceholder is the text used in place of values that cannot be
// rendered.
const UnknownPlaceholder = "?"

// ErrUnrepresentable is returned by Value.Format for values of an unknown kind.
var ErrUnrepresentable = errors.New("unrepresentable value")

// Value is a signal value: a single bit, a bit vector (most significant bit
// first) or a 64 bits floating point number.
//
// The zero Value is the scalar 0.
type Value struct {
	kind Kind
	bit  Bit
	bits []Bit
	real float64
}

// ScalarValue returns a single bit Value.
func ScalarValue(b Bit) Value { return Value{kind: Scalar, bit: b} }

// VectorValue returns a bit vector Value. The slice is retained.
func VectorValue(bits []Bit) Value { return Value{kind: Vector, bits: bits} }

// RealValue returns a real Value.
func RealValue(f float64) Value { return Value{kind: Real, real: f} }

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// Bit returns the bit of a scalar value.
func (v Value) Bit() Bit { return v.bit }

// Bits returns the bits of a vector value.
func (v Value) Bits() []Bit { return v.bits }

// Real returns the float value of a real value.
func (v Value) Real() float64 { return v.real }

// Equal returns true if v and w have the same kind and content.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case Scalar:
		return v.bit == w.bit
	case Vector:
		if len(v.bits) != len(w.bits) {
			return false
		}
		for i := range v.bits {
			if v.bits[i] != w.bits[i] {
				return false
			}
		}
		return true
	case Real:
		return v.real == w.real
	}
	return false
}

// FormatOptions controls value rendering.
type FormatOptions struct {
	// NumericReals renders real values as numbers instead of RealPlaceholder.
	NumericReals bool
}

// String renders v with default options. Unrepresentable values render as
// UnknownPlaceholder.
func (v Value) String() string {
	s, err := v.Format(FormatOptions{})
	if err != nil {
		return UnknownPlaceholder
	}
	return s
}

// Format renders v as text.
//
// Scalars render as a single character. Vectors render in lowercase
// hexadecimal, left-padded with zeroes to a multiple of 4 bits, with an
// underscore between every group of 8 hex digits counting from the most
// significant digit. Vectors with any X or Z bit are rendered bit by bit
// instead.
func (v Value) Format(opts FormatOptions) (string, error) {
	switch v.kind {
	case Scalar:
		return v.bit.String(), nil
	case Vector:
		return formatBits(v.bits), nil
	case Real:
		if opts.NumericReals {
			return strconv.FormatFloat(v.real, 'g', -1, 64), nil
		}
		return RealPlaceholder, nil
	}
	return "", errors.Wrapf(ErrUnrepresentable, "value kind %d", v.kind)
}

const hexDigits = "0123456789abcdef"

func formatBits(bits []Bit) string {
	var b strings.Builder
	for _, bit := range bits {
		if !bit.resolved() {
			b.Grow(len(bits))
			for _, bit := range bits {
				b.WriteByte(bit.Char())
			}
			return b.String()
		}
	}

	pad := (4 - len(bits)%4) % 4
	digits := (len(bits) + pad) / 4
	b.Grow(digits + digits/8)
	var nibble byte
	for i := 0; i < len(bits)+pad; i++ {
		if i > 0 && i%32 == 0 {
			b.WriteByte('_')
		}
		nibble <<= 1
		if i >= pad && bits[i-pad] == B1 {
			nibble |= 1
		}
		if i%4 == 3 {
			b.WriteByte(hexDigits[nibble])
			nibble = 0
		}
	}
	return b.String()
}
