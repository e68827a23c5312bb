// Package bitvec provides fixed-width bit vectors used as slot and lane masks
// throughout the arbiter model. Bit i of a vector corresponds to slot (or
// lane) i.
//
// Vectors are small values. The combinational helpers (And, Or, AndNot, Not)
// always return a fresh vector, so a result can be latched without aliasing
// the operands. Set and Clear mutate in place.
package bitvec

import (
	"fmt"
	"math/bits"
	"strings"
)

const wordBits = 64

// Vec is a bit vector of a fixed width.
type Vec struct {
	width int
	words []uint64
}

// New returns an all-zero vector of the given width.
func New(width int) Vec {
	if width < 0 {
		panic(fmt.Sprintf("bitvec: negative width %d", width))
	}

	return Vec{
		width: width,
		words: make([]uint64, (width+wordBits-1)/wordBits),
	}
}

// Ones returns a vector with every bit set.
func Ones(width int) Vec {
	v := New(width)
	for i := range v.words {
		v.words[i] = ^uint64(0)
	}
	v.trim()

	return v
}

// OneHot returns a vector with only bit idx set.
func OneHot(width, idx int) Vec {
	v := New(width)
	v.Set(idx)

	return v
}

// FromIndices returns a vector with the listed bits set.
func FromIndices(width int, indices ...int) Vec {
	v := New(width)
	for _, i := range indices {
		v.Set(i)
	}

	return v
}

// FromBools returns a vector whose bit i is b[i].
func FromBools(b []bool) Vec {
	v := New(len(b))
	for i, set := range b {
		if set {
			v.Set(i)
		}
	}

	return v
}

// Width returns the number of bits in the vector.
func (v Vec) Width() int {
	return v.width
}

// Test reports whether bit i is set.
func (v Vec) Test(i int) bool {
	v.indexMustBeInRange(i)
	return v.words[i/wordBits]&(1<<(uint(i)%wordBits)) != 0
}

// Set sets bit i.
func (v *Vec) Set(i int) {
	v.indexMustBeInRange(i)
	v.words[i/wordBits] |= 1 << (uint(i) % wordBits)
}

// Clear clears bit i.
func (v *Vec) Clear(i int) {
	v.indexMustBeInRange(i)
	v.words[i/wordBits] &^= 1 << (uint(i) % wordBits)
}

// SetTo sets bit i to b.
func (v *Vec) SetTo(i int, b bool) {
	if b {
		v.Set(i)
	} else {
		v.Clear(i)
	}
}

// Clone returns a copy that does not share storage with v.
func (v Vec) Clone() Vec {
	c := Vec{width: v.width, words: make([]uint64, len(v.words))}
	copy(c.words, v.words)

	return c
}

// And returns v & o.
func (v Vec) And(o Vec) Vec {
	v.widthMustMatch(o)

	r := New(v.width)
	for i := range r.words {
		r.words[i] = v.words[i] & o.words[i]
	}

	return r
}

// Or returns v | o.
func (v Vec) Or(o Vec) Vec {
	v.widthMustMatch(o)

	r := New(v.width)
	for i := range r.words {
		r.words[i] = v.words[i] | o.words[i]
	}

	return r
}

// AndNot returns v & ^o.
func (v Vec) AndNot(o Vec) Vec {
	v.widthMustMatch(o)

	r := New(v.width)
	for i := range r.words {
		r.words[i] = v.words[i] &^ o.words[i]
	}

	return r
}

// Not returns ^v, restricted to the vector width.
func (v Vec) Not() Vec {
	r := New(v.width)
	for i := range r.words {
		r.words[i] = ^v.words[i]
	}
	r.trim()

	return r
}

// IsZero reports whether no bit is set.
func (v Vec) IsZero() bool {
	for _, w := range v.words {
		if w != 0 {
			return false
		}
	}

	return true
}

// Count returns the number of set bits.
func (v Vec) Count() int {
	n := 0
	for _, w := range v.words {
		n += bits.OnesCount64(w)
	}

	return n
}

// IsOneHot reports whether exactly one bit is set.
func (v Vec) IsOneHot() bool {
	return v.Count() == 1
}

// IsOneHotOrZero reports whether at most one bit is set.
func (v Vec) IsOneHotOrZero() bool {
	return v.Count() <= 1
}

// Equal reports whether both vectors have the same width and bits.
func (v Vec) Equal(o Vec) bool {
	if v.width != o.width {
		return false
	}

	for i := range v.words {
		if v.words[i] != o.words[i] {
			return false
		}
	}

	return true
}

// TrailingZeros counts zero bits below the lowest set bit. It returns the
// width for an all-zero vector, like a hardware tzc with an empty flag.
func (v Vec) TrailingZeros() int {
	for i, w := range v.words {
		if w != 0 {
			return i*wordBits + bits.TrailingZeros64(w)
		}
	}

	return v.width
}

// LeadingZeros counts zero bits above the highest set bit, measured from
// bit width-1. It returns the width for an all-zero vector.
func (v Vec) LeadingZeros() int {
	for i := len(v.words) - 1; i >= 0; i-- {
		w := v.words[i]
		if w == 0 {
			continue
		}

		highest := i*wordBits + wordBits - 1 - bits.LeadingZeros64(w)

		return v.width - 1 - highest
	}

	return v.width
}

// Lowest returns the index of the lowest set bit, or -1.
func (v Vec) Lowest() int {
	tz := v.TrailingZeros()
	if tz == v.width {
		return -1
	}

	return tz
}

// Highest returns the index of the highest set bit, or -1.
func (v Vec) Highest() int {
	lz := v.LeadingZeros()
	if lz == v.width {
		return -1
	}

	return v.width - 1 - lz
}

// Indices returns the set bit positions in ascending order.
func (v Vec) Indices() []int {
	out := make([]int, 0, v.Count())
	for i, w := range v.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, i*wordBits+b)
			w &= w - 1
		}
	}

	return out
}

// Bools returns the vector as a bool slice.
func (v Vec) Bools() []bool {
	out := make([]bool, v.width)
	for _, i := range v.Indices() {
		out[i] = true
	}

	return out
}

// String prints the vector MSB first, the way a waveform viewer shows a bus.
func (v Vec) String() string {
	var sb strings.Builder
	sb.Grow(v.width)

	for i := v.width - 1; i >= 0; i-- {
		if v.Test(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}

	return sb.String()
}

func (v *Vec) trim() {
	rem := uint(v.width) % wordBits
	if rem == 0 || len(v.words) == 0 {
		return
	}

	v.words[len(v.words)-1] &= (uint64(1) << rem) - 1
}

func (v Vec) indexMustBeInRange(i int) {
	if i < 0 || i >= v.width {
		panic(fmt.Sprintf("bitvec: index %d out of range [0, %d)", i, v.width))
	}
}

func (v Vec) widthMustMatch(o Vec) {
	if v.width != o.width {
		panic(fmt.Sprintf("bitvec: width mismatch %d vs %d", v.width, o.width))
	}
}
