/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package address

import "errors"

var (
	ErrZeroSize        = errors.New("address: range size must be > 0")
	ErrAlignNotPow2     = errors.New("address: alignment must be a power of two")
)

// Range is a half-open [Start, Start+Size) interval over an Address,
// with an optional power-of-two alignment constraint.
type Range struct {
	start     Address
	size      uint64
	alignment uint64 // 0 means "no alignment constraint"
}

// NewRange validates size > 0 and, if alignment is non-zero, that it is
// a power of two (spec §3).
func NewRange(start Address, size, alignment uint64) (Range, error) {
	if size == 0 {
		return Range{}, ErrZeroSize
	}
	if alignment != 0 && !isPowerOfTwo(alignment) {
		return Range{}, ErrAlignNotPow2
	}
	return Range{start: start, size: size, alignment: alignment}, nil
}

func isPowerOfTwo(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

func (r Range) Start() Address   { return r.start }
func (r Range) Size() uint64     { return r.size }
func (r Range) Alignment() uint64 { return r.alignment }

// End returns start+size as a raw value in the same kind/bits as Start,
// saturating rather than panicking on overflow.
func (r Range) End() Address {
	e, err := r.start.Add(r.size)
	if err != nil {
		// Saturate at the max representable value for the address's bits.
		e = r.start
		e.value = r.start.mask()
	}
	return e
}

// Contains reports whether v falls within [Start, End).
func (r Range) Contains(v uint64) bool {
	s := r.start.Value()
	return v >= s && v < s+r.size
}

// Overlaps reports whether the two ranges share at least one value.
func (r Range) Overlaps(o Range) bool {
	as, ae := r.start.Value(), r.start.Value()+r.size
	bs, be := o.start.Value(), o.start.Value()+o.size
	return as < be && bs < ae
}

// Aligned reports whether Start is aligned to Alignment (true when no
// alignment was requested).
func (r Range) Aligned() bool {
	if r.alignment == 0 {
		return true
	}
	return r.start.Value()%r.alignment == 0
}
