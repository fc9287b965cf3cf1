/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesBits(t *testing.T) {
	_, err := New(VirtualAddress, 0, 8, "", "")
	assert.ErrorIs(t, err, ErrBitsUnsupported)
}

func TestNewValidatesValueFitsBits(t *testing.T) {
	_, err := New(VirtualAddress, 0x10000, 16, "", "")
	assert.ErrorIs(t, err, ErrValueOutOfRange)

	a, err := New(VirtualAddress, 0xFFFF, 16, "", "")
	require.NoError(t, err)
	assert.EqualValues(t, 0xFFFF, a.Value())
}

func TestSymbolicRequiresSymbol(t *testing.T) {
	_, err := New(Symbolic, 0, 64, "", "")
	assert.ErrorIs(t, err, ErrMissingSymbol)

	a, err := New(Symbolic, 0, 64, "", "main")
	require.NoError(t, err)
	assert.Equal(t, "main", a.Symbol())
}

func Test16BitAddRejectsOverflow(t *testing.T) {
	a, err := New(VirtualAddress, 0xFFF0, 16, "", "")
	require.NoError(t, err)
	_, err = a.Add(0x20)
	assert.ErrorIs(t, err, ErrOverflow)
}

func Test64BitAddWraps(t *testing.T) {
	a, err := New(VirtualAddress, ^uint64(0), 64, "", "")
	require.NoError(t, err)
	b, err := a.Add(2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, b.Value())
}

func Test64BitSubWraps(t *testing.T) {
	a, err := New(VirtualAddress, 0, 64, "", "")
	require.NoError(t, err)
	b, err := a.Sub(1)
	require.NoError(t, err)
	assert.EqualValues(t, ^uint64(0), b.Value())
}

func Test32BitSubRejectsUnderflow(t *testing.T) {
	a, err := New(VirtualAddress, 0, 32, "", "")
	require.NoError(t, err)
	_, err = a.Sub(1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestRangeInvariants(t *testing.T) {
	start, err := New(FileOffset, 0, 64, "", "")
	require.NoError(t, err)

	_, err = NewRange(start, 0, 0)
	assert.ErrorIs(t, err, ErrZeroSize)

	_, err = NewRange(start, 16, 3)
	assert.ErrorIs(t, err, ErrAlignNotPow2)

	r, err := NewRange(start, 16, 8)
	require.NoError(t, err)
	assert.True(t, r.Aligned())
	assert.True(t, r.Contains(0))
	assert.True(t, r.Contains(15))
	assert.False(t, r.Contains(16))
}

func TestRangeOverlaps(t *testing.T) {
	s0, _ := New(FileOffset, 0, 64, "", "")
	s1, _ := New(FileOffset, 10, 64, "", "")
	s2, _ := New(FileOffset, 100, 64, "", "")

	r0, _ := NewRange(s0, 20, 0)
	r1, _ := NewRange(s1, 20, 0)
	r2, _ := NewRange(s2, 20, 0)

	assert.True(t, r0.Overlaps(r1))
	assert.False(t, r0.Overlaps(r2))
}
