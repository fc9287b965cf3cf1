/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package similarity

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCTPHIsDeterministicAndSelfSimilar(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 200)
	a := CTPH(data, 64)
	b := CTPH(data, 64)
	require.NotEmpty(t, a)
	assert.Equal(t, a, b)
	assert.Equal(t, 100, Compare(a, a))
}

func TestCTPHDiffersForUnrelatedBuffers(t *testing.T) {
	a := CTPH(bytes.Repeat([]byte{0xAA}, 4096), 64)
	b := CTPH(bytes.Repeat([]byte{0x55}, 4096), 64)
	assert.NotEqual(t, a, b)
}

func TestCTPHEmptyInputYieldsEmptyDigest(t *testing.T) {
	assert.Equal(t, "", CTPH(nil, 64))
}

func TestCompareIncompatibleBlockSizesScoresZero(t *testing.T) {
	assert.Equal(t, 0, Compare("3:abc:def", "999:abc:def"))
}

func TestCompareEmptySignatureScoresZero(t *testing.T) {
	assert.Equal(t, 0, Compare("", "3:abc:def"))
}

func TestImphashJoinsLowercasedDllSymbolPairs(t *testing.T) {
	h1 := Imphash([]string{"KERNEL32.dll!CreateFileA", "USER32.dll!MessageBoxA"})
	h2 := Imphash([]string{"kernel32.dll!createfilea", "user32.dll!messageboxa"})
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 32)
}

func TestImphashEmptyForNoImports(t *testing.T) {
	assert.Equal(t, "", Imphash(nil))
	assert.Equal(t, "", Imphash([]string{"noop"}))
}

func TestComputeOmitsImphashForNonPEFormats(t *testing.T) {
	sum := Compute(bytes.Repeat([]byte("data"), 100), "ELF", 64, nil)
	require.NotNil(t, sum)
	assert.NotEmpty(t, sum.CTPH)
	assert.Empty(t, sum.Imphash)
}

func TestComputeReturnsNilForEmptyBuffer(t *testing.T) {
	assert.Nil(t, Compute(nil, "ELF", 64, nil))
}
