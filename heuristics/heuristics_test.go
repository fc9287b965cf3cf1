/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package heuristics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuessEndiannessEmptyDefaultsToLittle(t *testing.T) {
	g := GuessEndianness(nil)
	assert.Equal(t, "Little", g.Guess)
	assert.Equal(t, 0.5, g.Confidence)
}

func TestGuessEndiannessPrefersLittleShapedChunks(t *testing.T) {
	// Each 4-byte chunk has trailing zero bytes: classic little-endian
	// small-value shape.
	data := make([]byte, 4*100)
	for i := 0; i < 100; i++ {
		data[i*4] = byte(i)
		data[i*4+1] = 0
		data[i*4+2] = 0
		data[i*4+3] = 0
	}
	g := GuessEndianness(data)
	assert.Equal(t, "Little", g.Guess)
	assert.Greater(t, g.Confidence, 0.5)
}

func TestGuessArchReturnsTopThree(t *testing.T) {
	data := make([]byte, 1024)
	for i := range data {
		data[i] = 0x48 // byte common to the x86_64 profile
	}
	results := GuessArch(data)
	require.LessOrEqual(t, len(results), 3)
	require.NotEmpty(t, results)
	assert.Equal(t, "x86_64", results[0].Arch)
}
