/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package strext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsift/triage/config"
)

func TestExtractASCIIRespectsMinLength(t *testing.T) {
	data := []byte("\x00\x00hello world\x00\x00hi\x00more-text-here\x00")
	out := ExtractASCII(data, 5)
	require.Len(t, out, 2)
	assert.Equal(t, "hello world", out[0].Text)
	assert.Equal(t, "more-text-here", out[1].Text)
}

func TestExtractUTF16LERoundTrips(t *testing.T) {
	// "hi" as UTF-16LE: 'h'=0x68, 'i'=0x69
	data := []byte{'h', 0x00, 'i', 0x00, 0x00, 0x00}
	out := ExtractUTF16LE(data, 2)
	require.Len(t, out, 1)
	assert.Equal(t, "hi", out[0].Text)
}

func TestExtractUTF16BERoundTrips(t *testing.T) {
	data := []byte{0x00, 'h', 0x00, 'i', 0x00, 0x00}
	out := ExtractUTF16BE(data, 2)
	require.Len(t, out, 1)
	assert.Equal(t, "hi", out[0].Text)
}

func TestEffectiveMinLengthRaisedForHighEntropy(t *testing.T) {
	cfg := config.Default().Strings
	assert.Equal(t, cfg.MinLength, EffectiveMinLength(cfg, false, 3.0))
	assert.Equal(t, 8, EffectiveMinLength(cfg, false, 7.5))
	assert.Equal(t, 8, EffectiveMinLength(cfg, true, 0.0))
}

func TestSummarizeCapsAtMaxSamples(t *testing.T) {
	cfg := config.Default().Strings
	cfg.MaxSamples = 1
	data := []byte("alpha-string\x00beta-string\x00")
	s := Summarize(data, cfg, 4)
	assert.LessOrEqual(t, len(s.DetectedStrings), 1)
	assert.Equal(t, 2, s.ASCIICount)
}
