/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package sniff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentDetectsZipMagic(t *testing.T) {
	data := []byte{0x50, 0x4B, 0x03, 0x04, 0, 0, 0, 0}
	hints := Content(data)
	require.Len(t, hints, 1)
	assert.Equal(t, "content", hints[0].Source)
	assert.Equal(t, "zip", hints[0].Label)
}

func TestContentUnknownDataYieldsNoHint(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0x03}
	assert.Empty(t, Content(data))
}

func TestExtensionMatchesCompoundSuffix(t *testing.T) {
	hints := Extension("/tmp/archive.tar.gz")
	require.Len(t, hints, 1)
	assert.Equal(t, "gzip", hints[0].Label)
}

func TestExtensionFallsBackToExecutable(t *testing.T) {
	hints := Extension("/tmp/mystery.bin")
	require.Len(t, hints, 1)
	assert.Equal(t, "executable", hints[0].Label)
}

func TestExtensionRecognizesExe(t *testing.T) {
	hints := Extension("/tmp/app.exe")
	require.Len(t, hints, 1)
	assert.Equal(t, "pe", hints[0].Label)
	assert.Equal(t, "exe", hints[0].Extension)
}

func TestCombinedConcatenatesBothSniffers(t *testing.T) {
	data := []byte{0x7F, 0x45, 0x4C, 0x46, 2, 1, 1, 0}
	hints := Combined(data, "/tmp/renamed.exe")
	// content sniffer may or may not recognize a bare ELF ident this short;
	// extension sniffer always contributes exactly one hint.
	var extHints int
	for _, h := range hints {
		if h.Source == "extension" {
			extHints++
		}
	}
	assert.Equal(t, 1, extHints)
}
