/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTextyRejectsPathLikeStrings(t *testing.T) {
	assert.False(t, IsTexty("/usr/lib/x86_64-linux-gnu/libc.so.6"))
	assert.False(t, IsTexty(""))
}

func TestIsTextyAcceptsSentences(t *testing.T) {
	assert.True(t, IsTexty("failed to open configuration file for reading"))
}

func TestDetectClassifiesLatinScript(t *testing.T) {
	d := NewDetector()
	det, ok := d.Detect("failed to open configuration file for reading")
	require.True(t, ok)
	assert.Equal(t, "Latin", det.Script)
	assert.Equal(t, "en", det.Language)
	assert.Greater(t, det.Confidence, 0.5)
}

func TestDetectRejectsNoLetters(t *testing.T) {
	d := NewDetector()
	_, ok := d.Detect("12345 67890 !!!")
	assert.False(t, ok)
}
