/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package reader

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsift/triage/budget"
	"github.com/binsift/triage/config"
)

func TestReadBytesEmptyInputFails(t *testing.T) {
	_, err := ReadBytes(nil, config.Limits{}, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestReadBytesShortBufferNotTreatedAsLimitHit(t *testing.T) {
	data := bytes.Repeat([]byte{0x41}, 100)
	b := budget.New(0, 0, 0)
	out, err := ReadBytes(data, config.Limits{}, b)
	require.NoError(t, err)
	assert.Len(t, out.Sniff, 100)
	assert.Len(t, out.Header, 100)
	assert.Len(t, out.Heuristics, 100)
	assert.False(t, b.HitByteLimit)
}

func TestReadBytesMaxReadBytesCapsPrefixesAndFlagsHit(t *testing.T) {
	data := bytes.Repeat([]byte{0x41}, 200*1024)
	b := budget.New(0, 0, 0)
	limits := config.Limits{MaxReadBytes: 1024}
	out, err := ReadBytes(data, limits, b)
	require.NoError(t, err)
	assert.Len(t, out.Sniff, 1024)
	assert.Len(t, out.Header, 1024)
	assert.Len(t, out.Heuristics, 1024)
	assert.True(t, b.HitByteLimit)
}

func TestReadPathRejectsOversizedFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "big.bin")
	require.NoError(t, os.WriteFile(p, bytes.Repeat([]byte{0}, 1024), 0o644))

	_, err := ReadPath(p, config.Limits{MaxFileSize: 10}, nil)
	assert.Error(t, err)
}

func TestReadPathReadsWithinLimits(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "small.bin")
	content := bytes.Repeat([]byte{0x42}, 50)
	require.NoError(t, os.WriteFile(p, content, 0o644))

	out, err := ReadPath(p, config.Limits{}, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 50, out.FileSize)
	assert.Equal(t, content, out.Full)
}
