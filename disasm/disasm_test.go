/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct{ name string }

func (s stubBackend) Name() string { return s.name }

func (s stubBackend) Disassemble(req Request) ([]Instruction, error) {
	return []Instruction{
		{Offset: req.Offset, Bytes: []byte{0x90}, Text: "nop"},
		{Offset: req.Offset + 1, Bytes: []byte{0xc3}, Text: "ret"},
	}, nil
}

func TestRegistryLookupMissingBackend(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("x86_64", "little")
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestRegistryLookupIsCaseAndSpaceInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register("X86_64", "Little", stubBackend{name: "stub"})
	b, err := r.Lookup(" x86_64 ", " little ")
	require.NoError(t, err)
	assert.Equal(t, "stub", b.Name())
}

func TestDisassembleRendersPreviewLines(t *testing.T) {
	r := NewRegistry()
	r.Register("x86_64", "little", stubBackend{})
	lines, err := Disassemble(r, Request{Arch: "x86_64", Endianness: "little", Offset: 0x10, MaxInstructions: 2})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "nop")
	assert.Contains(t, lines[1], "ret")
}

func TestDisassembleNoBackendReturnsErrNoBackend(t *testing.T) {
	r := NewRegistry()
	_, err := Disassemble(r, Request{Arch: "arm", Endianness: "little"})
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestRenderPreviewTruncatesWideLines(t *testing.T) {
	long := ""
	for i := 0; i < 200; i++ {
		long += "x"
	}
	lines := renderPreview([]Instruction{{Offset: 0, Text: long}})
	require.Len(t, lines, 1)
	assert.LessOrEqual(t, len(lines[0]), 90)
}
