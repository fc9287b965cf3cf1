/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package headers

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsift/triage/report"
)

// wellFormedELF64 builds a minimal valid little-endian 64-bit ELF ident
// plus enough of the header for the structural checks to pass cleanly.
func wellFormedELF64() []byte {
	data := make([]byte, 0x40)
	copy(data, []byte{0x7F, 'E', 'L', 'F'})
	data[4] = 2 // ELFCLASS64
	data[5] = 1 // little-endian
	binary.LittleEndian.PutUint16(data[0x12:], 0x3E) // EM_X86_64
	binary.LittleEndian.PutUint16(data[0x34:], 64)   // e_ehsize
	binary.LittleEndian.PutUint16(data[0x36:], 56)   // e_phentsize
	binary.LittleEndian.PutUint16(data[0x3A:], 64)   // e_shentsize
	// e_phoff/e_shoff left zero so the table-bounds checks are skipped.
	return data
}

func TestValidateELFWellFormed(t *testing.T) {
	r := Validate(wellFormedELF64())
	require.Len(t, r.Candidates, 1)
	v := r.Candidates[0]
	assert.Equal(t, "ELF", v.Format)
	assert.Equal(t, "x86_64", v.Arch)
	assert.Equal(t, 64, v.Bits)
	assert.Equal(t, "Little", v.Endianness)
	assert.Equal(t, 0.8, v.Confidence)
	assert.Empty(t, r.Errors)
}

func TestValidateELFIncoherentSizes(t *testing.T) {
	data := wellFormedELF64()
	binary.LittleEndian.PutUint16(data[0x34:], 99) // wrong e_ehsize
	r := Validate(data)
	require.Len(t, r.Candidates, 1)
	assert.Equal(t, 0.6, r.Candidates[0].Confidence)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, report.ErrIncoherentFields, r.Errors[0].Kind)
}

func TestValidateWasm(t *testing.T) {
	data := []byte{0x00, 'a', 's', 'm', 1, 0, 0, 0}
	r := Validate(data)
	require.Len(t, r.Candidates, 1)
	assert.Equal(t, "Wasm", r.Candidates[0].Format)
	assert.Equal(t, 0.75, r.Candidates[0].Confidence)
}

func TestValidatePycPre37(t *testing.T) {
	data := make([]byte, 12)
	data[2], data[3] = 0x0D, 0x0A
	r := Validate(data)
	require.Len(t, r.Candidates, 1)
	assert.Equal(t, "PythonBytecode", r.Candidates[0].Format)
	assert.Equal(t, 0.8, r.Candidates[0].Confidence)
}

func TestValidatePycTooShort(t *testing.T) {
	data := make([]byte, 4)
	data[2], data[3] = 0x0D, 0x0D
	r := Validate(data)
	require.Len(t, r.Candidates, 1)
	assert.Equal(t, 0.5, r.Candidates[0].Confidence)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, report.ErrShortRead, r.Errors[0].Kind)
}

func TestValidateMachOFatIsNotAVerdict(t *testing.T) {
	data := make([]byte, 8)
	binary.BigEndian.PutUint32(data, 0xCAFEBABE)
	r := Validate(data)
	assert.Empty(t, r.Candidates)
}
