/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package extras

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wellFormedELF64WithSymbol builds a minimal ELF64 with the section
// header table placed immediately after the ELF header (so the actual
// section data that follows it is what determines the file's "last
// section end", not the header table itself): a STRTAB holding "foo"
// and a DYNSYM with a null entry plus one real entry naming it.
func wellFormedELF64WithSymbol() []byte {
	const (
		shoff     = 0x40
		shentsize = 64
		shnum     = 3
		strtabOff = shoff + shentsize*shnum // 0x100
		strtabLen = 5                       // "\x00foo\x00"
		symOff    = 0x110
		symLen    = 48 // 2 entries * 24 bytes
	)
	total := symOff + symLen
	data := make([]byte, total)
	copy(data, []byte{0x7F, 'E', 'L', 'F'})
	data[4] = 2 // ELFCLASS64
	data[5] = 1 // little-endian
	binary.LittleEndian.PutUint16(data[0x12:], 0x3E) // EM_X86_64
	binary.LittleEndian.PutUint16(data[0x34:], 64)
	binary.LittleEndian.PutUint16(data[0x36:], 56)
	binary.LittleEndian.PutUint16(data[0x3A:], uint16(shentsize))
	binary.LittleEndian.PutUint64(data[0x28:], uint64(shoff))
	binary.LittleEndian.PutUint16(data[0x3C:], uint16(shnum))

	copy(data[strtabOff:], []byte("\x00foo\x00"))

	// dynsym entry 1 (entry 0 stays all-zero)
	symBase := symOff + 24
	binary.LittleEndian.PutUint32(data[symBase:], 1) // st_name -> "foo"
	binary.LittleEndian.PutUint64(data[symBase+8:], 0x1000)

	putShdr := func(idx int, shType uint32, offset, size uint64, link uint32, entsize uint64) {
		base := shoff + idx*shentsize
		binary.LittleEndian.PutUint32(data[base+4:], shType)
		binary.LittleEndian.PutUint64(data[base+24:], offset)
		binary.LittleEndian.PutUint64(data[base+32:], size)
		binary.LittleEndian.PutUint32(data[base+40:], link)
		binary.LittleEndian.PutUint64(data[base+56:], entsize)
	}
	putShdr(1, 3 /* SHT_STRTAB */, strtabOff, strtabLen, 0, 0)
	putShdr(2, 11 /* SHT_DYNSYM */, symOff, symLen, 1, 24)

	return data
}

func TestExtractELFSymbolsResolvesNameFromLinkedStrtab(t *testing.T) {
	data := wellFormedELF64WithSymbol()
	syms := ExtractELFSymbols(data)
	require.Len(t, syms, 1)
	assert.Equal(t, "foo", syms[0].Name)
	require.NotNil(t, syms[0].Addr)
	assert.Equal(t, uint64(0x1000), syms[0].Addr.Value())
}

func TestDetectOverlayFindsTrailingDataAfterLastELFSection(t *testing.T) {
	data := wellFormedELF64WithSymbol()
	overlay := append([]byte{}, data...)
	overlay = append(overlay, []byte("PK\x03\x04trailingzip")...)

	result := DetectOverlay(overlay, "ELF")
	require.NotNil(t, result)
	assert.Equal(t, uint64(len(data)), result.Offset)
	assert.Equal(t, "ZIP", result.DetectedFormat)
	assert.True(t, result.IsArchive)
}

func TestDetectOverlayReturnsNilWhenNoTrailingData(t *testing.T) {
	data := wellFormedELF64WithSymbol()
	result := DetectOverlay(data, "ELF")
	assert.Nil(t, result)
}

// buildRichHeaderBytes constructs a minimal, correctly-XOR-encoded Rich
// Header region: "DanS" + 3 zero dwords, one (prodid:buildid, count)
// record, then "Rich" + the XOR key, all encoded with key.
func buildRichHeaderBytes(key uint32, prodID, buildID uint16, count uint32) []byte {
	xorPut := func(buf []byte, off int, v uint32) {
		binary.LittleEndian.PutUint32(buf[off:], v^key)
	}
	buf := make([]byte, 0x80)
	copy(buf, []byte{'M', 'Z'})
	base := 0x40
	xorPut(buf, base, binary.LittleEndian.Uint32([]byte("DanS")))
	xorPut(buf, base+4, 0)
	xorPut(buf, base+8, 0)
	xorPut(buf, base+12, 0)
	compid := uint32(prodID)<<16 | uint32(buildID)
	xorPut(buf, base+16, compid)
	xorPut(buf, base+20, count)
	copy(buf[base+24:], []byte("Rich"))
	binary.LittleEndian.PutUint32(buf[base+28:], key)
	return buf
}

func TestParseRichHeaderDecodesSingleEntry(t *testing.T) {
	data := buildRichHeaderBytes(0xDEADBEEF, 0x0019, 0x1234, 7)
	rh := ParseRichHeader(data)
	require.NotNil(t, rh)
	require.Len(t, rh.Entries, 1)
	assert.Equal(t, uint16(0x0019), rh.Entries[0].ProductID)
	assert.Equal(t, uint16(0x1234), rh.Entries[0].BuildID)
	assert.Equal(t, uint32(7), rh.Entries[0].Count)
	assert.Equal(t, "Utc1300_C", rh.Entries[0].Vendor)
}

func TestParseRichHeaderKeepsFirstOfDuplicateProductID(t *testing.T) {
	key := uint32(0x11111111)
	xorPut := func(buf []byte, off int, v uint32) {
		binary.LittleEndian.PutUint32(buf[off:], v^key)
	}
	buf := make([]byte, 0x80)
	copy(buf, []byte{'M', 'Z'})
	base := 0x40
	xorPut(buf, base, binary.LittleEndian.Uint32([]byte("DanS")))
	xorPut(buf, base+4, 0)
	xorPut(buf, base+8, 0)
	xorPut(buf, base+12, 0)
	// two entries, same product ID, different build/count
	xorPut(buf, base+16, uint32(0x000A)<<16|0x0001)
	xorPut(buf, base+20, 1)
	xorPut(buf, base+24, uint32(0x000A)<<16|0x0002)
	xorPut(buf, base+28, 2)
	copy(buf[base+32:], []byte("Rich"))
	binary.LittleEndian.PutUint32(buf[base+36:], key)

	rh := ParseRichHeader(buf)
	require.NotNil(t, rh)
	require.Len(t, rh.Entries, 1)
	assert.Equal(t, uint16(0x0001), rh.Entries[0].BuildID)
}

func TestCheckForSignatureRecognizesWinCertificate(t *testing.T) {
	data := make([]byte, 40)
	binary.LittleEndian.PutUint32(data[0:], 40)
	binary.LittleEndian.PutUint16(data[4:], 0x0200)
	binary.LittleEndian.PutUint16(data[6:], 0x0002)
	assert.True(t, checkForSignature(data))
}
