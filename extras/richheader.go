/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package extras

import (
	"bytes"
	"encoding/binary"

	"github.com/binsift/triage/report"
)

var richMarker = []byte("Rich")
var dansMarker = []byte("DanS")

// vendorTable maps a handful of well-known Rich Header product IDs to
// the compiler/linker vendor they correspond to. The original table is
// much larger (hundreds of MSVC toolset versions); this is a curated
// subset covering the common cases spec §4.10 asks for.
var vendorTable = map[uint16]string{
	0x0001: "Import0",
	0x0004: "Linker510",
	0x0006: "Cvtres500",
	0x000A: "Utc1100_C",
	0x000B: "Utc1100_CPP",
	0x000E: "Linker600",
	0x0019: "Utc1300_C",
	0x001A: "Utc1300_CPP",
	0x002D: "Linker800",
	0x005A: "Masm1100",
	0x00FF: "Linker1400",
}

// ParseRichHeader locates and decodes a PE Rich Header (spec §4.10): a
// sequence of XOR-obfuscated (product_id:build_id, count) pairs bracketed
// by a "DanS" sentinel and a "Rich"+xor_key trailer, sitting in the DOS
// stub before the PE header proper.
//
// Duplicate product IDs: the first matching entry wins (walked in file
// order, inserted into a map only when absent) — spec.md does not
// mandate a tiebreaker beyond run-to-run stability, and this is stable.
func ParseRichHeader(data []byte) *report.RichHeader {
	if len(data) < 0x80 {
		return nil
	}
	richPos := bytes.Index(data, richMarker)
	if richPos < 0 || richPos+8 > len(data) {
		return nil
	}
	xorKey := binary.LittleEndian.Uint32(data[richPos+4 : richPos+8])

	// Walk backward in 4-byte steps from richPos looking for the
	// XOR-encoded "DanS" sentinel.
	dansPos := -1
	for p := richPos - 4; p >= 0; p -= 4 {
		var decoded [4]byte
		for i := 0; i < 4; i++ {
			decoded[i] = data[p+i] ^ byte(xorKey>>(8*uint(i%4)))
		}
		if bytes.Equal(decoded[:], dansMarker) {
			dansPos = p
			break
		}
	}
	if dansPos < 0 {
		return nil
	}

	// "DanS" is followed by three zero-padding dwords, then 8-byte
	// (compid, count) records until richPos.
	entriesStart := dansPos + 16
	if entriesStart > richPos {
		return nil
	}

	seen := map[uint16]bool{}
	var entries []report.RichHeaderEntry
	for p := entriesStart; p+8 <= richPos; p += 8 {
		compid := decodeU32(data, p, xorKey)
		count := decodeU32(data, p+4, xorKey)
		if compid == 0 && count == 0 {
			continue
		}
		buildID := uint16(compid & 0xFFFF)
		prodID := uint16(compid >> 16)
		if seen[prodID] {
			continue
		}
		seen[prodID] = true
		entries = append(entries, report.RichHeaderEntry{
			ProductID: prodID,
			BuildID:   buildID,
			Count:     count,
			Vendor:    vendorTable[prodID],
		})
	}
	if len(entries) == 0 {
		return nil
	}
	return &report.RichHeader{Entries: entries, XORKey: xorKey}
}

func decodeU32(data []byte, off int, key uint32) uint32 {
	raw := binary.LittleEndian.Uint32(data[off : off+4])
	return raw ^ key
}
