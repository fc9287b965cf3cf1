/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package extras

import (
	"github.com/binsift/triage/address"
	"github.com/binsift/triage/report"
)

const (
	shtDynsym        = 11
	shtSymtab        = 2
	maxELFSymbols    = 8192
	elf32SymSize     = 16
	elf64SymSize     = 24
)

type elfShdr struct {
	shType  uint32
	offset  uint64
	size    uint64
	link    uint32
	entsize uint64
}

func elfSectionHeaders(data []byte) ([]elfShdr, bool, bool) {
	if len(data) < 0x40 || data[0] != 0x7F || data[1] != 'E' || data[2] != 'L' || data[3] != 'F' {
		return nil, false, false
	}
	is64 := data[4] == 2
	little := data[5] != 2
	var eShoff uint64
	var eShnum, eShentsize uint64
	if is64 {
		if len(data) < 0x40 {
			return nil, is64, little
		}
		eShoff = readU64(data, 0x28, little)
		eShentsize = uint64(readU16(data, 0x3A, little))
		eShnum = uint64(readU16(data, 0x3C, little))
	} else {
		if len(data) < 0x34 {
			return nil, is64, little
		}
		eShoff = uint64(readU32(data, 0x20, little))
		eShentsize = uint64(readU16(data, 0x2E, little))
		eShnum = uint64(readU16(data, 0x30, little))
	}
	var out []elfShdr
	for i := uint64(0); i < eShnum; i++ {
		base := eShoff + i*eShentsize
		if base+eShentsize > uint64(len(data)) {
			break
		}
		var sh elfShdr
		sh.shType = readU32(data, int(base)+4, little)
		sh.entsize = eShentsize
		if is64 {
			if base+64 > uint64(len(data)) {
				break
			}
			sh.link = readU32(data, int(base)+40, little)
			sh.offset = readU64(data, int(base)+24, little)
			sh.size = readU64(data, int(base)+32, little)
			sh.entsize = readU64(data, int(base)+56, little)
		} else {
			if base+40 > uint64(len(data)) {
				break
			}
			sh.link = readU32(data, int(base)+24, little)
			sh.offset = uint64(readU32(data, int(base)+16, little))
			sh.size = uint64(readU32(data, int(base)+20, little))
			sh.entsize = uint64(readU32(data, int(base)+36, little))
		}
		out = append(out, sh)
	}
	return out, is64, little
}

// ExtractELFSymbols reads .dynsym (falling back to .symtab) entries,
// resolving st_name offsets against the section's sh_link string table,
// bounded to maxELFSymbols entries.
func ExtractELFSymbols(data []byte) []report.SymbolEntry {
	sections, is64, little := elfSectionHeaders(data)
	if sections == nil {
		return nil
	}
	symIdx := -1
	for i, sh := range sections {
		if sh.shType == shtDynsym {
			symIdx = i
			break
		}
	}
	if symIdx < 0 {
		for i, sh := range sections {
			if sh.shType == shtSymtab {
				symIdx = i
				break
			}
		}
	}
	if symIdx < 0 {
		return nil
	}
	sym := sections[symIdx]
	if int(sym.link) >= len(sections) {
		return nil
	}
	strtab := sections[sym.link]

	entSize := uint64(elf32SymSize)
	if is64 {
		entSize = elf64SymSize
	}
	if sym.entsize != 0 {
		entSize = sym.entsize
	}
	count := sym.size / entSize
	if count > maxELFSymbols {
		count = maxELFSymbols
	}

	var out []report.SymbolEntry
	for i := uint64(0); i < count; i++ {
		base := sym.offset + i*entSize
		if base+entSize > uint64(len(data)) {
			break
		}
		var nameOff uint32
		var value uint64
		var bits int
		if is64 {
			nameOff = readU32(data, int(base), little)
			value = readU64(data, int(base)+8, little)
			bits = 64
		} else {
			nameOff = readU32(data, int(base), little)
			value = uint64(readU32(data, int(base)+4, little))
			bits = 32
		}
		nameAbs := strtab.offset + uint64(nameOff)
		if nameAbs >= uint64(len(data)) {
			continue
		}
		name := readCString(data, int(nameAbs))
		if name == "" {
			continue
		}
		entry := report.SymbolEntry{Name: name}
		if addr, err := address.New(address.VirtualAddress, value, bits, "", ""); err == nil {
			entry.Addr = &addr
			entry.AddrHex = addr.String()
		}
		out = append(out, entry)
	}
	return out
}
