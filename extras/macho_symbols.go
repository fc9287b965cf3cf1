/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package extras

import (
	"encoding/binary"

	"github.com/binsift/triage/address"
	"github.com/binsift/triage/report"
)

const (
	lcSymtab         = 0x2
	lcCodeSignature  = 0x1D
	maxMachOSymbols  = 8192
	nlist32Size      = 12
	nlist64Size      = 16
)

type machoGeometry struct {
	is64     bool
	little   bool
	ncmds    uint32
	cmdsOff  int
}

func parseMachOGeometry(data []byte) (machoGeometry, bool) {
	var g machoGeometry
	if len(data) < 28 {
		return g, false
	}
	magic := binary.BigEndian.Uint32(data[0:4])
	magicLE := binary.LittleEndian.Uint32(data[0:4])
	switch {
	case magic == 0xFEEDFACE:
		g.is64, g.little = false, false
	case magic == 0xFEEDFACF:
		g.is64, g.little = true, false
	case magicLE == 0xFEEDFACE:
		g.is64, g.little = false, true
	case magicLE == 0xFEEDFACF:
		g.is64, g.little = true, true
	default:
		return g, false
	}
	headerLen := 28
	if g.is64 {
		headerLen = 32
	}
	if len(data) < headerLen {
		return g, false
	}
	g.ncmds = readU32(data, 16, g.little)
	g.cmdsOff = headerLen
	return g, true
}

// walkLoadCommands invokes fn(cmd, cmdsize, bodyOffset) for each load
// command; fn returns false to stop early.
func walkLoadCommands(data []byte, g machoGeometry, fn func(cmd, cmdsize uint32, off int) bool) {
	off := g.cmdsOff
	for i := uint32(0); i < g.ncmds; i++ {
		if off+8 > len(data) {
			return
		}
		cmd := readU32(data, off, g.little)
		cmdsize := readU32(data, off+4, g.little)
		if cmdsize == 0 || off+int(cmdsize) > len(data) {
			return
		}
		if !fn(cmd, cmdsize, off) {
			return
		}
		off += int(cmdsize)
	}
}

// HasMachOCodeSignature reports whether an LC_CODE_SIGNATURE load
// command is present.
func HasMachOCodeSignature(data []byte) bool {
	g, ok := parseMachOGeometry(data)
	if !ok {
		return false
	}
	found := false
	walkLoadCommands(data, g, func(cmd, cmdsize uint32, off int) bool {
		if cmd == lcCodeSignature {
			found = true
			return false
		}
		return true
	})
	return found
}

// HasMachOEntitlements does a bounded scan for the entitlements XML
// plist signature inside the artifact, since fully parsing the
// SuperBlob code-signature format is out of scope for a presence bit.
func HasMachOEntitlements(data []byte) bool {
	n := len(data)
	if n > 4*1024*1024 {
		n = 4 * 1024 * 1024
	}
	return indexString(data[:n], "<key>com.apple.security.") >= 0
}

func indexString(data []byte, s string) int {
	target := []byte(s)
	if len(target) == 0 || len(data) < len(target) {
		return -1
	}
	for i := 0; i+len(target) <= len(data); i++ {
		match := true
		for j := range target {
			if data[i+j] != target[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// ExtractMachOSymbols reads the LC_SYMTAB command's nlist array,
// resolving n_strx offsets against the accompanying string table,
// bounded to maxMachOSymbols entries.
func ExtractMachOSymbols(data []byte) []report.SymbolEntry {
	g, ok := parseMachOGeometry(data)
	if !ok {
		return nil
	}
	var symoff, nsyms, stroff uint32
	found := false
	walkLoadCommands(data, g, func(cmd, cmdsize uint32, off int) bool {
		if cmd != lcSymtab {
			return true
		}
		if off+24 > len(data) {
			return false
		}
		symoff = readU32(data, off+8, g.little)
		nsyms = readU32(data, off+12, g.little)
		stroff = readU32(data, off+16, g.little)
		found = true
		return false
	})
	if !found {
		return nil
	}
	entSize := nlist32Size
	bits := 32
	if g.is64 {
		entSize = nlist64Size
		bits = 64
	}
	count := int(nsyms)
	if count > maxMachOSymbols {
		count = maxMachOSymbols
	}
	var out []report.SymbolEntry
	for i := 0; i < count; i++ {
		base := int(symoff) + i*entSize
		if base+entSize > len(data) {
			break
		}
		nStrx := readU32(data, base, g.little)
		var value uint64
		if g.is64 {
			value = readU64(data, base+8, g.little)
		} else {
			value = uint64(readU32(data, base+4, g.little))
		}
		nameOff := int(stroff) + int(nStrx)
		if nameOff < 0 || nameOff >= len(data) {
			continue
		}
		name := readCString(data, nameOff)
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
