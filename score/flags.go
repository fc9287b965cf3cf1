/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package score

import "encoding/binary"

// securityFlags carries the hardening bits spec §4.12 step 4 penalizes.
// A nil pointer means "undetermined" (format doesn't carry the bit, or
// the header couldn't be parsed), matching the original's Option<bool>
// semantics — undetermined flags never contribute a penalty.
type securityFlags struct {
	nx    *bool
	aslr  *bool
	relro *bool
	pie   *bool
}

func boolPtr(b bool) *bool { return &b }

// detectSecurityFlags reads the hardening bits spec §4.12 penalizes,
// for ELF via the program header table (PT_GNU_STACK/PT_GNU_RELRO/
// PT_INTERP, the same byte-offset conventions headers/headers.go uses
// for e_phoff/e_phnum/e_phentsize) and for PE via the Optional Header's
// DllCharacteristics field. Mach-O carries neither bit in a comparably
// simple form, so it is left fully undetermined.
func detectSecurityFlags(data []byte, format string) securityFlags {
	switch format {
	case "ELF":
		return elfSecurityFlags(data)
	case "PE":
		return peSecurityFlags(data)
	default:
		return securityFlags{}
	}
}

const (
	ptInterp   = 3
	ptGNUStack = 0x6474e551
	ptGNURelro = 0x6474e552
	pfX        = 0x1
)

func elfSecurityFlags(data []byte) securityFlags {
	var flags securityFlags
	if len(data) < 20 || data[0] != 0x7F || data[1] != 'E' || data[2] != 'L' || data[3] != 'F' {
		return flags
	}
	is64 := data[4] == 2
	little := data[5] == 1
	var bo binary.ByteOrder = binary.LittleEndian
	if !little {
		bo = binary.BigEndian
	}

	var ePhoff, ePhnum, ePhentsize, eType uint64
	if is64 {
		if len(data) < 0x40 {
			return flags
		}
		eType = uint64(bo.Uint16(data[0x10:]))
		ePhoff = bo.Uint64(data[0x20:])
		ePhentsize = uint64(bo.Uint16(data[0x36:]))
		ePhnum = uint64(bo.Uint16(data[0x38:]))
	} else {
		if len(data) < 0x34 {
			return flags
		}
		eType = uint64(bo.Uint16(data[0x10:]))
		ePhoff = uint64(bo.Uint32(data[0x1C:]))
		ePhentsize = uint64(bo.Uint16(data[0x2A:]))
		ePhnum = uint64(bo.Uint16(data[0x2C:]))
	}

	const maxPhdrs = 256
	if ePhnum > maxPhdrs {
		ePhnum = maxPhdrs
	}

	required := uint64(28) // p_type(4) + p_flags(4) at offset 24 for Elf32_Phdr
	if is64 {
		required = 8 // p_type(4) + p_flags(4) at offset 4 for Elf64_Phdr
	}
	hasGNUStack, stackExecutable := false, false
	hasGNURelro := false
	hasInterp := false
	for i := uint64(0); i < ePhnum; i++ {
		base := ePhoff + i*ePhentsize
		if ePhentsize == 0 || base+required > uint64(len(data)) {
			break
		}
		var pType uint32
		var pFlags uint32
		if is64 {
			pType = bo.Uint32(data[base:])
			pFlags = bo.Uint32(data[base+4:])
		} else {
			pType = bo.Uint32(data[base:])
			pFlags = bo.Uint32(data[base+24:])
		}
		switch pType {
		case ptGNUStack:
			hasGNUStack = true
			stackExecutable = pFlags&pfX != 0
		case ptGNURelro:
			hasGNURelro = true
		case ptInterp:
			hasInterp = true
		}
	}

	if hasGNUStack {
		flags.nx = boolPtr(!stackExecutable)
	}
	flags.relro = boolPtr(hasGNURelro)
	isPIE := eType == 3 /* ET_DYN */ && hasInterp
	flags.pie = boolPtr(isPIE)
	flags.aslr = boolPtr(isPIE)
	return flags
}

const (
	dllCharNXCompat    = 0x0100
	dllCharDynamicBase = 0x0040
)

func peSecurityFlags(data []byte) securityFlags {
	var flags securityFlags
	if len(data) < 0x40 || data[0] != 'M' || data[1] != 'Z' {
		return flags
	}
	eLfanew := int(binary.LittleEndian.Uint32(data[0x3C:0x40]))
	if eLfanew < 0 || eLfanew+0x18 >= len(data) {
		return flags
	}
	if data[eLfanew] != 'P' || data[eLfanew+1] != 'E' {
		return flags
	}
	optMagicOff := eLfanew + 0x18
	if optMagicOff+2 > len(data) {
		return flags
	}
	is64 := binary.LittleEndian.Uint16(data[optMagicOff:optMagicOff+2]) == 0x20B
	dllCharOff := optMagicOff + 70 // PE32
	if is64 {
		dllCharOff = optMagicOff + 70 // PE32+ keeps the same field offset
	}
	if dllCharOff+2 > len(data) {
		return flags
	}
	dllChar := binary.LittleEndian.Uint16(data[dllCharOff : dllCharOff+2])
	flags.nx = boolPtr(dllChar&dllCharNXCompat != 0)
	flags.aslr = boolPtr(dllChar&dllCharDynamicBase != 0)
	return flags
}
