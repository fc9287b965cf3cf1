/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package headers implements the fixed-offset header validators of
// spec §4.3/§6: ELF, PE, Mach-O (thin only — FAT is container slicing,
// handled by recurse), Wasm, and Python bytecode. Each validator reads
// byte offsets directly; none walks a full section/symbol table.
package headers

import (
	"encoding/binary"

	"github.com/binsift/triage/report"
)

// Result is the output of Validate: candidate verdicts plus any
// structural errors observed along the way (spec §4.3).
type Result struct {
	Candidates []report.TriageVerdict
	Errors     []report.TriageError
}

// Validate runs every format-specific check against the header prefix
// and returns every candidate that matched, in the teacher's "one pass,
// multiple independent checks" style (no format is mutually exclusive
// with another at this stage — cross-check resolves conflicts later).
func Validate(data []byte) Result {
	var r Result
	validateELF(data, &r)
	validatePE(data, &r)
	validateMachO(data, &r)
	validateWasm(data, &r)
	validatePyc(data, &r)
	if len(r.Candidates) == 0 && len(data) > 0 && len(data) < 2 {
		r.Errors = append(r.Errors, report.NewError(report.ErrShortRead, "too short for header"))
	}
	return r
}

func readU16(data []byte, off int, little bool) uint16 {
	if little {
		return binary.LittleEndian.Uint16(data[off : off+2])
	}
	return binary.BigEndian.Uint16(data[off : off+2])
}

func readU32(data []byte, off int, little bool) uint32 {
	if little {
		return binary.LittleEndian.Uint32(data[off : off+4])
	}
	return binary.BigEndian.Uint32(data[off : off+4])
}

func readU64(data []byte, off int, little bool) uint64 {
	if little {
		return binary.LittleEndian.Uint64(data[off : off+8])
	}
	return binary.BigEndian.Uint64(data[off : off+8])
}

func validateELF(data []byte, r *Result) {
	if len(data) < 4 || data[0] != 0x7F || data[1] != 'E' || data[2] != 'L' || data[3] != 'F' {
		return
	}
	if len(data) < 0x34 {
		r.Errors = append(r.Errors, report.NewError(report.ErrShortRead, "ELF header too short"))
	}

	class := byte(1)
	if len(data) > 4 {
		class = data[4]
	}
	bits := 32
	if class == 2 {
		bits = 64
	}
	dataEnc := byte(1)
	if len(data) > 5 {
		dataEnc = data[5]
	}
	little := dataEnc != 2
	endianness := "Little"
	if !little {
		endianness = "Big"
	}

	confidence := 0.8

	ehsizeOff, phentsizeOff, shentsizeOff := 0x28, 0x2A, 0x2E
	expEh, expPh, expSh := uint32(52), uint32(32), uint32(40)
	if bits == 64 {
		ehsizeOff, phentsizeOff, shentsizeOff = 0x34, 0x36, 0x3A
		expEh, expPh, expSh = 64, 56, 64
	}
	if len(data) > shentsizeOff+1 {
		ehsize := readU16(data, ehsizeOff, little)
		phentsize := readU16(data, phentsizeOff, little)
		shentsize := readU16(data, shentsizeOff, little)
		if uint32(ehsize) != expEh || uint32(phentsize) != expPh || uint32(shentsize) != expSh {
			r.Errors = append(r.Errors, report.NewError(report.ErrIncoherentFields, "ELF header sizes unexpected"))
			confidence = 0.6
		}
	}

	var ePhoff, eShoff, ePhnum, eShnum uint64
	if bits == 64 && len(data) >= 0x40 {
		ePhoff = readU64(data, 0x20, little)
		eShoff = readU64(data, 0x28, little)
		ePhnum = uint64(readU16(data, 0x38, little))
		eShnum = uint64(readU16(data, 0x3C, little))
	} else if bits == 32 && len(data) >= 0x34 {
		ePhoff = uint64(readU32(data, 0x1C, little))
		eShoff = uint64(readU32(data, 0x20, little))
		ePhnum = uint64(readU16(data, 0x2C, little))
		eShnum = uint64(readU16(data, 0x30, little))
	}
	phentsize := uint64(32)
	shentsize := uint64(40)
	if bits == 64 {
		phentsize, shentsize = 56, 64
	}
	if ePhoff > 0 && ePhnum > 0 {
		if satAdd(ePhoff, satMul(ePhnum, phentsize)) > uint64(len(data)) {
			r.Errors = append(r.Errors, report.NewError(report.ErrTruncated, "ELF program headers truncated"))
			confidence = min(confidence, 0.6)
		}
	}
	if eShoff > 0 && eShnum > 0 {
		if satAdd(eShoff, satMul(eShnum, shentsize)) > uint64(len(data)) {
			r.Errors = append(r.Errors, report.NewError(report.ErrTruncated, "ELF section headers truncated"))
			confidence = min(confidence, 0.6)
		}
	}

	arch := "Unknown"
	if len(data) > 0x13 {
		em := readU16(data, 0x12, little)
		switch em {
		case 0x03:
			arch = "x86"
		case 0x3E:
			arch = "x86_64"
		case 0x28:
			arch = "ARM"
		case 0xB7:
			arch = "AArch64"
		case 0x08, 0x0A:
			arch = "MIPS"
		case 0xF3:
			arch = "RISC-V"
		case 0x14:
			arch = "PPC"
		case 0x15:
			arch = "PPC64"
		default:
			if bits == 64 {
				arch = "x86_64"
			} else {
				arch = "x86"
			}
		}
	}

	r.Candidates = append(r.Candidates, report.TriageVerdict{
		Format: "ELF", Arch: arch, Bits: bits, Endianness: endianness, Confidence: confidence,
	})
}

func satAdd(a, b uint64) uint64 {
	s := a + b
	if s < a {
		return ^uint64(0)
	}
	return s
}

func satMul(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	p := a * b
	if p/a != b {
		return ^uint64(0)
	}
	return p
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func validatePE(data []byte, r *Result) {
	if len(data) < 0x40 || data[0] != 'M' || data[1] != 'Z' {
		return
	}
	eLfanew := int(readU32(data, 0x3C, true))
	if eLfanew+0x18 >= len(data) || eLfanew < 0 {
		r.Errors = append(r.Errors, report.NewError(report.ErrTruncated, "PE header (e_lfanew) points beyond data"))
		return
	}
	if data[eLfanew] != 'P' || data[eLfanew+1] != 'E' || data[eLfanew+2] != 0 || data[eLfanew+3] != 0 {
		r.Errors = append(r.Errors, report.NewError(report.ErrBadMagic, "missing PE\\0\\0 signature"))
		return
	}

	machineOff := eLfanew + 4
	numSectionsOff := eLfanew + 6
	optMagicOff := eLfanew + 0x18
	machine := readU16(data, machineOff, true)
	numSections := readU16(data, numSectionsOff, true)
	optMagic := readU16(data, optMagicOff, true)

	if numSections == 0 || numSections > 96 {
		r.Errors = append(r.Errors, report.NewError(report.ErrIncoherentFields, "unreasonable NumberOfSections"))
	}

	bits := 32
	arch := "Unknown"
	switch {
	case machine == 0x8664 && optMagic == 0x20B:
		bits, arch = 64, "x86_64"
	case machine == 0x14C && optMagic == 0x10B:
		bits, arch = 32, "x86"
	case machine == 0xAA64 && optMagic == 0x20B:
		bits, arch = 64, "AArch64"
	case machine == 0x1C0 && optMagic == 0x10B:
		bits, arch = 32, "ARM"
	}
	conf := 0.7
	if arch == "Unknown" {
		conf = 0.6
		r.Errors = append(r.Errors, report.NewError(report.ErrUnsupportedVariant, "unrecognized PE Machine/OptionalMagic combination"))
	}

	sizeOptOff := eLfanew + 4 + 16
	if sizeOptOff+2 <= len(data) {
		sizeOpt := int(readU16(data, sizeOptOff, true))
		secTableOff := eLfanew + 4 + 20 + sizeOpt
		secTableSize := int(numSections) * 40
		if secTableOff+secTableSize > len(data) {
			r.Errors = append(r.Errors, report.NewError(report.ErrTruncated, "PE section table truncated"))
			conf = min(conf, 0.6)
		}
		minOpt := 0xE0
		if optMagic == 0x20B {
			minOpt = 0xF0
		}
		if sizeOpt < minOpt {
			r.Errors = append(r.Errors, report.NewError(report.ErrIncoherentFields, "PE SizeOfOptionalHeader too small"))
			conf = min(conf, 0.6)
		}
		sizeHeadersOff := optMagicOff + 0x3C
		if sizeHeadersOff+4 <= len(data) {
			so := int(readU32(data, sizeHeadersOff, true))
			minHeaders := secTableOff
			if so < minHeaders || so > len(data) {
				r.Errors = append(r.Errors, report.NewError(report.ErrIncoherentFields, "PE SizeOfHeaders out of bounds"))
				conf = min(conf, 0.6)
			}
		}
	}

	r.Candidates = append(r.Candidates, report.TriageVerdict{
		Format: "PE", Arch: arch, Bits: bits, Endianness: "Little", Confidence: conf,
	})
}

func validateMachO(data []byte, r *Result) {
	if len(data) < 4 {
		return
	}
	m := binary.BigEndian.Uint32(data[:4])
	switch m {
	case 0xFEEDFACE:
		r.Candidates = append(r.Candidates, report.TriageVerdict{Format: "Mach-O", Arch: "Unknown", Bits: 32, Endianness: "Big", Confidence: 0.6})
		return
	case 0xFEEDFACF:
		r.Candidates = append(r.Candidates, report.TriageVerdict{Format: "Mach-O", Arch: "Unknown", Bits: 64, Endianness: "Big", Confidence: 0.6})
		return
	case 0xCAFEBABE, 0xBEBAFECA:
		// FAT Mach-O: not a header-validator verdict, handled as container
		// slicing by the recursion engine (spec §4.3/§4.9).
		return
	}
	ml := binary.LittleEndian.Uint32(data[:4])
	switch ml {
	case 0xFEEDFACE:
		r.Candidates = append(r.Candidates, report.TriageVerdict{Format: "Mach-O", Arch: "Unknown", Bits: 32, Endianness: "Little", Confidence: 0.6})
	case 0xFEEDFACF:
		r.Candidates = append(r.Candidates, report.TriageVerdict{Format: "Mach-O", Arch: "Unknown", Bits: 64, Endianness: "Little", Confidence: 0.6})
	}
}

func validateWasm(data []byte, r *Result) {
	if len(data) < 8 || data[0] != 0x00 || data[1] != 'a' || data[2] != 's' || data[3] != 'm' {
		return
	}
	version := readU32(data, 4, true)
	conf := 0.6
	if version >= 1 {
		conf = 0.75
	}
	r.Candidates = append(r.Candidates, report.TriageVerdict{Format: "Wasm", Arch: "Unknown", Bits: 32, Endianness: "Little", Confidence: conf})
}

func validatePyc(data []byte, r *Result) {
	if len(data) < 4 {
		return
	}
	if !((data[2] == 0x0D && data[3] == 0x0A) || (data[2] == 0x0D && data[3] == 0x0D)) {
		return
	}
	confidence := 0.8
	hashBased := false
	if len(data) >= 8 {
		bitField := readU32(data, 4, true)
		hashBased = bitField&0x01 != 0
	}
	required := 4 + 4 + 4
	if hashBased {
		required = 4 + 4 + 8 + 4
	}
	switch {
	case len(data) >= required:
		// header covers the full layout for its kind, nothing further to validate.
	case hashBased:
		r.Errors = append(r.Errors, report.NewError(report.ErrTruncated, "pyc header indicates hash-based but data is too short"))
		confidence = 0.6
	default:
		r.Errors = append(r.Errors, report.NewError(report.ErrShortRead, "pyc header too short (< 12 bytes)"))
		confidence = 0.5
	}
	r.Candidates = append(r.Candidates, report.TriageVerdict{
		Format: "PythonBytecode", Arch: "Unknown", Bits: 32, Endianness: "Little", Confidence: confidence,
	})
}
