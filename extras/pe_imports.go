/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package extras

import "encoding/binary"

const (
	maxPEImportDescriptors = 1024
	maxPEThunksPerImport   = 4096
	maxPEExportNames       = 8192
	maxNameLen             = 512
)

type peSection struct {
	virtualAddress   uint32
	virtualSize      uint32
	sizeOfRawData    uint32
	pointerToRawData uint32
}

func peSections(data []byte, eLfanew, numSections, secTableOff int) []peSection {
	out := make([]peSection, 0, numSections)
	for i := 0; i < numSections; i++ {
		base := secTableOff + i*40
		if base+40 > len(data) {
			break
		}
		out = append(out, peSection{
			virtualSize:      binary.LittleEndian.Uint32(data[base+8 : base+12]),
			virtualAddress:   binary.LittleEndian.Uint32(data[base+12 : base+16]),
			sizeOfRawData:    binary.LittleEndian.Uint32(data[base+16 : base+20]),
			pointerToRawData: binary.LittleEndian.Uint32(data[base+20 : base+24]),
		})
	}
	return out
}

func rvaToOffset(sections []peSection, rva uint32) (int, bool) {
	for _, s := range sections {
		span := s.virtualSize
		if s.sizeOfRawData > span {
			span = s.sizeOfRawData
		}
		if rva >= s.virtualAddress && rva < s.virtualAddress+span {
			return int(s.pointerToRawData + (rva - s.virtualAddress)), true
		}
	}
	return 0, false
}

func readCString(data []byte, off int) string {
	if off < 0 || off >= len(data) {
		return ""
	}
	end := off
	for end < len(data) && end-off < maxNameLen && data[end] != 0 {
		end++
	}
	return string(data[off:end])
}

// peHeaderInfo is the minimal PE geometry the import/export walkers
// need: bit width, the section table, and the data directory's
// Import/Export entries.
type peHeaderInfo struct {
	is64          bool
	sections      []peSection
	importRVA     uint32
	importSize    uint32
	exportRVA     uint32
	exportSize    uint32
}

func parsePEHeaderInfo(data []byte) (peHeaderInfo, bool) {
	var info peHeaderInfo
	if len(data) < 0x40 || data[0] != 'M' || data[1] != 'Z' {
		return info, false
	}
	eLfanew := int(binary.LittleEndian.Uint32(data[0x3C:0x40]))
	if eLfanew < 0 || eLfanew+0x18 >= len(data) {
		return info, false
	}
	if data[eLfanew] != 'P' || data[eLfanew+1] != 'E' {
		return info, false
	}
	numSections := int(binary.LittleEndian.Uint16(data[eLfanew+6 : eLfanew+8]))
	optMagicOff := eLfanew + 0x18
	if optMagicOff+2 > len(data) {
		return info, false
	}
	optMagic := binary.LittleEndian.Uint16(data[optMagicOff : optMagicOff+2])
	info.is64 = optMagic == 0x20B

	sizeOptOff := eLfanew + 4 + 16
	if sizeOptOff+2 > len(data) {
		return info, false
	}
	sizeOpt := int(binary.LittleEndian.Uint16(data[sizeOptOff : sizeOptOff+2]))
	secTableOff := eLfanew + 4 + 20 + sizeOpt
	info.sections = peSections(data, eLfanew, numSections, secTableOff)

	dataDirOff := optMagicOff + 96
	if info.is64 {
		dataDirOff = optMagicOff + 112
	}
	exportEntry := dataDirOff
	importEntry := dataDirOff + 8
	if importEntry+8 > len(data) {
		return info, true
	}
	info.exportRVA = binary.LittleEndian.Uint32(data[exportEntry : exportEntry+4])
	info.exportSize = binary.LittleEndian.Uint32(data[exportEntry+4 : exportEntry+8])
	info.importRVA = binary.LittleEndian.Uint32(data[importEntry : importEntry+4])
	info.importSize = binary.LittleEndian.Uint32(data[importEntry+4 : importEntry+8])
	return info, true
}

// ExtractPEImports walks the Import Directory Table, returning
// "dll.dll!SymbolName" for named imports (ordinal-only imports are
// skipped — nothing printable to report), bounded against adversarial
// descriptor/thunk counts.
func ExtractPEImports(data []byte) []string {
	info, ok := parsePEHeaderInfo(data)
	if !ok || info.importRVA == 0 {
		return nil
	}
	descOff, ok := rvaToOffset(info.sections, info.importRVA)
	if !ok {
		return nil
	}
	var out []string
	entrySize := 20
	for i := 0; i < maxPEImportDescriptors; i++ {
		base := descOff + i*entrySize
		if base+entrySize > len(data) {
			break
		}
		origFirstThunk := binary.LittleEndian.Uint32(data[base : base+4])
		nameRVA := binary.LittleEndian.Uint32(data[base+12 : base+16])
		firstThunk := binary.LittleEndian.Uint32(data[base+16 : base+20])
		if origFirstThunk == 0 && nameRVA == 0 && firstThunk == 0 {
			break
		}
		nameOff, ok := rvaToOffset(info.sections, nameRVA)
		if !ok {
			continue
		}
		dllName := readCString(data, nameOff)
		if dllName == "" {
			continue
		}
		thunkRVA := origFirstThunk
		if thunkRVA == 0 {
			thunkRVA = firstThunk
		}
		out = append(out, extractThunkNames(data, info, thunkRVA, dllName)...)
	}
	return out
}

func extractThunkNames(data []byte, info peHeaderInfo, thunkRVA uint32, dllName string) []string {
	var names []string
	thunkOff, ok := rvaToOffset(info.sections, thunkRVA)
	if !ok {
		return nil
	}
	entrySize := 4
	ordinalBit := uint64(1) << 31
	if info.is64 {
		entrySize = 8
		ordinalBit = uint64(1) << 63
	}
	for i := 0; i < maxPEThunksPerImport; i++ {
		base := thunkOff + i*entrySize
		if base+entrySize > len(data) {
			break
		}
		var val uint64
		if info.is64 {
			val = binary.LittleEndian.Uint64(data[base : base+8])
		} else {
			val = uint64(binary.LittleEndian.Uint32(data[base : base+4]))
		}
		if val == 0 {
			break
		}
		if val&ordinalBit != 0 {
			continue // ordinal import, no name to report
		}
		nameOff, ok := rvaToOffset(info.sections, uint32(val))
		if !ok {
			continue
		}
		sym := readCString(data, nameOff+2) // skip 2-byte Hint
		if sym != "" {
			names = append(names, dllName+"!"+sym)
		}
	}
	return names
}

// ExtractPEExports walks the Export Directory's name table.
func ExtractPEExports(data []byte) []string {
	info, ok := parsePEHeaderInfo(data)
	if !ok || info.exportRVA == 0 {
		return nil
	}
	dirOff, ok := rvaToOffset(info.sections, info.exportRVA)
	if !ok || dirOff+40 > len(data) {
		return nil
	}
	numberOfNames := binary.LittleEndian.Uint32(data[dirOff+24 : dirOff+28])
	addressOfNames := binary.LittleEndian.Uint32(data[dirOff+32 : dirOff+36])
	namesOff, ok := rvaToOffset(info.sections, addressOfNames)
	if !ok {
		return nil
	}
	count := int(numberOfNames)
	if count > maxPEExportNames {
		count = maxPEExportNames
	}
	var out []string
	for i := 0; i < count; i++ {
		base := namesOff + i*4
		if base+4 > len(data) {
			break
		}
		nameRVA := binary.LittleEndian.Uint32(data[base : base+4])
		nameOff, ok := rvaToOffset(info.sections, nameRVA)
		if !ok {
			continue
		}
		if name := readCString(data, nameOff); name != "" {
			out = append(out, name)
		}
	}
	return out
}
