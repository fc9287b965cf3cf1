/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package extras implements the §4.10 format-specific extras: PE Rich
// Header decoding, overlay detection and fingerprinting, and
// symbol/import/export summaries. Grounded on
// original_source/src/triage/overlay.rs's "max(offset+size) over the
// section/segment table" approach, reimplemented over this module's own
// fixed-offset header reads rather than an object-file parsing crate.
package extras

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/binsift/triage/entropy"
	"github.com/binsift/triage/report"
)

const overlayHeaderCap = 256

// lastPESectionEnd returns max(PointerToRawData+SizeOfRawData) over the
// PE section table, or 0 if the PE header can't be located.
func lastPESectionEnd(data []byte) (uint64, bool) {
	if len(data) < 0x40 || data[0] != 'M' || data[1] != 'Z' {
		return 0, false
	}
	eLfanew := int(binary.LittleEndian.Uint32(data[0x3C:0x40]))
	if eLfanew < 0 || eLfanew+0x18 >= len(data) {
		return 0, false
	}
	if data[eLfanew] != 'P' || data[eLfanew+1] != 'E' || data[eLfanew+2] != 0 || data[eLfanew+3] != 0 {
		return 0, false
	}
	numSections := int(binary.LittleEndian.Uint16(data[eLfanew+6 : eLfanew+8]))
	sizeOptOff := eLfanew + 4 + 16
	if sizeOptOff+2 > len(data) {
		return 0, false
	}
	sizeOpt := int(binary.LittleEndian.Uint16(data[sizeOptOff : sizeOptOff+2]))
	secTableOff := eLfanew + 4 + 20 + sizeOpt

	var maxEnd uint64
	for i := 0; i < numSections; i++ {
		base := secTableOff + i*40
		if base+40 > len(data) {
			break
		}
		sizeOfRawData := binary.LittleEndian.Uint32(data[base+16 : base+20])
		pointerToRawData := binary.LittleEndian.Uint32(data[base+20 : base+24])
		end := uint64(pointerToRawData) + uint64(sizeOfRawData)
		if end > maxEnd {
			maxEnd = end
		}
	}
	return maxEnd, true
}

const shtNobits = 8

// lastELFSectionEnd returns max(sh_offset+sh_size) over ELF section
// headers with sh_type != SHT_NOBITS (a NOBITS section, e.g. .bss, has
// no file-backed range — the original's object::ObjectSection::file_range()
// likewise excludes it).
func lastELFSectionEnd(data []byte) (uint64, bool) {
	if len(data) < 0x40 || data[0] != 0x7F || data[1] != 'E' || data[2] != 'L' || data[3] != 'F' {
		return 0, false
	}
	is64 := data[4] == 2
	little := data[5] != 2
	var eShoff uint64
	var eShnum, eShentsize uint64
	if is64 {
		if len(data) < 0x40 {
			return 0, false
		}
		eShoff = readU64(data, 0x28, little)
		eShentsize = uint64(readU16(data, 0x3A, little))
		eShnum = uint64(readU16(data, 0x3C, little))
	} else {
		if len(data) < 0x34 {
			return 0, false
		}
		eShoff = uint64(readU32(data, 0x20, little))
		eShentsize = uint64(readU16(data, 0x2E, little))
		eShnum = uint64(readU16(data, 0x30, little))
	}
	var maxEnd uint64
	for i := uint64(0); i < eShnum; i++ {
		base := eShoff + i*eShentsize
		if base+eShentsize > uint64(len(data)) || base > uint64(len(data)) {
			break
		}
		var shType uint32
		var shOffset, shSize uint64
		if is64 {
			if base+40 > uint64(len(data)) {
				break
			}
			shType = uint32(readU32(data, int(base)+4, little))
			shOffset = readU64(data, int(base)+24, little)
			shSize = readU64(data, int(base)+32, little)
		} else {
			if base+24 > uint64(len(data)) {
				break
			}
			shType = uint32(readU32(data, int(base)+4, little))
			shOffset = uint64(readU32(data, int(base)+16, little))
			shSize = uint64(readU32(data, int(base)+20, little))
		}
		if shType == shtNobits {
			continue
		}
		end := shOffset + shSize
		if end > maxEnd {
			maxEnd = end
		}
	}
	return maxEnd, true
}

const (
	lcSegment   = 0x1
	lcSegment64 = 0x19
)

// lastMachOSegmentEnd returns max(fileoff+filesize) over LC_SEGMENT and
// LC_SEGMENT_64 load commands of a thin (non-FAT) Mach-O.
func lastMachOSegmentEnd(data []byte) (uint64, bool) {
	if len(data) < 28 {
		return 0, false
	}
	magic := binary.BigEndian.Uint32(data[0:4])
	magicLE := binary.LittleEndian.Uint32(data[0:4])
	var is64 bool
	var little bool
	switch {
	case magic == 0xFEEDFACE:
		is64, little = false, false
	case magic == 0xFEEDFACF:
		is64, little = true, false
	case magicLE == 0xFEEDFACE:
		is64, little = false, true
	case magicLE == 0xFEEDFACF:
		is64, little = true, true
	default:
		return 0, false
	}
	headerLen := 28
	if is64 {
		headerLen = 32
	}
	if len(data) < headerLen {
		return 0, false
	}
	ncmds := readU32(data, 16, little)
	off := headerLen
	var maxEnd uint64
	for i := uint32(0); i < ncmds; i++ {
		if off+8 > len(data) {
			break
		}
		cmd := readU32(data, off, little)
		cmdsize := readU32(data, off+4, little)
		if cmdsize == 0 || off+int(cmdsize) > len(data) {
			break
		}
		if cmd == lcSegment && off+40 <= len(data) {
			fileoff := uint64(readU32(data, off+32, little))
			filesize := uint64(readU32(data, off+36, little))
			if end := fileoff + filesize; end > maxEnd {
				maxEnd = end
			}
		} else if cmd == lcSegment64 && off+56 <= len(data) {
			fileoff := readU64(data, off+40, little)
			filesize := readU64(data, off+48, little)
			if end := fileoff + filesize; end > maxEnd {
				maxEnd = end
			}
		}
		off += int(cmdsize)
	}
	return maxEnd, true
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

// DetectOverlay locates the trailing slice after the last mapped
// section/segment for the given verdict format and, when present and
// at least 8 bytes, builds its full OverlayAnalysis (spec §4.10).
func DetectOverlay(data []byte, format string) *report.OverlayAnalysis {
	var lastEnd uint64
	var ok bool
	switch format {
	case "PE":
		lastEnd, ok = lastPESectionEnd(data)
	case "ELF":
		lastEnd, ok = lastELFSectionEnd(data)
	case "Mach-O":
		lastEnd, ok = lastMachOSegmentEnd(data)
	default:
		return nil
	}
	if !ok || lastEnd >= uint64(len(data)) {
		return nil
	}
	overlay := data[lastEnd:]
	if len(overlay) < 8 {
		return nil
	}
	return buildOverlayAnalysis(lastEnd, overlay)
}

func buildOverlayAnalysis(offset uint64, overlay []byte) *report.OverlayAnalysis {
	headerLen := len(overlay)
	if headerLen > overlayHeaderCap {
		headerLen = overlayHeaderCap
	}
	sum := sha256.Sum256(overlay)
	format := detectOverlayFormat(overlay)
	hasSig := format == "Certificate" || checkForSignature(overlay)
	isArchive := format == "ZIP" || format == "CAB" || format == "7z" || format == "RAR"
	return &report.OverlayAnalysis{
		Offset:         offset,
		Size:           uint64(len(overlay)),
		Entropy:        entropy.OfSlice(overlay),
		HeaderBytes:    append([]byte(nil), overlay[:headerLen]...),
		DetectedFormat: format,
		HasSignature:   hasSig,
		IsArchive:      isArchive,
		SHA256:         hex.EncodeToString(sum[:]),
	}
}

func detectOverlayFormat(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("PK\x03\x04")), bytes.HasPrefix(data, []byte("PK\x05\x06")), bytes.HasPrefix(data, []byte("PK\x07\x08")):
		return "ZIP"
	case bytes.HasPrefix(data, []byte("MSCF")):
		return "CAB"
	case bytes.HasPrefix(data, []byte("7z\xBC\xAF")):
		return "7z"
	case bytes.HasPrefix(data, []byte("Rar!")):
		return "RAR"
	case bytes.HasPrefix(data, []byte("hsqs")), bytes.HasPrefix(data, []byte("sqsh")):
		return "SquashFS"
	}
	if len(data) >= 3 && data[0] == 'A' && data[1] == 'I' && (data[2] == 0x01 || data[2] == 0x02) {
		return "AppImage"
	}
	if len(data) >= 0x8006 && string(data[0x8001:0x8006]) == "CD001" {
		return "ISO9660"
	}
	if bytes.Contains(data, []byte("NSIS")) {
		return "NSIS"
	}
	if len(data) >= 64 {
		if bytes.Contains(data, []byte("Inno Setup")) || bytes.HasPrefix(data, []byte("zlb\x1A")) {
			return "InnoSetup"
		}
	}
	if len(data) >= 32 && data[0] == 0x30 && data[1] == 0x82 {
		if checkForPKCS7Signature(data) {
			return "Certificate"
		}
	}
	return "Unknown"
}

var pkcs7SignedDataOID = []byte{0x06, 0x09, 0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01, 0x07, 0x02}

// checkForPKCS7Signature searches the first 256 bytes for the PKCS#7
// SignedData OID (1.2.840.113549.1.7.2).
func checkForPKCS7Signature(data []byte) bool {
	n := len(data)
	if n > 256 {
		n = 256
	}
	return bytes.Contains(data[:n], pkcs7SignedDataOID)
}

// checkForSignature matches either an ASN.1 PKCS#7 SignedData blob or a
// WIN_CERTIFICATE header (length, revision 0x0200, cert_type 0x0002).
func checkForSignature(data []byte) bool {
	if len(data) < 32 {
		return false
	}
	if data[0] == 0x30 {
		return checkForPKCS7Signature(data)
	}
	if len(data) >= 8 {
		length := binary.LittleEndian.Uint32(data[0:4])
		revision := binary.LittleEndian.Uint16(data[4:6])
		certType := binary.LittleEndian.Uint16(data[6:8])
		if revision == 0x0200 && certType == 0x0002 && uint64(length) <= uint64(len(data)) {
			return true
		}
	}
	return false
}
