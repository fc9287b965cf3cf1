/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package signing implements the presence-only signing bits of spec
// §4.10: it never validates a trust chain or certificate, only reports
// whether a PE Authenticode certificate table, a Mach-O code signature,
// Mach-O entitlements, or an overlay-embedded signature are present.
package signing

import (
	"encoding/binary"

	"github.com/binsift/triage/extras"
	"github.com/binsift/triage/report"
)

// PEHasAuthenticode checks the Security Directory (data directory
// index 4) for a WIN_CERTIFICATE header with revision 0x0200 and
// cert_type 0x0002 (WIN_CERT_TYPE_PKCS_SIGNED_DATA). Unlike every other
// PE data directory, this field holds a raw file offset, not an RVA.
func PEHasAuthenticode(data []byte) bool {
	if len(data) < 0x40 || data[0] != 'M' || data[1] != 'Z' {
		return false
	}
	eLfanew := int(binary.LittleEndian.Uint32(data[0x3C:0x40]))
	if eLfanew < 0 || eLfanew+0x18 >= len(data) {
		return false
	}
	if data[eLfanew] != 'P' || data[eLfanew+1] != 'E' {
		return false
	}
	optMagicOff := eLfanew + 0x18
	if optMagicOff+2 > len(data) {
		return false
	}
	is64 := binary.LittleEndian.Uint16(data[optMagicOff:optMagicOff+2]) == 0x20B
	dataDirOff := optMagicOff + 96
	if is64 {
		dataDirOff = optMagicOff + 112
	}
	secEntry := dataDirOff + 4*8
	if secEntry+8 > len(data) {
		return false
	}
	certOff := int(binary.LittleEndian.Uint32(data[secEntry : secEntry+4]))
	certSize := int(binary.LittleEndian.Uint32(data[secEntry+4 : secEntry+8]))
	if certOff <= 0 || certSize < 8 || certOff+8 > len(data) {
		return false
	}
	revision := binary.LittleEndian.Uint16(data[certOff+4 : certOff+6])
	certType := binary.LittleEndian.Uint16(data[certOff+6 : certOff+8])
	return revision == 0x0200 && certType == 0x0002
}

// Summarize builds the §4.10 SigningSummary for one artifact, given the
// winning verdict's format and the already-computed overlay (nil if
// none was found).
func Summarize(data []byte, format string, overlay *report.OverlayAnalysis) report.SigningSummary {
	var s report.SigningSummary
	switch format {
	case "PE":
		s.PEAuthenticodePresent = PEHasAuthenticode(data)
	case "Mach-O":
		s.MachOCodeSignaturePresent = extras.HasMachOCodeSignature(data)
		s.MachOEntitlementsPresent = extras.HasMachOEntitlements(data)
	}
	if overlay != nil {
		s.OverlayHasSignature = overlay.HasSignature
	}
	return s
}
