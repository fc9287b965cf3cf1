/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package recurse

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/binsift/triage/budget"
	"github.com/binsift/triage/crosscheck"
	"github.com/binsift/triage/report"
)

// Engine discovers immediate children of an artifact: container magic
// at offset 0, FAT Mach-O arch slices, and embedded container
// signatures at non-zero offsets (spec §4.9).
type Engine struct {
	MaxDepth uint32
}

// NewEngine returns an Engine with the given depth ceiling. A maxDepth
// of 0 means "never descend" (spec §4.9: depth >= max_depth refuses).
func NewEngine(maxDepth uint32) *Engine {
	return &Engine{MaxDepth: maxDepth}
}

const (
	fatMagicBE  = 0xCAFEBABE
	fatMagic64  = 0xCAFEBABF
	fatHdr32Len = 20
	fatHdr64Len = 24
	fatAfterHdr = 8
)

// detectFatMachO recognizes the FAT (universal) Mach-O magic in either
// endianness and tolerantly tries 64-bit then 32-bit fat_arch entry
// sizes, since nothing in the outer header distinguishes them.
func detectFatMachO(data []byte) []report.ContainerChild {
	if len(data) < 8 {
		return nil
	}
	magicBE := binary.BigEndian.Uint32(data[0:4])
	magicLE := binary.LittleEndian.Uint32(data[0:4])

	isFatBE := magicBE == fatMagicBE || magicBE == fatMagic64
	isFatLE := magicLE == fatMagicBE || magicLE == fatMagic64
	if !isFatBE && !isFatLE {
		return nil
	}
	be := isFatBE

	var nfat uint32
	if be {
		nfat = binary.BigEndian.Uint32(data[4:8])
	} else {
		nfat = binary.LittleEndian.Uint32(data[4:8])
	}

	var out []report.ContainerChild
	for _, entrySize := range []int{fatHdr64Len, fatHdr32Len} {
		total := fatAfterHdr + int(nfat)*entrySize
		if total < 0 || total > len(data) {
			continue
		}
		var slices []report.ContainerChild
		for i := uint32(0); i < nfat; i++ {
			base := fatAfterHdr + int(i)*entrySize
			if base+entrySize > len(data) {
				break
			}
			var off, size uint64
			if entrySize == fatHdr32Len {
				if be {
					off = uint64(binary.BigEndian.Uint32(data[base+8 : base+12]))
					size = uint64(binary.BigEndian.Uint32(data[base+12 : base+16]))
				} else {
					off = uint64(binary.LittleEndian.Uint32(data[base+8 : base+12]))
					size = uint64(binary.LittleEndian.Uint32(data[base+12 : base+16]))
				}
			} else {
				if be {
					off = binary.BigEndian.Uint64(data[base+8 : base+16])
					size = binary.BigEndian.Uint64(data[base+16 : base+24])
				} else {
					off = binary.LittleEndian.Uint64(data[base+8 : base+16])
					size = binary.LittleEndian.Uint64(data[base+16 : base+24])
				}
			}
			if off == 0 || size == 0 {
				continue
			}
			if off < uint64(len(data)) && off+size <= uint64(len(data)) {
				slices = append(slices, report.ContainerChild{TypeName: "macho-thin", Offset: off, Size: size})
			}
		}
		if len(slices) > 0 {
			out = slices
			break
		}
	}
	return out
}

// detectEmbeddedContainers scans for container signatures at non-zero
// offsets (an overlay/embedding heuristic): the first hit of each kind
// is enough for triage, matching the original's "first hit is enough"
// rule.
func detectEmbeddedContainers(data []byte) []report.ContainerChild {
	var out []report.ContainerChild

	if len(data) > 1 {
		if pos := bytes.Index(data[1:], []byte("PK\x03\x04")); pos >= 0 {
			off := 1 + pos
			out = append(out, report.ContainerChild{TypeName: "zip", Offset: uint64(off), Size: uint64(len(data) - off)})
		}
	}
	if pos := findAfter(data, []byte{0x1F, 0x8B}, 1); pos >= 0 {
		out = append(out, report.ContainerChild{TypeName: "gzip", Offset: uint64(pos), Size: uint64(len(data) - pos)})
	}
	if pos := findAfter(data, []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}, 1); pos >= 0 {
		out = append(out, report.ContainerChild{TypeName: "xz", Offset: uint64(pos), Size: uint64(len(data) - pos)})
	}
	if len(data) > 1 {
		if pos := bytes.Index(data[1:], []byte("BZh")); pos >= 0 {
			off := 1 + pos
			out = append(out, report.ContainerChild{TypeName: "bzip2", Offset: uint64(off), Size: uint64(len(data) - off)})
		}
	}
	if pos := findAfter(data, []byte{0x28, 0xB5, 0x2F, 0xFD}, 1); pos >= 0 {
		out = append(out, report.ContainerChild{TypeName: "zstd", Offset: uint64(pos), Size: uint64(len(data) - pos)})
	}
	if len(data) > 1 {
		if pos := bytes.Index(data[1:], []byte("ustar")); pos >= 0 {
			abs := 1 + pos
			if abs >= 257 {
				hdrStart := abs - 257
				if hdrStart%tarBlockSize == 0 {
					out = append(out, report.ContainerChild{TypeName: "tar", Offset: uint64(hdrStart), Size: uint64(len(data) - hdrStart)})
				}
			}
		}
	}
	return out
}

// findAfter returns the absolute index (>= from) of the first
// occurrence of sig at or after offset from, or -1 if none, excluding
// offset 0 (handled by detectContainers).
func findAfter(data, sig []byte, from int) int {
	if from >= len(data) {
		return -1
	}
	idx := bytes.Index(data[from:], sig)
	if idx < 0 {
		return -1
	}
	pos := from + idx
	if pos == 0 {
		return -1
	}
	return pos
}

// DiscoverChildren finds data's immediate children, enforcing the
// engine's depth ceiling and accounting depth usage in budgets (spec
// §4.9: refuses to descend when depth >= max_depth). hints carries the
// artifact's sniffer hints so a "jar" hint can drive the JAR-specific
// zip dedup below.
func (e *Engine) DiscoverChildren(data []byte, budgets *budget.Budgets, depth uint32, hints []report.TriageHint) []report.ContainerChild {
	if depth >= e.MaxDepth {
		return nil
	}
	budgets.EnterDepth(depth)

	var children []report.ContainerChild
	children = append(children, detectContainers(data)...)
	children = append(children, detectFatMachO(data)...)
	children = append(children, detectEmbeddedContainers(data)...)

	children = dedupeJar(children, hasJarHint(hints))
	report.SortContainers(children)
	return children
}

func hasJarHint(hints []report.TriageHint) bool {
	for _, h := range hints {
		if strings.EqualFold(h.Label, "jar") {
			return true
		}
	}
	return false
}

// dedupeJar implements spec §4.9's JAR-specific dedup: when a jar hint
// is present and multiple zip children were found, keep the zip at
// offset 0 if any, else the largest zip, and drop the rest. Non-zip
// children are untouched, and the rule only applies when the hint is
// present at all.
func dedupeJar(children []report.ContainerChild, hasJar bool) []report.ContainerChild {
	if !hasJar {
		return children
	}
	var zips, rest []report.ContainerChild
	for _, c := range children {
		if c.TypeName == "zip" {
			zips = append(zips, c)
		} else {
			rest = append(rest, c)
		}
	}
	if len(zips) <= 1 {
		return children
	}
	keep := zips[0]
	atZero := false
	for _, z := range zips {
		if z.Offset == 0 {
			keep = z
			atZero = true
			break
		}
	}
	if !atZero {
		for _, z := range zips {
			if z.Size > keep.Size {
				keep = z
			}
		}
	}
	return append(rest, keep)
}

// Summarize rolls up discovered children into a RecursionSummary (spec
// §4.9): total count, the deepest depth reached, and whether the child
// set looks dangerous — a packer match on the parent, or a nested
// executable container (a FAT Mach-O slice, or a child whose sniffed
// label conflicts with an executable hint) (spec §D.2; original
// src/triage/api.rs's !packers.is_empty() generalized to also cover the
// nested-executable-container case spec.md names but the original's
// single-artifact model never has to).
func Summarize(children []report.ContainerChild, maxDepthReached uint32, packers []report.PackerMatch, hints []report.TriageHint) report.RecursionSummary {
	dangerous := len(packers) > 0
	for _, c := range children {
		if c.TypeName == "macho-thin" {
			dangerous = true
			continue
		}
		for _, h := range hints {
			if crosscheck.ConflictLabels(c.TypeName, h.Label) {
				dangerous = true
				break
			}
		}
	}
	return report.RecursionSummary{
		TotalChildren:         len(children),
		MaxDepth:              maxDepthReached,
		DangerousChildPresent: dangerous,
	}
}
