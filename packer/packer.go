/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package packer implements the packer detector of spec §4.8: a
// bounded byte-substring search for known packer literals, optional
// section-name and section-entropy evidence bumps, and a generic
// "Packed" verdict derived from the entropy analyzer's packed
// indicators.
package packer

import (
	"bytes"
	"strings"

	"github.com/binsift/triage/config"
	"github.com/binsift/triage/entropy"
	"github.com/binsift/triage/report"
)

// literal is one packer signature: any of its byte literals matching
// is evidence for name at the given confidence.
type literal struct {
	name       string
	literals   [][]byte
	confidence float64
}

var literals = []literal{
	{name: "UPX", literals: [][]byte{[]byte("UPX!"), []byte("UPX0"), []byte("UPX1"), []byte("$Id: UPX ")}, confidence: 0.7},
	{name: "ASPack", literals: [][]byte{[]byte("ASPack")}, confidence: 0.9},
	{name: "PECompact", literals: [][]byte{[]byte("PECompact"), []byte("PEC2")}, confidence: 0.85},
	{name: "Petite", literals: [][]byte{[]byte("Petite")}, confidence: 0.8},
	{name: "FSG", literals: [][]byte{[]byte("FSG!")}, confidence: 0.85},
	{name: "MPRESS", literals: [][]byte{[]byte("MPRESS")}, confidence: 0.85},
	{name: "Themida", literals: [][]byte{[]byte("Themida"), []byte("WinLicense")}, confidence: 0.9},
	{name: "VMProtect", literals: [][]byte{[]byte(".vmp0"), []byte(".vmp1")}, confidence: 0.75},
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Section is the minimal shape the packer detector needs from a parsed
// object's section table (name + raw bytes), supplied by whichever
// format extra ran successfully; nil when no object parse succeeded.
type Section struct {
	Name string
	Data []byte
}

// Detect scans data (bounded to cfg.ScanLimit) for known packer
// literals, applies section-based evidence bumps when sections is
// non-nil, and appends a generic "Packed" match when the entropy
// analyzer's header/body/cliff indicators all hold.
func Detect(data []byte, cfg config.PackerConfig, entropyCfg config.EntropyConfig, sections []Section) []report.PackerMatch {
	hay := data
	if cfg.ScanLimit > 0 && uint64(len(hay)) > cfg.ScanLimit {
		hay = hay[:cfg.ScanLimit]
	}

	matches := map[string]float64{}
	order := []string{}
	bump := func(name string, delta float64, baseIfAbsent float64) {
		if _, ok := matches[name]; ok {
			matches[name] = clamp01(matches[name] + delta)
			return
		}
		if baseIfAbsent > 0 {
			matches[name] = clamp01(baseIfAbsent)
			order = append(order, name)
		}
	}

	for _, lit := range literals {
		for _, l := range lit.literals {
			if bytes.Contains(hay, l) {
				bump(lit.name, 0, lit.confidence)
				break
			}
		}
	}

	for _, sec := range sections {
		lname := strings.ToLower(sec.Name)
		switch {
		case strings.Contains(lname, "upx"):
			bump("UPX", 0.2, 0.6)
		case strings.Contains(lname, "vmp0"), strings.Contains(lname, "vmp1"), strings.Contains(lname, ".vmp"):
			bump("VMProtect", 0.2, 0.6)
		case strings.Contains(lname, "aspack"), lname == ".adata":
			bump("ASPack", 0.1, 0.7)
		case strings.Contains(lname, "petite"):
			bump("Petite", 0.1, 0.7)
		case strings.Contains(lname, "mpress"):
			bump("MPRESS", 0.1, 0.7)
		}
		if len(sec.Data) >= 4096 && entropy.OfSlice(sec.Data) > 7.3 {
			for name := range matches {
				bump(name, 0.05, 0)
			}
		}
	}

	ea := entropy.Analyze(hay, entropyCfg)
	pi := ea.PackedIndicators
	if pi.LowEntropyHeader && pi.HighEntropyBody && pi.EntropyCliffIndex != nil {
		bump("Packed", 0, 0.8)
	}

	out := make([]report.PackerMatch, 0, len(order))
	for _, name := range order {
		out = append(out, report.PackerMatch{Name: name, Confidence: matches[name]})
	}
	return out
}
