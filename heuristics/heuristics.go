/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package heuristics implements the endianness and architecture
// guessers of spec §4.5: cheap statistical signals used only when
// header validation left a format's endianness or arch undetermined,
// and as an independent cross-check signal for the scoring engine.
package heuristics

import (
	"sort"

	"github.com/binsift/triage/report"
)

const maxEndiannessChunks = 16 * 1024

// GuessEndianness scans up to 16K 32-bit chunks of data, scoring each
// chunk for little-endian vs big-endian "small trailing/leading zero
// bytes" shape, plus a bonus for values that look like small integers
// when read in that order (spec §4.5).
func GuessEndianness(data []byte) report.HeuristicEndianness {
	n := len(data) / 4
	if n > maxEndiannessChunks {
		n = maxEndiannessChunks
	}
	var leScore, beScore, total float64
	for i := 0; i < n; i++ {
		c := data[i*4 : i*4+4]
		total++
		if c[2] == 0 && c[3] == 0 {
			leScore++
		}
		if c[0] == 0 && c[1] == 0 {
			beScore++
		}
		leVal := uint32(c[0]) | uint32(c[1])<<8 | uint32(c[2])<<16 | uint32(c[3])<<24
		beVal := uint32(c[3]) | uint32(c[2])<<8 | uint32(c[1])<<16 | uint32(c[0])<<24
		if leVal < 256 {
			leScore += 2
		}
		if beVal < 256 {
			beScore += 2
		}
	}
	if total == 0 {
		return report.HeuristicEndianness{Guess: "Little", Confidence: 0.5}
	}
	maxPossible := total * 3 // 1 shape point + up to 2 small-int points, per side
	if leScore >= beScore {
		return report.HeuristicEndianness{Guess: "Little", Confidence: leScore / maxPossible}
	}
	return report.HeuristicEndianness{Guess: "Big", Confidence: beScore / maxPossible}
}

const archWindowSize = 64 * 1024

// archProfiles are fixed, indicative opcode-byte sets for each
// candidate architecture, scored against a frequency histogram of the
// first 64 KiB of the artifact (spec §4.5).
var archProfiles = map[string][]byte{
	"x86_64": {0x48, 0x8B, 0x89, 0xE8, 0xE9, 0xC3, 0x55, 0x5D, 0x83, 0xFF},
	"x86":    {0x8B, 0x89, 0xE8, 0xE9, 0xC3, 0x55, 0x5D, 0x50, 0x51, 0x90},
	"ARM64":  {0xD6, 0x5F, 0x91, 0xF9, 0xA9, 0x94, 0x14, 0xB9, 0x00, 0x01},
	"ARM":    {0xE1, 0xE3, 0xE5, 0xEB, 0xE8, 0x2D, 0xBD, 0x4C, 0x08, 0x1B},
	"MIPS":   {0x27, 0xBD, 0xAF, 0xBF, 0x8F, 0xBC, 0x03, 0xE0, 0x00, 0x08},
	"RISC-V": {0x13, 0x63, 0x67, 0x6F, 0x37, 0x97, 0x03, 0x23, 0x73, 0xEF},
}

// GuessArch histograms byte values over the first 64 KiB and returns
// the top three (arch, score) pairs by indicative-opcode frequency,
// normalized by profile length.
func GuessArch(data []byte) []report.HeuristicArch {
	window := data
	if len(window) > archWindowSize {
		window = window[:archWindowSize]
	}
	var hist [256]int
	for _, b := range window {
		hist[b]++
	}

	results := make([]report.HeuristicArch, 0, len(archProfiles))
	for arch, profile := range archProfiles {
		sum := 0
		for _, b := range profile {
			sum += hist[b]
		}
		score := float64(sum) / float64(len(profile))
		results = append(results, report.HeuristicArch{Arch: arch, Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Arch < results[j].Arch
	})
	if len(results) > 3 {
		results = results[:3]
	}
	return results
}
