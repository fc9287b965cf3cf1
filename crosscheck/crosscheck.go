/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package crosscheck implements the §4.11 Cross-Check Layer: it
// compares the expected executable format derived from each sniffer
// hint against the formats the header validators actually found, and
// emits a SnifferMismatch error when they disagree — unless the hint
// is container-like and a matching container was detected at this
// artifact's top level, in which case the mismatch is suppressed.
//
// Grounded on original_source/src/triage/sniffers.rs's
// CombinedSniffer::detect_conflicts/hints_conflict (the same closed
// conflict-pair table), generalized to compare hints against header
// verdicts rather than against each other, and to add the container-hint
// exemption spec.md §4.11 layers on top.
package crosscheck

import (
	"fmt"
	"strings"

	"github.com/binsift/triage/report"
)

// executableLabels maps a lower-cased hint label/extension/MIME
// substring to the executable format name it implies. Container labels
// (zip/tar/jar/gzip/7z/xz/bzip2/zstd/lz4/rar/ar/cpio) intentionally have
// no entry here — spec §4.2/§4.11: "Container labels ... yield no
// executable expectation."
var executableLabels = []struct {
	substr string
	format string
}{
	{"elf", "ELF"},
	{"pe", "PE"},
	{"macho", "Mach-O"},
	{"mach-o", "Mach-O"},
	{"wasm", "Wasm"},
	{"python", "PythonBytecode"},
}

var containerLabels = map[string]bool{
	"zip": true, "tar": true, "jar": true, "gzip": true, "7z": true,
	"xz": true, "bzip2": true, "zstd": true, "lz4": true, "rar": true,
	"rar5": true, "ar": true, "cpio": true,
}

// conflictPairs is the closed conflict set spec §4.2/§4.11 names; it is
// symmetric so each pair is listed once.
var conflictPairs = [][2]string{
	{"elf", "pe"},
	{"elf", "macho"},
	{"pe", "macho"},
	{"zip", "elf"},
	{"zip", "pe"},
	{"gzip", "elf"},
	{"tar", "elf"},
}

// expectedFormat derives the expected executable format from a hint,
// preferring label, then extension, then MIME (spec §4.11's ordered
// priority), case-insensitive substring matching. Returns "" when the
// hint names a container or nothing recognizable.
func expectedFormat(hint report.TriageHint) (format string, containerLabel string) {
	for _, field := range []string{hint.Label, hint.Extension, hint.MIME} {
		f := strings.ToLower(field)
		if f == "" {
			continue
		}
		if containerLabels[f] {
			return "", f
		}
		for _, e := range executableLabels {
			if strings.Contains(f, e.substr) {
				return e.format, ""
			}
		}
	}
	return "", ""
}

// Check runs the §4.11 cross-check: hints vs. header-derived formats,
// with the container-hint exemption, plus a BudgetExceeded error when
// the reader hit its byte ceiling.
func Check(hints []report.TriageHint, headerFormats []string, containers []report.ContainerChild, hitByteLimit bool) []report.TriageError {
	var errs []report.TriageError

	detectedContainerTypes := map[string]bool{}
	for _, c := range containers {
		detectedContainerTypes[strings.ToLower(c.TypeName)] = true
	}

	headerSet := map[string]bool{}
	for _, f := range headerFormats {
		headerSet[f] = true
	}

	for _, hint := range hints {
		expected, container := expectedFormat(hint)
		if container != "" {
			if detectedContainerTypes[container] {
				continue // container-hint exemption: a matching container was found
			}
			expected = container // fall through to the general mismatch check below
		}
		if expected == "" {
			continue
		}
		if len(headerSet) > 0 && !headerSet[expected] {
			errs = append(errs, report.NewError(report.ErrSnifferMismatch,
				fmt.Sprintf("sniffer suggests %s but header validators found %s", expected, strings.Join(headerFormats, ", "))))
		}
	}

	if hitByteLimit {
		errs = append(errs, report.NewError(report.ErrBudgetExceeded, "reader hit max_read_bytes"))
	}
	return errs
}

// IsContainerLabel reports whether label/extension/MIME field f names a
// recognized container format, the same set expectedFormat treats as
// container-like rather than executable-like.
func IsContainerLabel(f string) bool {
	return containerLabels[strings.ToLower(f)]
}

// ConflictLabels reports whether two coarse labels belong to the
// closed conflict-pair set, exposed for callers (tests, other
// sniffer-vs-sniffer checks) that want the raw table without going
// through the header-verdict comparison in Check.
func ConflictLabels(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	for _, pair := range conflictPairs {
		if (strings.Contains(a, pair[0]) && strings.Contains(b, pair[1])) ||
			(strings.Contains(a, pair[1]) && strings.Contains(b, pair[0])) {
			return true
		}
	}
	return false
}
