/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package extras

import "github.com/binsift/triage/report"

const maxSymbols = 4096

// BuildFormatSpecific dispatches to the per-format extractors and
// returns nil rather than an empty struct when nothing was found, so
// triage.go can omit format_specific entirely (spec §4.10 "optional").
func BuildFormatSpecific(data []byte, format string) *report.FormatSpecific {
	fs := &report.FormatSpecific{}
	switch format {
	case "PE":
		fs.RichHeader = ParseRichHeader(data)
		fs.Imports = dedupeStrings(ExtractPEImports(data))
		fs.Exports = dedupeStrings(ExtractPEExports(data))
	case "ELF":
		fs.Symbols = truncateSymbols(ExtractELFSymbols(data))
	case "Mach-O":
		fs.Symbols = truncateSymbols(ExtractMachOSymbols(data))
	}
	if fs.RichHeader == nil && len(fs.Symbols) == 0 && len(fs.Imports) == 0 && len(fs.Exports) == 0 {
		return nil
	}
	return fs
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func truncateSymbols(in []report.SymbolEntry) []report.SymbolEntry {
	if len(in) > maxSymbols {
		return in[:maxSymbols]
	}
	return in
}
