/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package parsers

import "github.com/binsift/triage/headers"

// GenericObjectParser is always configured (spec §4.7: "always at least
// one general object parser"). It succeeds whenever the header
// validators found at least one structurally plausible candidate.
type GenericObjectParser struct{}

func (GenericObjectParser) Kind() string { return "generic-object" }

func (GenericObjectParser) Parse(data []byte) (bool, error) {
	r := headers.Validate(data)
	return len(r.Candidates) > 0, nil
}

// FormatParser probes for one specific format's header validity,
// configured optionally alongside the generic parser for PE/ELF/Mach-O
// (spec §4.7).
type FormatParser struct {
	Format string
}

func (f FormatParser) Kind() string { return "format:" + f.Format }

func (f FormatParser) Parse(data []byte) (bool, error) {
	r := headers.Validate(data)
	for _, c := range r.Candidates {
		if c.Format == f.Format {
			return true, nil
		}
	}
	return false, nil
}

// Default returns the standard parser set: the generic object parser
// plus one FormatParser per extra format requested.
func Default(extraFormats ...string) []Parser {
	out := []Parser{GenericObjectParser{}}
	for _, f := range extraFormats {
		out = append(out, FormatParser{Format: f})
	}
	return out
}
