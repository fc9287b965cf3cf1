/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package parsers implements the parser-probe boundary of spec §4.7:
// every configured parser (a general object parser, plus optional
// format-specific extras) runs behind a recover() boundary that turns a
// panic into a failed ParserResult carrying the panic message rather
// than letting it propagate past the boundary. The probe adds no
// TriageError itself; the orchestrator appends one ParserMismatch error
// only when no parser succeeds on an artifact with a header-derived
// format, so a panic in one parser while another succeeds adds none.
package parsers

import (
	"fmt"

	"github.com/binsift/triage/report"
)

// Parser is a single fallible format parser. ok indicates whether the
// probe considers data a structurally valid instance of its format;
// an error return is a normal "not this format" result, not a fault.
type Parser interface {
	Kind() string
	Parse(data []byte) (ok bool, err error)
}

// Probe runs p.Parse behind a recover() boundary, converting any panic
// into a ParserResult with OK false and Error "panic: <value>" instead
// of letting it unwind past
// this call (spec §4.7/§9 and the "isolate a fallible external call and
// keep going" discipline).
func Probe(p Parser, data []byte) (result report.ParserResult) {
	result.ParserKind = p.Kind()
	defer func() {
		if rec := recover(); rec != nil {
			result.OK = false
			result.Error = fmt.Sprintf("panic: %v", rec)
		}
	}()
	ok, err := p.Parse(data)
	result.OK = ok
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

// ProbeAll runs every configured parser in order and returns one
// ParserResult per parser. No parser's outcome affects whether the
// next one runs (spec §4.12 state machine: Parse-probes is a single
// non-branching stage).
func ProbeAll(parsers []Parser, data []byte) []report.ParserResult {
	results := make([]report.ParserResult, 0, len(parsers))
	for _, p := range parsers {
		results = append(results, Probe(p, data))
	}
	return results
}

// AnyOK reports whether at least one parser succeeded, the signal the
// scoring engine reads as parser_success (spec §4.12 step 1).
func AnyOK(results []report.ParserResult) bool {
	for _, r := range results {
		if r.OK {
			return true
		}
	}
	return false
}
