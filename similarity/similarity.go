/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package similarity

import "github.com/binsift/triage/report"

// Compute builds the §4.10 SimilaritySummary: CTPH over buf for every
// format, imphash additionally for PE. buf is the caller's bounded
// heuristics-stage buffer (never the whole file), so CTPH cost is
// capped regardless of artifact size.
func Compute(buf []byte, format string, ctphChunkSize int, peImports []string) *report.SimilaritySummary {
	if len(buf) == 0 {
		return nil
	}
	sum := &report.SimilaritySummary{
		CTPH: CTPH(buf, ctphChunkSize),
	}
	if format == "PE" {
		sum.Imphash = Imphash(peImports)
	}
	if sum.CTPH == "" && sum.Imphash == "" {
		return nil
	}
	return sum
}
