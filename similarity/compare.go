/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package similarity

import (
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
)

// Compare scores two CTPH signatures in [0, 100]: 100 for an exact
// match (spec §8's "CTPH similarity of an input with itself is 1.0"
// falls out of this as sigA == sigB), 0 when the block sizes are
// incompatible (ssdeep-style signatures are only comparable at the
// same or a doubled block size) or either signature is empty.
func Compare(sigA, sigB string) int {
	if sigA == "" || sigB == "" {
		return 0
	}
	if sigA == sigB {
		return 100
	}
	blockA, digestsA, okA := splitSignature(sigA)
	blockB, digestsB, okB := splitSignature(sigB)
	if !okA || !okB {
		return 0
	}
	switch {
	case blockA == blockB:
		return scoreDigests(digestsA[0], digestsB[0])
	case blockA*2 == blockB:
		return scoreDigests(digestsA[1], digestsB[0])
	case blockB*2 == blockA:
		return scoreDigests(digestsA[0], digestsB[1])
	default:
		return 0
	}
}

func splitSignature(sig string) (int, [2]string, bool) {
	var digests [2]string
	fields := strings.SplitN(sig, ":", 3)
	if len(fields) != 3 {
		return 0, digests, false
	}
	block, err := strconv.Atoi(fields[0])
	if err != nil || block <= 0 {
		return 0, digests, false
	}
	digests[0] = fields[1]
	digests[1] = fields[2]
	return block, digests, true
}

// scoreDigests turns a Levenshtein edit distance between two piece
// digests into a [0, 100] similarity, mirroring ssdeep's own
// edit-distance-to-score conversion.
func scoreDigests(a, b string) int {
	if a == "" && b == "" {
		return 100
	}
	dist := matchr.Levenshtein(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 100
	}
	score := 100 - (dist*100)/maxLen
	if score < 0 {
		score = 0
	}
	return score
}
