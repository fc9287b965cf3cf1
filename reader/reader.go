/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package reader implements the bounded reader (spec §4.1): it turns a
// file path or byte buffer into the three successive prefix slices the
// rest of the pipeline consumes, while enforcing the configured size
// ceilings and never seeking past EOF or mapping memory.
package reader

import (
	"errors"
	"fmt"
	"os"

	"github.com/binsift/triage/budget"
	"github.com/binsift/triage/config"
)

// Fixed prefix sizes from spec §4.1.
const (
	SniffPrefixSize = 4 * 1024
	HeaderPrefixSize = 64 * 1024
	heuristicsCap    = 10 * 1024 * 1024
)

// ErrEmptyInput is the single reader-fatal condition (spec §7).
var ErrEmptyInput = errors.New("reader: empty input")

// Bounded is the assembled result of reading an artifact under budget.
type Bounded struct {
	Full              []byte
	Sniff             []byte
	Header            []byte
	Heuristics        []byte
	FileSize          uint64
}

// ReadPath loads a file from disk, refusing files that exceed
// limits.MaxFileSize, and slices the three prefixes.
func ReadPath(path string, limits config.Limits, b *budget.Budgets) (*Bounded, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reader: stat %s: %w", path, err)
	}
	size := uint64(info.Size())
	if limits.MaxFileSize > 0 && size > limits.MaxFileSize {
		return nil, fmt.Errorf("reader: file %s exceeds max_file_size (%d > %d)", path, size, limits.MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reader: read %s: %w", path, err)
	}
	return ReadBytes(data, limits, b)
}

// ReadBytes slices an in-memory buffer into the three bounded prefixes
// (spec §4.1). It never copies beyond what is sliced: all three prefix
// fields alias Full.
func ReadBytes(data []byte, limits config.Limits, b *budget.Budgets) (*Bounded, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	maxRead := uint64(heuristicsCap)
	if limits.MaxReadBytes > 0 && limits.MaxReadBytes < maxRead {
		maxRead = limits.MaxReadBytes
	}

	hit := false
	sniffLen := clampLen(len(data), SniffPrefixSize, &hit, limits.MaxReadBytes)
	headerLen := clampLen(len(data), HeaderPrefixSize, &hit, limits.MaxReadBytes)
	heuristicsLen := clampLen(len(data), int(maxRead), &hit, limits.MaxReadBytes)

	size := uint64(len(data))

	out := &Bounded{
		Full:       data,
		Sniff:      data[:sniffLen],
		Header:     data[:headerLen],
		Heuristics: data[:heuristicsLen],
		FileSize:   size,
	}

	if b != nil {
		b.AddBytes(size)
		if hit {
			b.MarkByteLimitHit()
		}
	}
	return out, nil
}

// clampLen returns min(dataLen, want), with want first lowered to the
// configured max_read_bytes when that is set and smaller, and flips
// *hit only in that case. dataLen being shorter than requested does not
// flip it (a short read is not a limit hit — only a requested-but-denied
// byte counts, per spec §4.1: "set hit_byte_limit when any requested
// prefix was capped by max_read_bytes").
func clampLen(dataLen, want int, hit *bool, maxReadBytes uint64) int {
	effectiveWant := want
	if maxReadBytes > 0 && uint64(want) > maxReadBytes {
		effectiveWant = int(maxReadBytes)
		*hit = true
	}
	if effectiveWant > dataLen {
		return dataLen
	}
	return effectiveWant
}
