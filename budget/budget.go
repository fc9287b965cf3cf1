/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package budget implements the mutable resource-ceiling record that
// crosses every pipeline stage boundary (spec §3 Budgets, §5 Resource
// discipline). It is the only mutable value threaded through the
// pipeline; everything else is a pure function of its inputs.
package budget

import "time"

// Budgets tracks consumption against configured ceilings. The zero
// value is usable: no limits configured, nothing hit.
type Budgets struct {
	BytesRead       uint64
	startedAt       time.Time
	TimeMS          int64
	RecursionDepth  uint32
	LimitBytes      *uint64
	LimitTimeMS     *int64
	MaxRecursionDepth *uint32
	HitByteLimit    bool
}

// New constructs a Budgets with the given ceilings. A zero limit means
// "unbounded" for that dimension.
func New(limitBytes uint64, limitTimeMS int64, maxDepth uint32) *Budgets {
	b := &Budgets{startedAt: time.Now()}
	if limitBytes > 0 {
		b.LimitBytes = &limitBytes
	}
	if limitTimeMS > 0 {
		b.LimitTimeMS = &limitTimeMS
	}
	if maxDepth > 0 {
		b.MaxRecursionDepth = &maxDepth
	}
	return b
}

// AddBytes records additional bytes observed by a stage, saturating
// rather than overflowing, and flips HitByteLimit when the requested
// amount exceeds the configured ceiling.
func (b *Budgets) AddBytes(n uint64) {
	sum := b.BytesRead + n
	if sum < b.BytesRead {
		sum = ^uint64(0) // saturate
	}
	b.BytesRead = sum
	if b.LimitBytes != nil && n > *b.LimitBytes {
		b.HitByteLimit = true
	}
}

// MarkByteLimitHit explicitly records that a stage capped a read at the
// configured ceiling (used by the bounded reader when a requested
// prefix was truncated).
func (b *Budgets) MarkByteLimitHit() {
	b.HitByteLimit = true
}

// ElapsedExceeded reports whether the configured wall-clock budget has
// been exceeded. Stages call this at coarse granularity (entropy
// windows, string runs, recursion iterations) per spec §5.
func (b *Budgets) ElapsedExceeded() bool {
	if b.LimitTimeMS == nil {
		return false
	}
	return time.Since(b.startedAt).Milliseconds() > *b.LimitTimeMS
}

// Finalize stamps the elapsed wall-clock time into TimeMS. Called once
// by the orchestrator at assembly time (spec §8: time_ms is the only
// other field allowed to vary between identical runs).
func (b *Budgets) Finalize() {
	b.TimeMS = time.Since(b.startedAt).Milliseconds()
}

// DepthAllowed reports whether descending to the next depth is allowed
// under MaxRecursionDepth (spec §4.9: "Refuses to descend when depth >=
// max_depth").
func (b *Budgets) DepthAllowed(depth uint32) bool {
	if b.MaxRecursionDepth == nil {
		return true
	}
	return depth < *b.MaxRecursionDepth
}

// EnterDepth records that recursion has descended one level, updating
// the high-water mark.
func (b *Budgets) EnterDepth(depth uint32) {
	if depth+1 > b.RecursionDepth {
		b.RecursionDepth = depth + 1
	}
}
