/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package report

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/binsift/triage/budget"
)

// NewArtifact constructs an empty TriagedArtifact stamped with a fresh
// random ID and the current schema version. Stages populate the
// remaining fields; the artifact is treated as immutable once assembled
// (spec §3: "constructed end-to-end by one pipeline invocation").
func NewArtifact(path string, sizeBytes uint64) *TriagedArtifact {
	return &TriagedArtifact{
		SchemaVersion: SchemaVersion,
		ID:            uuid.NewString(),
		Path:          path,
		SizeBytes:     sizeBytes,
		Hints:         []TriageHint{},
		Verdicts:      []TriageVerdict{},
	}
}

// SortVerdicts orders verdicts by confidence descending, the tiebreak
// being format name for determinism (spec §5: "all collections are
// ordered").
func (a *TriagedArtifact) SortVerdicts() {
	sort.SliceStable(a.Verdicts, func(i, j int) bool {
		if a.Verdicts[i].Confidence != a.Verdicts[j].Confidence {
			return a.Verdicts[i].Confidence > a.Verdicts[j].Confidence
		}
		return a.Verdicts[i].Format < a.Verdicts[j].Format
	})
}

// SortContainers orders container children by (offset, type_name) per
// spec §4.9.
func SortContainers(children []ContainerChild) {
	sort.SliceStable(children, func(i, j int) bool {
		if children[i].Offset != children[j].Offset {
			return children[i].Offset < children[j].Offset
		}
		return children[i].TypeName < children[j].TypeName
	})
}

// AppendError records a non-fatal stage failure (spec §7).
func (a *TriagedArtifact) AppendError(kind ErrorKind, format string, args ...any) {
	a.Errors = append(a.Errors, TriageError{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// ApplyBudgets snapshots a budget.Budgets into the serializable report
// shape, called once at assembly time.
func ApplyBudgets(b *budget.Budgets) *BudgetsReport {
	if b == nil {
		return nil
	}
	return &BudgetsReport{
		BytesRead:         b.BytesRead,
		TimeMS:            b.TimeMS,
		RecursionDepth:    b.RecursionDepth,
		LimitBytes:        b.LimitBytes,
		LimitTimeMS:       b.LimitTimeMS,
		MaxRecursionDepth: b.MaxRecursionDepth,
		HitByteLimit:      b.HitByteLimit,
	}
}
