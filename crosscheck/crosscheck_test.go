/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package crosscheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsift/triage/report"
)

func TestCheckEmitsMismatchForRenamedELF(t *testing.T) {
	hints := []report.TriageHint{
		{Source: "content", Label: "elf"},
		{Source: "extension", Extension: "exe", Label: "pe"},
	}
	errs := Check(hints, []string{"ELF"}, nil, false)
	require.Len(t, errs, 1)
	assert.Equal(t, report.ErrSnifferMismatch, errs[0].Kind)
	assert.Contains(t, errs[0].Message, "PE")
	assert.Contains(t, errs[0].Message, "ELF")
}

func TestCheckSuppressesContainerHintWhenContainerDetected(t *testing.T) {
	hints := []report.TriageHint{
		{Source: "content", Label: "zip"},
		{Source: "extension", Extension: "exe", Label: "pe"},
	}
	containers := []report.ContainerChild{{TypeName: "zip", Offset: 0, Size: 200}}
	errs := Check(hints, nil, containers, false)
	assert.Empty(t, errs)
}

func TestCheckNoMismatchWhenHeaderFormatsEmpty(t *testing.T) {
	hints := []report.TriageHint{{Source: "content", Label: "elf"}}
	errs := Check(hints, nil, nil, false)
	assert.Empty(t, errs)
}

func TestCheckNoMismatchWhenHintMatchesHeaderFormat(t *testing.T) {
	hints := []report.TriageHint{{Source: "content", Label: "elf"}}
	errs := Check(hints, []string{"ELF"}, nil, false)
	assert.Empty(t, errs)
}

func TestCheckAppendsBudgetExceededWhenByteLimitHit(t *testing.T) {
	errs := Check(nil, []string{"ELF"}, nil, true)
	require.Len(t, errs, 1)
	assert.Equal(t, report.ErrBudgetExceeded, errs[0].Kind)
}

func TestConflictLabelsMatchesClosedSet(t *testing.T) {
	assert.True(t, ConflictLabels("elf", "pe"))
	assert.True(t, ConflictLabels("pe", "elf"))
	assert.True(t, ConflictLabels("gzip", "elf"))
	assert.False(t, ConflictLabels("zip", "tar"))
	assert.False(t, ConflictLabels("elf", "elf"))
}
