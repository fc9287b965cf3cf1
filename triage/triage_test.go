/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package triage

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsift/triage/config"
	"github.com/binsift/triage/report"
)

func newTestEngine() *Engine {
	return NewEngine(config.Default())
}

// wellFormedELF64 mirrors headers_test.go's fixture: a minimal valid
// little-endian 64-bit ELF ident plus enough header for the
// structural checks to pass cleanly.
func wellFormedELF64() []byte {
	data := make([]byte, 0x40)
	copy(data, []byte{0x7F, 'E', 'L', 'F'})
	data[4] = 2 // ELFCLASS64
	data[5] = 1 // little-endian
	binary.LittleEndian.PutUint16(data[0x12:], 0x3E) // EM_X86_64
	binary.LittleEndian.PutUint16(data[0x34:], 64)   // e_ehsize
	binary.LittleEndian.PutUint16(data[0x36:], 56)   // e_phentsize
	binary.LittleEndian.PutUint16(data[0x3A:], 64)   // e_shentsize
	return data
}

// minimalZIP builds a single-entry ZIP with a valid End Of Central
// Directory record, the only part recurse/containers.go's EOCD-based
// metadata parse needs.
func minimalZIP() []byte {
	data := make([]byte, 0)
	data = append(data, []byte("PK\x03\x04")...)
	data = append(data, make([]byte, 26)...) // local file header stub
	eocd := make([]byte, 22)
	copy(eocd, []byte("PK\x05\x06"))
	binary.LittleEndian.PutUint16(eocd[10:], 1) // total entries
	return append(data, eocd...)
}

func TestAnalyzeBytesWellFormedELF(t *testing.T) {
	e := newTestEngine()
	artifact, err := e.AnalyzeBytes(wellFormedELF64(), "sample.bin")
	require.NoError(t, err)
	require.NotEmpty(t, artifact.Verdicts)
	assert.Equal(t, "ELF", artifact.Verdicts[0].Format)
	assert.Equal(t, "x86_64", artifact.Verdicts[0].Arch)
	assert.GreaterOrEqual(t, artifact.Verdicts[0].Confidence, 0.5)
	for _, e := range artifact.Errors {
		assert.NotEqual(t, report.ErrSnifferMismatch, e.Kind)
	}
	require.NotNil(t, artifact.HeuristicArch)
	assert.Len(t, artifact.HeuristicArch, 3)
	assert.NotNil(t, artifact.Budgets)
	assert.NotEmpty(t, artifact.ID)
}

func TestAnalyzeBytesELFRenamedToEXETriggersSnifferMismatch(t *testing.T) {
	e := newTestEngine()
	artifact, err := e.AnalyzeBytes(wellFormedELF64(), "fake.exe")
	require.NoError(t, err)
	require.NotEmpty(t, artifact.Verdicts)
	assert.Equal(t, "ELF", artifact.Verdicts[0].Format)

	var found report.TriageError
	var ok bool
	for _, er := range artifact.Errors {
		if er.Kind == report.ErrSnifferMismatch {
			found, ok = er, true
		}
	}
	require.True(t, ok, "expected a SnifferMismatch error")
	assert.Contains(t, found.Message, "PE")
	assert.Contains(t, found.Message, "ELF")
}

func TestAnalyzeBytesZipRenamedToEXESuppressesMismatch(t *testing.T) {
	e := newTestEngine()
	artifact, err := e.AnalyzeBytes(minimalZIP(), "fake.exe")
	require.NoError(t, err)

	var hasExecVerdict bool
	for _, v := range artifact.Verdicts {
		if v.Format == "ELF" || v.Format == "PE" || v.Format == "Mach-O" {
			hasExecVerdict = true
		}
	}
	assert.False(t, hasExecVerdict)

	require.NotEmpty(t, artifact.Containers)
	assert.Equal(t, "zip", artifact.Containers[0].TypeName)
	assert.Equal(t, uint64(0), artifact.Containers[0].Offset)

	for _, er := range artifact.Errors {
		assert.NotEqual(t, report.ErrSnifferMismatch, er.Kind)
	}
}

func TestAnalyzeBytesEntropyCliffFlagsPacked(t *testing.T) {
	e := newTestEngine()
	data := make([]byte, 8192+8192)
	for i := 8192; i < len(data); i++ {
		data[i] = byte((i * 2654435761) >> 16)
	}
	artifact, err := e.AnalyzeBytes(data, "blob.bin")
	require.NoError(t, err)
	require.NotNil(t, artifact.EntropyAnalysis)
	pi := artifact.EntropyAnalysis.PackedIndicators
	assert.True(t, pi.LowEntropyHeader)
	assert.True(t, pi.HighEntropyBody)
	require.NotNil(t, pi.EntropyCliffIndex)
}

func TestAnalyzeBytesEmptyInputIsFatal(t *testing.T) {
	e := newTestEngine()
	_, err := e.AnalyzeBytes(nil, "empty.bin")
	assert.Error(t, err)
}

func TestAnalyzeBytesAssemblyAlwaysRuns(t *testing.T) {
	e := newTestEngine()
	artifact, err := e.AnalyzeBytes([]byte{0x00, 0x01, 0x02}, "tiny.bin")
	require.NoError(t, err)
	assert.NotNil(t, artifact.Budgets)
	assert.Equal(t, report.SchemaVersion, artifact.SchemaVersion)
}
