/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArtifactStampsSchemaVersionAndID(t *testing.T) {
	a := NewArtifact("/bin/ls", 1024)
	assert.Equal(t, SchemaVersion, a.SchemaVersion)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "/bin/ls", a.Path)
}

func TestSortVerdictsByConfidenceDescending(t *testing.T) {
	a := NewArtifact("x", 0)
	a.Verdicts = []TriageVerdict{
		{Format: "pe", Confidence: 0.4},
		{Format: "elf", Confidence: 0.9},
		{Format: "wasm", Confidence: 0.9},
	}
	a.SortVerdicts()
	require.Len(t, a.Verdicts, 3)
	assert.Equal(t, "elf", a.Verdicts[0].Format)
	assert.Equal(t, "wasm", a.Verdicts[1].Format)
	assert.Equal(t, "pe", a.Verdicts[2].Format)
}

func TestSortContainersByOffsetThenType(t *testing.T) {
	children := []ContainerChild{
		{TypeName: "zip", Offset: 100},
		{TypeName: "gzip", Offset: 0},
		{TypeName: "ar", Offset: 0},
	}
	SortContainers(children)
	assert.Equal(t, "ar", children[0].TypeName)
	assert.Equal(t, "gzip", children[1].TypeName)
	assert.EqualValues(t, 100, children[2].Offset)
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	a := NewArtifact("/bin/ls", 2048)
	a.Verdicts = append(a.Verdicts, TriageVerdict{Format: "elf", Arch: "x86_64", Bits: 64, Endianness: "Little", Confidence: 0.8})
	a.Hints = append(a.Hints, TriageHint{Source: "content", Label: "elf"})

	data, err := Marshal(a)
	require.NoError(t, err)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, a.ID, back.ID)
	assert.Equal(t, a.Path, back.Path)
	require.Len(t, back.Verdicts, 1)
	assert.Equal(t, "elf", back.Verdicts[0].Format)
}

func TestValidateAcceptsWellFormedArtifact(t *testing.T) {
	a := NewArtifact("/bin/ls", 2048)
	a.Verdicts = append(a.Verdicts, TriageVerdict{Format: "elf", Arch: "x86_64", Bits: 64, Endianness: "Little", Confidence: 0.8})

	data, err := Marshal(a)
	require.NoError(t, err)
	assert.NoError(t, Validate(data))
}

func TestValidateRejectsBadSchemaVersion(t *testing.T) {
	data := []byte(`{"schema_version":"9.9","id":"x","path":"y","size_bytes":0,"hints":[],"verdicts":[]}`)
	assert.Error(t, Validate(data))
}
