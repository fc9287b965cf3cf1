/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package parsers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panickyParser struct{}

func (panickyParser) Kind() string { return "panicky" }
func (panickyParser) Parse([]byte) (bool, error) {
	panic("boom")
}

type failingParser struct{}

func (failingParser) Kind() string { return "failing" }
func (failingParser) Parse([]byte) (bool, error) {
	return false, errors.New("not this format")
}

func TestProbeConvertsPanicToFailedResult(t *testing.T) {
	result := Probe(panickyParser{}, nil)
	assert.Equal(t, "panicky", result.ParserKind)
	assert.False(t, result.OK)
	assert.Contains(t, result.Error, "boom")
}

func TestProbeRecordsNormalFailure(t *testing.T) {
	result := Probe(failingParser{}, nil)
	assert.False(t, result.OK)
	assert.Contains(t, result.Error, "not this format")
}

func TestProbeAllRunsEveryParserIndependently(t *testing.T) {
	results := ProbeAll([]Parser{panickyParser{}, failingParser{}}, nil)
	require.Len(t, results, 2)
	assert.False(t, AnyOK(results))
}

func TestGenericObjectParserSucceedsOnWellFormedELF(t *testing.T) {
	data := make([]byte, 0x40)
	copy(data, []byte{0x7F, 'E', 'L', 'F'})
	data[4] = 1 // 32-bit
	data[5] = 1 // little
	p := GenericObjectParser{}
	ok, err := p.Parse(data)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFormatParserMatchesRequestedFormat(t *testing.T) {
	data := []byte{0x00, 'a', 's', 'm', 1, 0, 0, 0}
	p := FormatParser{Format: "Wasm"}
	ok, _ := p.Parse(data)
	assert.True(t, ok)

	p2 := FormatParser{Format: "ELF"}
	ok2, _ := p2.Parse(data)
	assert.False(t, ok2)
}
