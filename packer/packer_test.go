/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package packer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsift/triage/config"
)

func TestDetectFindsUPXLiteral(t *testing.T) {
	data := []byte("garbage-prefix-UPX!-UPX0-UPX1-garbage-suffix")
	cfg := config.Default()
	matches := Detect(data, cfg.Packer, cfg.Entropy, nil)
	require.NotEmpty(t, matches)
	var found bool
	for _, m := range matches {
		if m.Name == "UPX" {
			found = true
			assert.GreaterOrEqual(t, m.Confidence, 0.6)
		}
	}
	assert.True(t, found)
}

func TestDetectEmitsGenericPackedOnEntropyCliff(t *testing.T) {
	zeros := make([]byte, 8192)
	random := make([]byte, 8192)
	rng := rand.New(rand.NewSource(7))
	rng.Read(random)
	data := append(zeros, random...)

	cfg := config.Default()
	matches := Detect(data, cfg.Packer, cfg.Entropy, nil)
	require.NotEmpty(t, matches)
	var found bool
	for _, m := range matches {
		if m.Name == "Packed" {
			found = true
			assert.GreaterOrEqual(t, m.Confidence, 0.5)
		}
	}
	assert.True(t, found)
}

func TestDetectSectionNameBumpsConfidence(t *testing.T) {
	data := []byte("UPX!")
	cfg := config.Default()
	sections := []Section{{Name: "UPX1"}}
	matches := Detect(data, cfg.Packer, cfg.Entropy, sections)
	require.NotEmpty(t, matches)
	for _, m := range matches {
		if m.Name == "UPX" {
			assert.GreaterOrEqual(t, m.Confidence, 0.8)
		}
	}
}
