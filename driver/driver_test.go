/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsift/triage/config"
	"github.com/binsift/triage/triage"
	"github.com/binsift/triage/triagelog"
)

func writeTempFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestAnalyzeAllPreservesOrderAndIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeTempFile(t, dir, "good.bin", []byte{0x7F, 'E', 'L', 'F', 2, 1, 0, 0})
	missing := filepath.Join(dir, "does-not-exist.bin")
	good2 := writeTempFile(t, dir, "good2.bin", []byte{0x7F, 'E', 'L', 'F', 1, 1, 0, 0})

	engine := triage.NewEngine(config.Default())
	d := New(engine, 2, triagelog.NewDiscard())

	results := d.AnalyzeAll(context.Background(), []string{good, missing, good2})
	require.Len(t, results, 3)

	assert.Equal(t, good, results[0].Path)
	assert.NoError(t, results[0].Err)
	assert.NotNil(t, results[0].Artifact)

	assert.Equal(t, missing, results[1].Path)
	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Artifact)

	assert.Equal(t, good2, results[2].Path)
	assert.NoError(t, results[2].Err)
	assert.NotNil(t, results[2].Artifact)
}

func TestNewDefaultsConcurrency(t *testing.T) {
	d := New(triage.NewEngine(config.Default()), 0, nil)
	assert.Equal(t, 4, d.Concurrency)
}
