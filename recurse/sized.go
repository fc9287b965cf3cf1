/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package recurse

import (
	"bytes"
	"io"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	cpio "github.com/surma/gocpio"

	"github.com/binsift/triage/report"
)

// metadataDecompressCap bounds how much of a compressed member this
// package will actually inflate when deriving §4.9.1 metadata; triage
// never fully materializes an artifact's decompressed contents.
const metadataDecompressCap = 16 * 1024 * 1024

// refineGzipMetadata replaces the ISIZE-trailer estimate (which wraps
// at 4GiB and lies about truncated streams) with an actual bounded
// inflate when the stream parses cleanly.
func refineGzipMetadata(data []byte, fallback *report.ContainerMetadata) *report.ContainerMetadata {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fallback
	}
	defer zr.Close()
	n, _ := io.CopyN(io.Discard, zr, metadataDecompressCap)
	if n == 0 {
		return fallback
	}
	return &report.ContainerMetadata{FileCount: 1, TotalUncompressed: uint64(n)}
}

// zstdMetadata derives a bounded uncompressed-size estimate for a ZSTD
// frame by inflating up to metadataDecompressCap bytes.
func zstdMetadata(data []byte) *report.ContainerMetadata {
	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	defer zr.Close()
	n, _ := io.CopyN(io.Discard, zr, metadataDecompressCap)
	if n == 0 {
		return nil
	}
	return &report.ContainerMetadata{FileCount: 1, TotalUncompressed: uint64(n)}
}

// lz4Metadata prefers the frame descriptor's content-size field (when
// present) and otherwise falls back to a bounded inflate.
func lz4Metadata(data []byte) *report.ContainerMetadata {
	zr := lz4.NewReader(bytes.NewReader(data))
	n, _ := io.CopyN(io.Discard, zr, metadataDecompressCap)
	if size := uint64(zr.Header.Size); size > 0 {
		return &report.ContainerMetadata{FileCount: 1, TotalUncompressed: size}
	}
	if n == 0 {
		return nil
	}
	return &report.ContainerMetadata{FileCount: 1, TotalUncompressed: uint64(n)}
}

// arMetadata counts members and sums sizes of a Unix ar archive,
// bounded to maxMembers so a crafted archive can't force unbounded
// iteration.
func arMetadata(data []byte) *report.ContainerMetadata {
	const maxMembers = 4096
	r := ar.NewReader(bytes.NewReader(data))
	meta := &report.ContainerMetadata{}
	for i := 0; i < maxMembers; i++ {
		hdr, err := r.Next()
		if err != nil {
			break
		}
		meta.FileCount++
		meta.TotalUncompressed += uint64(hdr.Size)
	}
	if meta.FileCount == 0 {
		return nil
	}
	return meta
}

// cpioMetadata counts regular-file entries and sums their sizes,
// bounded to maxMembers.
func cpioMetadata(data []byte) *report.ContainerMetadata {
	const maxMembers = 4096
	r := cpio.NewReader(bytes.NewReader(data))
	meta := &report.ContainerMetadata{}
	for i := 0; i < maxMembers; i++ {
		hdr, err := r.Next()
		if err != nil {
			break
		}
		if hdr.IsTrailer() {
			break
		}
		meta.FileCount++
		meta.TotalUncompressed += uint64(hdr.Size)
	}
	if meta.FileCount == 0 {
		return nil
	}
	return meta
}
