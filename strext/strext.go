/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package strext extracts printable strings from a binary buffer (spec
// §4.6): an ASCII phase, a UTF-16LE phase, and a UTF-16BE phase, each
// accumulating runs of printable bytes/units and emitting on
// termination. Language and IOC classification are optional add-on
// passes in the strext/lang and strext/ioc subpackages.
package strext

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/binsift/triage/config"
	"github.com/binsift/triage/report"
)

// Extracted is one run found by any phase, before classification.
type Extracted struct {
	Text     string
	Encoding string
	Offset   uint64
}

func isPrintableASCII(b byte) bool {
	return (b >= 0x20 && b < 0x7F) || b == '\t'
}

// ExtractASCII walks bytes, accumulating runs of printable + tab/space
// bytes, and emits a string when the run length reaches minLength.
func ExtractASCII(data []byte, minLength int) []Extracted {
	var out []Extracted
	start := -1
	emit := func(end int) {
		if start < 0 {
			return
		}
		if end-start >= minLength {
			out = append(out, Extracted{Text: string(data[start:end]), Encoding: "ascii", Offset: uint64(start)})
		}
		start = -1
	}
	for i, b := range data {
		if isPrintableASCII(b) {
			if start < 0 {
				start = i
			}
		} else {
			emit(i)
		}
	}
	emit(len(data))
	return out
}

func isPrintableBMP(u uint16) bool {
	if u == 0 {
		return false
	}
	if u < 0x20 {
		return u == 0x09
	}
	if u >= 0xD800 && u <= 0xDFFF {
		return false // surrogate halves: treat as non-printable for run purposes
	}
	return u < 0xFFFE
}

// extractUTF16 iterates 16-bit code units in the requested byte order,
// accumulating runs of printable BMP code points and emitting on NUL or
// non-printable, per spec §4.6. Surrogate code units count as
// non-printable, so a run never holds a surrogate pair. The emitted run
// is decoded in its byte order through golang.org/x/text/encoding/unicode
// rather than by a naive per-unit rune cast.
func extractUTF16(data []byte, minLength int, bigEndian bool, encoding string) []Extracted {
	var out []Extracted
	n := len(data) / 2

	readUnit := func(i int) uint16 {
		if bigEndian {
			return uint16(data[i*2])<<8 | uint16(data[i*2+1])
		}
		return uint16(data[i*2]) | uint16(data[i*2+1])<<8
	}

	endian := unicode.LittleEndian
	if bigEndian {
		endian = unicode.BigEndian
	}
	decoder := unicode.UTF16(endian, unicode.IgnoreBOM).NewDecoder()

	start := -1
	emit := func(end int) {
		if start < 0 {
			return
		}
		if end-start >= minLength {
			raw := data[start*2 : end*2]
			decoded, _, err := transform.Bytes(decoder, raw)
			if err == nil {
				out = append(out, Extracted{Text: string(decoded), Encoding: encoding, Offset: uint64(start * 2)})
			}
		}
		start = -1
	}

	for i := 0; i < n; i++ {
		u := readUnit(i)
		if isPrintableBMP(u) {
			if start < 0 {
				start = i
			}
		} else {
			emit(i)
		}
	}
	emit(n)
	return out
}

// ExtractUTF16LE runs the UTF-16LE phase.
func ExtractUTF16LE(data []byte, minLength int) []Extracted {
	return extractUTF16(data, minLength, false, "utf16le")
}

// ExtractUTF16BE runs the UTF-16BE phase.
func ExtractUTF16BE(data []byte, minLength int) []Extracted {
	return extractUTF16(data, minLength, true, "utf16be")
}

// EffectiveMinLength raises the configured floor to 8 when the
// artifact looks container-like or its overall entropy exceeds 7.2, to
// suppress junk strings pulled out of compressed blobs (spec §4.6).
func EffectiveMinLength(cfg config.StringsConfig, containerLike bool, overallEntropy float64) int {
	if containerLike || overallEntropy > cfg.HighEntropyMinLenThr {
		if cfg.MinLength < 8 {
			return 8
		}
	}
	return cfg.MinLength
}

// Summarize runs all three phases under the sampling cap and returns
// the counts plus up to max_samples raw detected strings (spec §4.6;
// language/IOC annotation is layered on afterward by the orchestrator
// using the strext/lang and strext/ioc packages).
func Summarize(data []byte, cfg config.StringsConfig, minLength int) report.StringsSummary {
	ascii := ExtractASCII(data, minLength)
	le := ExtractUTF16LE(data, minLength)
	be := ExtractUTF16BE(data, minLength)

	s := report.StringsSummary{
		ASCIICount:   len(ascii),
		UTF8Count:    len(ascii), // ASCII is a strict subset of valid UTF-8
		UTF16LECount: len(le),
		UTF16BECount: len(be),
	}

	cap := cfg.MaxSamples
	add := func(list []Extracted) {
		for _, e := range list {
			if len(s.DetectedStrings) >= cap {
				return
			}
			s.DetectedStrings = append(s.DetectedStrings, report.DetectedString{
				Text: e.Text, Encoding: e.Encoding, Offset: e.Offset,
			})
		}
	}
	add(ascii)
	add(le)
	add(be)
	return s
}
