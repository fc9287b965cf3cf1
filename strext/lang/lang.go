/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package lang provides the optional language/script annotation pass
// of spec §4.6: texts long enough and "texty" enough are segmented into
// words and assigned the Unicode script with the most letters, under a
// per-document detection budget. The language is a fixed default per
// script (Latin en, Cyrillic ru, Han zh, Arabic ar) and the confidence
// grows with the word count; no per-language letter-frequency profile
// is consulted.
package lang

import (
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
)

// Detection is the outcome of classifying one string.
type Detection struct {
	Language   string
	Script     string
	Confidence float64
}

// IsTexty is a cheap predicate approximating "looks like natural-language
// text, not a path/identifier/random blob": it requires a majority of
// letters plus at least one space-separated word boundary.
func IsTexty(s string) bool {
	if len(s) == 0 {
		return false
	}
	letters, spaces, total := 0, 0, 0
	for _, r := range s {
		total++
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsSpace(r):
			spaces++
		}
	}
	if total == 0 {
		return false
	}
	return float64(letters)/float64(total) > 0.6 && spaces > 0
}

// dominantScript classifies the Unicode script with the most runes in
// s, used as the coarse "script" field and as input to the per-script
// language guess table.
func dominantScript(s string) string {
	var latin, cyrillic, cjk, arabic, other int
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Latin, r):
			latin++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.Is(unicode.Han, r), unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r), unicode.Is(unicode.Hangul, r):
			cjk++
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.IsLetter(r):
			other++
		}
	}
	max, script := latin, "Latin"
	if cyrillic > max {
		max, script = cyrillic, "Cyrillic"
	}
	if cjk > max {
		max, script = cjk, "Han"
	}
	if arabic > max {
		max, script = arabic, "Arabic"
	}
	if max == 0 {
		return ""
	}
	return script
}

// scriptLanguage maps a dominant script to a best-guess default
// language; a real corpus would refine this with n-gram models, but
// the per-script default is the coarse signal spec §4.6 asks for.
var scriptLanguage = map[string]string{
	"Latin":    "en",
	"Cyrillic": "ru",
	"Han":      "zh",
	"Arabic":   "ar",
}

// Detector runs the word-segmentation + script-histogram detection
// pass, spending at most one detection per call (the orchestrator
// enforces the per-document max_lang_detect budget by call count).
type Detector struct{}

// NewDetector constructs the default word-segmentation-backed detector.
func NewDetector() *Detector { return &Detector{} }

// Detect scores s and returns a Detection, or ok=false if s does not
// carry enough signal to classify (e.g. no letters at all).
func (d *Detector) Detect(s string) (Detection, bool) {
	script := dominantScript(s)
	if script == "" {
		return Detection{}, false
	}
	wordCount := 0
	seg := words.NewSegmenter([]byte(s))
	for seg.Next() {
		if len(seg.Bytes()) > 0 && unicode.IsLetter(rune(seg.Bytes()[0])) {
			wordCount++
		}
	}
	if wordCount == 0 {
		return Detection{}, false
	}
	confidence := 0.5 + 0.05*float64(min(wordCount, 10))
	if confidence > 0.95 {
		confidence = 0.95
	}
	return Detection{Language: scriptLanguage[script], Script: script, Confidence: confidence}, true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
