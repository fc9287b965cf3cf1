/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package sniff implements the content and extension sniffers (spec
// §4.2): cheap, non-authoritative signals about what an artifact might
// be, combined by the cross-check layer against the header validators'
// findings.
package sniff

import (
	"path/filepath"
	"strings"

	ft "github.com/h2non/filetype"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/binsift/triage/report"
)

// Content runs a magic-byte table over the sniff prefix and emits at
// most one hint per recognized type (spec §4.2).
func Content(sniffPrefix []byte) []report.TriageHint {
	kind, err := ft.Match(sniffPrefix)
	if err != nil || kind == ft.Unknown {
		return nil
	}
	return []report.TriageHint{{
		Source: "content",
		MIME:   kind.MIME.Value,
		Label:  coarseLabel(kind.Extension, kind.MIME.Value),
	}}
}

// extensionGlobs maps a doublestar glob pattern over the lower-cased
// basename to a coarse label. Order matters: more specific globs (e.g.
// multi-segment extensions) are listed before their generic suffix so
// the first match wins.
var extensionGlobs = []struct {
	pattern string
	label   string
}{
	{"*.tar.gz", "gzip"},
	{"*.tar.bz2", "bzip2"},
	{"*.tar.xz", "xz"},
	{"*.tgz", "gzip"},
	{"*.jar", "jar"},
	{"*.war", "jar"},
	{"*.apk", "zip"},
	{"*.zip", "zip"},
	{"*.tar", "tar"},
	{"*.gz", "gzip"},
	{"*.bz2", "bzip2"},
	{"*.xz", "xz"},
	{"*.7z", "7z"},
	{"*.zst", "zstd"},
	{"*.lz4", "lz4"},
	{"*.rar", "rar"},
	{"*.a", "ar"},
	{"*.ar", "ar"},
	{"*.cpio", "cpio"},
	{"*.elf", "elf"},
	{"*.so", "elf"},
	{"*.so.*", "elf"},
	{"*.exe", "pe"},
	{"*.dll", "pe"},
	{"*.sys", "pe"},
	{"*.dylib", "macho"},
	{"*.app", "macho"},
	{"*.py", "python"},
	{"*.pyc", "python"},
	{"*.pyo", "python"},
	{"*.wasm", "wasm"},
	{"*", "executable"},
}

// mimeLabels maps a MIME type to a coarse label. coarseLabel consults it
// for Content hints whose h2non/filetype extension matches no glob;
// Extension does not use it.
var mimeLabels = map[string]string{
	"application/zip":              "zip",
	"application/x-tar":            "tar",
	"application/gzip":             "gzip",
	"application/x-gzip":           "gzip",
	"application/x-bzip2":          "bzip2",
	"application/x-xz":             "xz",
	"application/x-7z-compressed":  "7z",
	"application/zstd":             "zstd",
	"application/x-rar-compressed": "rar",
	"application/x-executable":     "elf",
	"application/x-elf":            "elf",
	"application/x-msdownload":     "pe",
	"application/x-mach-binary":    "macho",
	"application/wasm":             "wasm",
}

func coarseLabel(extension, mime string) string {
	if extension != "" {
		for _, g := range extensionGlobs[:len(extensionGlobs)-1] {
			if strings.TrimPrefix(g.pattern, "*.") == extension {
				return g.label
			}
		}
	}
	if label, ok := mimeLabels[mime]; ok {
		return label
	}
	return ""
}

// Extension maps the lower-cased basename directly to a coarse label
// via the glob table (spec §4.2). The final "*" entry matches any name
// no earlier glob matches and labels it "executable", so every
// non-empty basename yields one hint. The hint carries no MIME type.
func Extension(path string) []report.TriageHint {
	base := strings.ToLower(filepath.Base(path))
	if base == "" {
		return nil
	}
	for _, g := range extensionGlobs {
		ok, err := doublestar.Match(g.pattern, base)
		if err == nil && ok {
			ext := strings.TrimPrefix(filepath.Ext(base), ".")
			return []report.TriageHint{{
				Source:    "extension",
				Extension: ext,
				Label:     g.label,
			}}
		}
	}
	return nil
}

// Combined runs both sniffers and concatenates their hints (spec §4.2:
// "Combined sniffer emits every hint"). Mismatch detection lives in the
// crosscheck package, which consumes this slice alongside header
// verdicts and container detections.
func Combined(sniffPrefix []byte, path string) []report.TriageHint {
	var hints []report.TriageHint
	hints = append(hints, Content(sniffPrefix)...)
	hints = append(hints, Extension(path)...)
	return hints
}
