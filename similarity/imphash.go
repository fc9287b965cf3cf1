/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package similarity

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Imphash computes the Mandiant-style PE import hash: lowercase
// "dllname_without_extension.symbolname" pairs joined by commas, then
// MD5 hex-digested. MD5 is the algorithm's own fixed definition (every
// imphash implementation, AV vendor or otherwise, uses MD5 — this is
// not a place to substitute a different hash), so stdlib crypto/md5 is
// used directly rather than one of the pack's fast-hash libraries.
//
// imports is extras.ExtractPEImports's "dll.dll!Symbol" output; entries
// without a "!" (nothing nameable) are skipped.
func Imphash(imports []string) string {
	if len(imports) == 0 {
		return ""
	}
	parts := make([]string, 0, len(imports))
	for _, imp := range imports {
		dll, sym, ok := strings.Cut(imp, "!")
		if !ok || dll == "" || sym == "" {
			continue
		}
		dll = strings.ToLower(dll)
		dll = strings.TrimSuffix(dll, ".dll")
		dll = strings.TrimSuffix(dll, ".ocx")
		dll = strings.TrimSuffix(dll, ".sys")
		parts = append(parts, dll+"."+strings.ToLower(sym))
	}
	if len(parts) == 0 {
		return ""
	}
	sum := md5.Sum([]byte(strings.Join(parts, ",")))
	return hex.EncodeToString(sum[:])
}
