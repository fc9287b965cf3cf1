/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package disasm defines the disassembly backend registry (§1): a
// lookup from (arch, endianness) to a Backend and a bounded instruction
// request. No concrete backend ships here — full disassembly is an
// explicit non-goal of the core, and backends are expected to be
// registered by callers that link in a real disassembler.
package disasm

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"
)

// ErrNoBackend is returned by Registry.Lookup when no backend is
// registered for the requested (arch, endianness) pair.
var ErrNoBackend = errors.New("disasm: no backend registered for arch/endianness")

// Request bounds a single disassembly call: at most MaxInstructions
// starting at Offset within the artifact's bounded buffer.
type Request struct {
	Arch            string
	Endianness      string
	Data            []byte
	Offset          uint64
	MaxInstructions int
}

// Instruction is one decoded instruction, already in display-safe form.
type Instruction struct {
	Offset uint64
	Bytes  []byte
	Text   string
}

// Backend decodes a bounded instruction window for one (arch,
// endianness) pair. Implementations own their decode tables; the
// registry only routes requests.
type Backend interface {
	Name() string
	Disassemble(req Request) ([]Instruction, error)
}

// key identifies a registered backend the same way newProcessor keys
// on a lowercased, trimmed type string.
func key(arch, endianness string) string {
	return strings.ToLower(strings.TrimSpace(arch)) + "/" + strings.ToLower(strings.TrimSpace(endianness))
}

// Registry maps (arch, endianness) pairs to a Backend, mirroring the
// processors package's type-string-keyed switch but as a runtime table
// so backends can be registered without editing this package.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry returns an empty registry. Callers register concrete
// backends with Register before the first Lookup.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register installs a backend for one (arch, endianness) pair,
// overwriting any previous registration for the same pair.
func (r *Registry) Register(arch, endianness string, b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[key(arch, endianness)] = b
}

// Lookup returns the backend registered for (arch, endianness), or
// ErrNoBackend if none was registered.
func (r *Registry) Lookup(arch, endianness string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[key(arch, endianness)]
	if !ok {
		return nil, ErrNoBackend
	}
	return b, nil
}

// Disassemble routes req to the registered backend for its (Arch,
// Endianness) pair and renders the result as display-safe preview
// lines (report.TriagedArtifact.DisasmPreview). Returns ErrNoBackend,
// not an error annotation, when no backend is registered — callers
// treat a missing backend as "skip this stage", matching the registry
// being an out-of-scope collaborator (§1).
func Disassemble(r *Registry, req Request) ([]string, error) {
	b, err := r.Lookup(req.Arch, req.Endianness)
	if err != nil {
		return nil, err
	}
	insns, err := b.Disassemble(req)
	if err != nil {
		return nil, err
	}
	return renderPreview(insns), nil
}

// previewWidth caps each rendered line's display width (not byte
// length) so a preview embedding wide CJK mnemonics or operand text
// doesn't blow out a terminal or report column.
const previewWidth = 80

// renderPreview formats instructions as one fixed-width line each,
// truncating by display width via go-runewidth so multi-byte operand
// text (symbol names pulled from string tables) never overruns the
// column the way a byte-length truncation would.
func renderPreview(insns []Instruction) []string {
	lines := make([]string, 0, len(insns))
	for _, in := range insns {
		line := fmt.Sprintf("%08x  %s", in.Offset, in.Text)
		if runewidth.StringWidth(line) > previewWidth {
			line = runewidth.Truncate(line, previewWidth, "...")
		}
		lines = append(lines, line)
	}
	return lines
}
