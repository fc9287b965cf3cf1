/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package report defines the wire-shaped data model produced by a single
// triage run (spec §3) and its JSON serialization (spec §6). Every
// struct here is a plain value type: stages populate it, nothing in
// this package computes anything.
package report

import "github.com/binsift/triage/address"

// SchemaVersion is stamped into every TriagedArtifact (spec §6).
const SchemaVersion = "1.2"

// TriageHint is produced by the sniffers (spec §4.2).
type TriageHint struct {
	Source    string `json:"source"`
	MIME      string `json:"mime,omitempty"`
	Extension string `json:"extension,omitempty"`
	Label     string `json:"label,omitempty"`
}

// ConfidenceSignal is a single named contribution to a verdict's
// aggregate confidence (spec §4.12).
type ConfidenceSignal struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Notes string  `json:"notes,omitempty"`
}

// TriageVerdict is a candidate format identification, produced by a
// header validator and then rewritten in place by the scoring engine.
type TriageVerdict struct {
	Format      string             `json:"format"`
	Arch        string             `json:"arch"`
	Bits        int                `json:"bits"`
	Endianness  string             `json:"endianness"`
	Confidence  float64            `json:"confidence"`
	Signals     []ConfidenceSignal `json:"signals,omitempty"`
}

// ErrorKind is the closed taxonomy of §3/§7.
type ErrorKind string

const (
	ErrShortRead           ErrorKind = "ShortRead"
	ErrBadMagic            ErrorKind = "BadMagic"
	ErrIncoherentFields    ErrorKind = "IncoherentFields"
	ErrUnsupportedVariant  ErrorKind = "UnsupportedVariant"
	ErrTruncated           ErrorKind = "Truncated"
	ErrBudgetExceeded      ErrorKind = "BudgetExceeded"
	ErrParserMismatch      ErrorKind = "ParserMismatch"
	ErrSnifferMismatch     ErrorKind = "SnifferMismatch"
	ErrOther               ErrorKind = "Other"
)

// TriageError is an annotation, not a control-flow escape (spec §7).
type TriageError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message,omitempty"`
}

func NewError(kind ErrorKind, message string) TriageError {
	return TriageError{Kind: kind, Message: message}
}

// ParserResult records the outcome of one configured parser probe.
type ParserResult struct {
	ParserKind string `json:"parser_kind"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

// EntropyWindow is one sample of the sliding-window pass.
type EntropyWindow struct {
	Offset  uint64  `json:"offset"`
	Entropy float64 `json:"entropy"`
}

// EntropySummary aggregates the window pass.
type EntropySummary struct {
	Overall    float64         `json:"overall"`
	WindowSize uint64          `json:"window_size"`
	Windows    []EntropyWindow `json:"windows,omitempty"`
	Mean       float64         `json:"mean"`
	Stddev     float64         `json:"stddev"`
	Min        float64         `json:"min"`
	Max        float64         `json:"max"`
}

// EntropyClass tags the bucket an overall entropy value falls into, and
// carries the value that triggered it (spec §3's `one of {Text(v), ...}`
// closed union, expressed as a Go tagged struct rather than an interface
// since the set is fixed and small).
type EntropyClass string

const (
	ClassText       EntropyClass = "Text"
	ClassCode       EntropyClass = "Code"
	ClassCompressed EntropyClass = "Compressed"
	ClassEncrypted  EntropyClass = "Encrypted"
	ClassRandom     EntropyClass = "Random"
)

type Classification struct {
	Class EntropyClass `json:"class"`
	Value float64      `json:"value"`
}

// EntropyAnomaly is a recorded window-to-window delta spike.
type EntropyAnomaly struct {
	Index int     `json:"index"`
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Delta float64 `json:"delta"`
}

// PackedIndicators is the header/body split analysis from spec §4.4.
type PackedIndicators struct {
	LowEntropyHeader  bool `json:"low_entropy_header"`
	HighEntropyBody   bool `json:"high_entropy_body"`
	EntropyCliffIndex *int `json:"entropy_cliff_index,omitempty"`
	Verdict           float64 `json:"verdict"`
}

// EntropyAnalysis is the full §4.4 output.
type EntropyAnalysis struct {
	Summary          EntropySummary     `json:"summary"`
	Classification   Classification     `json:"classification"`
	PackedIndicators PackedIndicators   `json:"packed_indicators"`
	Anomalies        []EntropyAnomaly   `json:"anomalies,omitempty"`
}

// DetectedString is one extracted and (optionally) classified string.
type DetectedString struct {
	Text       string  `json:"text"`
	Encoding   string  `json:"encoding"`
	Language   string  `json:"language,omitempty"`
	Script     string  `json:"script,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Offset     uint64  `json:"offset"`
}

// StringsSummary is the §4.6 output.
type StringsSummary struct {
	ASCIICount      int               `json:"ascii_count"`
	UTF8Count       int               `json:"utf8_count"`
	UTF16LECount    int               `json:"utf16le_count"`
	UTF16BECount    int               `json:"utf16be_count"`
	DetectedStrings []DetectedString  `json:"detected_strings,omitempty"`
	LanguageHisto   map[string]int    `json:"language_histogram,omitempty"`
	ScriptHisto     map[string]int    `json:"script_histogram,omitempty"`
	IOCCounts       map[string]int    `json:"ioc_counts,omitempty"`
	IOCSamples      []IOCSample       `json:"ioc_samples,omitempty"`
}

// IOCSample is one classified indicator-of-compromise occurrence.
type IOCSample struct {
	Kind   string `json:"kind"`
	Value  string `json:"value"`
	Offset uint64 `json:"offset"`
}

// ContainerMetadata is the optional bounded-metadata extraction from
// §4.9.1, populated for offset-0 zip, gzip, tar, zstd, lz4, ar and cpio
// children.
type ContainerMetadata struct {
	FileCount          int    `json:"file_count"`
	TotalUncompressed  uint64 `json:"total_uncompressed"`
	TotalCompressed    uint64 `json:"total_compressed"`
}

// ContainerChild is one discovered child in the recursion engine.
type ContainerChild struct {
	TypeName string             `json:"type_name"`
	Offset   uint64             `json:"offset"`
	Size     uint64             `json:"size"`
	Metadata *ContainerMetadata `json:"metadata,omitempty"`
}

// RecursionSummary aggregates the recursion engine's findings.
type RecursionSummary struct {
	TotalChildren          int  `json:"total_children"`
	MaxDepth               uint32 `json:"max_depth"`
	DangerousChildPresent  bool `json:"dangerous_child_present"`
}

// PackerMatch is one packer-detector hit (spec §4.8).
type PackerMatch struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// OverlayAnalysis is the §4.10 overlay-detection output.
type OverlayAnalysis struct {
	Offset         uint64 `json:"offset"`
	Size           uint64 `json:"size"`
	Entropy        float64 `json:"entropy"`
	HeaderBytes    []byte `json:"header_bytes,omitempty"`
	DetectedFormat string `json:"detected_format,omitempty"`
	HasSignature   bool   `json:"has_signature"`
	IsArchive      bool   `json:"is_archive"`
	SHA256         string `json:"sha256"`
}

// SimilaritySummary is the §4.10/"Similarity" stage output.
type SimilaritySummary struct {
	Imphash string `json:"imphash,omitempty"`
	CTPH    string `json:"ctph,omitempty"`
}

// SigningSummary reports presence bits only, never validates trust
// chains (spec §4.10, Non-goals).
type SigningSummary struct {
	PEAuthenticodePresent       bool `json:"pe_authenticode_present"`
	MachOCodeSignaturePresent   bool `json:"macho_code_signature_present"`
	MachOEntitlementsPresent    bool `json:"macho_entitlements_present"`
	OverlayHasSignature         bool `json:"overlay_has_signature"`
}

// BudgetsReport is the serializable snapshot of budget.Budgets.
type BudgetsReport struct {
	BytesRead         uint64  `json:"bytes_read"`
	TimeMS            int64   `json:"time_ms"`
	RecursionDepth    uint32  `json:"recursion_depth"`
	LimitBytes        *uint64 `json:"limit_bytes,omitempty"`
	LimitTimeMS       *int64  `json:"limit_time_ms,omitempty"`
	MaxRecursionDepth *uint32 `json:"max_recursion_depth,omitempty"`
	HitByteLimit      bool    `json:"hit_byte_limit"`
}

// HeuristicArch is one (arch, score) pair from the arch guesser.
type HeuristicArch struct {
	Arch  string  `json:"arch"`
	Score float64 `json:"score"`
}

// HeuristicEndianness is the endianness-guesser's (guess, confidence).
type HeuristicEndianness struct {
	Guess      string  `json:"guess"`
	Confidence float64 `json:"confidence"`
}

// FormatSpecific carries per-format extras that don't fit the common
// model (Rich Header, symbols, imports/exports) keyed by format name.
type FormatSpecific struct {
	RichHeader *RichHeader         `json:"rich_header,omitempty"`
	Symbols    []SymbolEntry       `json:"symbols,omitempty"`
	Imports    []string            `json:"imports,omitempty"`
	Exports    []string            `json:"exports,omitempty"`
}

// RichHeader is the decoded PE Rich Header (spec §4.10).
type RichHeader struct {
	Entries []RichHeaderEntry `json:"entries"`
	XORKey  uint32            `json:"xor_key"`
}

// RichHeaderEntry is one (product, build, count) tuple with its vendor
// lookup resolved where possible.
type RichHeaderEntry struct {
	ProductID uint16 `json:"product_id"`
	BuildID   uint16 `json:"build_id"`
	Count     uint32 `json:"count"`
	Vendor    string `json:"vendor,omitempty"`
}

// SymbolEntry is one extracted symbol/import/export record.
type SymbolEntry struct {
	Name    string          `json:"name"`
	Addr    *address.Address `json:"-"`
	AddrHex string          `json:"addr,omitempty"`
}

// TriagedArtifact is the top-level immutable report (spec §3).
type TriagedArtifact struct {
	SchemaVersion string `json:"schema_version"`
	ID            string `json:"id"`
	Path          string `json:"path"`
	SizeBytes     uint64 `json:"size_bytes"`
	SHA256        string `json:"sha256,omitempty"`

	Hints    []TriageHint    `json:"hints"`
	Verdicts []TriageVerdict `json:"verdicts"`

	EntropySummary   *EntropySummary   `json:"entropy_summary,omitempty"`
	EntropyAnalysis  *EntropyAnalysis  `json:"entropy_analysis,omitempty"`
	Strings          *StringsSummary   `json:"strings,omitempty"`
	Symbols          []SymbolEntry     `json:"symbols,omitempty"`
	Similarity       *SimilaritySummary `json:"similarity,omitempty"`
	Signing          *SigningSummary   `json:"signing,omitempty"`
	Packers          []PackerMatch     `json:"packers,omitempty"`
	Containers       []ContainerChild  `json:"containers,omitempty"`
	RecursionSummary *RecursionSummary `json:"recursion_summary,omitempty"`
	Overlay          *OverlayAnalysis  `json:"overlay,omitempty"`
	FormatSpecific   *FormatSpecific   `json:"format_specific,omitempty"`
	ParseStatus      []ParserResult    `json:"parse_status,omitempty"`
	Budgets          *BudgetsReport    `json:"budgets,omitempty"`
	Errors           []TriageError     `json:"errors,omitempty"`

	HeuristicEndianness *HeuristicEndianness `json:"heuristic_endianness,omitempty"`
	HeuristicArch       []HeuristicArch      `json:"heuristic_arch,omitempty"`
	DisasmPreview       []string             `json:"disasm_preview,omitempty"`
}
