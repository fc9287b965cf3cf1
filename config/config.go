/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package config carries every tunable parameter named in spec.md by
// name in a single structure (spec §6: "All parameters exposed by name
// in a configuration structure; no environment variables or implicit
// global state required at the core level").
package config

// Limits bounds the bounded reader (spec §4.1).
type Limits struct {
	MaxReadBytes uint64 `yaml:"max_read_bytes" toml:"max_read_bytes"`
	MaxFileSize  uint64 `yaml:"max_file_size" toml:"max_file_size"`
}

// EntropyConfig carries the §4.4 tunables.
type EntropyConfig struct {
	WindowSize       uint64  `yaml:"window_size" toml:"window_size"`
	Step             uint64  `yaml:"step" toml:"step"`
	MaxWindows       int     `yaml:"max_windows" toml:"max_windows"`
	HeaderSize       uint64  `yaml:"header_size" toml:"header_size"`
	TextThreshold    float64 `yaml:"text_threshold" toml:"text_threshold"`
	CodeThreshold    float64 `yaml:"code_threshold" toml:"code_threshold"`
	CompressedThreshold float64 `yaml:"compressed_threshold" toml:"compressed_threshold"`
	EncryptedThreshold  float64 `yaml:"encrypted_threshold" toml:"encrypted_threshold"`
	LowHeaderThreshold  float64 `yaml:"low_header_threshold" toml:"low_header_threshold"`
	HighBodyThreshold   float64 `yaml:"high_body_threshold" toml:"high_body_threshold"`
	CliffDelta          float64 `yaml:"cliff_delta" toml:"cliff_delta"`
}

// StringsConfig carries the §4.6 tunables.
type StringsConfig struct {
	MinLength           int     `yaml:"min_length" toml:"min_length"`
	MaxSamples          int     `yaml:"max_samples" toml:"max_samples"`
	MinLenForDetect     int     `yaml:"min_len_for_detect" toml:"min_len_for_detect"`
	MaxLangDetect       int     `yaml:"max_lang_detect" toml:"max_lang_detect"`
	MinLangConfidence   float64 `yaml:"min_lang_confidence" toml:"min_lang_confidence"`
	MaxIOCSamples       int     `yaml:"max_ioc_samples" toml:"max_ioc_samples"`
	HighEntropyMinLenThr float64 `yaml:"high_entropy_min_len_threshold" toml:"high_entropy_min_len_threshold"`
}

// PackerConfig carries the §4.8 tunables.
type PackerConfig struct {
	ScanLimit uint64 `yaml:"scan_limit" toml:"scan_limit"`
}

// SimilarityConfig carries the CTPH/imphash tunables (SPEC_FULL §B).
type SimilarityConfig struct {
	CTPHChunkSize int `yaml:"ctph_chunk_size" toml:"ctph_chunk_size"`
}

// ScoreWeights mirrors the weight table of spec §4.12 step 2.
type ScoreWeights struct {
	HeaderMatch        float64 `yaml:"header_match" toml:"header_match"`
	ParserSuccess      float64 `yaml:"parser_success" toml:"parser_success"`
	SnifferMatch       float64 `yaml:"sniffer_match" toml:"sniffer_match"`
	EntropyNormal      float64 `yaml:"entropy_normal" toml:"entropy_normal"`
	StringsPresent     float64 `yaml:"strings_present" toml:"strings_present"`
	ArchitectureMatch  float64 `yaml:"architecture_match" toml:"architecture_match"`
	EndiannessMatch    float64 `yaml:"endianness_match" toml:"endianness_match"`
	UnknownSignal      float64 `yaml:"unknown_signal" toml:"unknown_signal"`
}

// ErrorPenalties mirrors spec §4.12 step 3.
type ErrorPenalties struct {
	SnifferMismatch  float64 `yaml:"sniffer_mismatch" toml:"sniffer_mismatch"`
	ParserMismatch   float64 `yaml:"parser_mismatch" toml:"parser_mismatch"`
	BadMagic         float64 `yaml:"bad_magic" toml:"bad_magic"`
	IncoherentFields float64 `yaml:"incoherent_fields" toml:"incoherent_fields"`
}

// Config is the single top-level structure carrying every tunable.
type Config struct {
	Limits           Limits           `yaml:"limits" toml:"limits"`
	Entropy          EntropyConfig    `yaml:"entropy" toml:"entropy"`
	Strings          StringsConfig    `yaml:"strings" toml:"strings"`
	Packer           PackerConfig     `yaml:"packer" toml:"packer"`
	Similarity       SimilarityConfig `yaml:"similarity" toml:"similarity"`
	ScoreWeights     ScoreWeights     `yaml:"score_weights" toml:"score_weights"`
	ErrorPenalties   ErrorPenalties   `yaml:"error_penalties" toml:"error_penalties"`
	MaxRecursionDepth uint32          `yaml:"max_recursion_depth" toml:"max_recursion_depth"`
	TimeGuardMS       int64           `yaml:"time_guard_ms" toml:"time_guard_ms"`
}

// Default returns the literal defaults used throughout spec.md.
func Default() Config {
	return Config{
		Limits: Limits{
			MaxReadBytes: 10 * 1024 * 1024,
			MaxFileSize:  512 * 1024 * 1024,
		},
		Entropy: EntropyConfig{
			WindowSize:          1024,
			Step:                1024,
			MaxWindows:          256,
			HeaderSize:          8192,
			TextThreshold:       4.0,
			CodeThreshold:       5.5,
			CompressedThreshold: 7.0,
			EncryptedThreshold:  7.7,
			LowHeaderThreshold:  3.0,
			HighBodyThreshold:   7.2,
			CliffDelta:          2.0,
		},
		Strings: StringsConfig{
			MinLength:            4,
			MaxSamples:           512,
			MinLenForDetect:      16,
			MaxLangDetect:        64,
			MinLangConfidence:    0.5,
			MaxIOCSamples:        64,
			HighEntropyMinLenThr: 7.2,
		},
		Packer: PackerConfig{
			ScanLimit: 2 * 1024 * 1024,
		},
		Similarity: SimilarityConfig{
			CTPHChunkSize: 64,
		},
		ScoreWeights: ScoreWeights{
			HeaderMatch:       0.30,
			ParserSuccess:     0.25,
			SnifferMatch:      0.15,
			EntropyNormal:     0.10,
			StringsPresent:    0.10,
			ArchitectureMatch: 0.10,
			EndiannessMatch:   0.05,
			UnknownSignal:     0.05,
		},
		ErrorPenalties: ErrorPenalties{
			SnifferMismatch:  0.10,
			ParserMismatch:   0.15,
			BadMagic:         0.20,
			IncoherentFields: 0.25,
		},
		MaxRecursionDepth: 8,
		TimeGuardMS:       5000,
	}
}
