/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package score implements the §4.12 Scoring Engine: per-verdict
// weighted signal aggregation, error penalties, abnormal-flag
// penalties, clamping, and descending-confidence ranking.
//
// This is the most literal port in the module — spec.md §4.12 and
// original_source/src/triage/score.rs's ScoreEngine agree down to the
// constant, so Engine.Score below mirrors score_artifact/
// signals_for_verdict/apply_penalties/abnormal_penalties almost
// line-for-line, translated from Option<T> to Go's zero values/pointers
// and from HashMap-keyed weights to the config package's named structs.
package score

import (
	"sort"
	"strings"

	"github.com/binsift/triage/config"
	"github.com/binsift/triage/report"
)

// Engine aggregates per-verdict confidence signals into a final score.
type Engine struct {
	Weights   config.ScoreWeights
	Penalties config.ErrorPenalties
}

// NewEngine builds an Engine from the resolved configuration.
func NewEngine(weights config.ScoreWeights, penalties config.ErrorPenalties) *Engine {
	return &Engine{Weights: weights, Penalties: penalties}
}

func (e *Engine) weightFor(name string) float64 {
	switch name {
	case "header_match":
		return e.Weights.HeaderMatch
	case "parser_success":
		return e.Weights.ParserSuccess
	case "sniffer_match":
		return e.Weights.SnifferMatch
	case "entropy_normal":
		return e.Weights.EntropyNormal
	case "strings_present":
		return e.Weights.StringsPresent
	case "architecture_match":
		return e.Weights.ArchitectureMatch
	case "endianness_match":
		return e.Weights.EndiannessMatch
	default:
		return e.Weights.UnknownSignal
	}
}

func (e *Engine) penaltyFor(kind report.ErrorKind) (float64, bool) {
	switch kind {
	case report.ErrSnifferMismatch:
		return e.Penalties.SnifferMismatch, true
	case report.ErrParserMismatch:
		return e.Penalties.ParserMismatch, true
	case report.ErrBadMagic:
		return e.Penalties.BadMagic, true
	case report.ErrIncoherentFields:
		return e.Penalties.IncoherentFields, true
	default:
		return 0, false
	}
}

// calculateConfidence aggregates weight*score over present signals,
// normalized by total weight (spec §4.12 step 2).
func (e *Engine) calculateConfidence(signals []report.ConfidenceSignal) float64 {
	var totalWeight, weightedSum float64
	for _, s := range signals {
		w := e.weightFor(s.Name)
		weightedSum += s.Score * w
		totalWeight += w
	}
	if totalWeight <= 0 {
		return 0
	}
	return clamp01(weightedSum / totalWeight)
}

func (e *Engine) applyPenalties(base float64, errs []report.TriageError) float64 {
	c := base
	for _, err := range errs {
		if p, ok := e.penaltyFor(err.Kind); ok {
			c -= p
		}
	}
	return clamp01(c)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var archFamily = map[string]string{
	"X86":    "x86_family",
	"X86_64": "x86_family",
}

// signalsForVerdict builds the per-verdict signal set (spec §4.12 step
// 1), treating the verdict's own structural confidence as header_match
// and pulling the rest from sibling artifact fields.
func signalsForVerdict(artifact *report.TriagedArtifact, v report.TriageVerdict) []report.ConfidenceSignal {
	var signals []report.ConfidenceSignal

	if v.Confidence > 0 {
		signals = append(signals, report.ConfidenceSignal{Name: "header_match", Score: v.Confidence})
	}

	if artifact.EntropySummary != nil {
		overall := artifact.EntropySummary.Overall
		s := 0.5
		if overall >= 3.0 && overall <= 7.6 {
			s = 1.0
		}
		signals = append(signals, report.ConfidenceSignal{Name: "entropy_normal", Score: s})
	}

	if artifact.Strings != nil {
		total := artifact.Strings.ASCIICount + artifact.Strings.UTF8Count +
			artifact.Strings.UTF16LECount + artifact.Strings.UTF16BECount
		if total > 10 {
			signals = append(signals, report.ConfidenceSignal{Name: "strings_present", Score: 1.0})
		}
	}

	for _, p := range artifact.ParseStatus {
		if p.OK {
			signals = append(signals, report.ConfidenceSignal{Name: "parser_success", Score: 1.0})
			break
		}
	}

	if len(artifact.Hints) > 0 {
		signals = append(signals, report.ConfidenceSignal{Name: "sniffer_match", Score: 1.0})
	}

	if len(artifact.HeuristicArch) > 0 {
		top := artifact.HeuristicArch[0]
		var archScore float64
		if strings.EqualFold(v.Arch, top.Arch) {
			archScore = clamp01(top.Score)
		} else if archFamily[strings.ToUpper(v.Arch)] != "" && archFamily[strings.ToUpper(v.Arch)] == archFamily[strings.ToUpper(top.Arch)] {
			archScore = clamp01(min(top.Score, 0.7))
		}
		if archScore > 0 {
			signals = append(signals, report.ConfidenceSignal{Name: "architecture_match", Score: archScore})
		}
	}

	if artifact.HeuristicEndianness != nil && strings.EqualFold(v.Endianness, artifact.HeuristicEndianness.Guess) {
		signals = append(signals, report.ConfidenceSignal{
			Name:  "endianness_match",
			Score: clamp01(artifact.HeuristicEndianness.Confidence),
		})
	}

	return signals
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// abnormalPenalties computes the §4.12 step 4 penalty (capped at 0.25)
// from the artifact's raw bytes, and the explanatory signals attached
// alongside the scoring signals.
func abnormalPenalties(data []byte, v report.TriageVerdict) (float64, []report.ConfidenceSignal) {
	flags := detectSecurityFlags(data, v.Format)
	var penalty float64
	var signals []report.ConfidenceSignal

	if flags.nx != nil && flags.aslr != nil && !*flags.nx && !*flags.aslr {
		penalty += 0.10
		signals = append(signals, report.ConfidenceSignal{Name: "abnormal_flags", Score: 0, Notes: "NX/ASLR both disabled"})
	}
	if v.Format == "ELF" {
		if flags.relro != nil && !*flags.relro {
			penalty += 0.05
			signals = append(signals, report.ConfidenceSignal{Name: "abnormal_flags", Score: 0, Notes: "RELRO disabled"})
		}
		if flags.pie != nil && !*flags.pie {
			penalty += 0.05
			signals = append(signals, report.ConfidenceSignal{Name: "abnormal_flags", Score: 0, Notes: "PIE disabled"})
		}
	}
	if penalty > 0.25 {
		penalty = 0.25
	}
	return penalty, signals
}

// Score rewrites every verdict's confidence and signal breakdown in
// place (spec §4.12 steps 1-4) and returns them sorted descending by
// confidence (step 5). data is the bounded buffer abnormalPenalties
// walks for hardening bits (program headers/Optional Header fields
// sit well within any reasonable prefix, but the full buffer is passed
// since nothing bounds where a program header table could start).
func (e *Engine) Score(artifact *report.TriagedArtifact, data []byte) []report.TriageVerdict {
	verdicts := make([]report.TriageVerdict, len(artifact.Verdicts))
	copy(verdicts, artifact.Verdicts)

	for i := range verdicts {
		v := &verdicts[i]
		signals := signalsForVerdict(artifact, *v)
		base := e.calculateConfidence(signals)
		withErrors := e.applyPenalties(base, artifact.Errors)
		abnPenalty, abnSignals := abnormalPenalties(data, *v)

		allSignals := append(signals, abnSignals...)
		v.Confidence = clamp01(withErrors - abnPenalty)
		v.Signals = allSignals
	}

	sort.SliceStable(verdicts, func(i, j int) bool {
		return verdicts[i].Confidence > verdicts[j].Confidence
	})
	return verdicts
}
