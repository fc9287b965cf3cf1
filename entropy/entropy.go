/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package entropy computes Shannon entropy over an artifact and its
// sliding windows (spec §4.4), using an incremental 256-bucket
// histogram so the whole pass costs O(len), not O(len·window).
package entropy

import (
	"math"

	"github.com/binsift/triage/config"
	"github.com/binsift/triage/report"
)

// OfSlice returns the Shannon entropy, in bits/byte, of data.
func OfSlice(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var hist [256]int
	for _, b := range data {
		hist[b]++
	}
	return entropyFromHist(hist[:], len(data))
}

func entropyFromHist(hist []int, total int) float64 {
	h := 0.0
	length := float64(total)
	for _, c := range hist {
		if c == 0 {
			continue
		}
		p := float64(c) / length
		h -= p * math.Log2(p)
	}
	return h
}

// Summary computes the overall entropy plus the downsampled sliding
// window pass.
func Summary(data []byte, cfg config.EntropyConfig) report.EntropySummary {
	overall := OfSlice(data)

	win := int(cfg.WindowSize)
	if win < 1 {
		win = 1
	}
	step := int(cfg.Step)
	if step < 1 {
		step = 1
	}
	maxWindows := cfg.MaxWindows
	if maxWindows < 1 {
		maxWindows = 1
	}

	var windowsVec []float64
	if len(data) >= win {
		totalWindows := 1 + (len(data)-win)/step
		stride := 1
		if totalWindows > maxWindows {
			stride = ceilDiv(totalWindows, maxWindows)
			if stride < 1 {
				stride = 1
			}
		}

		var hist [256]int
		for _, b := range data[:win] {
			hist[b]++
		}

		start := 0
		computed := 0
		for start+win <= len(data) {
			if computed%stride == 0 {
				h := entropyFromHist(hist[:], win)
				windowsVec = append(windowsVec, h)
				if len(windowsVec) >= maxWindows {
					break
				}
			}
			computed++
			if start+win+step > len(data) {
				break
			}
			for i := 0; i < step; i++ {
				outB := data[start+i]
				if hist[outB] > 0 {
					hist[outB]--
				}
				inB := data[start+win+i]
				hist[inB]++
			}
			start += step
		}
	}

	s := report.EntropySummary{Overall: overall}
	if len(windowsVec) > 0 {
		s.WindowSize = uint64(win)
		s.Windows = make([]report.EntropyWindow, len(windowsVec))
		for i, v := range windowsVec {
			s.Windows[i] = report.EntropyWindow{Offset: uint64(i * step), Entropy: v}
		}
		mean, stddev, mn, mx := stats(windowsVec)
		s.Mean, s.Stddev, s.Min, s.Max = mean, stddev, mn, mx
	}
	return s
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func stats(v []float64) (mean, stddev, min, max float64) {
	sum := 0.0
	min, max = math.Inf(1), math.Inf(-1)
	for _, x := range v {
		sum += x
		if x < min {
			min = x
		}
		if x > max {
			max = x
		}
	}
	mean = sum / float64(len(v))
	varSum := 0.0
	for _, x := range v {
		d := x - mean
		varSum += d * d
	}
	stddev = math.Sqrt(varSum / float64(len(v)))
	return
}

// Analyze runs the full §4.4 pipeline: summary, classification, packed
// indicators, and cliff anomalies.
func Analyze(data []byte, cfg config.EntropyConfig) report.EntropyAnalysis {
	summary := Summary(data, cfg)
	overall := summary.Overall

	var class report.Classification
	switch {
	case overall > cfg.EncryptedThreshold:
		class = report.Classification{Class: report.ClassRandom, Value: overall}
	case overall > cfg.CompressedThreshold:
		class = report.Classification{Class: report.ClassEncrypted, Value: overall}
	case overall > cfg.CodeThreshold:
		class = report.Classification{Class: report.ClassCompressed, Value: overall}
	case overall > cfg.TextThreshold:
		class = report.Classification{Class: report.ClassCode, Value: overall}
	default:
		class = report.Classification{Class: report.ClassText, Value: overall}
	}

	headerLen := len(data)
	if int(cfg.HeaderSize) < headerLen {
		headerLen = int(cfg.HeaderSize)
	}
	headerEntropy := 0.0
	if headerLen > 0 {
		headerEntropy = OfSlice(data[:headerLen])
	}
	bodyEntropy := 0.0
	if len(data) > headerLen {
		bodyEntropy = OfSlice(data[headerLen:])
	}
	lowHeader := headerLen > 0 && headerEntropy < cfg.LowHeaderThreshold
	highBody := len(data) > headerLen && bodyEntropy > cfg.HighBodyThreshold

	var cliffIndex *int
	var anomalies []report.EntropyAnomaly
	if len(summary.Windows) > 1 {
		for i := 1; i < len(summary.Windows); i++ {
			from := summary.Windows[i-1].Entropy
			to := summary.Windows[i].Entropy
			delta := math.Abs(to - from)
			if delta >= cfg.CliffDelta {
				if cliffIndex == nil {
					idx := i
					cliffIndex = &idx
				}
				anomalies = append(anomalies, report.EntropyAnomaly{Index: i, From: from, To: to, Delta: delta})
			}
		}
	}

	verdict := 0.0
	if lowHeader && highBody {
		verdict = 0.8
	}

	return report.EntropyAnalysis{
		Summary:        summary,
		Classification: class,
		PackedIndicators: report.PackedIndicators{
			LowEntropyHeader:  lowHeader,
			HighEntropyBody:   highBody,
			EntropyCliffIndex: cliffIndex,
			Verdict:           verdict,
		},
		Anomalies: anomalies,
	}
}
