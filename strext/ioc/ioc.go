/*************************************************************************
 * Copyright 2024 Binsift Authors. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package ioc implements the optional indicator-of-compromise
// classification pass of spec §4.6: defang normalization, then curated
// regex + semantic validators for URLs, IPv4 addresses, domains, and
// suspicious filenames.
package ioc

import (
	"net"
	"regexp"
	"strings"
)

// Defang reverses common obfuscation tricks malware authors and threat
// reports use to avoid auto-linking IOCs, so the classifiers below see
// a normal-looking indicator (spec §4.6).
func Defang(s string) string {
	r := strings.NewReplacer(
		"[.]", ".",
		"(.)", ".",
		"[dot]", ".",
		"hxxp://", "http://",
		"hxxps://", "https://",
		"hXXp://", "http://",
		"hXXps://", "https://",
	)
	return r.Replace(s)
}

var (
	urlRe    = regexp.MustCompile(`\bhttps?://[^\s"'<>]+`)
	ipv4Re   = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	domainRe = regexp.MustCompile(`\b[a-zA-Z0-9][a-zA-Z0-9-]{0,62}\.[a-zA-Z]{2,24}\b`)
)

// tldWhitelist is a small curated set; real deployments would load a
// much larger public-suffix list, but spec §4.6 only asks for "a TLD
// whitelist" as a semantic validator, not IANA-completeness.
var tldWhitelist = map[string]bool{
	"com": true, "net": true, "org": true, "io": true, "co": true,
	"biz": true, "info": true, "ru": true, "cn": true, "xyz": true,
	"top": true, "tk": true, "de": true, "uk": true, "su": true,
}

// extensionBlacklist flags filenames whose extension is a common
// dropper/payload type.
var extensionBlacklist = map[string]bool{
	"exe": true, "dll": true, "scr": true, "bat": true, "ps1": true,
	"vbs": true, "js": true, "jar": true, "cpl": true, "hta": true,
}

// Sample is one classified occurrence. Offset is the baseOffset passed
// to Classify (the offset of the text it was found in); the position of
// the match within that text is not recorded.
type Sample struct {
	Kind   string
	Value  string
	Offset uint64
}

// Classify defangs text, runs the curated regexes, and returns counts
// per kind plus samples (capped at maxSamples). Each distinct kind/value
// pair is counted once, and every sample carries baseOffset.
func Classify(text string, baseOffset uint64, maxSamples int) (counts map[string]int, samples []Sample) {
	counts = map[string]int{}
	defanged := Defang(text)

	seen := map[string]bool{}
	addSample := func(kind, value string) {
		key := kind + ":" + value
		if seen[key] {
			return
		}
		seen[key] = true
		counts[kind]++
		if len(samples) < maxSamples {
			samples = append(samples, Sample{Kind: kind, Value: value, Offset: baseOffset})
		}
	}

	for _, m := range urlRe.FindAllString(defanged, -1) {
		addSample("url", m)
	}
	for _, m := range ipv4Re.FindAllString(defanged, -1) {
		if ip := net.ParseIP(m); ip != nil && ip.To4() != nil && isPublicRoutable(ip) {
			addSample("ipv4", m)
		}
	}
	for _, m := range domainRe.FindAllString(defanged, -1) {
		parts := strings.Split(m, ".")
		tld := strings.ToLower(parts[len(parts)-1])
		if tldWhitelist[tld] {
			addSample("domain", m)
		}
	}
	for _, word := range strings.Fields(defanged) {
		ext := strings.ToLower(extOf(word))
		if extensionBlacklist[ext] {
			addSample("suspicious_filename", word)
		}
	}
	return counts, samples
}

func extOf(s string) string {
	idx := strings.LastIndex(s, ".")
	if idx < 0 || idx == len(s)-1 {
		return ""
	}
	return strings.Trim(s[idx+1:], `.,;:"'()[]{}`)
}

// isPublicRoutable rejects private, loopback, link-local, and
// multicast ranges so internal-network noise doesn't pollute IOC
// counts (spec §4.6: "public-routable IPv4 only").
func isPublicRoutable(ip net.IP) bool {
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
		ip.IsMulticast() || ip.IsUnspecified() {
		return false
	}
	return true
}
