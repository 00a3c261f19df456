// Copyright 2025 HealthTriage Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package citations restricts web search results to credible medical sources.
// This file contains the pure classification logic: a fixed, ordered
// trusted-domain allow-list, a topical relevance heuristic on titles, and the
// source tag derivation. No network access happens here.
package citations

import "strings"

// TrustedDomains is the canonical allow-list, in declared order. Source tag
// derivation scans this list and takes the first match, so order matters.
var TrustedDomains = []string{
	"cdc.gov",
	"nih.gov",
	"mayoclinic.org",
	"who.int",
	"medlineplus.gov",
	"healthline.com",
	"webmd.com",
	"clevelandclinic.org",
	"hopkinsmedicine.org",
}

// RelevanceKeywords admit results whose titles look medically topical even
// when hosted off the allow-list.
var RelevanceKeywords = []string{
	"symptom",
	"disease",
	"medical",
	"health",
	"fever",
	"treatment",
}

// OtherSourceTag is the sentinel tag for URLs matching no trusted domain.
const OtherSourceTag = "OTHER"

// IsTrusted reports whether the URL contains any trusted domain. The match is
// a case-sensitive substring check against the canonical list.
func IsTrusted(url string) bool {
	for _, domain := range TrustedDomains {
		if strings.Contains(url, domain) {
			return true
		}
	}
	return false
}

// IsRelevant reports whether the case-folded title contains any relevance
// keyword.
func IsRelevant(title string) bool {
	lower := strings.ToLower(title)
	for _, keyword := range RelevanceKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Accept decides membership for one search result: trusted URL or relevant
// title.
func Accept(title string, url string) bool {
	return IsTrusted(url) || IsRelevant(title)
}

// SourceTag derives the display tag for a URL: the leading segment of the
// first matching trusted domain, upper-cased, or OTHER when none match.
// Pure function of the URL; identical inputs always yield identical tags.
func SourceTag(url string) string {
	for _, domain := range TrustedDomains {
		if strings.Contains(url, domain) {
			leading, _, _ := strings.Cut(domain, ".")
			return strings.ToUpper(leading)
		}
	}
	return OtherSourceTag
}
