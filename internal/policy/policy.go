// Package policy holds the static editorial policy: which sources we pull
// from, which categories we publish, and the keyword rules that decide
// whether a raw article is worth enriching.
package policy

import "strings"

// BaselineSources is the core list of NewsAPI source identifiers.
var BaselineSources = []string{
	"techcrunch",
	"wired",
	"the-verge",
	"ars-technica",
	"venturebeat",
	"engadget",
	"mashable",
	"recode",
	"techradar",
	"zdnet",
}

// ExpandedSources is the superset used when a run needs broader coverage.
var ExpandedSources = []string{
	"techcrunch",
	"wired",
	"the-verge",
	"ars-technica",
	"venturebeat",
	"engadget",
	"mashable",
	"recode",
	"techradar",
	"zdnet",
	"cnet",
	"the-next-web",
	"gizmodo",
	"lifehacker",
	"fast-company",
}

// Categories is the fixed set of labels an article may carry.
var Categories = []string{"AI", "Technology", "Startups", "Funding", "Machine Learning"}

// DefaultCategory is assigned when no inference rule matches.
const DefaultCategory = "Technology"

// ExcludeKeywords reject an article outright when any of them appears in
// the title+description. Substring match, not word-boundary.
var ExcludeKeywords = []string{
	"politics", "political", "war", "military", "defense", "election", "government",
	"congress", "senate", "president", "biden", "trump", "ukraine", "russia",
	"china", "trade war", "sanctions", "nato", "security clearance",
}

// IncludeTerms accept an article when at least one appears in the
// title+description. Deliberately broad; "ai" matching inside unrelated
// words is a known and accepted imprecision.
var IncludeTerms = []string{
	"ai", "technology", "startups", "funding", "machine learning",
	"artificial intelligence", "startup", "venture capital",
	"tech", "software", "app", "platform",
	"innovation", "digital", "cloud", "data", "cyber",
}

// ValidCategory reports whether c is one of the enumerated categories.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// KnownSource reports whether a publisher name looks like one of our
// sources. Used by the broad-search fallback to narrow results
// client-side; containment rather than equality, since NewsAPI reports
// display names ("TechCrunch") while we configure slugs ("techcrunch").
func KnownSource(name string) bool {
	n := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	if n == "" {
		return false
	}
	for _, s := range BaselineSources {
		if strings.Contains(n, strings.ReplaceAll(s, "-", "")) {
			return true
		}
	}
	for _, hint := range []string{"tech", "wired", "verge", "ars", "venture"} {
		if strings.Contains(n, hint) {
			return true
		}
	}
	return false
}

// categoryRules is a decision list evaluated in order; the first tier with
// a matching term wins. The order matters: "funding" and "investment"
// appear in both the Startups and Funding tiers, so Startups shadows
// Funding for those terms. That mirrors the editorial rules this policy
// was transcribed from and must not be reordered.
var categoryRules = []struct {
	category string
	terms    []string
}{
	{"AI", []string{"ai", "artificial intelligence", "gpt", "machine learning"}},
	{"Startups", []string{"startup", "funding", "venture", "investment"}},
	{"Funding", []string{"funding", "investment", "series a", "series b"}},
	{"Machine Learning", []string{"machine learning", "neural network", "algorithm"}},
}

// InferCategory assigns a category from the title and description.
// Falls back to DefaultCategory when nothing matches.
func InferCategory(title, description string) string {
	content := strings.ToLower(title + " " + description)
	for _, rule := range categoryRules {
		for _, term := range rule.terms {
			if strings.Contains(content, term) {
				return rule.category
			}
		}
	}
	return DefaultCategory
}
