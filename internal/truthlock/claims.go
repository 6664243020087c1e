// internal/truthlock/claims.go
package truthlock

import (
	"regexp"
	"strconv"
	"strings"
)

// Claim extraction is pattern-based and deliberately literal: the verifier
// only judges assertions it can tie to a concrete number, employer, degree,
// or skill token. Prose it cannot parse is not judged.

var yearsClaimPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*\+?\s*years?(?:['’]s?)?\s+of\s+(?:[a-z][a-z-]*\s+){0,3}?experience\b`),
	regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*\+?\s*years?\s+of\s+[a-z][a-z-]*ing\b`),
	regexp.MustCompile(`(?i)\bexperience\s+of\s+(\d+(?:\.\d+)?)\s*\+?\s*years?\b`),
}

// Employer patterns match employment assertions ("At X, I ...", "worked at
// X"), not mere company mentions, so praising the target company in a cover
// letter is not flagged as a fabricated employer.
var employerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bAt\s+([A-Z][A-Za-z0-9&.\-]*(?:\s+[A-Z][A-Za-z0-9&.\-]*){0,2}),?\s+I\b`),
	regexp.MustCompile(`(?i)\bwork(?:ed|ing)?\s+at\s+([A-Z][A-Za-z0-9&.\-]*(?:\s+[A-Z][A-Za-z0-9&.\-]*){0,2})`),
	regexp.MustCompile(`(?i)\b(?:my\s+(?:time|role|tenure)|while)\s+at\s+([A-Z][A-Za-z0-9&.\-]*(?:\s+[A-Z][A-Za-z0-9&.\-]*){0,2})`),
}

var degreePattern = regexp.MustCompile(
	`(?i)\b(bachelor(?:['’]s)?|master(?:['’]s)?|mba|ph\.?d\.?|doctorate|b\.?sc?\.?|m\.?sc?\.?)\b(?:\s+(?:degree\s+)?(?:of|in)\s+([A-Za-z][A-Za-z ]{1,40}))?`,
)

type yearsClaim struct {
	Years float64
	Text  string
}

type degreeClaim struct {
	Level string
	Field string
	Text  string
}

func extractYearsClaims(text string) []yearsClaim {
	var claims []yearsClaim
	seen := map[string]bool{}
	for _, pattern := range yearsClaimPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			if seen[m[0]] {
				continue
			}
			seen[m[0]] = true
			years, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			claims = append(claims, yearsClaim{Years: years, Text: strings.TrimSpace(m[0])})
		}
	}
	return claims
}

func extractEmployerClaims(text string) []string {
	var employers []string
	seen := map[string]bool{}
	for _, pattern := range employerPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			name := strings.TrimRight(strings.TrimSpace(m[1]), ".,")
			key := strings.ToLower(name)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			employers = append(employers, name)
		}
	}
	return employers
}

func extractDegreeClaims(text string) []degreeClaim {
	var claims []degreeClaim
	seen := map[string]bool{}
	for _, m := range degreePattern.FindAllStringSubmatch(text, -1) {
		if seen[strings.ToLower(m[0])] {
			continue
		}
		seen[strings.ToLower(m[0])] = true
		claims = append(claims, degreeClaim{
			Level: normalizeDegreeLevel(m[1]),
			Field: strings.TrimSpace(m[2]),
			Text:  strings.TrimSpace(m[0]),
		})
	}
	return claims
}

// normalizeDegreeLevel collapses abbreviation variants so "B.S." and
// "bachelor's" compare equal.
func normalizeDegreeLevel(raw string) string {
	cleaned := strings.ToLower(strings.NewReplacer(".", "", "'", "", "’", "").Replace(raw))
	switch {
	case strings.HasPrefix(cleaned, "bachelor"), cleaned == "bs", cleaned == "bsc", cleaned == "ba":
		return "bachelor"
	case strings.HasPrefix(cleaned, "master"), cleaned == "ms", cleaned == "msc", cleaned == "ma":
		return "master"
	case cleaned == "mba":
		return "mba"
	case strings.HasPrefix(cleaned, "phd"), cleaned == "doctorate":
		return "doctorate"
	default:
		return cleaned
	}
}

// extractSkillMentions scans for whole-word occurrences of each vocabulary
// term. The vocabulary is the union of resume and job skills; tokens outside
// it are never extracted, so unknown jargon is ignored rather than judged.
func extractSkillMentions(text string, vocabulary []string) []string {
	lower := strings.ToLower(text)
	var mentions []string
	seen := map[string]bool{}
	for _, skill := range vocabulary {
		key := strings.ToLower(strings.TrimSpace(skill))
		if key == "" || seen[key] {
			continue
		}
		if containsWord(lower, key) {
			seen[key] = true
			mentions = append(mentions, strings.TrimSpace(skill))
		}
	}
	return mentions
}

// containsWord reports a whole-token match, tolerating skills with
// non-alphanumeric edges ("C++", ".NET") where \b would misfire.
func containsWord(haystack, needle string) bool {
	for start := 0; ; {
		idx := strings.Index(haystack[start:], needle)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(needle)
		beforeOK := idx == 0 || !isWordChar(haystack[idx-1])
		afterOK := end == len(haystack) || !isWordChar(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_'
}
