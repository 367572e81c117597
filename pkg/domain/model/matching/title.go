package matching

import (
	"regexp"
	"strings"
)

var (
	titleWithPattern = regexp.MustCompile(`(?i)^\s*(?:call|meeting|sync)\s+with\s+(.+?)(?:\s*-\s*(.+))?$`)
	titleNoise       = regexp.MustCompile(`(?i)\s*\b(?:discovery|intro|followup|follow-up|call|meeting|sync|kickoff|kick-off|website|20\d{2})\b.*$`)
)

// ParseCandidateNames extracts person or company name candidates from a meeting title.
// Candidates from "A/B" come first, then "call with X - Y", then "X <> topic". Generic
// trailing words are stripped, candidates shorter than two characters are dropped and
// case-insensitive duplicates keep their first position.
func ParseCandidateNames(title string) []string {
	var raw []string

	if strings.Contains(title, "/") {
		for _, part := range strings.Split(title, "/") {
			raw = append(raw, strings.TrimSpace(part))
		}
	}

	if m := titleWithPattern.FindStringSubmatch(title); m != nil {
		raw = append(raw, strings.TrimSpace(m[1]))
		if m[2] != "" {
			raw = append(raw, strings.TrimSpace(m[2]))
		}
	}

	if left, _, ok := strings.Cut(title, "<>"); ok {
		raw = append(raw, strings.TrimSpace(left))
	}

	seen := make(map[string]struct{})
	candidates := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(titleNoise.ReplaceAllString(c, ""))
		c = strings.Trim(c, "-–:,")
		c = strings.TrimSpace(c)
		if len([]rune(c)) < 2 {
			continue
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		candidates = append(candidates, c)
	}

	return candidates
}

// ExcludeOrganizer drops candidates sharing any name token with the organizer's name
func ExcludeOrganizer(candidates []string, organizerName string) []string {
	organizer := make(map[string]struct{})
	for _, tok := range NameTokens(organizerName) {
		organizer[tok] = struct{}{}
	}
	if len(organizer) == 0 {
		return candidates
	}

	var out []string
	for _, c := range candidates {
		overlap := false
		for _, tok := range NameTokens(c) {
			if _, ok := organizer[tok]; ok {
				overlap = true
				break
			}
		}
		if !overlap {
			out = append(out, c)
		}
	}
	return out
}
