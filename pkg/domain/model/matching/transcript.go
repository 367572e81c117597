package matching

import (
	"bufio"
	"regexp"
	"strings"
)

var speakerLabel = regexp.MustCompile(`^\s*(\p{Lu}[\p{L}'’\-]*(?:\s+\p{Lu}[\p{L}'’\-]*){0,2})\s*:`)

// structural headings that look like speaker labels
var transcriptHeadings = map[string]struct{}{
	"summary":      {},
	"transcript":   {},
	"note":         {},
	"notes":        {},
	"question":     {},
	"answer":       {},
	"agenda":       {},
	"action items": {},
	"next steps":   {},
	"speaker":      {},
	"unknown":      {},
}

// InferSpeakerName returns the first "Name:" speaker label of transcript that does not
// belong to the organizer. A label belongs to the organizer when either name contains the
// other case-insensitively. Empty string means no candidate.
func InferSpeakerName(transcript, organizerName string) string {
	organizer := NameKey(organizerName)

	scanner := bufio.NewScanner(strings.NewReader(transcript))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := speakerLabel.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}

		name := NormalizeName(m[1])
		key := strings.ToLower(name)
		if _, ok := transcriptHeadings[key]; ok {
			continue
		}
		if organizer != "" && (strings.Contains(organizer, key) || strings.Contains(key, organizer)) {
			continue
		}
		return name
	}

	return ""
}
