package matching

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var pronounSuffix = regexp.MustCompile(`(?i)\s*\((?:she|he|they)(?:/(?:her|him|them|they|she|he|hers|his|theirs))*\)\s*$`)

// NormalizeName strips a trailing pronoun annotation and collapses whitespace
func NormalizeName(name string) string {
	name = pronounSuffix.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}

// NameKey is the case-insensitive comparison key of a display name
func NameKey(name string) string {
	return strings.ToLower(NormalizeName(name))
}

// NameTokens splits a name into lowercased word tokens
func NameTokens(name string) []string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '’'
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			out = append(out, f)
		}
	}
	return out
}

// DeriveNameFromEmail builds a display name from the local part of an email,
// turning punctuation into spaces and title-casing every word.
// "jane.doe-smith@example.com" becomes "Jane Doe Smith".
func DeriveNameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if plus := strings.IndexByte(local, '+'); plus > 0 {
		local = local[:plus]
	}

	spaced := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, local)

	words := strings.Fields(spaced)
	if len(words) == 0 {
		return ""
	}

	caser := cases.Title(language.Und)
	return caser.String(strings.ToLower(strings.Join(words, " ")))
}
