package config

import (
	"strings"
)

// Engine holds the immutable configuration of the resolution engine
type Engine struct {
	OwnerName  string
	OwnerEmail string
	excluded   map[string]struct{}
}

// NewEngine builds an Engine. Excluded emails are matched case-insensitively.
// The owner email is always excluded.
func NewEngine(ownerName, ownerEmail string, excluded []string) *Engine {
	e := &Engine{
		OwnerName:  strings.TrimSpace(ownerName),
		OwnerEmail: strings.ToLower(strings.TrimSpace(ownerEmail)),
		excluded:   make(map[string]struct{}),
	}
	for _, email := range excluded {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			e.excluded[email] = struct{}{}
		}
	}
	if e.OwnerEmail != "" {
		e.excluded[e.OwnerEmail] = struct{}{}
	}
	return e
}

// IsExcluded reports whether email belongs to the owner's side
func (e *Engine) IsExcluded(email string) bool {
	if e == nil {
		return false
	}
	_, ok := e.excluded[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// ExcludedCount returns the number of excluded addresses
func (e *Engine) ExcludedCount() int {
	if e == nil {
		return 0
	}
	return len(e.excluded)
}
