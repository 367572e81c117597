package interfaces

import (
	"sort"

	"github.com/secmon-lab/meetlink/pkg/domain/model"
)

// ListCallOption is a functional option for filtering calls in List
type ListCallOption func(*listCallConfig)

type listCallConfig struct {
	contactID   model.ContactID
	unmatched   bool
	needsReview bool
	limit       int
	offset      int
}

// WithContactID filters calls linked to the contact
func WithContactID(id model.ContactID) ListCallOption {
	return func(c *listCallConfig) {
		c.contactID = id
	}
}

// WithUnmatched filters calls without a contact
func WithUnmatched() ListCallOption {
	return func(c *listCallConfig) {
		c.unmatched = true
	}
}

// WithNeedsReview filters calls flagged for review
func WithNeedsReview() ListCallOption {
	return func(c *listCallConfig) {
		c.needsReview = true
	}
}

// WithLimit caps the number of returned calls. Zero means no limit.
func WithLimit(n int) ListCallOption {
	return func(c *listCallConfig) {
		c.limit = n
	}
}

// WithOffset skips the first n calls
func WithOffset(n int) ListCallOption {
	return func(c *listCallConfig) {
		c.offset = n
	}
}

// BuildListCallConfig builds a listCallConfig from options
func BuildListCallConfig(opts ...ListCallOption) *listCallConfig {
	cfg := &listCallConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.limit < 0 {
		cfg.limit = 0
	}
	if cfg.offset < 0 {
		cfg.offset = 0
	}
	return cfg
}

func (c *listCallConfig) ContactID() model.ContactID { return c.contactID }
func (c *listCallConfig) Unmatched() bool            { return c.unmatched }
func (c *listCallConfig) NeedsReview() bool          { return c.needsReview }
func (c *listCallConfig) Limit() int                 { return c.limit }
func (c *listCallConfig) Offset() int                { return c.offset }

// Matches reports whether call passes the filters
func (c *listCallConfig) Matches(call *model.Call) bool {
	if c.contactID != "" && call.ContactID != c.contactID {
		return false
	}
	if c.unmatched && call.IsLinked() {
		return false
	}
	if c.needsReview && !call.NeedsReview {
		return false
	}
	return true
}

// Apply filters, orders newest first and paginates calls. Backends without native
// querying use it on the full set.
func (c *listCallConfig) Apply(calls []*model.Call) []*model.Call {
	filtered := make([]*model.Call, 0, len(calls))
	for _, call := range calls {
		if c.Matches(call) {
			filtered = append(filtered, call)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].CallDate.Equal(filtered[j].CallDate) {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		}
		return filtered[i].CallDate.After(filtered[j].CallDate)
	})

	if c.offset >= len(filtered) {
		return []*model.Call{}
	}
	filtered = filtered[c.offset:]
	if c.limit > 0 && c.limit < len(filtered) {
		filtered = filtered[:c.limit]
	}
	return filtered
}
