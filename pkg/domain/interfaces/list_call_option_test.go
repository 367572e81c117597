package interfaces_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
)

func TestListCallConfig_Apply(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	contactID := model.NewContactID()
	calls := []*model.Call{
		{ID: "c1", CallDate: base, ContactID: contactID},
		{ID: "c2", CallDate: base.Add(time.Hour), NeedsReview: true},
		{ID: "c3", CallDate: base.Add(2 * time.Hour)},
		{ID: "c4", CallDate: base.Add(-time.Hour), ContactID: contactID, NeedsReview: true},
	}

	ids := func(calls []*model.Call) []model.CallID {
		out := make([]model.CallID, len(calls))
		for i, c := range calls {
			out[i] = c.ID
		}
		return out
	}

	t.Run("no filter orders newest first", func(t *testing.T) {
		got := interfaces.BuildListCallConfig().Apply(calls)
		gt.Array(t, ids(got)).Equal([]model.CallID{"c3", "c2", "c1", "c4"})
	})

	t.Run("by contact", func(t *testing.T) {
		got := interfaces.BuildListCallConfig(interfaces.WithContactID(contactID)).Apply(calls)
		gt.Array(t, ids(got)).Equal([]model.CallID{"c1", "c4"})
	})

	t.Run("unmatched and needs review", func(t *testing.T) {
		got := interfaces.BuildListCallConfig(interfaces.WithUnmatched(), interfaces.WithNeedsReview()).Apply(calls)
		gt.Array(t, ids(got)).Equal([]model.CallID{"c2"})
	})

	t.Run("pagination", func(t *testing.T) {
		got := interfaces.BuildListCallConfig(interfaces.WithLimit(2), interfaces.WithOffset(1)).Apply(calls)
		gt.Array(t, ids(got)).Equal([]model.CallID{"c2", "c1"})

		got = interfaces.BuildListCallConfig(interfaces.WithOffset(10)).Apply(calls)
		gt.Array(t, got).Length(0)
	})
}
