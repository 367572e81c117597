package fathom

import (
	"context"
	"time"

	"github.com/secmon-lab/meetlink/pkg/domain/model"
)

// Service fetches recorded meetings from Fathom
type Service interface {
	// FetchMeetings returns every meeting created after since, following pagination.
	// Meetings are normalized into model.Meeting before they are returned.
	FetchMeetings(ctx context.Context, since time.Time) ([]*model.Meeting, error)
}
