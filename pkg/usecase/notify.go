package usecase

import (
	"context"
	"fmt"

	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/secmon-lab/meetlink/pkg/service/slack"
	"github.com/secmon-lab/meetlink/pkg/utils/errutil"
	goslack "github.com/slack-go/slack"
)

// notifier posts sync summaries. A nil notifier is valid and posts nothing.
type notifier struct {
	slack     slack.Service
	channelID string
}

func newNotifier(svc slack.Service, channelID string) *notifier {
	if svc == nil || channelID == "" {
		return nil
	}
	return &notifier{slack: svc, channelID: channelID}
}

// notify reports failures always and completed runs only when they changed something
func (n *notifier) notify(ctx context.Context, syncType types.SyncType, stats *model.SyncStats, runErr error) {
	if n == nil {
		return
	}

	blocks, text := syncMessage(syncType, stats, runErr)
	if blocks == nil {
		return
	}

	if _, err := n.slack.PostMessage(ctx, n.channelID, blocks, text); err != nil {
		_ = errutil.Handle(ctx, err, "failed to post sync notification")
	}
}

func syncMessage(syncType types.SyncType, stats *model.SyncStats, runErr error) ([]goslack.Block, string) {
	if runErr != nil {
		text := fmt.Sprintf("Meeting sync failed (%s)", syncType)
		return []goslack.Block{
			slack.Section(fmt.Sprintf(":x: *%s*", text)),
			slack.Section(fmt.Sprintf("```%s```", slack.Escape(runErr.Error()))),
		}, text
	}

	if stats.MeetingsNew == 0 && stats.ContactsCreated == 0 && stats.NeedsReviewCount == 0 {
		return nil, ""
	}

	text := fmt.Sprintf("Meeting sync completed: %d new calls", stats.MeetingsNew)
	body := fmt.Sprintf("*New calls:* %d\n*Contacts created:* %d\n*Needs review:* %d\n*Processed:* %d",
		stats.MeetingsNew, stats.ContactsCreated, stats.NeedsReviewCount, stats.MeetingsProcessed)
	if len(stats.Errors) > 0 {
		body += fmt.Sprintf("\n*Errors:* %d", len(stats.Errors))
	}

	return []goslack.Block{
		slack.Section(fmt.Sprintf(":white_check_mark: *Meeting sync completed* (%s)", syncType)),
		slack.Section(body),
	}, text
}
