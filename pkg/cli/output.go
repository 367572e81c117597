package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

var (
	headerColor  = color.New(color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	dimColor     = color.New(color.Faint)
)

func output(c *cli.Command) io.Writer {
	if w := c.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func printStats(w io.Writer, stats *model.SyncStats) {
	successColor.Fprintln(w, "Sync completed")
	fmt.Fprintf(w, "  meetings processed: %d\n", stats.MeetingsProcessed)
	fmt.Fprintf(w, "  new calls:          %d\n", stats.MeetingsNew)
	fmt.Fprintf(w, "  contacts created:   %d\n", stats.ContactsCreated)
	if stats.NeedsReviewCount > 0 {
		warnColor.Fprintf(w, "  needs review:       %d\n", stats.NeedsReviewCount)
	} else {
		fmt.Fprintf(w, "  needs review:       %d\n", stats.NeedsReviewCount)
	}
	for _, msg := range stats.Errors {
		errorColor.Fprintf(w, "  error: %s\n", msg)
	}
}

func printCalls(w io.Writer, calls []*model.Call) {
	if len(calls) == 0 {
		dimColor.Fprintln(w, "No calls")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	headerColor.Fprintln(tw, "ID\tDATE\tTITLE\tCONTACT\tCONFIDENCE\tREVIEW")
	for _, call := range calls {
		contact := string(call.ContactID)
		if contact == "" {
			contact = "-"
		}
		review := ""
		if call.NeedsReview {
			review = warnColor.Sprint("yes")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			call.ID,
			call.CallDate.Format(time.DateOnly),
			shorten(call.Title, 48),
			contact,
			call.MatchConfidence,
			review,
		)
	}
	_ = tw.Flush()
}

func printSyncLogs(w io.Writer, logs []*model.SyncLog) {
	if len(logs) == 0 {
		dimColor.Fprintln(w, "No sync runs")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	headerColor.Fprintln(tw, "STARTED\tTYPE\tSTATUS\tPROCESSED\tNEW\tCREATED\tREVIEW\tERRORS")
	for _, l := range logs {
		status := l.Status.String()
		switch l.Status {
		case types.SyncStatusCompleted:
			status = successColor.Sprint(status)
		case types.SyncStatusFailed:
			status = errorColor.Sprint(status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			l.StartedAt.Format(time.DateTime),
			l.SyncType,
			status,
			l.Stats.MeetingsProcessed,
			l.Stats.MeetingsNew,
			l.Stats.ContactsCreated,
			l.Stats.NeedsReviewCount,
			len(l.Stats.Errors),
		)
	}
	_ = tw.Flush()
}

func printActionItems(w io.Writer, items []*model.ActionItem) {
	if len(items) == 0 {
		dimColor.Fprintln(w, "No action items")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	headerColor.Fprintln(tw, "ID\tCALL\tASSIGNEE\tDONE\tDESCRIPTION")
	for _, item := range items {
		done := ""
		if item.Completed {
			done = successColor.Sprint("yes")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			item.ID, item.CallID, item.Assignee, done, shorten(item.Description, 64))
	}
	_ = tw.Flush()
}

func shorten(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= n {
		return s
	}
	return model.TruncateRunes(s, n-3) + "..."
}
