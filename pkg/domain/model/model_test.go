package model_test

import (
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
)

func TestTruncateRunes(t *testing.T) {
	gt.String(t, model.TruncateRunes("hello", 10)).Equal("hello")
	gt.String(t, model.TruncateRunes("hello", 3)).Equal("hel")
	gt.String(t, model.TruncateRunes("日本語テキスト", 3)).Equal("日本語")
	gt.String(t, model.TruncateRunes("abc", 0)).Equal("")

	long := strings.Repeat("あ", model.SummaryMaxLength+10)
	gt.Number(t, len([]rune(model.TruncateRunes(long, model.SummaryMaxLength)))).Equal(model.SummaryMaxLength)
}

func TestMeeting_InviteeEmails(t *testing.T) {
	m := &model.Meeting{
		AttendeeLists: []model.AttendeeList{
			{
				Source: types.ParticipantSourceCalendarInvitee,
				Entries: []model.Invitee{
					{Name: "Ann", Email: "Ann@Example.com"},
					{Name: "No Email"},
				},
			},
			{
				Source: types.ParticipantSourceAttendee,
				Entries: []model.Invitee{
					{Name: "Ann again", Email: "ann@example.com "},
					{Name: "Bob", Email: "bob@example.com"},
				},
			},
		},
	}

	gt.Array(t, m.InviteeEmails()).Equal([]string{"ann@example.com", "bob@example.com"})
	gt.Array(t, m.Invitees()).Length(4)
}

func TestExtraction_CanCreateContact(t *testing.T) {
	var nilExt *model.Extraction
	gt.Bool(t, nilExt.CanCreateContact()).False()

	gt.Bool(t, (&model.Extraction{FullName: "Jane Doe", Confidence: types.ExtractionConfidenceHigh}).CanCreateContact()).True()
	gt.Bool(t, (&model.Extraction{FullName: "", Confidence: types.ExtractionConfidenceHigh}).CanCreateContact()).False()
	gt.Bool(t, (&model.Extraction{FullName: "Jane Doe", Confidence: types.ExtractionConfidenceMedium}).CanCreateContact()).False()
}

func TestCall_IsLinked(t *testing.T) {
	gt.Bool(t, (&model.Call{}).IsLinked()).False()
	gt.Bool(t, (&model.Call{ContactID: model.NewContactID()}).IsLinked()).True()
}

func TestActionItem_SetCompleted(t *testing.T) {
	item := &model.ActionItem{Description: "Send proposal"}
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	item.SetCompleted(true, now)
	gt.Bool(t, item.Completed).True()
	gt.Value(t, item.CompletedAt).NotNil()
	gt.Bool(t, item.CompletedAt.Equal(now)).True()

	item.SetCompleted(false, now)
	gt.Bool(t, item.Completed).False()
	gt.Value(t, item.CompletedAt).Nil()
}
