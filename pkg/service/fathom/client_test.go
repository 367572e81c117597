package fathom_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/secmon-lab/meetlink/pkg/service/fathom"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := fathom.New("  ")
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, fathom.ErrMissingCredentials)).True()
}

func TestFetchMeetings_Paginates(t *testing.T) {
	since := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gt.Value(t, r.URL.Path).Equal("/meetings")
		gt.Value(t, r.Header.Get("X-Api-Key")).Equal("secret")
		gt.Value(t, r.URL.Query().Get("created_after")).Equal("2026-06-01T10:00:00Z")
		gt.Value(t, r.URL.Query().Get("include_transcript")).Equal("true")

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("cursor") {
		case "":
			_, _ = w.Write([]byte(`{"items":[{"recording_id":101,"title":"Call with Jane Doe"}],"next_cursor":"page2"}`))
		case "page2":
			_, _ = w.Write([]byte(`{"items":[{"recording_id":"102","title":"Acme <> pilot"}],"next_cursor":null}`))
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer srv.Close()

	client, err := fathom.New("secret", fathom.WithBaseURL(srv.URL+"/"))
	gt.NoError(t, err).Required()

	meetings, err := client.FetchMeetings(context.Background(), since)
	gt.NoError(t, err).Required()
	gt.Array(t, meetings).Length(2).Required()
	gt.Value(t, meetings[0].RecordingID).Equal("101")
	gt.Value(t, meetings[1].RecordingID).Equal("102")
	gt.Value(t, meetings[1].Title).Equal("Acme <> pilot")
	gt.Number(t, calls).Equal(2)
}

func TestFetchMeetings_Envelopes(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want int
	}{
		{name: "bare array", body: `[{"id":"a"},{"id":"b"}]`, want: 2},
		{name: "meetings key", body: `{"meetings":[{"id":"a"}]}`, want: 1},
		{name: "calls key", body: `{"calls":[{"id":"a"},{"id":"b"},{"id":"c"}]}`, want: 3},
		{name: "data key", body: `{"data":[{"id":"a"}]}`, want: 1},
		{name: "unknown object", body: `{"other":[{"id":"a"}]}`, want: 0},
		{name: "empty body", body: ``, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			client, err := fathom.New("secret", fathom.WithBaseURL(srv.URL))
			gt.NoError(t, err).Required()

			meetings, err := client.FetchMeetings(context.Background(), time.Now())
			gt.NoError(t, err).Required()
			gt.Array(t, meetings).Length(tc.want)
		})
	}
}

func TestFetchMeetings_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		want   error
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, want: fathom.ErrRateLimited},
		{name: "server error", status: http.StatusBadGateway, want: fathom.ErrUpstreamUnavailable},
		{name: "unauthorized", status: http.StatusUnauthorized, want: fathom.ErrUpstreamUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			client, err := fathom.New("secret", fathom.WithBaseURL(srv.URL))
			gt.NoError(t, err).Required()

			_, err = client.FetchMeetings(context.Background(), time.Now())
			gt.Error(t, err)
			gt.Bool(t, errors.Is(err, tc.want)).True()
		})
	}
}

func TestFetchMeetings_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client, err := fathom.New("secret", fathom.WithBaseURL(srv.URL), fathom.WithTimeout(20*time.Millisecond))
	gt.NoError(t, err).Required()

	_, err = client.FetchMeetings(context.Background(), time.Now())
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, fathom.ErrUpstreamUnavailable)).True()
}

func TestFetchMeetings_TimeoutLeavesSharedClientUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	shared := &http.Client{}
	client, err := fathom.New("secret",
		fathom.WithBaseURL(srv.URL),
		fathom.WithHTTPClient(shared),
		fathom.WithTimeout(20*time.Millisecond),
	)
	gt.NoError(t, err).Required()

	_, err = client.FetchMeetings(context.Background(), time.Now())
	gt.Error(t, err)
	gt.Bool(t, errors.Is(err, fathom.ErrUpstreamUnavailable)).True()
	gt.Value(t, shared.Timeout).Equal(time.Duration(0))

	_, err = fathom.New("secret", fathom.WithTimeout(time.Second))
	gt.NoError(t, err)
	gt.Value(t, http.DefaultClient.Timeout).Equal(time.Duration(0))
}

func TestDecodeMeeting(t *testing.T) {
	raw := json.RawMessage(`{
		"recording_id": 987654,
		"meeting_title": "Call with Jane Doe - Acme",
		"default_summary": {"markdown_formatted": "## Summary\nPilot scope"},
		"recording_start_time": "2026-06-02T15:00:00Z",
		"recording_end_time": "2026-06-02T15:45:00Z",
		"transcript": [
			{"speaker": {"display_name": "Owner Person"}, "text": "Hello"},
			{"speaker": {"display_name": "Jane Doe"}, "text": "Hi there"},
			{"speaker": "Bob", "text": ""}
		],
		"calendar_invitees": [
			{"name": "Jane Doe", "email": "jane@acme.com", "is_external": true},
			{"name": "Owner Person", "email": "owner@example.com", "is_external": false}
		],
		"meeting": {"participants": ["bob@acme.com", "Someone"]},
		"recorded_by": {"name": "Owner Person", "email": "owner@example.com"},
		"action_items": [
			{"description": "Send pricing", "assignee": {"name": "Owner Person"}},
			{"text": "Book follow-up", "assignee": "Jane", "completed": true},
			"Share deck",
			{"assignee": "nobody"}
		]
	}`)

	m, err := fathom.DecodeMeeting(raw, time.Now())
	gt.NoError(t, err).Required()

	gt.Value(t, m.RecordingID).Equal("987654")
	gt.Value(t, m.Title).Equal("Call with Jane Doe - Acme")
	gt.Value(t, m.Summary).Equal("## Summary\nPilot scope")
	gt.Bool(t, m.StartedAt.Equal(time.Date(2026, 6, 2, 15, 0, 0, 0, time.UTC))).True()
	gt.Number(t, m.DurationMinutes).Equal(45)
	gt.Value(t, m.Transcript).Equal("Owner Person: Hello\nJane Doe: Hi there")

	gt.Array(t, m.AttendeeLists).Length(2).Required()
	gt.Value(t, m.AttendeeLists[0].Source).Equal(types.ParticipantSourceCalendarInvitee)
	gt.Array(t, m.AttendeeLists[0].Entries).Length(2).Required()
	gt.Value(t, m.AttendeeLists[0].Entries[0].IsExternal).NotNil()
	gt.Bool(t, *m.AttendeeLists[0].Entries[0].IsExternal).True()
	gt.Value(t, m.AttendeeLists[1].Source).Equal(types.ParticipantSourceParticipant)
	gt.Value(t, m.AttendeeLists[1].Entries[0].Email).Equal("bob@acme.com")
	gt.Value(t, m.AttendeeLists[1].Entries[1].Name).Equal("Someone")

	gt.Value(t, m.RecordedBy).NotNil()
	gt.Value(t, m.RecordedBy.Email).Equal("owner@example.com")

	gt.Array(t, m.ActionItems).Length(3).Required()
	gt.Value(t, m.ActionItems[0].Assignee).Equal("Owner Person")
	gt.Bool(t, m.ActionItems[1].Completed).True()
	gt.Value(t, m.ActionItems[2].Description).Equal("Share deck")

	gt.Bool(t, len(m.RawPayload) > 0).True()
}

func TestDecodeMeeting_Fallbacks(t *testing.T) {
	fetched := time.Date(2026, 6, 3, 9, 0, 0, 0, time.UTC)
	m, err := fathom.DecodeMeeting(json.RawMessage(`{
		"id": "abc",
		"title": "Weekly",
		"summary": "plain summary",
		"transcript": "Jane: hi",
		"created_at": "2026-06-02T15:00:00.123Z",
		"duration": 29.6
	}`), fetched)
	gt.NoError(t, err).Required()
	gt.Value(t, m.RecordingID).Equal("abc")
	gt.Value(t, m.Summary).Equal("plain summary")
	gt.Value(t, m.Transcript).Equal("Jane: hi")
	gt.Number(t, m.DurationMinutes).Equal(30)
	gt.Bool(t, m.StartedAt.Equal(time.Date(2026, 6, 2, 15, 0, 0, 123_000_000, time.UTC))).True()
	gt.Value(t, m.RecordedBy).Nil()

	_, err = fathom.DecodeMeeting(json.RawMessage(`"not an object"`), fetched)
	gt.Error(t, err)
}

func TestDecodeMeeting_UndatedUsesFetchTime(t *testing.T) {
	fetched := time.Date(2026, 6, 3, 9, 0, 0, 0, time.UTC)
	m, err := fathom.DecodeMeeting(json.RawMessage(`{"id": "abc", "title": "Undated", "duration_minutes": 15}`), fetched)
	gt.NoError(t, err).Required()
	gt.Bool(t, m.StartedAt.Equal(fetched)).True()
	gt.Number(t, m.DurationMinutes).Equal(15)
}
