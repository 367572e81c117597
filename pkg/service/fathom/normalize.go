package fathom

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
)

// attendeeFields lists the payload fields holding attendees, in precedence order
var attendeeFields = []struct {
	key    string
	source types.ParticipantSource
}{
	{"calendar_invitees", types.ParticipantSourceCalendarInvitee},
	{"attendees", types.ParticipantSourceAttendee},
	{"invitees", types.ParticipantSourceInvitee},
	{"participants", types.ParticipantSourceParticipant},
}

type object map[string]any

// decodeMeeting normalizes one meeting item. A meeting without any start or creation time is
// dated fetchedAt.
func decodeMeeting(raw json.RawMessage, fetchedAt time.Time) (*model.Meeting, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj object
	if err := dec.Decode(&obj); err != nil {
		return nil, goerr.Wrap(err, "meeting is not a JSON object")
	}

	nested, _ := obj["meeting"].(map[string]any)

	m := &model.Meeting{
		RecordingID: obj.scalar("recording_id", "id"),
		Title:       obj.str("title", "meeting_title"),
		Summary:     summaryOf(obj),
		Transcript:  transcriptOf(obj["transcript"]),
		RecordedBy:  personOf(obj["recorded_by"]),
		ActionItems: actionItemsOf(obj["action_items"]),
		RawPayload:  append([]byte(nil), raw...),
	}
	if m.Title == "" && nested != nil {
		m.Title = object(nested).str("title", "meeting_title")
	}

	start, end := obj.times()
	m.DurationMinutes = obj.durationMinutes(start, end)
	if start.IsZero() {
		start = fetchedAt
	}
	m.StartedAt = start

	for _, src := range []object{obj, object(nested)} {
		if src == nil {
			continue
		}
		for _, f := range attendeeFields {
			entries := inviteesOf(src[f.key])
			if len(entries) == 0 {
				continue
			}
			m.AttendeeLists = append(m.AttendeeLists, model.AttendeeList{Source: f.source, Entries: entries})
		}
	}

	return m, nil
}

// str returns the first non-empty string value among keys
func (o object) str(keys ...string) string {
	for _, k := range keys {
		if s, ok := o[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// scalar is str that also accepts numbers
func (o object) scalar(keys ...string) string {
	for _, k := range keys {
		switch v := o[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func (o object) number(keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := o[k].(type) {
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func (o object) times() (time.Time, time.Time) {
	start := parseTime(o.str("recording_start_time", "scheduled_start_time", "start_time", "created_at"))
	end := parseTime(o.str("recording_end_time", "scheduled_end_time", "end_time"))
	return start, end
}

func (o object) durationMinutes(start, end time.Time) int {
	if d, ok := o.number("duration_minutes", "duration"); ok && d > 0 {
		return int(math.Round(d))
	}
	if !start.IsZero() && end.After(start) {
		return int(math.Round(end.Sub(start).Minutes()))
	}
	return 0
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func summaryOf(o object) string {
	switch v := o["summary"].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	case map[string]any:
		if s := object(v).str("markdown_formatted", "text"); s != "" {
			return s
		}
	}
	if ds, ok := o["default_summary"].(map[string]any); ok {
		return object(ds).str("markdown_formatted", "text")
	}
	return ""
}

// transcriptOf renders structured transcripts as "Speaker: text" lines
func transcriptOf(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		var lines []string
		for _, seg := range t {
			s, ok := seg.(map[string]any)
			if !ok {
				continue
			}
			text := object(s).str("text")
			if text == "" {
				continue
			}
			speaker := ""
			switch sp := s["speaker"].(type) {
			case string:
				speaker = strings.TrimSpace(sp)
			case map[string]any:
				speaker = object(sp).str("display_name", "name")
			}
			if speaker == "" {
				lines = append(lines, text)
				continue
			}
			lines = append(lines, speaker+": "+text)
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

func personOf(v any) *model.Invitee {
	switch p := v.(type) {
	case string:
		p = strings.TrimSpace(p)
		if p == "" {
			return nil
		}
		if strings.Contains(p, "@") {
			return &model.Invitee{Email: p}
		}
		return &model.Invitee{Name: p}
	case map[string]any:
		o := object(p)
		inv := &model.Invitee{
			Name:  o.str("name", "display_name", "full_name"),
			Email: o.str("email", "email_address"),
		}
		if ext, ok := o["is_external"].(bool); ok {
			inv.IsExternal = &ext
		}
		if inv.Name == "" && inv.Email == "" {
			return nil
		}
		return inv
	}
	return nil
}

func inviteesOf(v any) []model.Invitee {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []model.Invitee
	for _, item := range list {
		if inv := personOf(item); inv != nil {
			out = append(out, *inv)
		}
	}
	return out
}

func actionItemsOf(v any) []model.MeetingActionItem {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []model.MeetingActionItem
	for _, item := range list {
		switch a := item.(type) {
		case string:
			if s := strings.TrimSpace(a); s != "" {
				out = append(out, model.MeetingActionItem{Description: s})
			}
		case map[string]any:
			o := object(a)
			desc := o.str("description", "text")
			if desc == "" {
				continue
			}
			ai := model.MeetingActionItem{Description: desc}
			switch as := o["assignee"].(type) {
			case string:
				ai.Assignee = strings.TrimSpace(as)
			case map[string]any:
				ai.Assignee = object(as).str("name", "email")
			}
			if done, ok := o["completed"].(bool); ok {
				ai.Completed = done
			}
			out = append(out, ai)
		}
	}
	return out
}
