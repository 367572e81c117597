package matching

import (
	"strings"

	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
)

// Exclusion decides which emails belong to the owner's side of a meeting
type Exclusion interface {
	IsExcluded(email string) bool
}

// Organizer identifies the person who recorded the meeting
type Organizer struct {
	Name  string
	Email string
}

// Participant is a deduplicated external participant of a meeting
type Participant struct {
	Name   string
	Email  string
	Source types.ParticipantSource
}

func excluded(email string, organizer Organizer, ex Exclusion) bool {
	if email == "" {
		return false
	}
	if organizer.Email != "" && email == model.NormalizeEmail(organizer.Email) {
		return true
	}
	return ex != nil && ex.IsExcluded(email)
}

// ExtractParticipants collects the external participants of m from its attendee lists in
// precedence order, the recorded-by identity and one speaker inferred from the transcript.
// Entries are deduplicated by lowercased email, or by normalized name when they have no email.
func ExtractParticipants(m *model.Meeting, organizer Organizer, ex Exclusion) []Participant {
	var out []Participant
	seenEmail := make(map[string]struct{})
	seenName := make(map[string]struct{})

	add := func(name, email string, source types.ParticipantSource) {
		name = NormalizeName(name)
		email = model.NormalizeEmail(email)
		if name == "" && email == "" {
			return
		}
		if excluded(email, organizer, ex) {
			return
		}

		if email != "" {
			if _, ok := seenEmail[email]; ok {
				return
			}
			seenEmail[email] = struct{}{}
		} else {
			if _, ok := seenName[strings.ToLower(name)]; ok {
				return
			}
		}
		if name != "" {
			seenName[strings.ToLower(name)] = struct{}{}
		}

		out = append(out, Participant{Name: name, Email: email, Source: source})
	}

	for _, list := range m.AttendeeLists {
		for _, inv := range list.Entries {
			add(inv.Name, inv.Email, list.Source)
		}
	}

	if m.RecordedBy != nil {
		add(m.RecordedBy.Name, m.RecordedBy.Email, types.ParticipantSourceOrganizer)
	}

	if name := InferSpeakerName(m.Transcript, organizer.Name); name != "" {
		add(name, "", types.ParticipantSourceTranscript)
	}

	return out
}

// ExternalInvitees narrows invitees to the external side. When any invitee carries an
// external marker only marked ones are kept; otherwise every non-excluded invitee with an
// email is kept. The result is deduplicated by email.
func ExternalInvitees(invitees []model.Invitee, organizer Organizer, ex Exclusion) []model.Invitee {
	marked := false
	for _, inv := range invitees {
		if inv.IsExternal != nil {
			marked = true
			break
		}
	}

	var out []model.Invitee
	seen := make(map[string]struct{})
	for _, inv := range invitees {
		email := model.NormalizeEmail(inv.Email)
		if excluded(email, organizer, ex) {
			continue
		}

		if marked {
			if inv.IsExternal == nil || !*inv.IsExternal {
				continue
			}
		} else if email == "" {
			continue
		}

		key := email
		if key == "" {
			key = "name:" + NameKey(inv.Name)
			if key == "name:" {
				continue
			}
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, model.Invitee{
			Name:       NormalizeName(inv.Name),
			Email:      email,
			IsExternal: inv.IsExternal,
		})
	}

	return out
}
