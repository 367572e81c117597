package types

// ParticipantSource tells where a call participant was discovered
type ParticipantSource string

const (
	ParticipantSourceCalendarInvitee ParticipantSource = "calendar_invitee"
	ParticipantSourceAttendee        ParticipantSource = "attendee"
	ParticipantSourceInvitee         ParticipantSource = "invitee"
	ParticipantSourceParticipant     ParticipantSource = "participant"
	ParticipantSourceOrganizer       ParticipantSource = "organizer"
	ParticipantSourceTranscript      ParticipantSource = "transcript"
	ParticipantSourceTitle           ParticipantSource = "title"
	ParticipantSourceLLM             ParticipantSource = "llm"
	ParticipantSourceManual          ParticipantSource = "manual"
)

func (s ParticipantSource) String() string {
	return string(s)
}
