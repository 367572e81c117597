package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/model/config"
	"github.com/secmon-lab/meetlink/pkg/domain/model/matching"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/secmon-lab/meetlink/pkg/service/extraction"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
)

// Strategy names, also used as metric labels
const (
	StrategyEmail      = "invitee_email"
	StrategyTitleName  = "title_name"
	StrategyCompany    = "title_company"
	StrategyInvitee    = "single_external_invitee"
	StrategyTranscript = "transcript_speaker"
	StrategyTitle      = "title_derived"
	StrategyLLM        = "llm"
	StrategyCatchAll   = "catch_all"
)

// MatchInput is everything the strategies know about one meeting
type MatchInput struct {
	Meeting   *model.Meeting
	Organizer matching.Organizer
	// Candidates are the title-parsed names in pattern order
	Candidates   []string
	Participants []matching.Participant
	// External is the narrowed invitee set used by the single external invitee heuristic
	External       []model.Invitee
	TranscriptName string
}

// NewMatchInput derives the matching context of m
func NewMatchInput(m *model.Meeting, engine *config.Engine) *MatchInput {
	organizer := matching.Organizer{Name: engine.OwnerName, Email: engine.OwnerEmail}
	if m.RecordedBy != nil {
		if organizer.Name == "" {
			organizer.Name = m.RecordedBy.Name
		}
		if m.RecordedBy.Email != "" {
			organizer.Email = m.RecordedBy.Email
		}
	}

	return &MatchInput{
		Meeting:        m,
		Organizer:      organizer,
		Candidates:     matching.ParseCandidateNames(m.Title),
		Participants:   matching.ExtractParticipants(m, organizer, engine),
		External:       matching.ExternalInvitees(m.Invitees(), organizer, engine),
		TranscriptName: matching.InferSpeakerName(m.Transcript, organizer.Name),
	}
}

// Resolution is the outcome of a strategy. A nil resolution means the strategy did not apply.
type Resolution struct {
	Strategy    string
	Contact     *model.Contact
	Confidence  types.MatchConfidence
	Source      types.ParticipantSource
	Created     bool
	NeedsReview bool
	Extraction  *model.Extraction
}

// MatchStrategy is one step of the matching cascade
type MatchStrategy interface {
	Name() string
	Attempt(ctx context.Context, in *MatchInput) (*Resolution, error)
}

// Cascade tries strategies in order and stops at the first one that links a contact or
// flags the meeting for review
type Cascade struct {
	strategies []MatchStrategy
}

func NewCascade(strategies ...MatchStrategy) *Cascade {
	return &Cascade{strategies: strategies}
}

// Resolve never returns a nil resolution. A meeting no strategy resolved is flagged for review.
func (c *Cascade) Resolve(ctx context.Context, in *MatchInput) (*Resolution, error) {
	logger := logging.From(ctx)

	for _, s := range c.strategies {
		res, err := s.Attempt(ctx, in)
		if err != nil {
			return nil, goerr.Wrap(err, "match strategy failed", goerr.V("strategy", s.Name()))
		}
		if res == nil || (res.Contact == nil && !res.NeedsReview) {
			continue
		}
		res.Strategy = s.Name()
		logger.Debug("meeting resolved",
			"strategy", res.Strategy,
			"confidence", res.Confidence,
			"needs_review", res.NeedsReview,
			"title", in.Meeting.Title,
		)
		return res, nil
	}

	return &Resolution{Strategy: StrategyCatchAll, NeedsReview: true}, nil
}

// DefaultStrategies is the production cascade. An exact email identity outranks title hints.
func DefaultStrategies(repo interfaces.Repository, contacts *ContactUseCase, extractor extraction.Service, engine *config.Engine) []MatchStrategy {
	return []MatchStrategy{
		&emailMatch{repo: repo},
		&titleNameMatch{repo: repo},
		&companyMatch{repo: repo},
		&singleInviteeCreate{contacts: contacts},
		&transcriptCreate{contacts: contacts},
		&titleCreate{contacts: contacts},
		&llmFallback{contacts: contacts, extractor: extractor, ownerName: engine.OwnerName},
	}
}

type emailMatch struct {
	repo interfaces.Repository
}

func (s *emailMatch) Name() string { return StrategyEmail }

func (s *emailMatch) Attempt(ctx context.Context, in *MatchInput) (*Resolution, error) {
	for _, p := range in.Participants {
		if p.Email == "" {
			continue
		}
		found, err := s.repo.Contact().GetByEmail(ctx, p.Email)
		if errors.Is(err, interfaces.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to match invitee email", goerr.V("email", p.Email))
		}
		return &Resolution{Contact: found, Confidence: types.MatchConfidenceHigh, Source: p.Source}, nil
	}
	return nil, nil
}

// uniqueHit returns the first candidate whose search yields exactly one contact
func uniqueHit(ctx context.Context, candidates []string, search func(context.Context, string) ([]*model.Contact, error)) (*model.Contact, error) {
	for _, cand := range candidates {
		found, err := search(ctx, cand)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to search contacts", goerr.V("candidate", cand))
		}
		if len(found) == 1 {
			return found[0], nil
		}
	}
	return nil, nil
}

type titleNameMatch struct {
	repo interfaces.Repository
}

func (s *titleNameMatch) Name() string { return StrategyTitleName }

func (s *titleNameMatch) Attempt(ctx context.Context, in *MatchInput) (*Resolution, error) {
	found, err := uniqueHit(ctx, in.Candidates, s.repo.Contact().SearchByName)
	if err != nil || found == nil {
		return nil, err
	}
	return &Resolution{Contact: found, Confidence: types.MatchConfidenceHigh, Source: types.ParticipantSourceTitle}, nil
}

type companyMatch struct {
	repo interfaces.Repository
}

func (s *companyMatch) Name() string { return StrategyCompany }

func (s *companyMatch) Attempt(ctx context.Context, in *MatchInput) (*Resolution, error) {
	found, err := uniqueHit(ctx, in.Candidates, s.repo.Contact().SearchByCompany)
	if err != nil || found == nil {
		return nil, err
	}
	return &Resolution{Contact: found, Confidence: types.MatchConfidenceMedium, Source: types.ParticipantSourceTitle}, nil
}

func provenanceNote(reason string) string {
	return fmt.Sprintf("Auto-created from Fathom call (%s).", reason)
}

type singleInviteeCreate struct {
	contacts *ContactUseCase
}

func (s *singleInviteeCreate) Name() string { return StrategyInvitee }

func (s *singleInviteeCreate) Attempt(ctx context.Context, in *MatchInput) (*Resolution, error) {
	if len(in.External) != 1 {
		return nil, nil
	}
	inv := in.External[0]

	contact, created, err := s.contacts.ResolveOrCreate(ctx, ContactCandidate{Name: inv.Name, Email: inv.Email},
		provenanceNote("single external invitee"))
	if errors.Is(err, ErrEmptyCandidate) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Resolution{Contact: contact, Created: created, Confidence: types.MatchConfidenceAutoInvitee, Source: types.ParticipantSourceInvitee}, nil
}

type transcriptCreate struct {
	contacts *ContactUseCase
}

func (s *transcriptCreate) Name() string { return StrategyTranscript }

func (s *transcriptCreate) Attempt(ctx context.Context, in *MatchInput) (*Resolution, error) {
	if in.TranscriptName == "" {
		return nil, nil
	}

	contact, created, err := s.contacts.ResolveOrCreate(ctx, ContactCandidate{Name: in.TranscriptName},
		provenanceNote("speaker inferred from transcript"))
	if errors.Is(err, ErrEmptyCandidate) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Resolution{Contact: contact, Created: created, Confidence: types.MatchConfidenceAutoTranscript, Source: types.ParticipantSourceTranscript}, nil
}

type titleCreate struct {
	contacts *ContactUseCase
}

func (s *titleCreate) Name() string { return StrategyTitle }

func (s *titleCreate) Attempt(ctx context.Context, in *MatchInput) (*Resolution, error) {
	candidates := matching.ExcludeOrganizer(in.Candidates, in.Organizer.Name)
	if len(candidates) != 1 {
		return nil, nil
	}

	contact, created, err := s.contacts.ResolveOrCreate(ctx, ContactCandidate{Name: candidates[0]},
		provenanceNote("name derived from meeting title"))
	if errors.Is(err, ErrEmptyCandidate) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &Resolution{Contact: contact, Created: created, Confidence: types.MatchConfidenceAutoTitle, Source: types.ParticipantSourceTitle}, nil
}

type llmFallback struct {
	contacts  *ContactUseCase
	extractor extraction.Service
	ownerName string
}

func (s *llmFallback) Name() string { return StrategyLLM }

func (s *llmFallback) Attempt(ctx context.Context, in *MatchInput) (*Resolution, error) {
	if s.extractor == nil {
		return &Resolution{NeedsReview: true}, nil
	}

	m := in.Meeting
	ext, err := s.extractor.Extract(ctx, extraction.Input{
		Title:         m.Title,
		Summary:       m.Summary,
		Transcript:    m.Transcript,
		InviteeEmails: m.InviteeEmails(),
		OwnerName:     s.ownerName,
	})
	if err != nil {
		logging.From(ctx).Warn("LLM extraction failed, meeting flagged for review",
			"title", m.Title, "recording_id", m.RecordingID, "error", err.Error())
		return &Resolution{NeedsReview: true}, nil
	}

	if !ext.CanCreateContact() {
		return &Resolution{NeedsReview: true, Extraction: ext}, nil
	}

	reasoning := ext.Reasoning
	if reasoning == "" {
		reasoning = "N/A"
	}
	contact, created, err := s.contacts.ResolveOrCreate(ctx, ContactCandidate{
		Name:    ext.FullName,
		Email:   ext.Email,
		Company: ext.Company,
		Status:  ext.RelationshipType.PipelineStatus(),
	}, "Auto-created from Fathom call. LLM reasoning: "+reasoning)
	if errors.Is(err, ErrEmptyCandidate) {
		return &Resolution{NeedsReview: true, Extraction: ext}, nil
	}
	if err != nil {
		return nil, err
	}

	return &Resolution{
		Contact:    contact,
		Created:    created,
		Confidence: types.MatchConfidenceLLMHigh,
		Source:     types.ParticipantSourceLLM,
		Extraction: ext,
	}, nil
}
