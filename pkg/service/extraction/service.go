package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
)

const (
	// TranscriptExcerptLength is the number of transcript runes sent to the LLM
	TranscriptExcerptLength = 2000

	DefaultTimeout = 30 * time.Second
)

type client struct {
	llmClient gollem.LLMClient
	timeout   time.Duration
}

type Option func(*client)

// WithTimeout bounds one extraction call
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.timeout = d
	}
}

// New creates an extraction service backed by llmClient
func New(llmClient gollem.LLMClient, opts ...Option) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &client{
		llmClient: llmClient,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *client) Extract(ctx context.Context, input Input) (*model.Extraction, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(responseSchema()),
		gollem.WithSessionSystemPrompt(buildSystemPrompt(input.OwnerName)),
	)
	if err != nil {
		return nil, goerr.Wrap(ErrExtractionFailed, "failed to create LLM session", goerr.V("error", err.Error()))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(buildUserPrompt(input)))
	if err != nil {
		return nil, goerr.Wrap(ErrExtractionFailed, "failed to generate content from LLM",
			goerr.V("title", input.Title), goerr.V("error", err.Error()))
	}
	if resp == nil || len(resp.Texts) == 0 {
		return nil, goerr.Wrap(ErrExtractionFailed, "LLM returned no content", goerr.V("title", input.Title))
	}

	content := StripCodeFence(strings.Join(resp.Texts, ""))
	var out llmResponse
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, goerr.Wrap(ErrExtractionFailed, "failed to parse LLM response",
			goerr.V("response", content), goerr.V("error", err.Error()))
	}

	return &model.Extraction{
		FullName:         deref(out.FullName),
		Company:          deref(out.Company),
		Email:            model.NormalizeEmail(deref(out.Email)),
		RelationshipType: types.ParseRelationshipType(out.RelationshipType),
		Confidence:       types.ParseExtractionConfidence(out.Confidence),
		Reasoning:        strings.TrimSpace(out.Reasoning),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if strings.EqualFold(v, "null") {
		return ""
	}
	return v
}

var (
	fenceOpen  = regexp.MustCompile("^```[a-zA-Z]*\\s*\\n?")
	fenceClose = regexp.MustCompile("\\n?\\s*```\\s*$")
)

// StripCodeFence unwraps content delivered inside a markdown code block
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = fenceOpen.ReplaceAllString(content, "")
	content = fenceClose.ReplaceAllString(content, "")
	return strings.TrimSpace(content)
}

func buildSystemPrompt(ownerName string) string {
	var sb strings.Builder

	sb.WriteString("You analyze recorded business meetings and identify the external participant.\n\n")
	sb.WriteString("## Classification rules:\n\n")
	sb.WriteString("- client: evidence of an ongoing business relationship, past work together, active projects, invoices or payments\n")
	sb.WriteString("- prospect: discovery call, sales conversation, evaluating services, no prior work history\n")
	sb.WriteString("- unknown: cannot determine from context\n\n")
	sb.WriteString("## Output:\n\n")
	sb.WriteString("Use null for full_name, company or email when the meeting does not reveal it.\n")
	sb.WriteString("Report confidence high only when the full name of the external participant is stated explicitly.\n")
	if ownerName != "" {
		fmt.Fprintf(&sb, "The meeting owner is %s. Never return the owner as the external participant.\n", ownerName)
	}

	return sb.String()
}

func buildUserPrompt(input Input) string {
	var sb strings.Builder

	summary := strings.TrimSpace(input.Summary)
	if summary == "" {
		summary = "No summary available"
	}
	emails := "None"
	if len(input.InviteeEmails) > 0 {
		emails = strings.Join(input.InviteeEmails, ", ")
	}

	sb.WriteString("Analyze this meeting and extract contact information.\n\n")
	fmt.Fprintf(&sb, "Meeting Title: %s\n", input.Title)
	fmt.Fprintf(&sb, "Summary: %s\n", summary)
	fmt.Fprintf(&sb, "Transcript Excerpt: %s\n", model.TruncateRunes(input.Transcript, TranscriptExcerptLength))
	fmt.Fprintf(&sb, "Invitee Emails: %s\n", emails)

	return sb.String()
}

func responseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "MeetingContactExtraction",
		Description: "Identity of the external participant of a meeting",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"full_name": {
				Type:        gollem.TypeString,
				Description: "Full name of the external participant, or null",
			},
			"company": {
				Type:        gollem.TypeString,
				Description: "Company of the external participant, or null",
			},
			"email": {
				Type:        gollem.TypeString,
				Description: "Email of the external participant, or null",
			},
			"relationship_type": {
				Type:        gollem.TypeString,
				Description: "Relationship with the meeting owner",
				Enum:        []string{"client", "prospect", "unknown"},
			},
			"confidence": {
				Type:        gollem.TypeString,
				Description: "Confidence in the extracted identity",
				Enum:        []string{"high", "medium", "low"},
			},
			"reasoning": {
				Type:        gollem.TypeString,
				Description: "Brief explanation",
			},
		},
		Required: []string{"relationship_type", "confidence", "reasoning"},
	}
}
