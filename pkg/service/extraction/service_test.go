package extraction_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/secmon-lab/meetlink/pkg/service/extraction"
)

type mockSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	return s.generateContentFn(ctx, input...)
}

func (s *mockSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

type mockLLMClient struct {
	session    *mockSession
	sessionErr error
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.sessionErr != nil {
		return nil, c.sessionErr
	}
	return c.session, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

func replyWith(text string, prompts *[]string) *mockSession {
	return &mockSession{
		generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
			for _, in := range input {
				if txt, ok := in.(gollem.Text); ok && prompts != nil {
					*prompts = append(*prompts, string(txt))
				}
			}
			return &gollem.Response{Texts: []string{text}}, nil
		},
	}
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := extraction.New(nil)
	gt.Error(t, err)
}

func TestExtract(t *testing.T) {
	t.Run("parses fenced JSON and normalizes fields", func(t *testing.T) {
		var prompts []string
		llm := &mockLLMClient{session: replyWith("```json\n{\"full_name\":\"Jane Doe\",\"company\":\"Acme\",\"email\":\"Jane@Acme.com\",\"relationship_type\":\"Prospect\",\"confidence\":\"HIGH\",\"reasoning\":\"introduced herself\"}\n```", &prompts)}
		svc, err := extraction.New(llm)
		gt.NoError(t, err).Required()

		got, err := svc.Extract(context.Background(), extraction.Input{
			Title:         "Intro",
			Transcript:    strings.Repeat("x", 3000),
			InviteeEmails: []string{"jane@acme.com"},
			OwnerName:     "Owner Person",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, got.FullName).Equal("Jane Doe")
		gt.Value(t, got.Email).Equal("jane@acme.com")
		gt.Value(t, got.RelationshipType).Equal(types.RelationshipProspect)
		gt.Value(t, got.Confidence).Equal(types.ExtractionConfidenceHigh)
		gt.Bool(t, got.CanCreateContact()).True()

		gt.Array(t, prompts).Length(1).Required()
		gt.String(t, prompts[0]).Contains("Meeting Title: Intro")
		gt.String(t, prompts[0]).Contains("Summary: No summary available")
		gt.String(t, prompts[0]).Contains("Invitee Emails: jane@acme.com")
		gt.String(t, prompts[0]).Contains(strings.Repeat("x", 2000))
		gt.String(t, prompts[0]).NotContains(strings.Repeat("x", 2001))
	})

	t.Run("null fields become empty", func(t *testing.T) {
		llm := &mockLLMClient{session: replyWith(`{"full_name":null,"company":null,"email":null,"relationship_type":"other","confidence":"unsure","reasoning":"no names"}`, nil)}
		svc, err := extraction.New(llm)
		gt.NoError(t, err).Required()

		got, err := svc.Extract(context.Background(), extraction.Input{Title: "Weekly"})
		gt.NoError(t, err).Required()
		gt.Value(t, got.FullName).Equal("")
		gt.Value(t, got.RelationshipType).Equal(types.RelationshipUnknown)
		gt.Value(t, got.Confidence).Equal(types.ExtractionConfidenceLow)
		gt.Bool(t, got.CanCreateContact()).False()
	})

	t.Run("failures wrap ErrExtractionFailed", func(t *testing.T) {
		testCases := []struct {
			name string
			llm  *mockLLMClient
		}{
			{name: "session error", llm: &mockLLMClient{sessionErr: errors.New("quota")}},
			{name: "invalid json", llm: &mockLLMClient{session: replyWith("not json", nil)}},
			{name: "generate error", llm: &mockLLMClient{session: &mockSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return nil, errors.New("boom")
				},
			}}},
			{name: "empty response", llm: &mockLLMClient{session: &mockSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return &gollem.Response{}, nil
				},
			}}},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				svc, err := extraction.New(tc.llm)
				gt.NoError(t, err).Required()

				_, err = svc.Extract(context.Background(), extraction.Input{Title: "x"})
				gt.Error(t, err)
				gt.Bool(t, errors.Is(err, extraction.ErrExtractionFailed)).True()
			})
		}
	})
}

func TestStripCodeFence(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: `{"a":1}`, want: `{"a":1}`},
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```\n{\"a\":1}```", want: `{"a":1}`},
		{in: "  ```JSON {\"a\":1} ```  ", want: `{"a":1}`},
	}
	for _, tc := range testCases {
		gt.Value(t, extraction.StripCodeFence(tc.in)).Equal(tc.want)
	}
}

func TestExtract_WithRealGemini(t *testing.T) {
	projectID := os.Getenv("TEST_GEMINI_PROJECT")
	if projectID == "" {
		t.Skip("TEST_GEMINI_PROJECT not set")
	}
	location := os.Getenv("TEST_GEMINI_LOCATION")
	if location == "" {
		t.Skip("TEST_GEMINI_LOCATION not set")
	}

	ctx := context.Background()
	llmClient, err := gemini.New(ctx, projectID, location)
	gt.NoError(t, err).Required()

	svc, err := extraction.New(llmClient)
	gt.NoError(t, err).Required()

	got, err := svc.Extract(ctx, extraction.Input{
		Title:      "Discovery call",
		Summary:    "Jane Doe from Acme Corp wants to evaluate our consulting services for the first time.",
		Transcript: "Owner Person: Thanks for joining.\nJane Doe: Happy to be here, I'm Jane Doe, head of ops at Acme Corp.",
		OwnerName:  "Owner Person",
	})
	gt.NoError(t, err).Required()
	gt.String(t, strings.ToLower(got.FullName)).Contains("jane")
	gt.Value(t, got.RelationshipType).Equal(types.RelationshipProspect)
}
