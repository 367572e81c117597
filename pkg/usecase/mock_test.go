package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/service/extraction"
	goslack "github.com/slack-go/slack"
)

type mockSource struct {
	meetings []*model.Meeting
	err      error
	calls    int
	since    []time.Time
}

func (m *mockSource) FetchMeetings(ctx context.Context, since time.Time) ([]*model.Meeting, error) {
	m.calls++
	m.since = append(m.since, since)
	if m.err != nil {
		return nil, m.err
	}
	return m.meetings, nil
}

type mockExtractor struct {
	result *model.Extraction
	err    error
	inputs []extraction.Input
}

func (m *mockExtractor) Extract(ctx context.Context, in extraction.Input) (*model.Extraction, error) {
	m.inputs = append(m.inputs, in)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type postedMessage struct {
	channelID string
	blocks    []goslack.Block
	text      string
}

type mockSlack struct {
	mu       sync.Mutex
	messages []postedMessage
	err      error
}

func (m *mockSlack) PostMessage(ctx context.Context, channelID string, blocks []goslack.Block, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.messages = append(m.messages, postedMessage{channelID: channelID, blocks: blocks, text: text})
	return "1700000000.000100", nil
}

type mockArchive struct {
	puts map[string][]byte
	err  error
}

func (m *mockArchive) Put(ctx context.Context, recordingID string, payload []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.puts == nil {
		m.puts = make(map[string][]byte)
	}
	m.puts[recordingID] = payload
	return "gs://test-bucket/fathom/" + recordingID + ".json", nil
}

// racingRepository simulates another run inserting the same contact between lookup and insert
type racingRepository struct {
	interfaces.Repository
	contacts *racingContacts
}

func (r *racingRepository) Contact() interfaces.ContactRepository {
	return r.contacts
}

type racingContacts struct {
	interfaces.ContactRepository
	raced int
}

func (r *racingContacts) Create(ctx context.Context, contact *model.Contact) (*model.Contact, error) {
	if contact.Email != "" {
		if _, err := r.ContactRepository.Create(ctx, &model.Contact{
			Name:  "Concurrent Run",
			Email: contact.Email,
		}); err == nil {
			r.raced++
		}
	}
	return r.ContactRepository.Create(ctx, contact)
}

// racingCallRepository simulates another run ingesting the same recording between lookup and insert
type racingCallRepository struct {
	interfaces.Repository
	calls *racingCalls
}

func (r *racingCallRepository) Call() interfaces.CallRepository {
	return r.calls
}

type racingCalls struct {
	interfaces.CallRepository
	raced int
}

func (r *racingCalls) Create(ctx context.Context, call *model.Call) (*model.Call, error) {
	if _, err := r.CallRepository.Create(ctx, &model.Call{
		RecordingID: call.RecordingID,
		Title:       "Concurrent Run",
		CallDate:    call.CallDate,
	}); err == nil {
		r.raced++
	}
	return r.CallRepository.Create(ctx, call)
}

func ptr[T any](v T) *T {
	return &v
}
