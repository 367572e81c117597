package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/prometheus/client_golang/prometheus"
	server "github.com/secmon-lab/meetlink/pkg/controller/http"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/secmon-lab/meetlink/pkg/repository/memory"
	"github.com/secmon-lab/meetlink/pkg/usecase"
	"github.com/secmon-lab/meetlink/pkg/utils/metrics"
)

type fixture struct {
	repo    *memory.Memory
	srv     *server.Server
	call    *model.Call
	contact *model.Contact
	item    *model.ActionItem
}

func setup(t *testing.T, opts ...server.Options) *fixture {
	t.Helper()
	ctx := context.Background()
	repo := memory.New()

	call, err := repo.Call().Create(ctx, &model.Call{
		RecordingID: "rec-1",
		Title:       "Quarterly planning",
		CallDate:    time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		NeedsReview: true,
	})
	gt.NoError(t, err).Required()
	_, err = repo.Call().Create(ctx, &model.Call{
		RecordingID: "rec-2",
		Title:       "Weekly sync",
		CallDate:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	gt.NoError(t, err).Required()

	contact, err := repo.Contact().Create(ctx, &model.Contact{Name: "Jane Doe", Email: "jane@acme.com", Status: types.PipelineStatusNew})
	gt.NoError(t, err).Required()
	item, err := repo.ActionItem().Create(ctx, &model.ActionItem{CallID: call.ID, Description: "Send proposal"})
	gt.NoError(t, err).Required()

	uc := usecase.New(repo)
	opts = append([]server.Options{server.WithReview(uc.Review)}, opts...)

	return &fixture{
		repo:    repo,
		srv:     server.New(opts...),
		call:    call,
		contact: contact,
		item:    item,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &out)).Required()
	return out
}

func TestHealth(t *testing.T) {
	f := setup(t)
	w := f.do(t, http.MethodGet, "/health", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Value(t, w.Body.String()).Equal("ok")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewSync(reg)
	gt.NoError(t, err).Required()
	m.ObserveRun("manual", "completed", time.Second)

	f := setup(t, server.WithMetrics(reg))
	w := f.do(t, http.MethodGet, "/metrics", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.String(t, w.Body.String()).Contains("meetlink_sync_runs_total")
}

func TestListCalls(t *testing.T) {
	f := setup(t)

	w := f.do(t, http.MethodGet, "/api/calls", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Array(t, decode(t, w)["calls"].([]any)).Length(2)

	w = f.do(t, http.MethodGet, "/api/calls?filter=needs_review", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	calls := decode(t, w)["calls"].([]any)
	gt.Array(t, calls).Length(1)
	gt.Value(t, calls[0].(map[string]any)["recording_id"]).Equal("rec-1")

	w = f.do(t, http.MethodGet, "/api/calls?limit=1&offset=1", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	calls = decode(t, w)["calls"].([]any)
	gt.Array(t, calls).Length(1)
	gt.Value(t, calls[0].(map[string]any)["recording_id"]).Equal("rec-2")

	gt.Value(t, f.do(t, http.MethodGet, "/api/calls?filter=bogus", "").Code).Equal(http.StatusBadRequest)
	gt.Value(t, f.do(t, http.MethodGet, "/api/calls?limit=-1", "").Code).Equal(http.StatusBadRequest)
}

func TestLinkContact(t *testing.T) {
	f := setup(t)

	w := f.do(t, http.MethodPost, "/api/calls/"+string(f.call.ID)+"/link", `{"contact_id":"`+string(f.contact.ID)+`"}`)
	gt.Value(t, w.Code).Equal(http.StatusOK)
	resp := decode(t, w)
	gt.Value(t, resp["match_confidence"]).Equal("manual")
	gt.Value(t, resp["needs_review"]).Equal(false)

	w = f.do(t, http.MethodGet, "/api/calls/"+string(f.call.ID), "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	detail := decode(t, w)
	gt.Value(t, detail["contact"].(map[string]any)["name"]).Equal("Jane Doe")
	gt.Array(t, detail["participants"].([]any)).Length(1)
	gt.Array(t, detail["action_items"].([]any)).Length(1)

	gt.Value(t, f.do(t, http.MethodPost, "/api/calls/"+string(f.call.ID)+"/link", `{}`).Code).Equal(http.StatusBadRequest)
	gt.Value(t, f.do(t, http.MethodPost, "/api/calls/"+string(f.call.ID)+"/link", `{"contact_id":"missing"}`).Code).Equal(http.StatusNotFound)
	gt.Value(t, f.do(t, http.MethodPost, "/api/calls/missing/link", `{"contact_id":"`+string(f.contact.ID)+`"}`).Code).Equal(http.StatusNotFound)
	gt.Value(t, f.do(t, http.MethodPost, "/api/calls/"+string(f.call.ID)+"/link", `{"contact":1}`).Code).Equal(http.StatusBadRequest)
}

func TestSetNeedsReview(t *testing.T) {
	f := setup(t)

	w := f.do(t, http.MethodPost, "/api/calls/"+string(f.call.ID)+"/review", `{"needs_review":false}`)
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Value(t, decode(t, w)["needs_review"]).Equal(false)

	gt.Value(t, f.do(t, http.MethodPost, "/api/calls/"+string(f.call.ID)+"/review", "").Code).Equal(http.StatusBadRequest)
}

func TestActionItems(t *testing.T) {
	f := setup(t)

	w := f.do(t, http.MethodGet, "/api/action-items", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Array(t, decode(t, w)["action_items"].([]any)).Length(1)

	w = f.do(t, http.MethodPost, "/api/action-items/"+string(f.item.ID)+"/complete", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Value(t, decode(t, w)["completed"]).Equal(true)

	w = f.do(t, http.MethodGet, "/api/action-items", "")
	gt.Array(t, decode(t, w)["action_items"].([]any)).Length(0)

	w = f.do(t, http.MethodGet, "/api/calls/"+string(f.call.ID)+"/action-items", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.Array(t, decode(t, w)["action_items"].([]any)).Length(1)

	w = f.do(t, http.MethodPost, "/api/action-items/"+string(f.item.ID)+"/complete", `{"completed":false}`)
	gt.Value(t, decode(t, w)["completed"]).Equal(false)

	gt.Value(t, f.do(t, http.MethodPost, "/api/action-items/missing/complete", "").Code).Equal(http.StatusNotFound)
}

func TestSyncLogs(t *testing.T) {
	f := setup(t)
	_, err := f.repo.SyncLog().Create(context.Background(), &model.SyncLog{
		SyncType:  types.SyncTypeScheduled,
		Status:    types.SyncStatusStarted,
		StartedAt: time.Now(),
	})
	gt.NoError(t, err).Required()

	w := f.do(t, http.MethodGet, "/api/sync-logs", "")
	gt.Value(t, w.Code).Equal(http.StatusOK)
	logs := decode(t, w)["sync_logs"].([]any)
	gt.Array(t, logs).Length(1)
	gt.Value(t, logs[0].(map[string]any)["status"]).Equal("started")
	gt.Array(t, logs[0].(map[string]any)["errors"].([]any)).Length(0)
}

type recordingSync struct {
	mu    sync.Mutex
	input []usecase.SyncInput
	done  chan struct{}
}

func (r *recordingSync) Sync(ctx context.Context, in usecase.SyncInput) (*model.SyncStats, error) {
	r.mu.Lock()
	r.input = append(r.input, in)
	r.mu.Unlock()
	close(r.done)
	return &model.SyncStats{}, nil
}

func TestTriggerSync(t *testing.T) {
	rec := &recordingSync{done: make(chan struct{})}
	f := setup(t, server.WithSync(rec))
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	f.srv.SetNow(func() time.Time { return now })

	w := f.do(t, http.MethodPost, "/api/sync?since=24h", "")
	gt.Value(t, w.Code).Equal(http.StatusAccepted)

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("sync was not dispatched")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	gt.Array(t, rec.input).Length(1)
	gt.Value(t, rec.input[0].SyncType).Equal(types.SyncTypeManual)
	gt.Value(t, rec.input[0].Since).Equal(now.Add(-24 * time.Hour))

	gt.Value(t, f.do(t, http.MethodPost, "/api/sync?since=yesterday", "").Code).Equal(http.StatusBadRequest)
}

func TestTokenAuth(t *testing.T) {
	f := setup(t, server.WithAPIToken("secret-token"))

	gt.Value(t, f.do(t, http.MethodGet, "/api/calls", "").Code).Equal(http.StatusUnauthorized)
	gt.Value(t, f.do(t, http.MethodGet, "/api/calls", "", "Authorization", "Bearer wrong").Code).Equal(http.StatusUnauthorized)
	gt.Value(t, f.do(t, http.MethodGet, "/api/calls", "", "Authorization", "Bearer secret-token").Code).Equal(http.StatusOK)

	// health stays public
	gt.Value(t, f.do(t, http.MethodGet, "/health", "").Code).Equal(http.StatusOK)
}
