package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/secmon-lab/meetlink/pkg/usecase"
	"github.com/secmon-lab/meetlink/pkg/utils/async"
	"github.com/secmon-lab/meetlink/pkg/utils/errutil"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
	"github.com/secmon-lab/meetlink/pkg/utils/safe"
)

// DefaultSyncWindow is the fetch window of an API triggered sync without "since"
const DefaultSyncWindow = 72 * time.Hour

const maxRequestBody = 64 * 1024

type callResponse struct {
	ID              string                `json:"id"`
	RecordingID     string                `json:"recording_id"`
	Title           string                `json:"title"`
	Summary         string                `json:"summary,omitempty"`
	CallDate        time.Time             `json:"call_date"`
	DurationMinutes int                   `json:"duration_minutes"`
	OrganizerEmail  string                `json:"organizer_email,omitempty"`
	ContactID       string                `json:"contact_id,omitempty"`
	AutoMatched     bool                  `json:"auto_matched"`
	MatchConfidence types.MatchConfidence `json:"match_confidence,omitempty"`
	NeedsReview     bool                  `json:"needs_review"`
	Extraction      *model.Extraction     `json:"extraction,omitempty"`
	RawArchiveURL   string                `json:"raw_archive_url,omitempty"`
}

func toCallResponse(c *model.Call) callResponse {
	return callResponse{
		ID:              string(c.ID),
		RecordingID:     c.RecordingID,
		Title:           c.Title,
		Summary:         c.Summary,
		CallDate:        c.CallDate,
		DurationMinutes: c.DurationMinutes,
		OrganizerEmail:  c.OrganizerEmail,
		ContactID:       string(c.ContactID),
		AutoMatched:     c.AutoMatched,
		MatchConfidence: c.MatchConfidence,
		NeedsReview:     c.NeedsReview,
		Extraction:      c.Extraction,
		RawArchiveURL:   c.RawArchiveURL,
	}
}

type contactResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Company     string               `json:"company,omitempty"`
	Email       string               `json:"email,omitempty"`
	Status      types.PipelineStatus `json:"status"`
	AutoCreated bool                 `json:"auto_created"`
}

type participantResponse struct {
	ContactID string                  `json:"contact_id"`
	Source    types.ParticipantSource `json:"source"`
}

type actionItemResponse struct {
	ID          string     `json:"id"`
	CallID      string     `json:"call_id"`
	Description string     `json:"description"`
	Assignee    string     `json:"assignee,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func toActionItemResponses(items []*model.ActionItem) []actionItemResponse {
	out := make([]actionItemResponse, len(items))
	for i, item := range items {
		out[i] = actionItemResponse{
			ID:          string(item.ID),
			CallID:      string(item.CallID),
			Description: item.Description,
			Assignee:    item.Assignee,
			Completed:   item.Completed,
			CompletedAt: item.CompletedAt,
		}
	}
	return out
}

type syncLogResponse struct {
	ID                string           `json:"id"`
	SyncType          types.SyncType   `json:"sync_type"`
	Status            types.SyncStatus `json:"status"`
	MeetingsProcessed int              `json:"meetings_processed"`
	MeetingsNew       int              `json:"meetings_new"`
	ContactsCreated   int              `json:"contacts_created"`
	NeedsReviewCount  int              `json:"needs_review_count"`
	Errors            []string         `json:"errors"`
	StartedAt         time.Time        `json:"started_at"`
	CompletedAt       *time.Time       `json:"completed_at,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	// an empty body leaves v at its zero value
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return goerr.Wrap(err, "invalid request body")
	}
	return nil
}

// handleError maps use case errors to HTTP status codes
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrCallNotFound),
		errors.Is(err, usecase.ErrContactNotFound),
		errors.Is(err, usecase.ErrActionItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrSyncInProgress):
		status = http.StatusConflict
	}
	errutil.HandleHTTP(ctx, w, err, status)
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, goerr.New("invalid query parameter", goerr.V("key", key), goerr.V("value", v))
	}
	return n, nil
}

func (s *Server) listCallsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := queryInt(r, "limit")
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	opts := []interfaces.ListCallOption{interfaces.WithLimit(limit), interfaces.WithOffset(offset)}
	switch filter := r.URL.Query().Get("filter"); filter {
	case "":
	case "needs_review":
		opts = append(opts, interfaces.WithNeedsReview())
	case "unmatched":
		opts = append(opts, interfaces.WithUnmatched())
	default:
		errutil.HandleHTTP(ctx, w, goerr.New("unknown filter", goerr.V("filter", filter)), http.StatusBadRequest)
		return
	}
	if contactID := r.URL.Query().Get("contact_id"); contactID != "" {
		opts = append(opts, interfaces.WithContactID(model.ContactID(contactID)))
	}

	calls, err := s.review.ListCalls(ctx, opts...)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := make([]callResponse, len(calls))
	for i, c := range calls {
		resp[i] = toCallResponse(c)
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"calls": resp})
}

func (s *Server) getCallHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	detail, err := s.review.GetCall(ctx, model.CallID(chi.URLParam(r, "callID")))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	type response struct {
		Call         callResponse          `json:"call"`
		Contact      *contactResponse      `json:"contact,omitempty"`
		Participants []participantResponse `json:"participants"`
		ActionItems  []actionItemResponse  `json:"action_items"`
	}

	resp := response{
		Call:         toCallResponse(detail.Call),
		Participants: make([]participantResponse, len(detail.Participants)),
		ActionItems:  toActionItemResponses(detail.ActionItems),
	}
	if c := detail.Contact; c != nil {
		resp.Contact = &contactResponse{
			ID:          string(c.ID),
			Name:        c.Name,
			Company:     c.Company,
			Email:       c.Email,
			Status:      c.Status,
			AutoCreated: c.AutoCreated,
		}
	}
	for i, p := range detail.Participants {
		resp.Participants[i] = participantResponse{ContactID: string(p.ContactID), Source: p.Source}
	}

	writeJSON(ctx, w, http.StatusOK, resp)
}

func (s *Server) linkContactHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		ContactID string `json:"contact_id"`
	}
	if err := readJSON(w, r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.ContactID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("contact_id is required"), http.StatusBadRequest)
		return
	}

	call, err := s.review.LinkContact(ctx, model.CallID(chi.URLParam(r, "callID")), model.ContactID(req.ContactID))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toCallResponse(call))
}

func (s *Server) setNeedsReviewHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		NeedsReview *bool `json:"needs_review"`
	}
	if err := readJSON(w, r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if req.NeedsReview == nil {
		errutil.HandleHTTP(ctx, w, goerr.New("needs_review is required"), http.StatusBadRequest)
		return
	}

	call, err := s.review.SetNeedsReview(ctx, model.CallID(chi.URLParam(r, "callID")), *req.NeedsReview)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toCallResponse(call))
}

func (s *Server) listActionItemsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, err := s.review.ListActionItems(ctx, model.CallID(chi.URLParam(r, "callID")))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"action_items": toActionItemResponses(items)})
}

func (s *Server) listOpenActionItemsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := queryInt(r, "limit")
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	items, err := s.review.ListOpenActionItems(ctx, limit)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"action_items": toActionItemResponses(items)})
}

func (s *Server) completeActionItemHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := struct {
		Completed *bool `json:"completed"`
	}{}
	if err := readJSON(w, r, &req); err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	item, err := s.review.SetActionItemCompleted(ctx, model.ActionItemID(chi.URLParam(r, "itemID")), completed)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, toActionItemResponses([]*model.ActionItem{item})[0])
}

func (s *Server) listSyncLogsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := queryInt(r, "limit")
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}
	if limit == 0 {
		limit = 20
	}

	logs, err := s.review.ListSyncLogs(ctx, limit)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	resp := make([]syncLogResponse, len(logs))
	for i, l := range logs {
		errs := l.Stats.Errors
		if errs == nil {
			errs = []string{}
		}
		resp[i] = syncLogResponse{
			ID:                string(l.ID),
			SyncType:          l.SyncType,
			Status:            l.Status,
			MeetingsProcessed: l.Stats.MeetingsProcessed,
			MeetingsNew:       l.Stats.MeetingsNew,
			ContactsCreated:   l.Stats.ContactsCreated,
			NeedsReviewCount:  l.Stats.NeedsReviewCount,
			Errors:            errs,
			StartedAt:         l.StartedAt,
			CompletedAt:       l.CompletedAt,
		}
	}
	writeJSON(ctx, w, http.StatusOK, map[string]any{"sync_logs": resp})
}

// triggerSyncHandler starts a manual sync in the background and returns immediately
func (s *Server) triggerSyncHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	window := DefaultSyncWindow
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errutil.HandleHTTP(ctx, w, goerr.New("invalid since duration", goerr.V("since", v)), http.StatusBadRequest)
			return
		}
		window = d
	}
	since := s.nowFn().Add(-window)

	async.Dispatch(ctx, "api_sync", func(ctx context.Context) error {
		_, err := s.sync.Sync(ctx, usecase.SyncInput{SyncType: types.SyncTypeManual, Since: since})
		if errors.Is(err, usecase.ErrSyncInProgress) {
			logging.From(ctx).Info("sync already running, trigger ignored")
			return nil
		}
		return err
	})

	writeJSON(ctx, w, http.StatusAccepted, map[string]any{"since": since})
}
