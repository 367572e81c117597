package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/domain/model/config"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/secmon-lab/meetlink/pkg/service/archive"
	"github.com/secmon-lab/meetlink/pkg/service/fathom"
	"github.com/secmon-lab/meetlink/pkg/service/lock"
	"github.com/secmon-lab/meetlink/pkg/utils/errutil"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
	"github.com/secmon-lab/meetlink/pkg/utils/metrics"
)

const syncLockKey = "sync"

// SyncInput selects the fetch window of one run
type SyncInput struct {
	SyncType types.SyncType
	// Since is the lower bound of meeting creation time. Zero fetches everything the source returns.
	Since time.Time
}

// SyncUseCase ingests meetings from the source and resolves them to contacts
type SyncUseCase struct {
	repo     interfaces.Repository
	source   fathom.Service
	cascade  *Cascade
	engine   *config.Engine
	archive  archive.Service
	lock     lock.Service
	lockTTL  time.Duration
	metrics  *metrics.Sync
	notifier *notifier
}

type syncOption func(*SyncUseCase)

func withSyncArchive(svc archive.Service) syncOption {
	return func(uc *SyncUseCase) {
		uc.archive = svc
	}
}

func withSyncLock(svc lock.Service, ttl time.Duration) syncOption {
	return func(uc *SyncUseCase) {
		uc.lock = svc
		uc.lockTTL = ttl
	}
}

func withSyncMetrics(m *metrics.Sync) syncOption {
	return func(uc *SyncUseCase) {
		uc.metrics = m
	}
}

func withSyncNotifier(n *notifier) syncOption {
	return func(uc *SyncUseCase) {
		uc.notifier = n
	}
}

func NewSyncUseCase(repo interfaces.Repository, source fathom.Service, cascade *Cascade, engine *config.Engine, opts ...syncOption) *SyncUseCase {
	uc := &SyncUseCase{
		repo:    repo,
		source:  source,
		cascade: cascade,
		engine:  engine,
		lockTTL: DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Sync runs one ingestion pass. The sync log is written as started on entry and completed or
// failed on exit. Re-running over an overlapping window never creates a second call for a recording.
func (uc *SyncUseCase) Sync(ctx context.Context, in SyncInput) (*model.SyncStats, error) {
	if uc.source == nil {
		return nil, goerr.Wrap(ErrSourceNotConfigured, "cannot run sync")
	}
	if in.SyncType == "" {
		in.SyncType = types.SyncTypeManual
	}

	if uc.lock != nil {
		lease, err := uc.lock.Acquire(ctx, syncLockKey, uc.lockTTL)
		if errors.Is(err, lock.ErrLocked) {
			return nil, goerr.Wrap(ErrSyncInProgress, "sync skipped", goerr.V("sync_type", in.SyncType))
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to acquire sync lock")
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				_ = errutil.Handle(ctx, err, "failed to release sync lock")
			}
		}()
	}

	startedAt := time.Now().UTC()
	syncLog, err := uc.repo.SyncLog().Create(ctx, &model.SyncLog{
		SyncType:  in.SyncType,
		Status:    types.SyncStatusStarted,
		StartedAt: startedAt,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create sync log")
	}

	ctx = logging.With(ctx, logging.From(ctx).With("sync_log_id", syncLog.ID, "sync_type", in.SyncType))
	logging.From(ctx).Info("sync started", "since", in.Since)

	stats := &model.SyncStats{}
	runErr := uc.run(ctx, in, stats)

	status := types.SyncStatusCompleted
	if runErr != nil {
		status = types.SyncStatusFailed
	}
	completedAt := time.Now().UTC()
	syncLog.Status = status
	syncLog.Stats = *stats
	syncLog.CompletedAt = &completedAt
	if _, err := uc.repo.SyncLog().Update(context.WithoutCancel(ctx), syncLog); err != nil {
		if runErr == nil {
			runErr = goerr.Wrap(err, "failed to finalize sync log", goerr.V("sync_log_id", syncLog.ID))
		} else {
			_ = errutil.Handle(ctx, err, "failed to mark sync log failed")
		}
	}

	uc.metrics.ObserveRun(in.SyncType.String(), status.String(), completedAt.Sub(startedAt))
	uc.metrics.AddMeetings(stats.MeetingsProcessed, stats.MeetingsNew)
	uc.metrics.AddContactsCreated(stats.ContactsCreated)
	uc.metrics.AddNeedsReview(stats.NeedsReviewCount)

	uc.notifier.notify(ctx, in.SyncType, stats, runErr)

	if runErr != nil {
		return nil, runErr
	}

	logging.From(ctx).Info("sync completed",
		"processed", stats.MeetingsProcessed,
		"new", stats.MeetingsNew,
		"contacts_created", stats.ContactsCreated,
		"needs_review", stats.NeedsReviewCount,
		"errors", len(stats.Errors),
		"duration", completedAt.Sub(startedAt).String(),
	)
	return stats, nil
}

func (uc *SyncUseCase) run(ctx context.Context, in SyncInput, stats *model.SyncStats) error {
	meetings, err := uc.source.FetchMeetings(ctx, in.Since)
	if err != nil {
		stats.Errors = append(stats.Errors, err.Error())
		return goerr.Wrap(err, "failed to fetch meetings", goerr.V("since", in.Since))
	}
	logging.From(ctx).Info("meetings fetched", "count", len(meetings))

	for _, m := range meetings {
		stats.MeetingsProcessed++
		if m.RecordingID == "" {
			stats.Errors = append(stats.Errors, fmt.Sprintf("meeting %q has no recording id", m.Title))
			continue
		}

		if err := uc.processMeeting(ctx, m, stats); err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %s", m.RecordingID, err.Error()))
			return goerr.Wrap(err, "failed to process meeting", goerr.V(RecordingIDKey, m.RecordingID))
		}
	}
	return nil
}

func (uc *SyncUseCase) processMeeting(ctx context.Context, m *model.Meeting, stats *model.SyncStats) error {
	in := NewMatchInput(m, uc.engine)

	existing, err := uc.repo.Call().GetByRecordingID(ctx, m.RecordingID)
	switch {
	case err == nil:
		return uc.updateCall(ctx, existing, in, stats)
	case errors.Is(err, interfaces.ErrNotFound):
		return uc.insertCall(ctx, in, stats)
	default:
		return goerr.Wrap(err, "failed to look up call")
	}
}

// updateCall enriches an already ingested call. Linked calls keep their contact and only
// receive missing fields and new participant links.
func (uc *SyncUseCase) updateCall(ctx context.Context, call *model.Call, in *MatchInput, stats *model.SyncStats) error {
	changed := fillEnrichable(call, in)

	var res *Resolution
	if !call.IsLinked() {
		var err error
		res, err = uc.resolve(ctx, in, stats)
		if err != nil {
			return err
		}
		if res.NeedsReview && !call.NeedsReview {
			stats.NeedsReviewCount++
		}
		applyResolution(call, res)
		changed = true
	}

	if changed {
		if _, err := uc.repo.Call().Update(ctx, call); err != nil {
			return goerr.Wrap(err, "failed to update call", goerr.V(CallIDKey, call.ID))
		}
	}

	return uc.linkParticipants(ctx, call, in, res)
}

func (uc *SyncUseCase) insertCall(ctx context.Context, in *MatchInput, stats *model.SyncStats) error {
	m := in.Meeting

	res, err := uc.resolve(ctx, in, stats)
	if err != nil {
		return err
	}

	call := &model.Call{
		RecordingID:     m.RecordingID,
		Title:           m.Title,
		CallDate:        m.StartedAt,
		DurationMinutes: m.DurationMinutes,
		RawPayload:      m.RawPayload,
	}
	fillEnrichable(call, in)
	applyResolution(call, res)
	call.RawArchiveURL = uc.archivePayload(ctx, m)

	created, err := uc.repo.Call().Create(ctx, call)
	if errors.Is(err, interfaces.ErrDuplicate) {
		logging.From(ctx).Info("call already ingested by another run", "recording_id", m.RecordingID)
		return nil
	}
	if err != nil {
		return goerr.Wrap(err, "failed to create call")
	}

	stats.MeetingsNew++
	if created.NeedsReview {
		stats.NeedsReviewCount++
	}

	if err := uc.createActionItems(ctx, created, m); err != nil {
		return err
	}
	return uc.linkParticipants(ctx, created, in, res)
}

func (uc *SyncUseCase) resolve(ctx context.Context, in *MatchInput, stats *model.SyncStats) (*Resolution, error) {
	res, err := uc.cascade.Resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	if res.Created {
		stats.ContactsCreated++
	}

	confidence := string(res.Confidence)
	if res.NeedsReview {
		confidence = "needs_review"
	}
	uc.metrics.ObserveResolution(res.Strategy, confidence)
	return res, nil
}

func (uc *SyncUseCase) archivePayload(ctx context.Context, m *model.Meeting) string {
	if uc.archive == nil || len(m.RawPayload) == 0 {
		return ""
	}
	url, err := uc.archive.Put(ctx, m.RecordingID, m.RawPayload)
	if err != nil {
		logging.From(ctx).Warn("failed to archive raw payload", "recording_id", m.RecordingID, "error", err.Error())
		return ""
	}
	return url
}

func (uc *SyncUseCase) createActionItems(ctx context.Context, call *model.Call, m *model.Meeting) error {
	now := time.Now().UTC()
	for _, ai := range m.ActionItems {
		if ai.Description == "" {
			continue
		}
		item := &model.ActionItem{
			CallID:      call.ID,
			Description: ai.Description,
			Assignee:    ai.Assignee,
		}
		if ai.Completed {
			item.SetCompleted(true, now)
		}
		if _, err := uc.repo.ActionItem().Create(ctx, item); err != nil {
			return goerr.Wrap(err, "failed to create action item", goerr.V(CallIDKey, call.ID))
		}
	}
	return nil
}

// linkParticipants links the resolved contact and every participant whose email belongs to an
// existing contact. Links that already exist are skipped.
func (uc *SyncUseCase) linkParticipants(ctx context.Context, call *model.Call, in *MatchInput, res *Resolution) error {
	type link struct {
		contactID model.ContactID
		source    types.ParticipantSource
	}
	var links []link
	seen := make(map[model.ContactID]struct{})
	add := func(id model.ContactID, source types.ParticipantSource) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		links = append(links, link{contactID: id, source: source})
	}

	if res != nil && res.Contact != nil {
		add(res.Contact.ID, res.Source)
	}
	for _, p := range in.Participants {
		if p.Email == "" {
			continue
		}
		contact, err := uc.repo.Contact().GetByEmail(ctx, p.Email)
		if errors.Is(err, interfaces.ErrNotFound) {
			continue
		}
		if err != nil {
			return goerr.Wrap(err, "failed to look up participant", goerr.V("email", p.Email))
		}
		add(contact.ID, p.Source)
	}

	for _, l := range links {
		err := uc.repo.Participant().Add(ctx, &model.Participant{
			CallID:    call.ID,
			ContactID: l.contactID,
			Source:    l.source,
		})
		if errors.Is(err, interfaces.ErrDuplicate) {
			continue
		}
		if err != nil {
			return goerr.Wrap(err, "failed to add participant",
				goerr.V(CallIDKey, call.ID), goerr.V(ContactIDKey, l.contactID))
		}
	}
	return nil
}

// fillEnrichable sets summary and organizer email when the call has none
func fillEnrichable(call *model.Call, in *MatchInput) bool {
	changed := false
	if call.Summary == "" && in.Meeting.Summary != "" {
		call.Summary = model.TruncateRunes(in.Meeting.Summary, model.SummaryMaxLength)
		changed = true
	}
	if call.OrganizerEmail == "" && in.Meeting.RecordedBy != nil {
		if email := model.NormalizeEmail(in.Meeting.RecordedBy.Email); email != "" {
			call.OrganizerEmail = email
			changed = true
		}
	}
	return changed
}

func applyResolution(call *model.Call, res *Resolution) {
	call.NeedsReview = res.NeedsReview
	call.Extraction = res.Extraction
	if res.Contact == nil {
		return
	}
	call.ContactID = res.Contact.ID
	call.AutoMatched = true
	call.MatchConfidence = res.Confidence
}
