package usecase

import (
	"time"

	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model/config"
	"github.com/secmon-lab/meetlink/pkg/service/archive"
	"github.com/secmon-lab/meetlink/pkg/service/extraction"
	"github.com/secmon-lab/meetlink/pkg/service/fathom"
	"github.com/secmon-lab/meetlink/pkg/service/lock"
	"github.com/secmon-lab/meetlink/pkg/service/slack"
	"github.com/secmon-lab/meetlink/pkg/utils/metrics"
)

// DefaultLockTTL bounds how long a crashed run can block the next one
const DefaultLockTTL = 15 * time.Minute

type UseCases struct {
	repo   interfaces.Repository
	engine *config.Engine

	source       fathom.Service
	extractor    extraction.Service
	archive      archive.Service
	lock         lock.Service
	lockTTL      time.Duration
	metrics      *metrics.Sync
	slack        slack.Service
	slackChannel string

	Contact *ContactUseCase
	Sync    *SyncUseCase
	Review  *ReviewUseCase
}

type Option func(*UseCases)

// WithEngine sets the owner identity and excluded emails
func WithEngine(engine *config.Engine) Option {
	return func(uc *UseCases) {
		uc.engine = engine
	}
}

func WithSource(source fathom.Service) Option {
	return func(uc *UseCases) {
		uc.source = source
	}
}

// WithExtraction enables the LLM fallback of the matching cascade
func WithExtraction(svc extraction.Service) Option {
	return func(uc *UseCases) {
		uc.extractor = svc
	}
}

// WithArchive stores raw meeting payloads of new calls
func WithArchive(svc archive.Service) Option {
	return func(uc *UseCases) {
		uc.archive = svc
	}
}

// WithLock serializes sync runs through svc
func WithLock(svc lock.Service, ttl time.Duration) Option {
	return func(uc *UseCases) {
		uc.lock = svc
		uc.lockTTL = ttl
	}
}

func WithMetrics(m *metrics.Sync) Option {
	return func(uc *UseCases) {
		uc.metrics = m
	}
}

// WithSlack posts sync summaries to channelID
func WithSlack(svc slack.Service, channelID string) Option {
	return func(uc *UseCases) {
		uc.slack = svc
		uc.slackChannel = channelID
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:    repo,
		lockTTL: DefaultLockTTL,
	}

	for _, opt := range opts {
		opt(uc)
	}
	if uc.engine == nil {
		uc.engine = config.NewEngine("", "", nil)
	}

	uc.Contact = NewContactUseCase(repo)
	cascade := NewCascade(DefaultStrategies(repo, uc.Contact, uc.extractor, uc.engine)...)
	uc.Sync = NewSyncUseCase(repo, uc.source, cascade, uc.engine,
		withSyncArchive(uc.archive),
		withSyncLock(uc.lock, uc.lockTTL),
		withSyncMetrics(uc.metrics),
		withSyncNotifier(newNotifier(uc.slack, uc.slackChannel)),
	)
	uc.Review = NewReviewUseCase(repo)

	return uc
}
