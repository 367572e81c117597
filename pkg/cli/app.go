package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/cli/config"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/usecase"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// syncConfig groups the configuration needed to run a sync
type syncConfig struct {
	repo    config.Repository
	fathom  config.Fathom
	llm     config.LLM
	engine  config.Engine
	slack   config.Slack
	lock    config.Lock
	archive config.Archive
}

func (x *syncConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, x.repo.Flags()...)
	flags = append(flags, x.fathom.Flags()...)
	flags = append(flags, x.llm.Flags()...)
	flags = append(flags, x.engine.Flags()...)
	flags = append(flags, x.slack.Flags()...)
	flags = append(flags, x.lock.Flags()...)
	flags = append(flags, x.archive.Flags()...)
	return flags
}

// build wires the repository and every optional service into the use cases. The returned
// function releases all opened resources.
func (x *syncConfig) build(ctx context.Context, extra ...usecase.Option) (*usecase.UseCases, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error, msg string) (*usecase.UseCases, func(), error) {
		cleanup()
		return nil, nil, goerr.Wrap(err, msg)
	}

	logging.Default().Info("Sync configuration",
		"repository", x.repo,
		"fathom", x.fathom,
		"llm", x.llm,
		"engine", x.engine,
		"slack", x.slack,
		"lock", x.lock,
		"archive", x.archive,
	)

	repo, err := x.repo.Configure(ctx)
	if err != nil {
		return fail(err, "failed to initialize repository")
	}
	closers = append(closers, closeRepository(repo))

	engine, err := x.engine.Configure()
	if err != nil {
		return fail(err, "failed to load engine configuration")
	}

	opts := []usecase.Option{usecase.WithEngine(engine)}

	source, err := x.fathom.Configure()
	if err != nil {
		return fail(err, "failed to configure meeting source")
	}
	if source != nil {
		opts = append(opts, usecase.WithSource(source))
	} else {
		logging.Default().Warn("Fathom API key not configured, sync is disabled")
	}

	extractor, err := x.llm.Configure(ctx)
	if err != nil {
		return fail(err, "failed to configure LLM")
	}
	if extractor != nil {
		opts = append(opts, usecase.WithExtraction(extractor))
	}

	slackSvc, err := x.slack.Configure()
	if err != nil {
		return fail(err, "failed to configure slack")
	}
	if slackSvc != nil {
		opts = append(opts, usecase.WithSlack(slackSvc, x.slack.ChannelID()))
	}

	lockSvc, closeLock, err := x.lock.Configure(ctx)
	if err != nil {
		return fail(err, "failed to configure sync lock")
	}
	closers = append(closers, closeLock)
	opts = append(opts, usecase.WithLock(lockSvc, x.lock.TTL()))

	archiveSvc, closeArchive, err := x.archive.Configure(ctx)
	if err != nil {
		return fail(err, "failed to configure archive")
	}
	closers = append(closers, closeArchive)
	if archiveSvc != nil {
		opts = append(opts, usecase.WithArchive(archiveSvc))
	}

	opts = append(opts, extra...)
	return usecase.New(repo, opts...), cleanup, nil
}

// openReview opens the repository only, which is all the review commands need
func openReview(ctx context.Context, cfg *config.Repository) (*usecase.ReviewUseCase, func(), error) {
	repo, err := cfg.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}
	return usecase.NewReviewUseCase(repo), closeRepository(repo), nil
}

func closeRepository(repo interfaces.Repository) func() {
	return func() {
		if err := repo.Close(); err != nil {
			logging.Default().Error("failed to close repository", "error", err.Error())
		}
	}
}
