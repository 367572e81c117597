package cli

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/domain/types"
	"github.com/secmon-lab/meetlink/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// defaultSyncWindow is how far back a one-off sync looks when --since is not given
const defaultSyncWindow = 72 * time.Hour

func cmdSync() *cli.Command {
	var cfg syncConfig
	var since time.Duration
	var syncType string

	flags := []cli.Flag{
		&cli.DurationFlag{
			Name:        "since",
			Usage:       "Fetch meetings created within this duration",
			Value:       defaultSyncWindow,
			Sources:     cli.EnvVars("MEETLINK_SYNC_SINCE"),
			Destination: &since,
		},
		&cli.StringFlag{
			Name:        "sync-type",
			Usage:       "Sync type recorded in the sync log (manual, scheduled)",
			Value:       types.SyncTypeManual.String(),
			Destination: &syncType,
		},
	}
	flags = append(flags, cfg.Flags()...)

	return &cli.Command{
		Name:  "sync",
		Usage: "Fetch recent meetings and link them to contacts",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			st, err := types.ParseSyncType(syncType)
			if err != nil {
				return goerr.Wrap(err, "invalid sync type")
			}
			if since <= 0 {
				return goerr.New("since must be positive", goerr.V("since", since))
			}

			uc, cleanup, err := cfg.build(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := uc.Sync.Sync(ctx, usecase.SyncInput{
				SyncType: st,
				Since:    time.Now().Add(-since),
			})
			if err != nil {
				return goerr.Wrap(err, "sync failed")
			}

			printStats(output(c), stats)
			return nil
		},
	}
}
