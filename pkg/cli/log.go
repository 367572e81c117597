package cli

import (
	"context"

	"github.com/secmon-lab/meetlink/pkg/cli/config"
	"github.com/urfave/cli/v3"
)

func cmdLog() *cli.Command {
	var repoCfg config.Repository
	var limit int

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Number of sync runs to show",
			Value:       20,
			Destination: &limit,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "log",
		Usage: "Show recent sync runs",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := openReview(ctx, &repoCfg)
			if err != nil {
				return err
			}
			defer closer()

			logs, err := uc.ListSyncLogs(ctx, limit)
			if err != nil {
				return err
			}
			printSyncLogs(output(c), logs)
			return nil
		},
	}
}
