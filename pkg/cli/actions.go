package cli

import (
	"context"

	"github.com/secmon-lab/meetlink/pkg/cli/config"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/secmon-lab/meetlink/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdActions() *cli.Command {
	var repoCfg config.Repository

	return &cli.Command{
		Name:  "actions",
		Usage: "List and complete action items of calls",
		Flags: repoCfg.Flags(),
		Commands: []*cli.Command{
			cmdActionsList(&repoCfg),
			cmdActionsComplete(&repoCfg),
		},
	}
}

func cmdActionsList(repoCfg *config.Repository) *cli.Command {
	var callID string
	var limit int

	return &cli.Command{
		Name:  "list",
		Usage: "List open action items, or every item of one call",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "call",
				Usage:       "Call ID",
				Destination: &callID,
			},
			&cli.IntFlag{
				Name:        "limit",
				Value:       usecase.DefaultOpenActionItemLimit,
				Destination: &limit,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := openReview(ctx, repoCfg)
			if err != nil {
				return err
			}
			defer closer()

			var items []*model.ActionItem
			if callID != "" {
				items, err = uc.ListActionItems(ctx, model.CallID(callID))
			} else {
				items, err = uc.ListOpenActionItems(ctx, limit)
			}
			if err != nil {
				return err
			}
			printActionItems(output(c), items)
			return nil
		},
	}
}

func cmdActionsComplete(repoCfg *config.Repository) *cli.Command {
	var undo bool

	return &cli.Command{
		Name:      "complete",
		Usage:     "Mark an action item as completed",
		ArgsUsage: "<action-item-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "undo",
				Usage:       "Mark the item as open again",
				Destination: &undo,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := requireArg(c, 0, "action-item-id")
			if err != nil {
				return err
			}

			uc, closer, err := openReview(ctx, repoCfg)
			if err != nil {
				return err
			}
			defer closer()

			item, err := uc.SetActionItemCompleted(ctx, model.ActionItemID(id), !undo)
			if err != nil {
				return err
			}
			if item.Completed {
				successColor.Fprintf(output(c), "Completed: %s\n", item.Description)
			} else {
				warnColor.Fprintf(output(c), "Reopened: %s\n", item.Description)
			}
			return nil
		},
	}
}
