package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/cli/config"
	"github.com/secmon-lab/meetlink/pkg/domain/interfaces"
	"github.com/secmon-lab/meetlink/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func cmdReview() *cli.Command {
	var repoCfg config.Repository

	return &cli.Command{
		Name:     "review",
		Aliases:  []string{"r"},
		Usage:    "Inspect and resolve calls that need review",
		Flags:    repoCfg.Flags(),
		Commands: []*cli.Command{
			cmdReviewList(&repoCfg),
			cmdReviewShow(&repoCfg),
			cmdReviewLink(&repoCfg),
			cmdReviewResolve(&repoCfg),
		},
	}
}

func cmdReviewList(repoCfg *config.Repository) *cli.Command {
	var unmatched bool
	var all bool
	var contactID string
	var limit int
	var offset int

	return &cli.Command{
		Name:  "list",
		Usage: "List calls flagged for review (newest first)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "unmatched",
				Usage:       "List calls without a linked contact instead",
				Destination: &unmatched,
			},
			&cli.BoolFlag{
				Name:        "all",
				Usage:       "List all calls",
				Destination: &all,
			},
			&cli.StringFlag{
				Name:        "contact",
				Usage:       "List calls linked to the contact ID",
				Destination: &contactID,
			},
			&cli.IntFlag{
				Name:        "limit",
				Value:       20,
				Destination: &limit,
			},
			&cli.IntFlag{
				Name:        "offset",
				Destination: &offset,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, closer, err := openReview(ctx, repoCfg)
			if err != nil {
				return err
			}
			defer closer()

			opts := []interfaces.ListCallOption{
				interfaces.WithLimit(limit),
				interfaces.WithOffset(offset),
			}
			switch {
			case contactID != "":
				opts = append(opts, interfaces.WithContactID(model.ContactID(contactID)))
			case unmatched:
				opts = append(opts, interfaces.WithUnmatched())
			case all:
			default:
				opts = append(opts, interfaces.WithNeedsReview())
			}

			calls, err := uc.ListCalls(ctx, opts...)
			if err != nil {
				return err
			}
			printCalls(output(c), calls)
			return nil
		},
	}
}

func cmdReviewShow(repoCfg *config.Repository) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a call with its contact, participants and action items",
		ArgsUsage: "<call-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			callID, err := requireArg(c, 0, "call-id")
			if err != nil {
				return err
			}

			uc, closer, err := openReview(ctx, repoCfg)
			if err != nil {
				return err
			}
			defer closer()

			detail, err := uc.GetCall(ctx, model.CallID(callID))
			if err != nil {
				return err
			}

			w := output(c)
			call := detail.Call
			headerColor.Fprintln(w, call.Title)
			fmt.Fprintf(w, "  id:           %s\n", call.ID)
			fmt.Fprintf(w, "  recording:    %s\n", call.RecordingID)
			fmt.Fprintf(w, "  date:         %s (%d min)\n", call.CallDate.Format("2006-01-02 15:04"), call.DurationMinutes)
			fmt.Fprintf(w, "  organizer:    %s\n", call.OrganizerEmail)
			fmt.Fprintf(w, "  confidence:   %s\n", call.MatchConfidence)
			if call.NeedsReview {
				warnColor.Fprintln(w, "  needs review: yes")
			}
			if detail.Contact != nil {
				fmt.Fprintf(w, "  contact:      %s <%s> %s (%s)\n",
					detail.Contact.Name, detail.Contact.Email, detail.Contact.Company, detail.Contact.ID)
			} else {
				dimColor.Fprintln(w, "  contact:      -")
			}
			if x := call.Extraction; x != nil {
				fmt.Fprintf(w, "  extraction:   %s / %s (%s, %s)\n", x.FullName, x.Company, x.RelationshipType, x.Confidence)
			}
			if call.RawArchiveURL != "" {
				fmt.Fprintf(w, "  archive:      %s\n", call.RawArchiveURL)
			}
			for _, p := range detail.Participants {
				fmt.Fprintf(w, "  participant:  %s (%s)\n", p.ContactID, p.Source)
			}
			if len(detail.ActionItems) > 0 {
				fmt.Fprintln(w)
				printActionItems(w, detail.ActionItems)
			}
			return nil
		},
	}
}

func cmdReviewLink(repoCfg *config.Repository) *cli.Command {
	return &cli.Command{
		Name:      "link",
		Usage:     "Link a call to a contact manually and clear its review flag",
		ArgsUsage: "<call-id> <contact-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			callID, err := requireArg(c, 0, "call-id")
			if err != nil {
				return err
			}
			contactID, err := requireArg(c, 1, "contact-id")
			if err != nil {
				return err
			}

			uc, closer, err := openReview(ctx, repoCfg)
			if err != nil {
				return err
			}
			defer closer()

			call, err := uc.LinkContact(ctx, model.CallID(callID), model.ContactID(contactID))
			if err != nil {
				return err
			}
			successColor.Fprintf(output(c), "Linked call %s to contact %s\n", call.ID, call.ContactID)
			return nil
		},
	}
}

func cmdReviewResolve(repoCfg *config.Repository) *cli.Command {
	var reopen bool

	return &cli.Command{
		Name:      "resolve",
		Usage:     "Clear the review flag of a call",
		ArgsUsage: "<call-id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "reopen",
				Usage:       "Flag the call for review again",
				Destination: &reopen,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			callID, err := requireArg(c, 0, "call-id")
			if err != nil {
				return err
			}

			uc, closer, err := openReview(ctx, repoCfg)
			if err != nil {
				return err
			}
			defer closer()

			call, err := uc.SetNeedsReview(ctx, model.CallID(callID), reopen)
			if err != nil {
				return err
			}
			if call.NeedsReview {
				warnColor.Fprintf(output(c), "Call %s flagged for review\n", call.ID)
			} else {
				successColor.Fprintf(output(c), "Call %s resolved\n", call.ID)
			}
			return nil
		},
	}
}

func requireArg(c *cli.Command, idx int, name string) (string, error) {
	v := c.Args().Get(idx)
	if v == "" {
		return "", goerr.New("missing argument", goerr.V("argument", name))
	}
	return v, nil
}
