package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds the configuration of sync notifications
type Slack struct {
	botToken  string
	channelID string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token for sync notifications",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("MEETLINK_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel ID receiving sync notifications",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("MEETLINK_SLACK_CHANNEL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot_token.len", len(x.botToken)),
		slog.String("channel", x.channelID),
	)
}

// ChannelID returns the notification channel
func (x *Slack) ChannelID() string {
	return x.channelID
}

// Configure creates the Slack service. It returns nil when notifications are not configured.
func (x *Slack) Configure() (slack.Service, error) {
	if x.botToken == "" && x.channelID == "" {
		return nil, nil
	}
	if x.botToken == "" {
		return nil, goerr.Wrap(ErrMissingParameter, "slack-bot-token is required when slack-channel is set",
			goerr.V(ParameterKey, "slack-bot-token"))
	}
	if x.channelID == "" {
		return nil, goerr.Wrap(ErrMissingParameter, "slack-channel is required when slack-bot-token is set",
			goerr.V(ParameterKey, "slack-channel"))
	}

	svc, err := slack.New(x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create slack service")
	}
	return svc, nil
}
