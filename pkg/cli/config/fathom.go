package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/service/fathom"
	"github.com/urfave/cli/v3"
)

// Fathom holds the meeting source configuration
type Fathom struct {
	apiKey  string
	baseURL string
	timeout time.Duration
}

func (x *Fathom) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "fathom-api-key",
			Usage:       "Fathom API key",
			Category:    "Fathom",
			Sources:     cli.EnvVars("MEETLINK_FATHOM_API_KEY"),
			Destination: &x.apiKey,
		},
		&cli.StringFlag{
			Name:        "fathom-base-url",
			Usage:       "Fathom API base URL",
			Category:    "Fathom",
			Value:       fathom.DefaultBaseURL,
			Sources:     cli.EnvVars("MEETLINK_FATHOM_BASE_URL"),
			Destination: &x.baseURL,
		},
		&cli.DurationFlag{
			Name:        "fathom-timeout",
			Usage:       "Timeout of one Fathom API request",
			Category:    "Fathom",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("MEETLINK_FATHOM_TIMEOUT"),
			Destination: &x.timeout,
		},
	}
}

func (x Fathom) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("base_url", x.baseURL),
		slog.Int("api_key.len", len(x.apiKey)),
		slog.Duration("timeout", x.timeout),
	)
}

// Configure creates the Fathom client. It returns nil when no API key is set; syncing
// then fails with a "source not configured" error while the review commands keep working.
func (x *Fathom) Configure() (fathom.Service, error) {
	if x.apiKey == "" {
		return nil, nil
	}

	svc, err := fathom.New(x.apiKey,
		fathom.WithBaseURL(x.baseURL),
		fathom.WithTimeout(x.timeout),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create fathom client")
	}
	return svc, nil
}
