package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/gollem/llm/openai"
	"github.com/secmon-lab/meetlink/pkg/service/extraction"
	"github.com/urfave/cli/v3"
)

// extractionTemperature keeps the fallback extraction close to deterministic
const extractionTemperature = 0.1

// LLM holds configuration of the LLM used by the extraction fallback
type LLM struct {
	provider       string
	openaiAPIKey   string
	openaiModel    string
	geminiProject  string
	geminiLocation string
	geminiModel    string
	timeout        time.Duration
}

func (x *LLM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "llm-provider",
			Usage:       "LLM provider for the extraction fallback (openai, gemini, or empty to disable)",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEETLINK_LLM_PROVIDER"),
			Destination: &x.provider,
		},
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEETLINK_OPENAI_API_KEY", "OPENAI_API_KEY"),
			Destination: &x.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "OpenAI model name",
			Category:    "LLM",
			Value:       "gpt-4o-mini",
			Sources:     cli.EnvVars("MEETLINK_OPENAI_MODEL"),
			Destination: &x.openaiModel,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Category:    "LLM",
			Sources:     cli.EnvVars("MEETLINK_GEMINI_PROJECT"),
			Destination: &x.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Category:    "LLM",
			Value:       "us-central1",
			Sources:     cli.EnvVars("MEETLINK_GEMINI_LOCATION"),
			Destination: &x.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Category:    "LLM",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("MEETLINK_GEMINI_MODEL"),
			Destination: &x.geminiModel,
		},
		&cli.DurationFlag{
			Name:        "llm-timeout",
			Usage:       "Timeout of one extraction request",
			Category:    "LLM",
			Value:       extraction.DefaultTimeout,
			Sources:     cli.EnvVars("MEETLINK_LLM_TIMEOUT"),
			Destination: &x.timeout,
		},
	}
}

func (x LLM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", x.provider),
		slog.String("openai_model", x.openaiModel),
		slog.Int("openai_api_key.len", len(x.openaiAPIKey)),
		slog.String("gemini_project", x.geminiProject),
		slog.String("gemini_location", x.geminiLocation),
		slog.String("gemini_model", x.geminiModel),
	)
}

// Client creates the LLM client of the configured provider. It returns nil when no provider is set.
func (x *LLM) Client(ctx context.Context) (gollem.LLMClient, error) {
	switch x.provider {
	case "":
		return nil, nil

	case "openai":
		if x.openaiAPIKey == "" {
			return nil, goerr.Wrap(ErrMissingParameter, "openai-api-key is required for openai provider",
				goerr.V(ParameterKey, "openai-api-key"))
		}
		client, err := openai.New(ctx, x.openaiAPIKey,
			openai.WithModel(x.openaiModel),
			openai.WithTemperature(extractionTemperature),
		)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create OpenAI client")
		}
		return client, nil

	case "gemini":
		if x.geminiProject == "" {
			return nil, goerr.Wrap(ErrMissingParameter, "gemini-project is required for gemini provider",
				goerr.V(ParameterKey, "gemini-project"))
		}
		client, err := gemini.New(ctx, x.geminiProject, x.geminiLocation,
			gemini.WithModel(x.geminiModel),
			gemini.WithTemperature(extractionTemperature),
		)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create Gemini client")
		}
		return client, nil

	default:
		return nil, goerr.Wrap(ErrUnknownBackend, "invalid llm provider", goerr.V(BackendKey, x.provider))
	}
}

// Configure creates the extraction service. It returns nil when no provider is set, which
// makes the cascade flag LLM-dependent meetings for review.
func (x *LLM) Configure(ctx context.Context) (extraction.Service, error) {
	client, err := x.Client(ctx)
	if err != nil || client == nil {
		return nil, err
	}

	svc, err := extraction.New(client, extraction.WithTimeout(x.timeout))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create extraction service")
	}
	return svc, nil
}
