package config

import (
	"log/slog"
	"net/mail"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainconfig "github.com/secmon-lab/meetlink/pkg/domain/model/config"
	"github.com/urfave/cli/v3"
)

// engineFile is the TOML layout of the engine configuration file
type engineFile struct {
	Owner struct {
		Name  string `toml:"name"`
		Email string `toml:"email"`
	} `toml:"owner"`
	Excluded struct {
		Emails []string `toml:"emails"`
	} `toml:"excluded"`
}

// Engine holds the owner identity and the excluded emails of the matching engine
type Engine struct {
	path       string
	ownerName  string
	ownerEmail string
	excluded   []string
}

func (x *Engine) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the engine configuration file (TOML)",
			Category:    "Engine",
			Sources:     cli.EnvVars("MEETLINK_CONFIG"),
			Destination: &x.path,
		},
		&cli.StringFlag{
			Name:        "owner-name",
			Usage:       "Name of the account owner, excluded from candidate names",
			Category:    "Engine",
			Sources:     cli.EnvVars("MEETLINK_OWNER_NAME"),
			Destination: &x.ownerName,
		},
		&cli.StringFlag{
			Name:        "owner-email",
			Usage:       "Email of the account owner, always excluded",
			Category:    "Engine",
			Sources:     cli.EnvVars("MEETLINK_OWNER_EMAIL"),
			Destination: &x.ownerEmail,
		},
		&cli.StringSliceFlag{
			Name:        "excluded-email",
			Usage:       "Email address on the owner's side (repeatable, or comma separated in env)",
			Category:    "Engine",
			Sources:     cli.EnvVars("MEETLINK_EXCLUDED_EMAILS"),
			Destination: &x.excluded,
		},
	}
}

func (x Engine) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", x.path),
		slog.String("owner_name", x.ownerName),
		slog.String("owner_email", x.ownerEmail),
		slog.Int("excluded", len(x.excluded)),
	)
}

// Configure builds the engine configuration. Flags take precedence over the file for
// the owner identity; excluded emails from both sources are merged.
func (x *Engine) Configure() (*domainconfig.Engine, error) {
	var file engineFile
	if x.path != "" {
		raw, err := os.ReadFile(x.path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, goerr.Wrap(ErrConfigNotFound, "engine config file not found",
					goerr.V(ConfigPathKey, x.path))
			}
			return nil, goerr.Wrap(err, "failed to read engine config", goerr.V(ConfigPathKey, x.path))
		}
		if err := toml.Unmarshal(raw, &file); err != nil {
			return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse engine config",
				goerr.V(ConfigPathKey, x.path), goerr.V("error", err.Error()))
		}
	}

	name := firstNonEmpty(x.ownerName, file.Owner.Name)
	email := firstNonEmpty(x.ownerEmail, file.Owner.Email)

	var excluded []string
	for _, list := range [][]string{file.Excluded.Emails, x.excluded} {
		for _, entry := range list {
			// env values may arrive as a single comma separated string
			for _, addr := range strings.Split(entry, ",") {
				addr = strings.TrimSpace(addr)
				if addr == "" {
					continue
				}
				if err := validateEmail(addr); err != nil {
					return nil, err
				}
				excluded = append(excluded, addr)
			}
		}
	}

	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}

	return domainconfig.NewEngine(name, email, excluded), nil
}

func validateEmail(addr string) error {
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr {
		return goerr.Wrap(ErrInvalidEmail, "invalid email address", goerr.V(EmailKey, addr))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
