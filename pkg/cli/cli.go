package cli

import (
	"context"
	"strings"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/cli/config"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var envFile string
	var closers []func()

	// flag sources read the environment while parsing, so the dotenv file has to be loaded first
	if path := envFilePath(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			err = goerr.Wrap(err, "failed to load env file", goerr.V("path", path))
			logging.Default().Error("failed to run app", "error", err)
			return err
		}
	}

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "env-file",
			Usage:       "Load environment variables from a dotenv file",
			Destination: &envFile,
		},
	}
	flags = append(flags, loggerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	app := &cli.Command{
		Name:    "meetlink",
		Usage:   "Link recorded meetings to CRM contacts",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, f)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			closers = append(closers, flush)

			logging.Default().Info("Starting meetlink",
				"version", version,
				"logger", loggerCfg,
				"sentry", sentryCfg,
				"env_file", envFile,
			)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdSync(),
			cmdServe(),
			cmdReview(),
			cmdLog(),
			cmdActions(),
			cmdMigrate(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}

// envFilePath finds the value of --env-file in raw arguments
func envFilePath(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			return ""
		}
		for _, name := range []string{"--env-file", "-env-file"} {
			if arg == name && i+1 < len(args) {
				return args[i+1]
			}
			if v, ok := strings.CutPrefix(arg, name+"="); ok {
				return v
			}
		}
	}
	return ""
}
