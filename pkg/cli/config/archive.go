package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetlink/pkg/service/archive"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Archive holds the raw payload archive configuration
type Archive struct {
	bucket string
	prefix string
}

func (x *Archive) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket receiving raw meeting payloads. Disabled when empty",
			Category:    "Archive",
			Sources:     cli.EnvVars("MEETLINK_ARCHIVE_BUCKET"),
			Destination: &x.bucket,
		},
		&cli.StringFlag{
			Name:        "archive-prefix",
			Usage:       "Object name prefix in the archive bucket",
			Category:    "Archive",
			Value:       "fathom",
			Sources:     cli.EnvVars("MEETLINK_ARCHIVE_PREFIX"),
			Destination: &x.prefix,
		},
	}
}

func (x Archive) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}

// Configure creates the archive service and its closer. Both the service and the closer
// are nil-safe to use when no bucket is configured.
func (x *Archive) Configure(ctx context.Context) (archive.Service, func(), error) {
	if x.bucket == "" {
		return nil, func() {}, nil
	}

	gcs, err := archive.NewGCS(ctx, x.bucket, archive.WithPrefix(x.prefix))
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create archive service")
	}

	logging.Default().Info("Archiving raw meeting payloads", "bucket", x.bucket, "prefix", x.prefix)
	closer := func() {
		if err := gcs.Close(); err != nil {
			logging.Default().Warn("failed to close archive client", "error", err)
		}
	}
	return gcs, closer, nil
}
