package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetlink/pkg/cli/config"
	"github.com/secmon-lab/meetlink/pkg/utils/logging"
)

func TestLoggerJSONFileMasksSecrets(t *testing.T) {
	prev := logging.Default()
	t.Cleanup(func() { logging.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "meetlink.log")
	var cfg config.Logger
	parseFlags(t, cfg.Flags(), "--log-format", "json", "--log-output", path, "--log-level", "debug")

	closer, err := cfg.Configure()
	gt.NoError(t, err)

	type credentials struct {
		User   string
		APIKey string
	}
	logging.Default().Info("calling fathom",
		"auth", "Bearer very-secret-token",
		"creds", credentials{User: "sync", APIKey: "sk-12345"},
	)
	closer()

	raw, err := os.ReadFile(path)
	gt.NoError(t, err)
	body := string(raw)
	gt.True(t, strings.Contains(body, "calling fathom"))
	gt.False(t, strings.Contains(body, "very-secret-token"))
	gt.False(t, strings.Contains(body, "sk-12345"))
	gt.True(t, strings.Contains(body, "sync"))
}

func TestLoggerInvalidSettings(t *testing.T) {
	t.Run("level", func(t *testing.T) {
		var cfg config.Logger
		parseFlags(t, cfg.Flags(), "--log-level", "verbose")
		_, err := cfg.Configure()
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("format", func(t *testing.T) {
		var cfg config.Logger
		parseFlags(t, cfg.Flags(), "--log-format", "xml", "--log-output", "stdout")
		_, err := cfg.Configure()
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}
