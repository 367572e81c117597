package cli_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetlink/pkg/cli"
)

func TestEnvFilePath(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "separate value", args: []string{"meetlink", "--env-file", ".env.local", "sync"}, want: ".env.local"},
		{name: "equals form", args: []string{"meetlink", "--env-file=prod.env", "serve"}, want: "prod.env"},
		{name: "single dash", args: []string{"meetlink", "-env-file", "x.env"}, want: "x.env"},
		{name: "absent", args: []string{"meetlink", "sync", "--since", "1h"}, want: ""},
		{name: "after terminator", args: []string{"meetlink", "--", "--env-file", "x.env"}, want: ""},
		{name: "missing value", args: []string{"meetlink", "--env-file"}, want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Value(t, cli.EnvFilePath(tc.args)).Equal(tc.want)
		})
	}
}

func TestIndexConfigCoversQueries(t *testing.T) {
	cfg := cli.GetIndexConfig()

	names := map[string]int{}
	for _, c := range cfg.Collections {
		names[c.Name] = len(c.Indexes)
		for _, idx := range c.Indexes {
			gt.Number(t, len(idx.Fields)).GreaterOrEqual(2)
		}
	}
	gt.Value(t, names["calls"]).Equal(3)
	gt.Value(t, names["call_participants"]).Equal(2)
	gt.Value(t, names["action_items"]).Equal(2)
}

func TestRunReviewAgainstMemory(t *testing.T) {
	for _, args := range [][]string{
		{"meetlink", "review", "--repository-backend", "memory", "list"},
		{"meetlink", "log", "--repository-backend", "memory"},
		{"meetlink", "actions", "--repository-backend", "memory", "list"},
		{"meetlink", "migrate", "--repository-backend", "memory"},
	} {
		gt.NoError(t, cli.Run(t.Context(), args, "test"))
	}
}

func TestRunSyncWithoutSource(t *testing.T) {
	t.Setenv("MEETLINK_FATHOM_API_KEY", "")
	t.Setenv("MEETLINK_LLM_PROVIDER", "")
	t.Setenv("MEETLINK_REDIS_ADDR", "")
	t.Setenv("MEETLINK_ARCHIVE_BUCKET", "")
	t.Setenv("MEETLINK_SLACK_BOT_TOKEN", "")
	t.Setenv("MEETLINK_SLACK_CHANNEL", "")

	err := cli.Run(t.Context(), []string{"meetlink", "sync", "--repository-backend", "memory"}, "test")
	gt.Error(t, err)
}
