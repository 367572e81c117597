package matching_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetlink/pkg/domain/model/matching"
)

func TestParseCandidateNames(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{
			name:  "call with two segments strips trailing noise",
			title: "Call with Jane Doe - Acme Corp discovery",
			want:  []string{"Jane Doe", "Acme Corp"},
		},
		{
			name:  "meeting with single segment",
			title: "meeting with Bob Stone",
			want:  []string{"Bob Stone"},
		},
		{
			name:  "sync with and year token",
			title: "Sync with Globex 2025 planning",
			want:  []string{"Globex"},
		},
		{
			name:  "slash separated pair",
			title: "Alex Owner / Priya Shah",
			want:  []string{"Alex Owner", "Priya Shah"},
		},
		{
			name:  "angle bracket template keeps left segment",
			title: "Initech <> website redesign",
			want:  []string{"Initech"},
		},
		{
			name:  "duplicate candidates keep first position",
			title: "Call with Jane - jane",
			want:  []string{"Jane"},
		},
		{
			name:  "slash and angle bracket patterns are unioned in order",
			title: "Priya/Initech <> pilot",
			want:  []string{"Priya", "Initech <> pilot", "Priya/Initech"},
		},
		{
			name:  "noise word inside a longer word is kept",
			title: "Call with Marcus Callahan",
			want:  []string{"Marcus Callahan"},
		},
		{
			name:  "follow-up noise",
			title: "Call with Dana Follow-up",
			want:  []string{"Dana"},
		},
		{
			name:  "short candidates are dropped",
			title: "A / Bo",
			want:  []string{"Bo"},
		},
		{
			name:  "no pattern",
			title: "Weekly planning",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matching.ParseCandidateNames(tt.title)
			gt.Array(t, got).Length(len(tt.want))
			for i := range tt.want {
				gt.String(t, got[i]).Equal(tt.want[i])
			}
		})
	}
}

func TestExcludeOrganizer(t *testing.T) {
	got := matching.ExcludeOrganizer([]string{"Alex Owner", "Priya Shah", "alex"}, "Alex Owner")
	gt.Array(t, got).Equal([]string{"Priya Shah"})

	got = matching.ExcludeOrganizer([]string{"Priya Shah"}, "")
	gt.Array(t, got).Equal([]string{"Priya Shah"})
}
