package matching_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetlink/pkg/domain/model/matching"
)

func TestDeriveNameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane.doe@example.com", "Jane Doe"},
		{"JOHN_SMITH@example.com", "John Smith"},
		{"mary-jane.o.neil@example.com", "Mary Jane O Neil"},
		{"sam+crm@example.com", "Sam"},
		{"bob@example.com", "Bob"},
		{"@example.com", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			gt.String(t, matching.DeriveNameFromEmail(tt.email)).Equal(tt.want)
		})
	}
}

func TestNormalizeName(t *testing.T) {
	gt.String(t, matching.NormalizeName("  Jane   Doe (she/her) ")).Equal("Jane Doe")
	gt.String(t, matching.NormalizeName("Sam Lee (they/them)")).Equal("Sam Lee")
	gt.String(t, matching.NormalizeName("Kim")).Equal("Kim")
	gt.String(t, matching.NameKey("Jane DOE")).Equal("jane doe")
}

func TestNameTokens(t *testing.T) {
	gt.Array(t, matching.NameTokens("Aodhán O'Brien-Smith, J.")).Equal([]string{"aodhán", "o'brien", "smith"})
}
