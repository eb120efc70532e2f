package verify

import (
	"strings"
	"testing"

	"github.com/zulandar/incidentdesk/internal/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.MessageStatus
		want     bool
	}{
		{models.StatusNotConfirmed, models.StatusVerifying, true},
		{models.StatusNonVerified, models.StatusVerifying, true},
		{models.StatusNonVerified, models.StatusDeclined, true},
		{models.StatusVerifying, models.StatusVerified, true},
		{models.StatusVerifying, models.StatusDeclined, true},
		{models.StatusNonVerified, models.StatusVerified, false},
		{models.StatusVerifying, models.StatusNonVerified, false},
		{models.StatusVerified, models.StatusDeclined, false},
		{models.StatusDeclined, models.StatusVerifying, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestValidTransitions_TerminalStatesHaveNoEdges(t *testing.T) {
	for _, st := range models.MessageStatuses {
		if st.Terminal() && len(ValidTransitions[st]) != 0 {
			t.Errorf("%q is terminal but has transitions %v", st, ValidTransitions[st])
		}
	}
}

func TestSourcesOf(t *testing.T) {
	got := strings.Join(sourcesOf(models.StatusVerifying), ",")
	if got != "Non Verified,Not Confirmed" {
		t.Errorf("sourcesOf(Verifying) = %s", got)
	}
	got = strings.Join(sourcesOf(models.StatusDeclined), ",")
	if got != "Non Verified,Not Confirmed,Verifying" {
		t.Errorf("sourcesOf(Declined) = %s", got)
	}
}

func TestConfirmationPrompt(t *testing.T) {
	got := ConfirmationPrompt("Maria", "Fire near the school", "Central")
	want := `Good day Maria, an incident was reported in Central: "Fire near the school". Reply YES to confirm or NO if this report is not accurate.`
	if got != want {
		t.Errorf("ConfirmationPrompt = %q, want %q", got, want)
	}
	if ConfirmationPrompt("Maria", "x", "Central") != ConfirmationPrompt("Maria", "x", "Central") {
		t.Error("prompt is not deterministic")
	}
}

func TestParseCaptainPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    CaptainPolicy
		wantErr bool
	}{
		{"require", RequireCaptain, false},
		{"", RequireCaptain, false},
		{"allow_missing", AllowMissingCaptain, false},
		{"sometimes", RequireCaptain, true},
	}
	for _, tt := range tests {
		got, err := ParseCaptainPolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCaptainPolicy(%q) = %v, %v", tt.in, got, err)
		}
	}
	if AllowMissingCaptain.String() != "allow_missing" || RequireCaptain.String() != "require" {
		t.Error("String() mismatch")
	}
}
