package parse

import (
	"testing"

	"github.com/routepulse/collector-cli/internal/model"
)

func TestClassifyService(t *testing.T) {
	tests := []struct {
		in           string
		want         model.ServiceClass
		unclassified bool
	}{
		{"A/C Sleeper (2+1)", model.ServiceACSleeper, false},
		{"NON AC Sleeper", model.ServiceNonACSleeper, false},
		{"AC Seater Pushback", model.ServiceACSeater, false},
		{"Non-AC Seater", model.ServiceNonACSeater, false},
		{"AC Semi Sleeper", model.ServiceACSemiSleeper, false},
		{"Volvo Multi-Axle A/C Semi-Sleeper", model.ServiceACSemiSleeper, false},
		{"Sleeper", model.ServiceSleeper, false},
		{"Seater", model.ServiceSeater, false},
		{"AC", model.ServiceAC, false},
		{"Non AC", model.ServiceNonAC, false},
		{"Deluxe Coach", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got := ClassifyService(tt.in)
		if got.Unclassified != tt.unclassified {
			t.Errorf("ClassifyService(%q) unclassified = %v, want %v", tt.in, got.Unclassified, tt.unclassified)
			continue
		}
		if !tt.unclassified && got.Class != tt.want {
			t.Errorf("ClassifyService(%q) = %q, want %q", tt.in, got.Class, tt.want)
		}
	}
}

func TestClassifyService_PreservesRawText(t *testing.T) {
	got := ClassifyService("Deluxe Express Coach")
	if !got.Unclassified {
		t.Fatal("expected unclassified")
	}
	if got.Raw != "Deluxe Express Coach" {
		t.Errorf("raw text not preserved: %q", got.Raw)
	}
}

func TestClassifyService_ACNotMatchedInsideWords(t *testing.T) {
	got := ClassifyService("Pushback Coach")
	if !got.Unclassified {
		t.Errorf("expected unclassified for %q, got %q", "Pushback Coach", got.Class)
	}
}
