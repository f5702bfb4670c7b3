package youtubeadapter

import (
	"testing"
	"time"
)

func TestParseISODuration(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
	}{
		{"PT15S", 15 * time.Second},
		{"PT4M13S", 4*time.Minute + 13*time.Second},
		{"PT1H2M30S", time.Hour + 2*time.Minute + 30*time.Second},
		{"PT11H", 11 * time.Hour},
		{"P1DT2H", 26 * time.Hour},
		{"P0D", 0},
	}
	for _, tc := range cases {
		got, err := ParseISODuration(tc.raw)
		if err != nil {
			t.Fatalf("ParseISODuration(%q) errored: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseISODuration(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestParseISODurationRejectsInvalid(t *testing.T) {
	// "PT" with no components is what the API reports for live streams;
	// those must be rejected so they never enter inventory.
	for _, raw := range []string{"", "P", "PT", "4M13S", "PT1X", "PT1H2", "P1M"} {
		if _, err := ParseISODuration(raw); err == nil {
			t.Fatalf("ParseISODuration(%q) should have failed", raw)
		}
	}
}
