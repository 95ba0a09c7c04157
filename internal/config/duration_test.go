package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParseDuration_DaysWeeksAndFallback(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"14d", 14 * 24 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
		{"1w2d3h", (7*24 + 2*24 + 3) * time.Hour},
		{"1.5d", 36 * time.Hour},
		{"-2w", -14 * 24 * time.Hour},
		{"90m", 90 * time.Minute}, // Go fallback
	}

	for _, tc := range cases {
		got, err := ParseDuration(tc.in)
		if err != nil {
			t.Fatalf("ParseDuration(%q) unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseDuration(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	bad := []string{"", "   ", "3x", "2d3x", "-"}
	for _, in := range bad {
		if _, err := ParseDuration(in); err == nil {
			t.Fatalf("ParseDuration(%q) expected error, got nil", in)
		}
	}
}

func TestDurationUnmarshalYAML(t *testing.T) {
	var out struct {
		Retention Duration `yaml:"retention"`
	}
	if err := yaml.Unmarshal([]byte("retention: 14d\n"), &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if out.Retention.Std() != 14*24*time.Hour {
		t.Fatalf("retention=%v, want 336h", out.Retention.Std())
	}

	if err := yaml.Unmarshal([]byte("retention: nope\n"), &out); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestDateUnmarshalYAML(t *testing.T) {
	var out struct {
		NotBefore Date `yaml:"not_before"`
	}
	if err := yaml.Unmarshal([]byte("not_before: \"2026-02-01\"\n"), &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	want := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if !out.NotBefore.Equal(want) {
		t.Fatalf("not_before=%v, want %v", out.NotBefore.Time, want)
	}

	if err := yaml.Unmarshal([]byte("not_before: \"02/01/2026\"\n"), &out); err == nil {
		t.Fatalf("expected error for invalid date")
	}
}
