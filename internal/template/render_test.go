package template

import (
	"testing"
	"time"
)

func TestRenderSubstitutesContactPlaceholders(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	contact := Contact{Name: "Ada Lovelace", Number: "5511999887766", Email: "ada@example.com"}

	got := renderAt("Hi {{firstName}}, we have {{name}} on file at {{number}} ({{email}}).", contact, now)
	want := "Hi Ada, we have Ada Lovelace on file at 5511999887766 (ada@example.com)."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderTimePlaceholders(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 5, 0, time.UTC)

	got := renderAt("{{greeting}}! Today is {{date}} at {{hour}}, protocol {{protocol}}.", Contact{}, now)
	want := "Good afternoon! Today is 15-03-2024 at 14:30, protocol 20240315143005."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderGreetingByHour(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{7, "Good morning"},
		{12, "Good afternoon"},
		{19, "Good evening"},
		{23, "Good night"},
		{3, "Good night"},
	}
	for _, tc := range cases {
		now := time.Date(2024, 3, 15, tc.hour, 0, 0, 0, time.UTC)
		if got := greeting(now); got != tc.want {
			t.Errorf("hour %d: got %q, want %q", tc.hour, got, tc.want)
		}
	}
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	got := renderAt("{{unknown}} stays", Contact{}, time.Now())
	if got != "{{unknown}} stays" {
		t.Errorf("got %q", got)
	}
}

func TestRenderEmptyNameYieldsEmptyFirstName(t *testing.T) {
	got := renderAt("Hi {{firstName}}.", Contact{}, time.Now())
	if got != "Hi ." {
		t.Errorf("got %q", got)
	}
}
