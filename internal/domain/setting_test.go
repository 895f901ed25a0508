package domain

import "testing"

func TestParseEnabled(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"enabled", true},
		{"true", true},
		{"1", true},
		{" Enabled ", true},
		{"", false},
		{"0", false},
		{"false", false},
		{"disabled", false},
		{"DISABLED", false},
		{"off", false},
	}
	for _, tc := range cases {
		if got := ParseEnabled(tc.value); got != tc.want {
			t.Errorf("ParseEnabled(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestEscalationConfigActive(t *testing.T) {
	cases := []struct {
		cfg  EscalationConfig
		want bool
	}{
		{EscalationConfig{Enabled: true, WaitMinutes: 5}, true},
		{EscalationConfig{Enabled: true, WaitMinutes: 0}, false},
		{EscalationConfig{Enabled: true, WaitMinutes: -1}, false},
		{EscalationConfig{Enabled: false, WaitMinutes: 5}, false},
	}
	for _, tc := range cases {
		if got := tc.cfg.Active(); got != tc.want {
			t.Errorf("Active(%+v) = %v, want %v", tc.cfg, got, tc.want)
		}
	}
}
