package godebug

import "testing"

func TestSetting(t *testing.T) {
	s := New("timing")
	tests := []struct {
		env     string
		value   string
		enabled bool
	}{
		{"", "", false},
		{"timing=1", "1", true},
		{"other=1, timing=0", "0", false},
		{"timing=0,timing=1", "1", true},
		{"timings=1", "", false},
	}
	for _, tt := range tests {
		t.Setenv(EnvVar, tt.env)
		if got := s.Value(); got != tt.value {
			t.Errorf("%s: Value() = %q want %q", tt.env, got, tt.value)
		}
		if got := s.Enabled(); got != tt.enabled {
			t.Errorf("%s: Enabled() = %v want %v", tt.env, got, tt.enabled)
		}
	}
	t.Setenv(EnvVar, "timing=1")
	if got := s.String(); got != "timing=1" {
		t.Fatalf("got %q", got)
	}
}
