package logging

import "testing"

func TestNew_Levels(t *testing.T) {
	cases := []struct {
		env   string
		debug bool
		want  string
	}{
		{"production", false, "info"},
		{"development", false, "info"},
		{"development", true, "debug"},
		{"production", true, "debug"},
	}
	for _, tc := range cases {
		l, err := New(tc.env, tc.debug)
		if err != nil {
			t.Fatalf("New(%q, %v): %v", tc.env, tc.debug, err)
		}
		if got := l.Level().String(); got != tc.want {
			t.Fatalf("New(%q, %v) level = %s, want %s", tc.env, tc.debug, got, tc.want)
		}
	}
}
