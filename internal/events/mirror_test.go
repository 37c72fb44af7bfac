package events

import "testing"

func TestSubjectToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "default"},
		{"rest-1", "rest-1"},
		{"Cantina da Ana", "Cantina-da-Ana"},
		{"a.b>c*d", "a-b-c-d"},
	}
	for _, tt := range tests {
		if got := subjectToken(tt.in); got != tt.want {
			t.Errorf("subjectToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
