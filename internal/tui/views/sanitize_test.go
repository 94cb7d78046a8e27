package views

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"newline kept", "a\nb\tc", "a\nb\tc"},
		{"ansi escape", "\x1b[2Jboom", "[2Jboom"},
		{"bell and del", "a\x07b\x7f", "ab"},
		{"skin tone", "👍🏻", "👍"},
		{"zwj family", "👨‍👩", "👨👩"},
		{"variation selector", "❤️", "❤"},
		{"invalid utf8", "ok\xffok", "okok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitize(tt.in); got != tt.want {
				t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
