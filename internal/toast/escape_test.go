package toast

import "testing"

func TestEscapePowerShell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"it's done", "it''s done"},
		{"'quoted'", "''quoted''"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := escapePowerShell(tt.in); got != tt.want {
			t.Errorf("escapePowerShell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeAppleScript(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{`say "hello"`, `say \"hello\"`},
		{`C:\path`, `C:\\path`},
		{`\"`, `\\\"`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := escapeAppleScript(tt.in); got != tt.want {
			t.Errorf("escapeAppleScript(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
