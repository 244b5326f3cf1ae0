package helpers

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct{ in, want string }{
		{"0.00017000", "0\\.00017000"},
		{"+1.50", "\\+1\\.50"},
		{"a_b*c", "a\\_b\\*c"},
		{"back\\slash", "back\\\\slash"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := EscapeMarkdownV2(tt.in); got != tt.want {
			t.Errorf("EscapeMarkdownV2(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripMarkdownV2(t *testing.T) {
	tests := []struct{ in, want string }{
		{"*SHIB/MXN*: $0\\.00017000", "SHIB/MXN: $0.00017000"},
		{"_nota_ \\*literal\\*", "nota *literal*"},
		{"`code` \\\\ end", "code \\ end"},
	}
	for _, tt := range tests {
		if got := StripMarkdownV2(tt.in); got != tt.want {
			t.Errorf("StripMarkdownV2(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripUndoesEscape(t *testing.T) {
	for _, s := range []string{"1.234,5 (x) [y] -z- #!", "a\\b", "100 MXN = 588,235 SHIB"} {
		if got := StripMarkdownV2(EscapeMarkdownV2(s)); got != s {
			t.Errorf("round trip of %q gave %q", s, got)
		}
	}
}

func TestFormatters(t *testing.T) {
	if got := FormatFixed(0.00017, 8, false); got != "0.00017000" {
		t.Errorf("FormatFixed = %q", got)
	}
	if got := FormatFixed(1234.5, 2, true); got != "1,234\\.50" {
		t.Errorf("FormatFixed escaped = %q", got)
	}
	if got := FormatSignedPercent(1.5, false); got != "+1.50" {
		t.Errorf("FormatSignedPercent = %q", got)
	}
	if got := FormatSignedPercent(-0.125, true); got != "\\-0\\.12" && got != "\\-0\\.13" {
		t.Errorf("FormatSignedPercent negative = %q", got)
	}
	if got := FormatRoundedUS(588235, false); got != "588,235" {
		t.Errorf("FormatRoundedUS = %q", got)
	}
	if got := FormatVolume(2500000.4); got != "2,500,000" {
		t.Errorf("FormatVolume = %q", got)
	}
}
