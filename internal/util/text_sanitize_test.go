package util

import "testing"

func TestSanitizeTextRemovesNulAndControls(t *testing.T) {
	in := "ab\x00cd\x01\x02\n\txy\x7f"
	out := SanitizeText(in)
	if out != "abcd\n\txy" {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

func TestTruncateRunesKeepsWholeCharacters(t *testing.T) {
	out, cut := TruncateRunes("保險契約條款", 4)
	if !cut || out != "保險契約" {
		t.Fatalf("unexpected truncation: %q cut=%v", out, cut)
	}
	out, cut = TruncateRunes("abc", 10)
	if cut || out != "abc" {
		t.Fatalf("short input should be unchanged: %q cut=%v", out, cut)
	}
	out, cut = TruncateRunes("abc", 3)
	if cut || out != "abc" {
		t.Fatalf("exact length should be unchanged: %q cut=%v", out, cut)
	}
}
