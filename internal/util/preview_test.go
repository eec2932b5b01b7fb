package util

import "testing"

func TestPreviewCollapsesAndClips(t *testing.T) {
	out := Preview("第一條\n\n  保險範圍\x00 說明", 100)
	if out != "第一條 保險範圍 說明" {
		t.Fatalf("unexpected preview: %q", out)
	}
	out = Preview("abcdefghij", 4)
	if out != "abcd..." {
		t.Fatalf("unexpected clipped preview: %q", out)
	}
}
