package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeJoinStripsTraversal(t *testing.T) {
	got := SafeJoin("/data/in", "../../etc/passwd")
	if got != filepath.Join("/data/in", "passwd") {
		t.Fatalf("unexpected join: %s", got)
	}
}

func TestListPDFs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.PDF", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := ListPDFs(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || filepath.Base(got[0]) != "a.PDF" || filepath.Base(got[1]) != "b.pdf" {
		t.Fatalf("unexpected listing: %v", got)
	}
}

func TestWriteJSONAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.json")
	if err := WriteJSONAtomic(path, map[string]int{"stored": 2}); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) == 0 {
		t.Fatalf("expected json content")
	}
}
