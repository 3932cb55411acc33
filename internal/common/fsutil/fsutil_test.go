package fsutil

import (
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home) // windows

	if got, err := ExpandHome("/tmp"); err != nil || got != "/tmp" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if got, err := ExpandHome("~"); err != nil || got != home {
		t.Fatalf("got %q err=%v", got, err)
	}
	got, err := ExpandHome("~/models/llm")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if want := filepath.Join(home, "models", "llm"); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	if !PathExists(dir) {
		t.Fatal("existing dir reported missing")
	}
	if PathExists(filepath.Join(dir, "nope")) {
		t.Fatal("missing path reported present")
	}
}
