package install

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyTreeSingleFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatalf("writing src: %v", err)
	}
	if err := copyTree(src, dst); err != nil {
		t.Fatalf("copyTree: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "hello" {
		t.Errorf("dst contents = %q, %v, want hello, nil", got, err)
	}
}

func TestCopyTreeFreshDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.MkdirAll(filepath.Join(src, "pkg"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "pkg", "mod.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if err := copyTree(src, dst); err != nil {
		t.Fatalf("copyTree: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "pkg", "mod.py")); err != nil {
		t.Errorf("expected copied file to exist: %v", err)
	}
}

func TestCopyTreeMergesIntoExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatalf("mkdir src: %v", err)
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		t.Fatalf("mkdir dst: %v", err)
	}
	// dst already has an entry from a prior install; src brings a new one.
	if err := os.WriteFile(filepath.Join(dst, "already_there.py"), []byte("old"), 0o644); err != nil {
		t.Fatalf("seeding dst: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "new_module.py"), []byte("new"), 0o644); err != nil {
		t.Fatalf("writing src: %v", err)
	}

	if err := copyTree(src, dst); err != nil {
		t.Fatalf("copyTree: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "already_there.py")); err != nil {
		t.Errorf("expected pre-existing file to survive the merge: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dst, "new_module.py"))
	if err != nil || string(got) != "new" {
		t.Errorf("new_module.py = %q, %v, want new, nil", got, err)
	}
}
