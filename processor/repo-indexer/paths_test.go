package repoindexer

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestResolveRoots_NonGlob(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	if err := os.Mkdir(subDir, 0755); err != nil {
		t.Fatal(err)
	}

	roots, err := ResolveRoots([]string{subDir})
	if err != nil {
		t.Fatalf("ResolveRoots failed: %v", err)
	}
	if len(roots) != 1 || roots[0] != subDir {
		t.Errorf("expected [%s], got %v", subDir, roots)
	}
}

func TestResolveRoots_NotDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "file.txt")
	if err := os.WriteFile(filePath, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ResolveRoots([]string{filePath}); err == nil {
		t.Error("expected error for non-directory path")
	}
}

func TestResolveRoots_Glob(t *testing.T) {
	// tmpDir/services/{auth,users,db} plus a README that must not match.
	tmpDir := t.TempDir()
	services := filepath.Join(tmpDir, "services")
	for _, name := range []string{"auth", "users", "db"} {
		if err := os.MkdirAll(filepath.Join(services, name), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(services, "README.md"), []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	roots, err := ResolveRoots([]string{filepath.Join(services, "*")})
	if err != nil {
		t.Fatalf("ResolveRoots failed: %v", err)
	}
	sort.Strings(roots)
	want := []string{
		filepath.Join(services, "auth"),
		filepath.Join(services, "db"),
		filepath.Join(services, "users"),
	}
	if len(roots) != len(want) {
		t.Fatalf("expected %v, got %v", want, roots)
	}
	for i := range want {
		if roots[i] != want[i] {
			t.Errorf("roots[%d] = %q, want %q", i, roots[i], want[i])
		}
	}
}

func TestResolveRoots_Deduplicates(t *testing.T) {
	tmpDir := t.TempDir()
	roots, err := ResolveRoots([]string{tmpDir, tmpDir, filepath.Join(tmpDir, ".")})
	if err != nil {
		t.Fatalf("ResolveRoots failed: %v", err)
	}
	if len(roots) != 1 {
		t.Errorf("expected 1 root, got %v", roots)
	}
}

func TestResolveRoots_NoMatch(t *testing.T) {
	tmpDir := t.TempDir()
	if _, err := ResolveRoots([]string{filepath.Join(tmpDir, "missing-*")}); err == nil {
		t.Error("expected error when nothing matches")
	}
}
