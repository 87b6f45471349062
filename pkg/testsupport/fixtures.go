package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-glimmer/pkg/app"
	"github.com/goliatone/go-glimmer/pkg/loader"
)

// LoadAppDir reads an application directory fixture.
func LoadAppDir(t *testing.T, dir string) *loader.Manifest {
	t.Helper()

	m, err := loader.LoadFS(os.DirFS(dir))
	if err != nil {
		t.Fatalf("load app dir %s: %v", dir, err)
	}
	return m
}

// BootManifest applies m to a new builder and boots it. The application is
// destroyed when the test ends.
func BootManifest(t *testing.T, m *loader.Manifest, opts ...app.Option) *app.Application {
	t.Helper()

	b := app.New(append(m.Options(), opts...)...)
	if err := m.Apply(b); err != nil {
		t.Fatalf("apply manifest: %v", err)
	}
	a, err := b.Boot(context.Background())
	if err != nil {
		t.Fatalf("boot: %v", err)
	}
	t.Cleanup(a.Destroy)
	return a
}

// MustHTML serializes the application's root element.
func MustHTML(t *testing.T, a *app.Application) string {
	t.Helper()

	out, err := a.HTML()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return out
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
