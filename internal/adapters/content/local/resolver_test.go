package local

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestResolver(t *testing.T) (*Resolver, string) {
	t.Helper()
	dir := t.TempDir()
	r, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestResolveMedia(t *testing.T) {
	r, dir := newTestResolver(t)
	writeFile(t, dir, "photo.jpg", "not really a jpeg")
	writeFile(t, dir, "clip.mp4", "not really a video")

	paths, err := r.ResolveMedia([]string{"photo.jpg", "clip.mp4"})
	if err != nil {
		t.Fatalf("ResolveMedia: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("got %d paths, want 2", len(paths))
	}
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			t.Errorf("path %q is not absolute", p)
		}
	}
}

func TestResolveMediaEmptyInput(t *testing.T) {
	r, _ := newTestResolver(t)
	paths, err := r.ResolveMedia(nil)
	if err != nil {
		t.Fatalf("ResolveMedia(nil): %v", err)
	}
	if paths != nil {
		t.Errorf("got %v, want nil", paths)
	}
}

func TestResolveMediaMissingFile(t *testing.T) {
	r, _ := newTestResolver(t)
	if _, err := r.ResolveMedia([]string{"nope.jpg"}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestResolveRejectsPathTraversal(t *testing.T) {
	r, dir := newTestResolver(t)
	writeFile(t, dir, "ok.jpg", "x")

	for _, name := range []string{
		"../etc/passwd",
		"sub/ok.jpg",
		"/etc/passwd",
		"",
	} {
		if _, err := r.ResolveMedia([]string{name}); err == nil {
			t.Errorf("name %q was accepted", name)
		}
	}
}

func TestResolveRejectsDirectory(t *testing.T) {
	r, dir := newTestResolver(t)
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ResolveMedia([]string{"subdir"}); err == nil {
		t.Fatal("directory was accepted as content")
	}
}

func TestResolveDocumentsRejectsNonPDF(t *testing.T) {
	r, dir := newTestResolver(t)
	writeFile(t, dir, "notes.txt", "hello")

	_, err := r.ResolveDocuments([]string{"notes.txt"})
	if err == nil || !strings.Contains(err.Error(), "not a PDF") {
		t.Fatalf("err = %v, want non-PDF rejection", err)
	}
}

func TestResolveDocumentsRejectsCorruptPDF(t *testing.T) {
	r, dir := newTestResolver(t)
	writeFile(t, dir, "broken.pdf", "this is not pdf syntax")

	if _, err := r.ResolveDocuments([]string{"broken.pdf"}); err == nil {
		t.Fatal("corrupt PDF was accepted")
	}
}
