package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSeedDir(t *testing.T) {
	// Use the actual seed directory
	seedDir := filepath.Join("..", "..", "seed")

	if _, err := os.Stat(seedDir); os.IsNotExist(err) {
		t.Skip("seed directory not found, skipping")
	}

	paths, err := LoadSeedDir(seedDir)
	if err != nil {
		t.Fatalf("LoadSeedDir failed: %v", err)
	}
	if len(paths) < 1 {
		t.Fatal("expected at least one career path")
	}

	found := false
	for _, cp := range paths {
		if cp.ID != "backend" {
			continue
		}
		found = true

		if cp.Title != "Backend Development" {
			t.Errorf("unexpected title: %s", cp.Title)
		}
		if len(cp.LearningPaths) < 2 {
			t.Errorf("expected at least 2 learning paths, got %d", len(cp.LearningPaths))
		}
	}
	if !found {
		t.Fatal("backend career path not found in seed")
	}
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "frontend.yaml")
	writeFile(t, good, `
title: Frontend Development
description: Browser-side engineering.
learning_paths:
  - id: html-css
    title: HTML and CSS
    order: 1
    skills:
      - id: html-basics
        title: HTML Basics
        order: 1
        resources:
          - id: mdn-html
            title: MDN HTML
            type: documentation
            url: https://example.com/html
`)

	cp, err := LoadSeedFile(good)
	if err != nil {
		t.Fatalf("LoadSeedFile failed: %v", err)
	}

	// Missing id defaults to the file name
	if cp.ID != "frontend" {
		t.Errorf("expected id from file name, got %q", cp.ID)
	}
	if len(cp.LearningPaths) != 1 {
		t.Fatalf("expected 1 learning path, got %d", len(cp.LearningPaths))
	}

	// Invalid documents are rejected
	bad := filepath.Join(dir, "broken.yaml")
	writeFile(t, bad, `
title: Broken
learning_paths:
  - id: lp1
    title: LP
    prerequisites:
      - does-not-exist
`)

	if _, err := LoadSeedFile(bad); err == nil {
		t.Error("expected validation error for dangling prerequisite")
	}
}

func TestLoadSeedDirSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "good.yaml"), `
title: Good
`)
	writeFile(t, filepath.Join(dir, "bad.yaml"), `{{{not yaml`)
	writeFile(t, filepath.Join(dir, "ignored.txt"), `not a seed`)

	paths, err := LoadSeedDir(dir)
	if err != nil {
		t.Fatalf("LoadSeedDir failed: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("expected 1 loaded path, got %d", len(paths))
	}
	if paths[0].ID != "good" {
		t.Errorf("unexpected path id %q", paths[0].ID)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
