package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProjectConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lattice.toml")
	content := `
[package]
name = "demo"

[context]
allow-unregistered = true
dialects = ["calc"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := loadProjectConfig(path)
	if err != nil {
		t.Fatalf("loadProjectConfig: %v", err)
	}
	if cfg.Package.Name != "demo" {
		t.Fatalf("name = %q", cfg.Package.Name)
	}
	if !cfg.Context.AllowUnregistered || len(cfg.Context.Dialects) != 1 || cfg.Context.Dialects[0] != "calc" {
		t.Fatalf("context config wrong: %+v", cfg.Context)
	}
}

func TestLoadProjectConfigRejectsEmptyName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lattice.toml")
	if err := os.WriteFile(path, []byte("[package]\nname = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := loadProjectConfig(path); err == nil {
		t.Fatalf("empty package name accepted")
	}
}

func TestFindLatticeTomlWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	manifest := filepath.Join(root, "lattice.toml")
	if err := os.WriteFile(manifest, []byte("[package]\nname = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, ok, err := findLatticeToml(nested)
	if err != nil || !ok {
		t.Fatalf("findLatticeToml: ok=%v err=%v", ok, err)
	}
	if got != manifest {
		t.Fatalf("found %q, want %q", got, manifest)
	}
}
