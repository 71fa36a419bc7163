package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDisplayValue(t *testing.T) {
	tests := []struct {
		envVar, value, want string
	}{
		{"LLAMA_API_KEY", "gsk_1234567890abcdef", "gsk_****cdef"},
		{"GOOGLE_API_KEY", "short", "****"},
		{"DATABASE_URL", "postgres://acido:s3cr3t@db:5432/mentor", "postgres://acido:****@db:5432/mentor"},
		{"DATABASE_URL", "postgres://acido:p@ss@db:5432/mentor", "postgres://acido:****@db:5432/mentor"},
		{"LLAMA_BASE_URL", "https://api.groq.com/openai/v1", "https://api.groq.com/openai/v1"},
		{"CAPABLE_MODEL", "llama-3.3-70b-versatile", "llama-3.3-70b-versatile"},
	}
	for _, tt := range tests {
		if got := displayValue(tt.envVar, tt.value); got != tt.want {
			t.Errorf("displayValue(%s, %q) = %q, want %q", tt.envVar, tt.value, got, tt.want)
		}
	}
}

func TestFindMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_index.sql", "001_init.sql", "notes.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := findMigrationFiles(dir, "")
	if err != nil {
		t.Fatalf("findMigrationFiles: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "001_init.sql" {
		t.Fatalf("unexpected files: %v", files)
	}

	if _, err := findMigrationFiles(dir, "999_missing.sql"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
