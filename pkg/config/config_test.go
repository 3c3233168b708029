package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "remindd")
	path := writeFile(t, "name: ${SAMPLE_NAME}\nport: 8080\n")
	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Name != "remindd" || s.Port != 8080 {
		t.Fatalf("unexpected config: %#v", s)
	}
}

func TestLoadRunsValidation(t *testing.T) {
	path := writeFile(t, "name: x\nport: 0\n")
	var s sample
	err := Load(path, &s)
	if err == nil || !strings.Contains(err.Error(), "port must be positive") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadOptionalKeepsDefaults(t *testing.T) {
	s := sample{Name: "default", Port: 1}
	if err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &s); err != nil {
		t.Fatalf("load optional: %v", err)
	}
	if s.Name != "default" {
		t.Fatalf("defaults overwritten: %#v", s)
	}
	if err := Load(filepath.Join(t.TempDir(), "missing.yaml"), &s); err == nil {
		t.Fatal("Load must fail for a missing file")
	}
}
