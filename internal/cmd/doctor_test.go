package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hironow/babylon"
)

func TestDoctorCommand_HealthyProject(t *testing.T) {
	// given
	dir := newProject(t)
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"doctor", dir})

	// when
	err := cmd.Execute()

	// then
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, buf.String())
	}
}

func TestDoctorCommand_JSONReportsFailures(t *testing.T) {
	// given: no config, nothing to match
	dir := t.TempDir()
	cmd := NewRootCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"doctor", dir, "-o", "json"})

	// when
	err := cmd.Execute()

	// then
	if err == nil {
		t.Fatal("expected doctor to fail without languages")
	}
	var checks []babylon.DoctorCheck
	if err := json.Unmarshal(out.Bytes(), &checks); err != nil {
		t.Fatalf("parse JSON: %v\nraw: %s", err, out.String())
	}
	failed := map[string]bool{}
	for _, c := range checks {
		if !c.OK {
			failed[c.Name] = true
		}
	}
	for _, name := range []string{"languages", "patterns"} {
		if !failed[name] {
			t.Errorf("check %q should fail, got %+v", name, checks)
		}
	}
}

func TestDoctorCommand_RejectsExtraArgs(t *testing.T) {
	// given
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"doctor", "a", "b"})

	// when
	err := cmd.Execute()

	// then
	if err == nil {
		t.Fatal("expected error for extra args, got nil")
	}
}

// newProject creates a project with one message file translated into cz.
func newProject(t *testing.T) string {
	t.Helper()
	t.Setenv("BABYLON_QUIET", "1")
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "i18n"), 0755); err != nil {
		t.Fatal(err)
	}
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, "i18n", name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("common.properties", "hello=Hello\nbye=Goodbye\n")
	write("common_cz.properties", "hello=Ahoj\n")

	cfg := babylon.DefaultProjectConfig()
	cfg.Languages = []babylon.Language{"cz"}
	cfg.Patterns = []string{"i18n/*.properties"}
	if err := babylon.SaveProjectConfig(dir, cfg); err != nil {
		t.Fatal(err)
	}
	return dir
}
