package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	origVersion := Version
	origCommitSHA := CommitSHA
	origBuildDate := BuildDate

	Version = "1.2.3"
	CommitSHA = "abc123"
	BuildDate = "2026-01-15"

	defer func() {
		Version = origVersion
		CommitSHA = origCommitSHA
		BuildDate = origBuildDate
	}()

	output := &bytes.Buffer{}
	versionCmd.SetOut(output)
	versionCmd.SetErr(output)

	versionCmd.Run(versionCmd, []string{})

	result := output.String()

	if !strings.Contains(result, "1.2.3") {
		t.Errorf("output should contain version '1.2.3', got: %s", result)
	}
	if !strings.Contains(result, "abc123") {
		t.Errorf("output should contain commit SHA 'abc123', got: %s", result)
	}
	if !strings.Contains(result, "2026-01-15") {
		t.Errorf("output should contain build date '2026-01-15', got: %s", result)
	}
	if !strings.Contains(result, "5.2.0") {
		t.Errorf("output should mention the spec-with-evidence operation version, got: %s", result)
	}
}

func TestVersionCommand_DevBuild(t *testing.T) {
	origVersion := Version
	Version = "dev"
	defer func() { Version = origVersion }()

	output := &bytes.Buffer{}
	versionCmd.SetOut(output)
	versionCmd.SetErr(output)

	versionCmd.Run(versionCmd, []string{})

	result := output.String()
	if !strings.Contains(result, "dev") {
		t.Errorf("dev build should show 'dev' version, got: %s", result)
	}
}

func TestVersionCommand_Structure(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd should not be nil")
	}
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Short == "" {
		t.Error("versionCmd.Short should not be empty")
	}

	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Use == "version" {
			found = true
			break
		}
	}
	if !found {
		t.Error("version command should be registered with root command")
	}
}
