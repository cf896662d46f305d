package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestCallersCmd_MissingTargetReturnsError(t *testing.T) {
	callersTarget = ""
	tmpDir := t.TempDir()
	f := filepath.Join(tmpDir, "a.sql")
	os.WriteFile(f, []byte("CREATE PROCEDURE dbo.usp_a AS SELECT 1"), 0644)

	if err := callersCmd.RunE(callersCmd, []string{f}); err == nil {
		t.Error("expected error when --target is unset, got nil")
	}
}

func TestCallersCmd_FindsCallerInCorpus(t *testing.T) {
	viper.Reset()
	viper.Set("format", "json")

	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "target.sql")
	caller := filepath.Join(tmpDir, "caller.sql")
	os.WriteFile(target, []byte("CREATE PROCEDURE dbo.usp_get_customer AS BEGIN SELECT 1 END"), 0644)
	os.WriteFile(caller, []byte("CREATE PROCEDURE dbo.usp_caller AS BEGIN EXEC dbo.usp_get_customer END"), 0644)

	callersTarget = "dbo.usp_get_customer"
	callersTargetType = ""
	callersIncludeSelf = false
	defer func() { callersTarget = "" }()

	out := captureStdout(t, func() {
		if err := callersCmd.RunE(callersCmd, []string{target, caller}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if out == "" {
		t.Fatal("expected rendered output, got empty string")
	}
}
