package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestCallGraphCmd_BuildsGraphOverCorpus(t *testing.T) {
	viper.Reset()
	viper.Set("format", "json")
	callGraphIgnoreDynamicExec = false
	callGraphExcludeProcedures = false
	callGraphExcludeFunctions = false

	tmpDir := t.TempDir()
	a := filepath.Join(tmpDir, "a.sql")
	b := filepath.Join(tmpDir, "b.sql")
	os.WriteFile(a, []byte("CREATE PROCEDURE dbo.usp_a AS BEGIN SELECT 1 END"), 0644)
	os.WriteFile(b, []byte("CREATE PROCEDURE dbo.usp_b AS BEGIN EXEC dbo.usp_a END"), 0644)

	out := captureStdout(t, func() {
		if err := callGraphCmd.RunE(callGraphCmd, []string{a, b}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
	if out == "" {
		t.Fatal("expected rendered output, got empty string")
	}
}
