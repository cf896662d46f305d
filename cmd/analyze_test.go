package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// everything written to it, since the cmd subcommands render straight to
// os.Stdout like the teacher's plan.go does.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	w.Close()
	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestAnalyzeCmd_RunEProducesJSONByDefault(t *testing.T) {
	viper.Reset()
	viper.Set("format", "json")

	tmpDir := t.TempDir()
	sqlFile := filepath.Join(tmpDir, "proc.sql")
	os.WriteFile(sqlFile, []byte("CREATE PROCEDURE dbo.usp_get_customer AS BEGIN SELECT id FROM dbo.customer WHERE id = 1 END"), 0644)

	out := captureStdout(t, func() {
		if err := analyzeCmd.RunE(analyzeCmd, []string{sqlFile}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	if out == "" {
		t.Fatal("expected rendered output, got empty string")
	}
}

func TestAnalyzeCmd_MissingFileReturnsError(t *testing.T) {
	if err := analyzeCmd.RunE(analyzeCmd, []string{"/nonexistent/file.sql"}); err == nil {
		t.Error("expected error for nonexistent file, got nil")
	}
}
