package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestScoreCmd_UnknownKindReturnsError(t *testing.T) {
	scoreKind = "not-a-real-kind"
	defer func() { scoreKind = "" }()

	tmpDir := t.TempDir()
	sqlFile := filepath.Join(tmpDir, "proc.sql")
	os.WriteFile(sqlFile, []byte("CREATE PROCEDURE dbo.usp_x AS SELECT 1"), 0644)

	if err := scoreCmd.RunE(scoreCmd, []string{sqlFile}); err == nil {
		t.Error("expected error for unknown --kind, got nil")
	}
}

func TestScoreCmd_EveryKindRuns(t *testing.T) {
	viper.Reset()
	viper.Set("format", "json")

	tmpDir := t.TempDir()
	sqlFile := filepath.Join(tmpDir, "proc.sql")
	os.WriteFile(sqlFile, []byte(`CREATE PROCEDURE dbo.usp_bulk_update AS
BEGIN
	DECLARE cur CURSOR FOR SELECT id FROM dbo.account
	UPDATE dbo.account SET balance = balance - 1
END`), 0644)

	for kind := range scoreKinds {
		t.Run(kind, func(t *testing.T) {
			scoreKind = kind
			defer func() { scoreKind = "" }()

			out := captureStdout(t, func() {
				if err := scoreCmd.RunE(scoreCmd, []string{sqlFile}); err != nil {
					t.Fatalf("kind %s: unexpected error: %v", kind, err)
				}
			})
			if out == "" {
				t.Fatalf("kind %s: expected rendered output, got empty string", kind)
			}
		})
	}
}
