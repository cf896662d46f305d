package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tsqlspec/tsqlspec/internal/model"
)

func TestObjectFromSQL_DetectsProcedureNameAndType(t *testing.T) {
	obj := objectFromSQL("CREATE PROCEDURE dbo.usp_get_customer AS BEGIN SELECT 1 END")
	if obj.Name != "dbo.usp_get_customer" {
		t.Errorf("Name = %q, want dbo.usp_get_customer", obj.Name)
	}
	if obj.Type != model.Procedure {
		t.Errorf("Type = %q, want procedure", obj.Type)
	}
}

func TestObjectFromSQL_DetectsFunctionAndView(t *testing.T) {
	fn := objectFromSQL("CREATE FUNCTION dbo.fn_total(@id INT) RETURNS INT AS BEGIN RETURN 1 END")
	if fn.Type != model.Function {
		t.Errorf("Type = %q, want function", fn.Type)
	}

	view := objectFromSQL("CREATE VIEW dbo.vw_customers AS SELECT id FROM dbo.customer")
	if view.Type != model.View {
		t.Errorf("Type = %q, want view", view.Type)
	}
}

func TestObjectFromSQL_NoHeaderFallsBackToUnknown(t *testing.T) {
	obj := objectFromSQL("SELECT 1")
	if obj.Name != "unknown_object" {
		t.Errorf("Name = %q, want unknown_object", obj.Name)
	}
}

func TestReadSQLInput_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	sqlFile := filepath.Join(tmpDir, "test.sql")
	content := "CREATE PROCEDURE dbo.usp_x AS SELECT 1"
	if err := os.WriteFile(sqlFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	got, err := readSQLInput(sqlFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != content {
		t.Errorf("readSQLInput() = %q, want %q", got, content)
	}
}

func TestReadSQLInput_FileNotFound(t *testing.T) {
	if _, err := readSQLInput("/nonexistent/file.sql"); err == nil {
		t.Error("expected error for nonexistent file, got nil")
	}
}

func TestLoadCorpus_ReadsEveryPath(t *testing.T) {
	tmpDir := t.TempDir()
	a := filepath.Join(tmpDir, "a.sql")
	b := filepath.Join(tmpDir, "b.sql")
	os.WriteFile(a, []byte("CREATE PROCEDURE dbo.usp_a AS SELECT 1"), 0644)
	os.WriteFile(b, []byte("CREATE PROCEDURE dbo.usp_b AS EXEC dbo.usp_a"), 0644)

	corpus, err := loadCorpus([]string{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(corpus) != 2 {
		t.Fatalf("len(corpus) = %d, want 2", len(corpus))
	}
	if corpus[0].Name != "dbo.usp_a" || corpus[1].Name != "dbo.usp_b" {
		t.Errorf("corpus names = %q, %q", corpus[0].Name, corpus[1].Name)
	}
}
