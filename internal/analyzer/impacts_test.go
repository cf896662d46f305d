package analyzer

import "testing"

func hasImpact(r ImpactsResult, id string) bool {
	for _, it := range r.Impacts {
		if it.ID == id {
			return true
		}
	}
	return false
}

func TestMigrationImpacts_DynamicSQL(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_Dyn AS
BEGIN
	DECLARE @sql NVARCHAR(MAX) = N'SELECT 1';
	EXEC sp_executesql @sql;
END`
	r := MigrationImpacts(sql)
	if !hasImpact(r, ImpDynSQL) {
		t.Fatalf("expected IMP_DYN_SQL, got %+v", r.Impacts)
	}
}

func TestMigrationImpacts_CursorAndTempTableAndTableVariable(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_Cursor AS
BEGIN
	DECLARE @t TABLE (Id INT);
	SELECT * INTO #staging FROM dbo.Widgets;
	DECLARE cur CURSOR FOR SELECT Id FROM #staging;
END`
	r := MigrationImpacts(sql)
	for _, id := range []string{ImpCursor, ImpTempTable, ImpTableVariable} {
		if !hasImpact(r, id) {
			t.Fatalf("expected %s, got %+v", id, r.Impacts)
		}
	}
}

func TestMigrationImpacts_MergeAndOutputAndIdentity(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_MergeOut AS
BEGIN
	MERGE INTO dbo.Target AS t
	USING dbo.Source AS s ON t.Id = s.Id
	WHEN MATCHED THEN UPDATE SET t.Val = s.Val
	OUTPUT INSERTED.Id;
	SELECT SCOPE_IDENTITY();
END`
	r := MigrationImpacts(sql)
	for _, id := range []string{ImpMerge, ImpOutputClause, ImpIdentity} {
		if !hasImpact(r, id) {
			t.Fatalf("expected %s, got %+v", id, r.Impacts)
		}
	}
}

func TestMigrationImpacts_LinkedServerAndSystemProc(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_Remote AS
BEGIN
	SELECT * FROM OPENQUERY(LinkedSrv, 'SELECT 1');
	EXEC xp_cmdshell 'dir';
END`
	r := MigrationImpacts(sql)
	for _, id := range []string{ImpLinkedServer, ImpSystemProc} {
		if !hasImpact(r, id) {
			t.Fatalf("expected %s, got %+v", id, r.Impacts)
		}
	}
}

func TestMigrationImpacts_NondeterminismAndErrorSignaling(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_Nondet AS
BEGIN
	SELECT GETDATE(), NEWID();
	IF @@ERROR <> 0 THROW;
END`
	r := MigrationImpacts(sql)
	for _, id := range []string{ImpNondeterm, ImpErrorSignal} {
		if !hasImpact(r, id) {
			t.Fatalf("expected %s, got %+v", id, r.Impacts)
		}
	}
}

func TestMigrationImpacts_NoFalsePositivesOnPlainProc(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_Plain AS
BEGIN
	SELECT Id, Name FROM dbo.Widgets WHERE Id = 1;
END`
	r := MigrationImpacts(sql)
	if len(r.Impacts) != 0 {
		t.Fatalf("expected no impacts for plain SELECT, got %+v", r.Impacts)
	}
}

func TestMigrationImpacts_IgnoresCommentedOutTriggers(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_Commented AS
BEGIN
	-- EXEC sp_executesql @sql
	SELECT 1;
END`
	r := MigrationImpacts(sql)
	if hasImpact(r, ImpDynSQL) {
		t.Fatalf("expected commented-out sp_executesql to not trigger IMP_DYN_SQL")
	}
}
