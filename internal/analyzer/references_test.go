package analyzer

import "testing"

func TestReferences_ExcludesSelfDefinition(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_GetWidgets AS
BEGIN
	SELECT * FROM dbo.Widgets WHERE Id = 1;
END`
	r := References(sql)
	for _, tbl := range r.Tables {
		if tbl == "DBO.USP_GETWIDGETS" {
			t.Fatalf("self-definition leaked into table references: %+v", r.Tables)
		}
	}
	found := false
	for _, tbl := range r.Tables {
		if tbl == "DBO.WIDGETS" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected DBO.WIDGETS in tables, got %+v", r.Tables)
	}
}

func TestReferences_MergeUpdateSetNotMisreadAsTable(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_Merge AS
BEGIN
	MERGE INTO dbo.Target AS t
	USING dbo.Source AS s ON t.Id = s.Id
	WHEN MATCHED THEN UPDATE SET t.Val = s.Val
	WHEN NOT MATCHED THEN INSERT (Id, Val) VALUES (s.Id, s.Val);
END`
	r := References(sql)
	for _, tbl := range r.Tables {
		if tbl == "SET" {
			t.Fatalf("MERGE...UPDATE SET misread as table reference: %+v", r.Tables)
		}
	}
}

func TestReferences_IgnoresCommentedOutReferences(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_Commented AS
BEGIN
	-- SELECT * FROM dbo.ShouldNotAppear
	SELECT * FROM dbo.RealTable;
END`
	r := References(sql)
	for _, tbl := range r.Tables {
		if tbl == "DBO.SHOULDNOTAPPEAR" {
			t.Fatalf("commented-out reference leaked through: %+v", r.Tables)
		}
	}
}

func TestReferences_DetectsExecAndCallables(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_Caller AS
BEGIN
	EXEC dbo.usp_Callee @Id = 1;
	SELECT dbo.ufn_Compute(1);
END`
	r := References(sql)
	wantExec, wantFn := false, false
	for _, f := range r.Functions {
		if f == "DBO.USP_CALLEE" {
			wantExec = true
		}
		if f == "DBO.UFN_COMPUTE" {
			wantFn = true
		}
	}
	if !wantExec || !wantFn {
		t.Fatalf("expected both EXEC target and function call, got %+v", r.Functions)
	}
}

func TestReferences_ResultsAreSortedAndDeduped(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_Dup AS
BEGIN
	SELECT * FROM dbo.B;
	SELECT * FROM dbo.A;
	SELECT * FROM dbo.B;
END`
	r := References(sql)
	if len(r.Tables) != 2 || r.Tables[0] != "DBO.A" || r.Tables[1] != "DBO.B" {
		t.Fatalf("expected sorted deduped [DBO.A DBO.B], got %+v", r.Tables)
	}
}
