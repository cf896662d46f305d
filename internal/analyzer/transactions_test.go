package analyzer

import "testing"

func TestTransactions_TryCatchWithIsolationAndXactAbort(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_Transfer AS
BEGIN
	SET XACT_ABORT ON;
	SET TRANSACTION ISOLATION LEVEL READ COMMITTED;
	BEGIN TRY
		BEGIN TRAN
		UPDATE dbo.Accounts SET Balance = Balance - 1 WHERE Id = 1;
		COMMIT TRANSACTION
	END TRY
	BEGIN CATCH
		ROLLBACK TRAN
		THROW;
	END CATCH
END`
	r := Transactions(sql)

	if !r.UsesTransaction {
		t.Fatalf("expected uses_transaction=true")
	}
	if r.BeginCount != 1 {
		t.Fatalf("expected begin_count=1, got %d", r.BeginCount)
	}
	if r.CommitCount != 1 {
		t.Fatalf("expected commit_count=1, got %d", r.CommitCount)
	}
	if r.RollbackCount != 1 {
		t.Fatalf("expected rollback_count=1, got %d", r.RollbackCount)
	}
	if !r.HasTryCatch {
		t.Fatalf("expected has_try_catch=true")
	}
	if r.XactAbort != "ON" {
		t.Fatalf("expected xact_abort=ON, got %q", r.XactAbort)
	}
	if r.IsolationLevel != "READ COMMITTED" {
		t.Fatalf("expected isolation_level=READ COMMITTED, got %q", r.IsolationLevel)
	}
	if !r.HasThrow {
		t.Fatalf("expected has_throw=true")
	}

	want := map[string]bool{
		"BEGIN TRAN": false, "COMMIT": false, "ROLLBACK": false, "TRY/CATCH": false,
		"XACT_ABORT ON": false, "ISOLATION LEVEL READ COMMITTED": false, "THROW": false,
	}
	for _, s := range r.Signals {
		if _, ok := want[s]; ok {
			want[s] = true
		}
	}
	for sig, seen := range want {
		if !seen {
			t.Fatalf("expected signal %q in %+v", sig, r.Signals)
		}
	}
}

func TestTransactions_NoTransactionalStructure(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_ReadOnly AS
BEGIN
	SELECT * FROM dbo.Widgets;
END`
	r := Transactions(sql)
	if r.UsesTransaction {
		t.Fatalf("expected uses_transaction=false")
	}
	if len(r.Signals) != 0 {
		t.Fatalf("expected no signals, got %+v", r.Signals)
	}
}

func TestTransactions_LastIsolationLevelWins(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_Multi AS
BEGIN
	SET TRANSACTION ISOLATION LEVEL READ UNCOMMITTED;
	SET TRANSACTION ISOLATION LEVEL SERIALIZABLE;
	SELECT 1;
END`
	r := Transactions(sql)
	if r.IsolationLevel != "SERIALIZABLE" {
		t.Fatalf("expected last-wins SERIALIZABLE, got %q", r.IsolationLevel)
	}
}

func TestTransactions_IgnoresCommentedOutDirectives(t *testing.T) {
	sql := `CREATE PROCEDURE dbo.usp_Commented AS
BEGIN
	-- BEGIN TRAN
	SELECT 1;
END`
	r := Transactions(sql)
	if r.UsesTransaction {
		t.Fatalf("expected commented-out BEGIN TRAN to not count, got %+v", r)
	}
}
