package scoring

import "testing"

func TestTxBoundary_ReadOnlyIsNone(t *testing.T) {
	r := TxBoundary(Signals{})

	if r.Boundary != BoundaryNone {
		t.Fatalf("boundary = %q, want none", r.Boundary)
	}
	if r.Transactional {
		t.Fatal("expected transactional=false")
	}
	if r.Propagation != PropagationSupports {
		t.Fatalf("propagation = %q, want SUPPORTS", r.Propagation)
	}
	if !r.ReadOnly {
		t.Fatal("expected read_only=true")
	}
	if r.Confidence != 0.85 {
		t.Fatalf("confidence = %v, want 0.85", r.Confidence)
	}
	if len(r.Suggestions) != 1 || r.Suggestions[0] != "SUG_NO_TX_READONLY" {
		t.Fatalf("suggestions = %v, want [SUG_NO_TX_READONLY]", r.Suggestions)
	}
}

func TestTxBoundary_WritesWithoutSQLManagedTxnIsServiceLayer(t *testing.T) {
	r := TxBoundary(Signals{Writes: true})

	if r.Boundary != BoundaryServiceLayer {
		t.Fatalf("boundary = %q, want service_layer", r.Boundary)
	}
	if r.Propagation != PropagationRequired {
		t.Fatalf("propagation = %q, want REQUIRED", r.Propagation)
	}
	if r.Confidence != 0.75 {
		t.Fatalf("confidence = %v, want 0.75", r.Confidence)
	}
}

func TestTxBoundary_WritesWithTxnAndRollbackIsHybridNotSupported(t *testing.T) {
	s := Signals{Writes: true, UsesTransaction: true, TryCatch: true, RollbackInCatch: true}
	r := TxBoundary(s)

	if r.Boundary != BoundaryHybrid {
		t.Fatalf("boundary = %q, want hybrid", r.Boundary)
	}
	if r.Propagation != PropagationNotSupported {
		t.Fatalf("propagation = %q, want NOT_SUPPORTED", r.Propagation)
	}
	want := 0.75 - 0.15
	if r.Confidence != want {
		t.Fatalf("confidence = %v, want %v (−0.15 for SQL-managed txn)", r.Confidence, want)
	}
	found := false
	for _, a := range r.AntiPatterns {
		if a == "ANTI_NESTED_TX" {
			found = true
		}
	}
	if !found {
		t.Fatalf("anti_patterns = %v, want ANTI_NESTED_TX present", r.AntiPatterns)
	}
}

func TestTxBoundary_SwallowedErrorsAntiPatternWhenTryCatchWithoutRollback(t *testing.T) {
	s := Signals{Writes: true, UsesTransaction: true, TryCatch: true, RollbackInCatch: false}
	r := TxBoundary(s)

	found := false
	for _, a := range r.AntiPatterns {
		if a == "ANTI_SWALLOW_ERRORS" {
			found = true
		}
	}
	if !found {
		t.Fatalf("anti_patterns = %v, want ANTI_SWALLOW_ERRORS present", r.AntiPatterns)
	}
	if r.Propagation != PropagationRequiresNew {
		t.Fatalf("propagation = %q, want REQUIRES_NEW", r.Propagation)
	}
}

func TestTxBoundary_ConfidenceClampedAtFloor(t *testing.T) {
	s := Signals{
		Writes: true, UsesTransaction: true, TryCatch: true, RollbackInCatch: true,
		CyclomaticComplexity: 20, Cursor: true,
	}
	r := TxBoundary(s)

	if r.Confidence < 0.5 {
		t.Fatalf("confidence = %v, want clamped to >= 0.5", r.Confidence)
	}
}
