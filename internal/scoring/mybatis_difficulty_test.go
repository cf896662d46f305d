package scoring

import "testing"

func TestMyBatisDifficulty_BaselineLowComplexitySimpleRead(t *testing.T) {
	r := MyBatisDifficulty(Signals{})

	if r.Score != 10 {
		t.Fatalf("score = %d, want 10 (baseline)", r.Score)
	}
	if r.Level != "low" {
		t.Fatalf("level = %q, want low", r.Level)
	}
	if !r.IsRewriteRecommended {
		t.Fatal("expected rewrite recommended for trivial low-complexity object")
	}
	if r.EstimatedWorkUnits != 2 {
		t.Fatalf("estimated_work_units = %d, want round(10/5)=2", r.EstimatedWorkUnits)
	}
}

func TestMyBatisDifficulty_CursorAndDynamicSQLBlockRewriteRecommendation(t *testing.T) {
	r := MyBatisDifficulty(Signals{Cursor: true, DynamicSQL: true})

	want := 10 + 25 + 25
	if r.Score != want {
		t.Fatalf("score = %d, want %d", r.Score, want)
	}
	if r.IsRewriteRecommended {
		t.Fatal("cursor+dynamic_sql should never recommend rewrite regardless of level")
	}
}

func TestMyBatisDifficulty_HighComplexityReachesVeryHigh(t *testing.T) {
	s := Signals{
		DynamicSQL: true, Cursor: true, TempObjects: true, Merge: true,
		OutputClause: true, Identity: true, UsesTransaction: true, Writes: true,
		DistinctWriteOps: 4, TryCatch: true, AtAtError: true,
		CyclomaticComplexity: 20, TableCount: 15, FunctionCallCount: 12,
	}
	r := MyBatisDifficulty(s)

	if r.Score != 100 {
		t.Fatalf("score = %d, want clamped 100", r.Score)
	}
	if r.Level != "very_high" {
		t.Fatalf("level = %q, want very_high", r.Level)
	}
	if r.EstimatedWorkUnits != 20 {
		t.Fatalf("estimated_work_units = %d, want clamp(round(100/5),0,20)=20", r.EstimatedWorkUnits)
	}
}

func TestMyBatisDifficulty_MultiWriteBonusCapsAtTwelve(t *testing.T) {
	r := MyBatisDifficulty(Signals{DistinctWriteOps: 10})

	want := 10 + 12
	if r.Score != want {
		t.Fatalf("score = %d, want %d (multi-write bonus capped at 12)", r.Score, want)
	}
}
