package scoring

import "github.com/tsqlspec/tsqlspec/internal/normalize"

// MyBatisDifficultyResult is the output of the MyBatis Difficulty scorer,
// spec §4.11.
type MyBatisDifficultyResult struct {
	Score                int                `json:"score"`
	Level                string             `json:"level"`
	EstimatedWorkUnits    int                `json:"estimated_work_units"`
	IsRewriteRecommended  bool               `json:"is_rewrite_recommended"`
	Reasons              []normalize.Reason `json:"reasons"`
	Errors               []string           `json:"errors"`
}

const mybatisMaxReasons = 20

// MyBatisDifficulty implements spec §4.11's canonical MyBatis Difficulty
// scoring formula.
func MyBatisDifficulty(s Signals) MyBatisDifficultyResult {
	reasons := normalize.NewReasonSet()
	score := 10

	if s.DynamicSQL {
		score += 25
		reasons.Add("FAC_DYN_SQL", 25, "Dynamic SQL requires manual MyBatis mapper translation.")
	}
	if s.Cursor {
		score += 25
		reasons.Add("FAC_CURSOR", 25, "Cursor-based loops have no direct MyBatis equivalent.")
	}
	if s.TempObjects {
		score += 12
		reasons.Add("FAC_TEMP_OBJECTS", 12, "Temp tables/table variables need a Java-side staging strategy.")
	}
	if s.Merge {
		score += 10
		reasons.Add("FAC_MERGE", 10, "MERGE has no single-statement MyBatis mapper equivalent.")
	}
	if s.OutputClause {
		score += 8
		reasons.Add("FAC_OUTPUT", 8, "OUTPUT clause results require a separate mapper result map.")
	}
	if s.Identity {
		score += 8
		reasons.Add("FAC_IDENTITY", 8, "Identity retrieval needs an explicit generated-key mapping.")
	}
	if s.UsesTransaction {
		score += 10
		reasons.Add("FAC_TXN", 10, "SQL-managed transaction needs to move to the service layer.")
	}
	if s.Writes {
		score += 10
		reasons.Add("FAC_WRITES", 10, "Write statements require mapper statements beyond simple selects.")
	}
	if s.DistinctWriteOps > 1 {
		bonus := normalize.Clamp(3*(s.DistinctWriteOps-1), 0, 12)
		score += bonus
		reasons.Add("FAC_MULTI_WRITE", bonus, "Multiple distinct write operation kinds in one object.")
	}
	if s.TryCatch {
		score += 5
		reasons.Add("FAC_TRY_CATCH", 5, "TRY/CATCH needs translation to Java exception handling.")
	}
	if s.AtAtError {
		score += 8
		reasons.Add("FAC_AT_ERROR", 8, "@@ERROR usage needs translation to exception-driven control flow.")
	}
	if s.CyclomaticComplexity > 5 {
		bonus := normalize.Clamp(2*(s.CyclomaticComplexity-5), 0, 20)
		score += bonus
		reasons.Add("FAC_COMPLEXITY", bonus, "Control flow complexity exceeds five branches/loops.")
	}
	if s.TableCount > 6 {
		bonus := normalize.Clamp(2*(s.TableCount-6), 0, 14)
		score += bonus
		reasons.Add("FAC_TABLE_FANOUT", bonus, "Object references more than six distinct tables.")
	}
	if s.FunctionCallCount > 10 {
		score += 5
		reasons.Add("FAC_FUNCTION_CALLS", 5, "High function-call density increases translation surface.")
	}

	score = normalize.Clamp(score, 0, 100)

	var level string
	switch {
	case score <= 24:
		level = "low"
	case score <= 49:
		level = "medium"
	case score <= 74:
		level = "high"
	default:
		level = "very_high"
	}

	workUnits := normalize.Clamp(roundDiv(score, 5), 0, 20)

	rewriteRecommended := (level == "low" || level == "medium") && !(s.Cursor || s.DynamicSQL)

	reasonList := reasons.ByWeightThenID()
	capped, errs := normalize.CapN(reasonList, mybatisMaxReasons, "mybatis_difficulty.reasons")

	return MyBatisDifficultyResult{
		Score:                score,
		Level:                level,
		EstimatedWorkUnits:   workUnits,
		IsRewriteRecommended: rewriteRecommended,
		Reasons:              capped,
		Errors:               errs,
	}
}

// roundDiv rounds score/5 to the nearest integer (half away from zero),
// matching spec's round(score/5).
func roundDiv(score, div int) int {
	if score < 0 {
		return -roundDiv(-score, div)
	}
	return (score + div/2) / div
}
