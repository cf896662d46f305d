package scoring

import "github.com/tsqlspec/tsqlspec/internal/normalize"

// ReusabilityResult is the output of the Reusability scorer, spec §4.11.
type ReusabilityResult struct {
	Score         int                 `json:"score"`
	Grade         string              `json:"grade"`
	IsCandidate   bool                `json:"is_candidate"`
	CandidateType string              `json:"candidate_type,omitempty"`
	Reasons       []normalize.Reason  `json:"reasons"`
	Errors        []string            `json:"errors"`
}

const reusabilityMaxReasons = 20

// Reusability implements spec §4.11's canonical Reusability scoring
// formula.
func Reusability(s Signals, hasGuardClause bool) ReusabilityResult {
	reasons := normalize.NewReasonSet()
	score := 100

	if s.Writes {
		score -= 25
		reasons.Add("RSN_WRITES", 25, "Object performs data writes, limiting safe reuse as a pure query.")
	}
	if s.UsesTransaction {
		score -= 15
		reasons.Add("RSN_TXN", 15, "Object manages its own transaction boundary.")
	}
	if s.DynamicSQL {
		score -= 20
		reasons.Add("RSN_DYN_SQL", 20, "Dynamic SQL execution prevents static call-site analysis.")
	}
	if s.Cursor {
		score -= 20
		reasons.Add("RSN_CURSOR", 20, "Cursor-based iteration couples the object to row-by-row semantics.")
	}
	if s.TempObjects {
		score -= 10
		reasons.Add("RSN_TEMP_OBJECTS", 10, "Temporary tables/table variables carry session-scoped state.")
	}
	if s.TableCount > 5 {
		penalty := normalize.Clamp((s.TableCount-5)*2, 0, 20)
		score -= penalty
		reasons.Add("RSN_TABLE_FANOUT", penalty, "Object references more than five distinct tables.")
	}
	if s.CyclomaticComplexity > 5 {
		penalty := normalize.Clamp((s.CyclomaticComplexity-5)*2, 0, 20)
		score -= penalty
		reasons.Add("RSN_COMPLEXITY", penalty, "Cyclomatic complexity exceeds five branches/loops.")
	}
	if s.LinkedServer() || s.SystemProcCount > 0 {
		score -= 25
		reasons.Add("RSN_LINKED_OR_SYSTEM", 25, "Object reaches a linked server or an extended system procedure.")
	}

	readOnly := !s.Writes
	noTxn := !s.UsesTransaction
	noDynamic := !s.DynamicSQL
	if readOnly && noTxn && noDynamic && s.CyclomaticComplexity <= 3 {
		score += 5
		reasons.Add("RSN_SIMPLE_READ_ONLY", 5, "Read-only, transaction-free, simple control flow.")
	}

	score = normalize.Clamp(score, 0, 100)

	var grade string
	switch {
	case score >= 80:
		grade = "A"
	case score >= 65:
		grade = "B"
	case score >= 50:
		grade = "C"
	default:
		grade = "D"
	}

	isCandidate := score >= 65

	var candidateType string
	switch {
	case s.Writes:
		candidateType = "mutator"
	case readOnly && s.TableCount <= 3 && s.CyclomaticComplexity <= 3:
		candidateType = "lookup"
	case readOnly && hasGuardClause:
		candidateType = "validation"
	}

	reasonList := reasons.ByWeightThenID()
	capped, errs := normalize.CapN(reasonList, reusabilityMaxReasons, "reusability.reasons")

	return ReusabilityResult{
		Score:         score,
		Grade:         grade,
		IsCandidate:   isCandidate,
		CandidateType: candidateType,
		Reasons:       capped,
		Errors:        errs,
	}
}
