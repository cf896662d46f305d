package scoring

import "github.com/tsqlspec/tsqlspec/internal/normalize"

// MappingApproach is the mapping-strategy decision, spec §4.11.
type MappingApproach string

const (
	ApproachRewriteToMyBatis MappingApproach = "rewrite_to_mybatis_sql"
	ApproachCallSPFirst      MappingApproach = "call_sp_first"
)

// MappingStrategyResult is the output of the Mapping Strategy scorer.
type MappingStrategyResult struct {
	Approach       MappingApproach `json:"approach"`
	DifficultyStep int             `json:"difficulty_step"`
	Confidence     float64         `json:"confidence"`
	Reasons        []string        `json:"reasons"`
}

const mappingDifficultyLadder = 4

// MappingStrategy implements spec §4.11's canonical Mapping Strategy
// decision function. targetStyle mirrors the optional caller-supplied
// hint ("" when absent).
func MappingStrategy(s Signals, targetStyle string) MappingStrategyResult {
	riskSignalCount := 0
	for _, present := range []bool{s.DynamicSQL, s.Cursor, s.TempObjects, s.Merge, s.LinkedServer(), s.SystemProcCount > 0} {
		if present {
			riskSignalCount++
		}
	}

	hasRiskPattern := s.Cursor || s.DynamicSQL || s.TempObjects || s.Merge
	complexTxn := s.UsesTransaction && s.Writes && s.CyclomaticComplexity >= 8

	approach := ApproachRewriteToMyBatis
	var reasons []string
	if hasRiskPattern {
		approach = ApproachCallSPFirst
		reasons = append(reasons, "risk_pattern_present")
	}
	if s.CyclomaticComplexity >= 12 {
		approach = ApproachCallSPFirst
		reasons = append(reasons, "complexity_ge_12")
	}
	if complexTxn {
		approach = ApproachCallSPFirst
		reasons = append(reasons, "transactional_write_with_high_complexity")
	}

	verySafe := riskSignalCount == 0 && s.CyclomaticComplexity <= 5
	if targetStyle == "call_sp_first" {
		if !verySafe {
			approach = ApproachCallSPFirst
			reasons = append(reasons, "target_style_hint")
		}
	}

	difficulty := 0
	if s.Writes {
		difficulty++
	}
	if s.UsesTransaction {
		difficulty++
	}
	if s.CyclomaticComplexity > 8 {
		difficulty++
	}
	difficulty += normalize.Clamp(riskSignalCount, 0, 2)
	difficulty = normalize.Clamp(difficulty, 0, mappingDifficultyLadder-1)

	var confidence float64
	readOnlySimple := !s.Writes && s.CyclomaticComplexity <= 3
	simpleSingleWrite := s.Writes && s.DistinctWriteOps == 1 && s.CyclomaticComplexity <= 3

	switch {
	case approach == ApproachCallSPFirst && riskSignalCount > 0:
		confidence = 0.85
	case approach == ApproachCallSPFirst:
		confidence = 0.65
	case readOnlySimple:
		confidence = 0.85
	case simpleSingleWrite:
		confidence = 0.75
	default:
		confidence = 0.65
	}
	confidence = normalize.ClampFloat(confidence, 0.5, 0.9)

	return MappingStrategyResult{
		Approach:       approach,
		DifficultyStep: difficulty,
		Confidence:     confidence,
		Reasons:        normalize.DedupInsertionOrder(reasons),
	}
}
