package scoring

import "github.com/tsqlspec/tsqlspec/internal/normalize"

// TxPropagation is the recommended Spring-style propagation setting.
type TxPropagation string

const (
	PropagationSupports    TxPropagation = "SUPPORTS"
	PropagationRequired    TxPropagation = "REQUIRED"
	PropagationRequiresNew TxPropagation = "REQUIRES_NEW"
	PropagationNotSupported TxPropagation = "NOT_SUPPORTED"
)

// TxBoundaryKind is where the transaction boundary should live.
type TxBoundaryKind string

const (
	BoundaryNone        TxBoundaryKind = "none"
	BoundaryServiceLayer TxBoundaryKind = "service_layer"
	BoundaryHybrid      TxBoundaryKind = "hybrid"
)

// TxBoundaryResult is the output of the Tx Boundary scorer, spec §4.11.
type TxBoundaryResult struct {
	Boundary      TxBoundaryKind `json:"boundary"`
	Transactional bool           `json:"transactional"`
	Propagation   TxPropagation  `json:"propagation"`
	ReadOnly      bool           `json:"read_only"`
	Confidence    float64        `json:"confidence"`
	Suggestions   []string       `json:"suggestions"`
	AntiPatterns  []string       `json:"anti_patterns"`
}

// TxBoundary implements spec §4.11's canonical Tx Boundary decision tree.
func TxBoundary(s Signals) TxBoundaryResult {
	riskSignal := s.Cursor || s.DynamicSQL || s.LinkedServer() || s.CrossDB()

	var result TxBoundaryResult
	var confidence float64
	var suggestions, antiPatterns []string

	switch {
	case !s.Writes:
		result = TxBoundaryResult{
			Boundary:      BoundaryNone,
			Transactional: false,
			Propagation:   PropagationSupports,
			ReadOnly:      true,
		}
		confidence = 0.85
		suggestions = append(suggestions, "SUG_NO_TX_READONLY")

	case s.Writes && !s.UsesTransaction:
		result = TxBoundaryResult{
			Boundary:      BoundaryServiceLayer,
			Transactional: false,
			Propagation:   PropagationRequired,
			ReadOnly:      false,
		}
		confidence = 0.75
		suggestions = append(suggestions, "SUG_SERVICE_TX_REQUIRED")

	default:
		propagation := PropagationRequiresNew
		if s.RollbackInCatch {
			propagation = PropagationNotSupported
		}
		result = TxBoundaryResult{
			Boundary:      BoundaryHybrid,
			Transactional: true,
			Propagation:   propagation,
			ReadOnly:      false,
		}
		confidence = 0.75
		suggestions = append(suggestions, "SUG_AVOID_DOUBLE_TX")
		antiPatterns = append(antiPatterns, "ANTI_NESTED_TX")
		if s.TryCatch && !s.RollbackInCatch {
			antiPatterns = append(antiPatterns, "ANTI_SWALLOW_ERRORS")
		}
	}

	if s.CyclomaticComplexity > 8 {
		confidence -= 0.05
	}
	if riskSignal {
		confidence -= 0.05
	}
	if s.Writes && s.UsesTransaction {
		confidence -= 0.15
	}
	confidence = normalize.ClampFloat(confidence, 0.5, 0.9)

	result.Confidence = confidence
	result.Suggestions = normalize.DedupInsertionOrder(suggestions)
	result.AntiPatterns = normalize.DedupInsertionOrder(antiPatterns)
	return result
}
