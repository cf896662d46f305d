// Package spec implements the Spec Assembler, spec §4.13: it aggregates
// every analyzer's and scorer's output for one SQL object into a single
// deterministic SpecReport, honoring per-section caps and section
// availability.
package spec

import (
	"sort"

	"github.com/tsqlspec/tsqlspec/internal/analyzer"
	"github.com/tsqlspec/tsqlspec/internal/model"
	"github.com/tsqlspec/tsqlspec/internal/normalize"
	"github.com/tsqlspec/tsqlspec/internal/scoring"
)

const specAssemblerVersion = "5.1.0"

// defaultSections is the full set of sections assembled when the caller
// does not restrict the section list, per spec §4.13.
var defaultSections = []string{
	"tags", "summary", "templates", "rules", "dependencies",
	"transactions", "mybatis", "risks", "recommendations",
	"evidence.signals",
}

// Options configures one Assemble call, spec §4.13.
type Options struct {
	// Sections restricts assembly to a subset of defaultSections; nil
	// or empty means "all".
	Sections []string
	// MaxItemsPerSection caps every capped section independently,
	// default 50.
	MaxItemsPerSection int
	// Inputs supplies precomputed section values, letting a caller
	// bypass re-deriving a section from sql. Nil means no bypass.
	Inputs *Inputs
}

// Inputs is the spec §4.13/§9 "inputs bypass": one optional precomputed
// value per SpecReport section, modeled as the documented
// `{Given(T), Compute, Missing}` enum rather than a loose `map[string]any`.
// A nil field means the section was not given and falls through to
// Compute (from sql) or Missing (SECTION_NOT_AVAILABLE), per section.
type Inputs struct {
	Tags            []string
	Summary         *Summary
	Templates       []string
	Rules           []scoring.Rule
	Dependencies    *scoring.ExternalDepsResult
	Transactions    *scoring.TxBoundaryResult
	MyBatis         *scoring.MyBatisDifficultyResult
	Risks           *scoring.PerformanceRiskResult
	Recommendations []string
	EvidenceSignals []string
}

func (o Options) resolve() Options {
	if o.MaxItemsPerSection <= 0 {
		o.MaxItemsPerSection = 50
	}
	if len(o.Sections) == 0 {
		o.Sections = defaultSections
	}
	return o
}

// SpecReport is the assembled output of one `standardize/spec` call.
type SpecReport struct {
	Version string  `json:"version"`
	Object  Object  `json:"object"`
	Spec    Content `json:"spec"`
	Errors  []string `json:"errors"`
}

// Object identifies the analyzed SQL object, spec §4.13.
type Object struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Content is the composed spec body: every section named in
// defaultSections, each present only if requested and available.
type Content struct {
	Tags            []string                       `json:"tags,omitempty"`
	Summary         *Summary                        `json:"summary,omitempty"`
	Templates       []string                        `json:"templates,omitempty"`
	Rules           []scoring.Rule                   `json:"rules,omitempty"`
	Dependencies    *scoring.ExternalDepsResult       `json:"dependencies,omitempty"`
	Transactions    *scoring.TxBoundaryResult         `json:"transactions,omitempty"`
	MyBatis         *scoring.MyBatisDifficultyResult  `json:"mybatis,omitempty"`
	Risks           *scoring.PerformanceRiskResult     `json:"risks,omitempty"`
	Recommendations []string                         `json:"recommendations,omitempty"`
	EvidenceSignals []string                         `json:"evidence_signals,omitempty"`
}

// Summary is the spec §4.13 summary section: a deterministic one-liner
// that never names SQL identifiers or keywords.
type Summary struct {
	OneLiner string `json:"one_liner"`
}

// Assemble runs every primitive analyzer and scorer over obj.SQL, per
// section falling back to a caller-supplied Inputs value (Given), then to
// computing from obj.SQL (Compute), then to a SECTION_NOT_AVAILABLE error
// (Missing) when a requested section is neither, per spec §4.13/§9.
func Assemble(obj model.SqlObject, opts Options) SpecReport {
	opts = opts.resolve()
	wanted := make(map[string]struct{}, len(opts.Sections))
	for _, s := range opts.Sections {
		wanted[s] = struct{}{}
	}

	in := opts.Inputs
	hasSQL := obj.SQL != ""

	var signals scoring.Signals
	var cf analyzer.ControlFlowResult
	var mapping scoring.MappingStrategyResult
	var perf scoring.PerformanceRiskResult
	var diff scoring.MyBatisDifficultyResult
	var rawTags []string
	if hasSQL {
		signals = scoring.BuildSignals(obj.SQL)
		cf = analyzer.ControlFlow(obj.SQL)
		mapping = scoring.MappingStrategy(signals, "")
		perf = scoring.PerformanceRisk(obj.SQL, signals)
		diff = scoring.MyBatisDifficulty(signals)
		rawTags = computeTags(signals, cf, perf, diff)
	}

	var errs []string
	content := Content{}

	if _, ok := wanted["tags"]; ok {
		switch {
		case in != nil && in.Tags != nil:
			capped, terrs := normalize.CapStrings(in.Tags, opts.MaxItemsPerSection, "spec.tags")
			content.Tags = capped
			errs = append(errs, terrs...)
		case hasSQL:
			capped, terrs := normalize.CapStrings(rawTags, opts.MaxItemsPerSection, "spec.tags")
			content.Tags = capped
			errs = append(errs, terrs...)
		default:
			errs = append(errs, normalize.SectionNotAvailable("tags"))
		}
	}

	if _, ok := wanted["summary"]; ok {
		switch {
		case in != nil && in.Summary != nil:
			content.Summary = in.Summary
		case hasSQL:
			content.Summary = &Summary{OneLiner: buildOneLiner(obj, signals, rawTags, mapping, perf, diff)}
		default:
			errs = append(errs, normalize.SectionNotAvailable("summary"))
		}
	}

	if _, ok := wanted["templates"]; ok {
		switch {
		case in != nil && in.Templates != nil:
			capped, terrs := normalize.CapStrings(in.Templates, opts.MaxItemsPerSection, "spec.templates")
			content.Templates = capped
			errs = append(errs, terrs...)
		case hasSQL:
			tpls := templatesForApproach(mapping)
			capped, terrs := normalize.CapStrings(tpls, opts.MaxItemsPerSection, "spec.templates")
			content.Templates = capped
			errs = append(errs, terrs...)
		default:
			errs = append(errs, normalize.SectionNotAvailable("templates"))
		}
	}

	if _, ok := wanted["rules"]; ok {
		switch {
		case in != nil && in.Rules != nil:
			capped, terrs := normalize.CapN(in.Rules, opts.MaxItemsPerSection, "spec.rules")
			content.Rules = capped
			errs = append(errs, terrs...)
		case hasSQL:
			br := scoring.BusinessRules(obj.SQL)
			capped, terrs := normalize.CapN(br.Rules, opts.MaxItemsPerSection, "spec.rules")
			content.Rules = capped
			errs = append(errs, br.Errors...)
			errs = append(errs, terrs...)
		default:
			errs = append(errs, normalize.SectionNotAvailable("rules"))
		}
	}

	if _, ok := wanted["dependencies"]; ok {
		switch {
		case in != nil && in.Dependencies != nil:
			content.Dependencies = in.Dependencies
		case hasSQL:
			ed := scoring.ExternalDeps(obj.SQL)
			content.Dependencies = &ed
			errs = append(errs, ed.Errors...)
		default:
			errs = append(errs, normalize.SectionNotAvailable("dependencies"))
		}
	}

	if _, ok := wanted["transactions"]; ok {
		switch {
		case in != nil && in.Transactions != nil:
			content.Transactions = in.Transactions
		case hasSQL:
			tb := scoring.TxBoundary(signals)
			content.Transactions = &tb
		default:
			errs = append(errs, normalize.SectionNotAvailable("transactions"))
		}
	}

	if _, ok := wanted["mybatis"]; ok {
		switch {
		case in != nil && in.MyBatis != nil:
			content.MyBatis = in.MyBatis
		case hasSQL:
			content.MyBatis = &diff
			errs = append(errs, diff.Errors...)
		default:
			errs = append(errs, normalize.SectionNotAvailable("mybatis"))
		}
	}

	if _, ok := wanted["risks"]; ok {
		switch {
		case in != nil && in.Risks != nil:
			content.Risks = in.Risks
		case hasSQL:
			content.Risks = &perf
			errs = append(errs, perf.Errors...)
		default:
			errs = append(errs, normalize.SectionNotAvailable("risks"))
		}
	}

	if _, ok := wanted["recommendations"]; ok {
		switch {
		case in != nil && in.Recommendations != nil:
			capped, terrs := normalize.CapStrings(in.Recommendations, opts.MaxItemsPerSection, "spec.recommendations")
			content.Recommendations = capped
			errs = append(errs, terrs...)
		case hasSQL:
			recs := buildRecommendations(mapping, perf)
			capped, terrs := normalize.CapStrings(recs, opts.MaxItemsPerSection, "spec.recommendations")
			content.Recommendations = capped
			errs = append(errs, terrs...)
		default:
			errs = append(errs, normalize.SectionNotAvailable("recommendations"))
		}
	}

	if _, ok := wanted["evidence.signals"]; ok {
		switch {
		case in != nil && in.EvidenceSignals != nil:
			capped, terrs := normalize.CapStrings(in.EvidenceSignals, opts.MaxItemsPerSection, "spec.evidence.signals")
			content.EvidenceSignals = capped
			errs = append(errs, terrs...)
		case hasSQL:
			sigs := evidenceSignals(signals)
			capped, terrs := normalize.CapStrings(sigs, opts.MaxItemsPerSection, "spec.evidence.signals")
			content.EvidenceSignals = capped
			errs = append(errs, terrs...)
		default:
			errs = append(errs, normalize.SectionNotAvailable("evidence.signals"))
		}
	}

	errs = normalize.SortedUniqueStrings(errs)

	return SpecReport{
		Version: specAssemblerVersion,
		Object:  Object{Name: obj.Name, Type: string(obj.Type)},
		Spec:    content,
		Errors:  errs,
	}
}

// computeTags implements spec §4.13's tag rules.
func computeTags(s scoring.Signals, cf analyzer.ControlFlowResult, perf scoring.PerformanceRiskResult, diff scoring.MyBatisDifficultyResult) []string {
	var tags []string
	if s.Writes {
		tags = append(tags, "has_writes")
	} else {
		tags = append(tags, "read_only")
	}
	if s.UsesTransaction {
		tags = append(tags, "uses_transaction")
	} else {
		tags = append(tags, "no_txn")
	}
	if s.DynamicSQL {
		tags = append(tags, "dynamic_sql")
	}
	if s.Cursor {
		tags = append(tags, "cursor")
	}
	if s.TempObjects {
		tags = append(tags, "temp_objects")
	}
	if s.Merge {
		tags = append(tags, "merge")
	}
	switch {
	case cf.Summary.CyclomaticComplexity <= 5:
		tags = append(tags, "low_complexity")
	case cf.Summary.CyclomaticComplexity >= 12:
		tags = append(tags, "high_complexity")
	}
	if s.LinkedServer() {
		tags = append(tags, "linked_server")
	}
	if s.CrossDB() {
		tags = append(tags, "cross_db")
	}

	if perf.Level == "high" || perf.Level == "critical" {
		tags = append(tags, "perf_risk_high")
	}
	if diff.Level == "high" || diff.Level == "very_high" {
		tags = append(tags, "difficulty_high")
	}

	return normalize.SortedUniqueStrings(tags)
}

// buildOneLiner composes spec §4.13's deterministic one-liner, which
// never names a SQL identifier or keyword — only object type, write/read
// classification, complexity bucket, mapping approach, risk, and
// difficulty.
func buildOneLiner(obj model.SqlObject, s scoring.Signals, tags []string, mapping scoring.MappingStrategyResult, perf scoring.PerformanceRiskResult, diff scoring.MyBatisDifficultyResult) string {
	objKind := string(obj.Type)
	if objKind == "" {
		objKind = "object"
	}

	writeKind := "a read-only"
	if s.Writes {
		writeKind = "a data-modifying"
	}

	complexity := "moderate"
	if contains(tags, "low_complexity") {
		complexity = "low"
	} else if contains(tags, "high_complexity") {
		complexity = "high"
	}

	approachPhrase := "rewriting to a MyBatis SQL mapper"
	if mapping.Approach == scoring.ApproachCallSPFirst {
		approachPhrase = "calling the stored procedure first"
	}

	return "This " + objKind + " is " + writeKind + " object with " + complexity +
		" control-flow complexity; recommended migration path is " + approachPhrase +
		", performance risk is " + perf.Level + " and MyBatis difficulty is " + diff.Level + "."
}

func contains(items []string, want string) bool {
	for _, it := range items {
		if it == want {
			return true
		}
	}
	return false
}

func templatesForApproach(m scoring.MappingStrategyResult) []string {
	if m.Approach == scoring.ApproachCallSPFirst {
		return []string{"TPL_CALL_SP_FIRST"}
	}
	return []string{"TPL_REWRITE_MYBATIS_SQL"}
}

func buildRecommendations(m scoring.MappingStrategyResult, perf scoring.PerformanceRiskResult) []string {
	var recs []string
	recs = append(recs, "REC_MAPPING_"+string(m.Approach))
	ids := make([]string, 0, len(perf.Findings))
	for _, f := range perf.Findings {
		ids = append(ids, "REC_FIX_"+f.ID)
	}
	sort.Strings(ids)
	recs = append(recs, ids...)
	return normalize.DedupInsertionOrder(recs)
}

func evidenceSignals(s scoring.Signals) []string {
	var sigs []string
	if s.Writes {
		sigs = append(sigs, "WRITES")
	}
	if s.UsesTransaction {
		sigs = append(sigs, "USES_TRANSACTION")
	}
	if s.TryCatch {
		sigs = append(sigs, "TRY_CATCH")
	}
	if s.DynamicSQL {
		sigs = append(sigs, "DYNAMIC_SQL")
	}
	if s.Cursor {
		sigs = append(sigs, "CURSOR")
	}
	if s.LinkedServer() {
		sigs = append(sigs, "LINKED_SERVER")
	}
	if s.CrossDB() {
		sigs = append(sigs, "CROSS_DB")
	}
	return normalize.SortedUniqueStrings(sigs)
}
