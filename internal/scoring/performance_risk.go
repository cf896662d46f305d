package scoring

import (
	"regexp"
	"strings"

	"github.com/tsqlspec/tsqlspec/internal/normalize"
	"github.com/tsqlspec/tsqlspec/internal/safetext"
	"github.com/tsqlspec/tsqlspec/internal/sqlast"
)

// PerfSeverity is a performance-risk finding's fixed severity band.
type PerfSeverity string

const (
	PerfCritical PerfSeverity = "critical"
	PerfHigh     PerfSeverity = "high"
	PerfMedium   PerfSeverity = "medium"
	PerfLow      PerfSeverity = "low"
)

var perfSeverityPoints = map[PerfSeverity]int{
	PerfCritical: 30, PerfHigh: 20, PerfMedium: 10, PerfLow: 5,
}

var perfSeverityCaps = map[PerfSeverity]int{
	PerfCritical: 60, PerfHigh: 60, PerfMedium: 40, PerfLow: 20,
}

// Fixed performance-risk finding ids, spec §4.11.
const (
	PrfCursorRBAR              = "PRF_CURSOR_RBAR"
	PrfLoopRBAR                = "PRF_LOOP_RBAR"
	PrfDynamicSQL              = "PRF_DYNAMIC_SQL"
	PrfNoWhereOnUpdate         = "PRF_NO_WHERE_ON_UPDATE"
	PrfPossibleNoWhereUpdate   = "PRF_POSSIBLE_NO_WHERE_UPDATE"
	PrfSelectStar              = "PRF_SELECT_STAR"
	PrfLeadingWildcardLike     = "PRF_LEADING_WILDCARD_LIKE"
	PrfFunctionOnColumn        = "PRF_FUNCTION_ON_COLUMN"
	PrfImplicitConversionHint  = "PRF_IMPLICIT_CONVERSION_HINT"
	PrfOrChain                 = "PRF_OR_CHAIN"
	PrfInListLarge             = "PRF_IN_LIST_LARGE"
	PrfScalarUDF               = "PRF_SCALAR_UDF"
	PrfNolock                  = "PRF_NOLOCK"
	PrfTableVariable           = "PRF_TABLE_VARIABLE"
	PrfTempTable               = "PRF_TEMP_TABLE"
	PrfOrderByNoTop            = "PRF_ORDER_BY_NO_TOP"
	PrfMerge                   = "PRF_MERGE"
	PrfSelectInto              = "PRF_SELECT_INTO"
)

// PerfFinding is one detected performance-risk finding.
type PerfFinding struct {
	ID       string       `json:"id"`
	Severity PerfSeverity `json:"severity"`
	Message  string       `json:"message"`
}

// PerformanceRiskResult is the output of the Performance Risk scorer.
type PerformanceRiskResult struct {
	Score    int           `json:"score"`
	Level    string        `json:"level"`
	Findings []PerfFinding `json:"findings"`
	Errors   []string      `json:"errors"`
}

const perfMaxFindings = 30

var (
	reCursorDecl    = regexp.MustCompile(`(?i)\bDECLARE\s+\S+\s+CURSOR\b`)
	reWhileLoop     = regexp.MustCompile(`(?i)\bWHILE\b`)
	reUpdateNoWhere = regexp.MustCompile(`(?is)\bUPDATE\s+[a-zA-Z0-9_\.\[\]"#]+\s+SET\s+.*?(;|$)`)
	reWhereClause   = regexp.MustCompile(`(?i)\bWHERE\b`)
	reSelectStar    = regexp.MustCompile(`(?i)\bSELECT\s+\*`)
	reLikeWildcard  = regexp.MustCompile(`(?i)\bLIKE\s+'%`)
	reFuncOnCol     = regexp.MustCompile(`(?i)\bWHERE\b[\s\S]{0,80}?\b(?:ISNULL|CONVERT|CAST|SUBSTRING|UPPER|LOWER|LTRIM|RTRIM)\s*\(\s*[A-Za-z_][A-Za-z0-9_]*\s*[,)]`)
	reNVarchar      = regexp.MustCompile(`(?i)=\s*N?'`)
	reOrChain       = regexp.MustCompile(`(?i)(\bOR\b.*){3,}`)
	reInList        = regexp.MustCompile(`(?i)\bIN\s*\(([^()]*)\)`)
	reNolock        = regexp.MustCompile(`(?i)\bWITH\s*\(\s*NOLOCK\s*\)|\bNOLOCK\b`)
	reOrderByNoTop  = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)
	reTopClause     = regexp.MustCompile(`(?i)\bTOP\s*\(?\s*\d+`)
	reScalarUDFCall = regexp.MustCompile(`(?i)\bdbo\.(fn|ufn)_\w+\s*\(`)
)

// PerformanceRisk implements spec §4.11's canonical Performance Risk
// scoring over SafeText, preferring AST evidence for missing-WHERE
// detection.
func PerformanceRisk(sql string, s Signals) PerformanceRiskResult {
	safe := safetext.Strip(sql)
	norm := strings.Join(strings.Fields(safe), " ")
	ast := sqlast.Parse(sql, "tsql")

	var findings []PerfFinding
	add := func(id string, sev PerfSeverity, msg string) {
		findings = append(findings, PerfFinding{ID: id, Severity: sev, Message: msg})
	}

	if s.Cursor {
		add(PrfCursorRBAR, PerfHigh, "Cursor drives row-by-row processing instead of a set-based operation.")
	}
	if reWhileLoop.MatchString(norm) && !s.Cursor {
		add(PrfLoopRBAR, PerfMedium, "WHILE loop drives iterative row processing.")
	}
	if s.DynamicSQL {
		add(PrfDynamicSQL, PerfHigh, "Dynamic SQL execution bypasses plan caching guarantees.")
	}

	astNoWhereUpdate := false
	for _, frag := range ast.Fragments {
		if frag.Kind == sqlast.KindUpdate && !frag.HasWhere {
			astNoWhereUpdate = true
		}
	}
	if astNoWhereUpdate {
		add(PrfNoWhereOnUpdate, PerfCritical, "UPDATE statement has no WHERE clause (confirmed by structural parse).")
	} else if matches := reUpdateNoWhere.FindAllString(norm, -1); len(matches) > 0 {
		for _, m := range matches {
			if !reWhereClause.MatchString(m) {
				add(PrfPossibleNoWhereUpdate, PerfHigh, "UPDATE statement appears to lack a WHERE clause (regex evidence only).")
				break
			}
		}
	}

	if reSelectStar.MatchString(norm) {
		add(PrfSelectStar, PerfLow, "SELECT * pulls unneeded columns and complicates MyBatis result mapping.")
	}
	// SafeText collapses string literals to '', so the leading-wildcard
	// pattern is matched against the comment-stripped source instead.
	noComments := reExtLineComment.ReplaceAllString(reExtBlockComment.ReplaceAllString(sql, " "), " ")
	if reLikeWildcard.MatchString(noComments) {
		add(PrfLeadingWildcardLike, PerfMedium, "Leading-wildcard LIKE prevents index seeks.")
	}
	if reFuncOnCol.MatchString(norm) {
		add(PrfFunctionOnColumn, PerfMedium, "Function applied to a column in a predicate prevents index usage.")
	}
	if reNVarchar.MatchString(norm) {
		add(PrfImplicitConversionHint, PerfLow, "Comparison against a string literal may trigger implicit conversion.")
	}
	if reOrChain.MatchString(norm) {
		add(PrfOrChain, PerfMedium, "Long OR chain in a predicate discourages index usage.")
	}
	for _, m := range reInList.FindAllStringSubmatch(norm, -1) {
		if strings.Contains(strings.ToUpper(m[1]), "SELECT") {
			continue
		}
		items := strings.Split(m[1], ",")
		if len(items) >= 20 {
			add(PrfInListLarge, PerfMedium, "IN (...) list literal has 20 or more items.")
			break
		}
	}
	if reScalarUDFCall.MatchString(norm) {
		add(PrfScalarUDF, PerfHigh, "Scalar UDF call inhibits batch-mode execution and indexing.")
	}
	if reNolock.MatchString(norm) {
		add(PrfNolock, PerfMedium, "NOLOCK hint risks dirty/inconsistent reads.")
	}
	if s.TempObjects {
		if regexp.MustCompile(`(?i)DECLARE\s+@\w+\s+TABLE\s*\(`).MatchString(norm) {
			add(PrfTableVariable, PerfLow, "Table variable carries no statistics, risking poor plan choices.")
		}
		if regexp.MustCompile(`#[A-Za-z0-9_]+`).MatchString(norm) {
			add(PrfTempTable, PerfLow, "Temporary table usage adds tempdb contention risk.")
		}
	}
	if reOrderByNoTop.MatchString(norm) && !reTopClause.MatchString(norm) {
		add(PrfOrderByNoTop, PerfLow, "ORDER BY without TOP sorts the full result set.")
	}
	if s.Merge {
		add(PrfMerge, PerfMedium, "MERGE statement plan complexity can exceed simpler per-operation DML.")
	}
	if regexp.MustCompile(`(?i)\bSELECT\b[\s\S]*?\bINTO\s+`).MatchString(norm) {
		add(PrfSelectInto, PerfLow, "SELECT INTO creates an unindexed table as a side effect.")
	}

	score := 0
	perSeverity := map[PerfSeverity]int{}
	for _, f := range findings {
		if perSeverity[f.Severity] >= perfSeverityCaps[f.Severity] {
			continue
		}
		pts := perfSeverityPoints[f.Severity]
		if perSeverity[f.Severity]+pts > perfSeverityCaps[f.Severity] {
			pts = perfSeverityCaps[f.Severity] - perSeverity[f.Severity]
		}
		perSeverity[f.Severity] += pts
		score += pts
	}
	if s.CyclomaticComplexity > 8 {
		score += 5
	}
	score = normalize.Clamp(score, 0, 100)

	var level string
	switch {
	case score >= 70:
		level = "critical"
	case score >= 45:
		level = "high"
	case score >= 20:
		level = "medium"
	default:
		level = "low"
	}

	capped, errs := normalize.CapN(findings, perfMaxFindings, "performance_risk.findings")

	return PerformanceRiskResult{Score: score, Level: level, Findings: capped, Errors: errs}
}
