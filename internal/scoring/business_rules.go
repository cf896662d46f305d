package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tsqlspec/tsqlspec/internal/normalize"
	"github.com/tsqlspec/tsqlspec/internal/safetext"
)

// RuleKind classifies the shape of one detected business-rule condition.
type RuleKind string

const (
	KindGuardClause RuleKind = "guard_clause"
	KindRangeCheck  RuleKind = "range_check"
	KindExistsCheck RuleKind = "exists_check"
	KindNotExists   RuleKind = "not_exists_check"
	KindSoftDelete  RuleKind = "soft_delete"
	KindCaseMapping RuleKind = "case_mapping"
)

// RuleAction classifies what a rule does once its condition is true.
type RuleAction string

const (
	ActionRaiseError RuleAction = "raise_error"
	ActionReturnCode RuleAction = "return_code"
	ActionBranch     RuleAction = "branch"
	ActionFilter     RuleAction = "filter"
	ActionMapping    RuleAction = "mapping"
)

// Rule is one detected business rule, spec §4.11.
type Rule struct {
	ID         string     `json:"id"`
	Kind       RuleKind   `json:"kind"`
	Confidence float64    `json:"confidence"`
	Condition  string     `json:"condition"`
	Action     RuleAction `json:"action"`
	Signals    []string   `json:"signals"`
	Templates  []string   `json:"templates"`
}

// BusinessRulesResult is the output of the Business Rules scorer.
type BusinessRulesResult struct {
	Rules  []Rule   `json:"rules"`
	Errors []string `json:"errors"`
}

const (
	businessRulesMaxRules = 30
	conditionMaxLen       = 160
)

var (
	reIfCond        = regexp.MustCompile(`(?i)\bIF\s*\(?(.*?)\)?\s*(?:BEGIN|$|\r?\n)`)
	reNullCheck     = regexp.MustCompile(`(?i)\bIS\s+(?:NOT\s+)?NULL\b|=\s*''`)
	reRangeOp       = regexp.MustCompile(`(?i)[<>]=?|\bBETWEEN\b`)
	reExists        = regexp.MustCompile(`(?i)\bEXISTS\s*\(`)
	reNotExists     = regexp.MustCompile(`(?i)\bNOT\s+EXISTS\s*\(`)
	reSoftDelete    = regexp.MustCompile(`(?i)\bis_deleted\s*=\s*0\b|\buse_yn\s*=|\bactive\s*=\s*1\b|\bstatus\s*=`)
	reCaseWhen      = regexp.MustCompile(`(?i)\bCASE\b[\s\S]*?\bWHEN\b`)
	reRaiseAction   = regexp.MustCompile(`(?i)\bTHROW\b|\bRAISERROR\b`)
	reReturnAction  = regexp.MustCompile(`(?i)\bRETURN\b`)
	reStringLiteral = regexp.MustCompile(`'[^']*'`)
	reNumberLiteral = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
)

// ruleTemplateTable maps (kind, action) to a fixed TPL_* catalog entry,
// per spec §4.11.
var ruleTemplateTable = map[RuleKind]map[RuleAction]string{
	KindGuardClause: {
		ActionRaiseError: "TPL_GUARD_RAISE",
		ActionReturnCode: "TPL_GUARD_RETURN",
		ActionBranch:     "TPL_GUARD_BRANCH",
	},
	KindRangeCheck: {
		ActionBranch: "TPL_RANGE_BRANCH",
		ActionFilter: "TPL_RANGE_FILTER",
	},
	KindExistsCheck: {
		ActionBranch: "TPL_EXISTS_BRANCH",
		ActionFilter: "TPL_EXISTS_FILTER",
	},
	KindNotExists: {
		ActionBranch: "TPL_NOT_EXISTS_BRANCH",
		ActionFilter: "TPL_NOT_EXISTS_FILTER",
	},
	KindSoftDelete: {
		ActionFilter: "TPL_SOFT_DELETE_FILTER",
	},
	KindCaseMapping: {
		ActionMapping: "TPL_CASE_MAPPING",
	},
}

// BusinessRules implements spec §4.11's Business Rules scanning over
// normalized SQL.
func BusinessRules(sql string) BusinessRulesResult {
	safe := safetext.Strip(sql)
	norm := strings.Join(strings.Fields(safe), " ")

	var rules []Rule
	seq := 0
	nextID := func() string {
		seq++
		return ruleID(seq)
	}

	for _, m := range reIfCond.FindAllStringSubmatch(norm, -1) {
		cond := strings.TrimSpace(m[1])
		if cond == "" {
			continue
		}
		kind, confidence := classifyCondition(cond)
		action := classifyAction(norm)
		tpl := templatesFor(kind, action)

		rules = append(rules, Rule{
			ID:         nextID(),
			Kind:       kind,
			Confidence: confidence,
			Condition:  sanitizeCondition(cond),
			Action:     action,
			Signals:    []string{"IF"},
			Templates:  tpl,
		})
	}

	if reSoftDelete.MatchString(norm) {
		rules = append(rules, Rule{
			ID:         nextID(),
			Kind:       KindSoftDelete,
			Confidence: 0.7,
			Condition:  sanitizeCondition("soft-delete/status predicate"),
			Action:     ActionFilter,
			Signals:    []string{"SOFT_DELETE"},
			Templates:  templatesFor(KindSoftDelete, ActionFilter),
		})
	}
	if reCaseWhen.MatchString(norm) {
		rules = append(rules, Rule{
			ID:         nextID(),
			Kind:       KindCaseMapping,
			Confidence: 0.6,
			Condition:  sanitizeCondition("CASE...WHEN mapping"),
			Action:     ActionMapping,
			Signals:    []string{"CASE"},
			Templates:  templatesFor(KindCaseMapping, ActionMapping),
		})
	}

	capped, errs := normalize.CapN(rules, businessRulesMaxRules, "business_rules.rules")

	return BusinessRulesResult{Rules: capped, Errors: errs}
}

func classifyCondition(cond string) (RuleKind, float64) {
	switch {
	case reNotExists.MatchString(cond):
		return KindNotExists, 0.8
	case reExists.MatchString(cond):
		return KindExistsCheck, 0.8
	case reNullCheck.MatchString(cond):
		return KindGuardClause, 0.75
	case reRangeOp.MatchString(cond):
		return KindRangeCheck, 0.65
	default:
		return KindGuardClause, 0.5
	}
}

func classifyAction(contextWindow string) RuleAction {
	switch {
	case reRaiseAction.MatchString(contextWindow):
		return ActionRaiseError
	case reReturnAction.MatchString(contextWindow):
		return ActionReturnCode
	default:
		return ActionBranch
	}
}

func templatesFor(kind RuleKind, action RuleAction) []string {
	var out []string
	if tbl, ok := ruleTemplateTable[kind]; ok {
		if id, ok := tbl[action]; ok {
			out = append(out, id)
		}
	}
	if action == ActionRaiseError {
		out = append(out, "TPL_ERROR_TO_EXCEPTION")
	}
	return out
}

// sanitizeCondition replaces string and numeric literals with '?'/? and
// truncates to spec's 160-rune cap, per spec §4.11.
func sanitizeCondition(cond string) string {
	cond = reStringLiteral.ReplaceAllString(cond, "'?'")
	cond = reNumberLiteral.ReplaceAllString(cond, "?")
	runes := []rune(cond)
	if len(runes) > conditionMaxLen {
		runes = runes[:conditionMaxLen]
	}
	return string(runes)
}

func ruleID(n int) string {
	return fmt.Sprintf("R%03d", n)
}
