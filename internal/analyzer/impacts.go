package analyzer

import (
	"regexp"
	"strings"

	"github.com/tsqlspec/tsqlspec/internal/normalize"
	"github.com/tsqlspec/tsqlspec/internal/safetext"
)

// ImpactSeverity is the fixed severity a migration-impact category carries.
type ImpactSeverity string

const (
	SeverityHigh   ImpactSeverity = "high"
	SeverityMedium ImpactSeverity = "medium"
	SeverityLow    ImpactSeverity = "low"
)

// Impact ids, fixed per spec §3.
const (
	ImpDynSQL        = "IMP_DYN_SQL"
	ImpCursor        = "IMP_CURSOR"
	ImpLinkedServer  = "IMP_LINKED_SERVER"
	ImpSystemProc    = "IMP_SYSTEM_PROC"
	ImpTempTable     = "IMP_TEMP_TABLE"
	ImpTableVariable = "IMP_TABLE_VARIABLE"
	ImpMerge         = "IMP_MERGE"
	ImpOutputClause  = "IMP_OUTPUT_CLAUSE"
	ImpIdentity      = "IMP_IDENTITY"
	ImpNondeterm     = "IMP_NONDETERMINISM"
	ImpErrorSignal   = "IMP_ERROR_SIGNALING"
)

// ImpactItem is one detected migration-impact category, spec §3.
type ImpactItem struct {
	ID       string         `json:"id"`
	Category string         `json:"category"`
	Severity ImpactSeverity `json:"severity"`
	Title    string         `json:"title"`
	Signals  []string       `json:"signals"`
	Details  string         `json:"details"`
}

// ImpactsResult is the output of the Migration Impacts analyzer (spec §4.5).
type ImpactsResult struct {
	Impacts []ImpactItem `json:"impacts"`
	Errors  []string     `json:"errors"`
}

type impactRule struct {
	id       string
	category string
	severity ImpactSeverity
	title    string
	details  string
	detect   func(norm string) []string // returns matched signal tokens, nil if absent
}

var (
	reDynExecSp    = regexp.MustCompile(`(?i)\bsp_executesql\b`)
	reDynExecVar   = regexp.MustCompile(`(?i)\bEXEC\s*\(\s*@`)
	reDynExecLit   = regexp.MustCompile(`(?i)\bEXEC\s*\(\s*''`)
	reCursorDecl   = regexp.MustCompile(`(?i)\bDECLARE\s+\S+\s+CURSOR\b`)
	reOpenQuery    = regexp.MustCompile(`(?i)\bOPENQUERY\s*\(`)
	reOpenRowset   = regexp.MustCompile(`(?i)\bOPEN(?:ROWSET|DATASOURCE)\s*\(`)
	reLinkedExec   = regexp.MustCompile(`(?i)\bEXEC(?:UTE)?\s+[A-Za-z0-9_]+\.[A-Za-z0-9_]+\.[A-Za-z0-9_]+\.[A-Za-z0-9_]+\b`)
	reXpProc       = regexp.MustCompile(`(?i)\bxp_\w+`)
	reSpOA         = regexp.MustCompile(`(?i)\bsp_OA\w*`)
	reTempTable    = regexp.MustCompile(`#[A-Za-z0-9_]+`)
	reTableVar     = regexp.MustCompile(`(?i)\bDECLARE\s+@\w+\s+TABLE\s*\(`)
	reMergeKw      = regexp.MustCompile(`(?i)\bMERGE\b`)
	reOutputClause = regexp.MustCompile(`(?i)\bOUTPUT\s+(?:INSERTED|DELETED)\.`)
	reScopeIdent   = regexp.MustCompile(`(?i)\bSCOPE_IDENTITY\s*\(\s*\)`)
	reAtAtIdent    = regexp.MustCompile(`@@IDENTITY\b`)
	reIdentCurrent = regexp.MustCompile(`(?i)\bIDENT_CURRENT\s*\(`)
	reGetDate      = regexp.MustCompile(`(?i)\bGETDATE\s*\(\s*\)`)
	reNewID        = regexp.MustCompile(`(?i)\bNEWID\s*\(\s*\)`)
	reRandFn       = regexp.MustCompile(`(?i)\bRAND\s*\(`)
	reThrowKw      = regexp.MustCompile(`(?i)\bTHROW\b`)
	reAtAtError    = regexp.MustCompile(`@@ERROR\b`)
)

var impactRules = []impactRule{
	{
		id: ImpDynSQL, category: "dynamic_sql", severity: SeverityHigh,
		title:   "Dynamic SQL execution",
		details: "Statement text is built and executed at runtime, defeating static review and parameterized-query migration.",
		detect: func(n string) []string {
			var sig []string
			if reDynExecSp.MatchString(n) {
				sig = append(sig, "sp_executesql")
			}
			if reDynExecVar.MatchString(n) {
				sig = append(sig, "EXEC(@var)")
			}
			if reDynExecLit.MatchString(n) {
				sig = append(sig, "EXEC('…')")
			}
			return sig
		},
	},
	{
		id: ImpCursor, category: "cursor", severity: SeverityHigh,
		title:   "Cursor-based row-by-row processing",
		details: "Explicit cursor iterates rows one at a time instead of a set-based operation.",
		detect: func(n string) []string {
			if reCursorDecl.MatchString(n) {
				return []string{"DECLARE CURSOR"}
			}
			return nil
		},
	},
	{
		id: ImpLinkedServer, category: "linked_server", severity: SeverityHigh,
		title:   "Linked-server / remote query access",
		details: "Object reaches outside the local database via a linked server or ad hoc remote query.",
		detect: func(n string) []string {
			var sig []string
			if reOpenQuery.MatchString(n) {
				sig = append(sig, "OPENQUERY")
			}
			if reOpenRowset.MatchString(n) {
				sig = append(sig, "OPENROWSET")
			}
			if reLinkedExec.MatchString(n) {
				sig = append(sig, "FOUR_PART_NAME")
			}
			return sig
		},
	},
	{
		id: ImpSystemProc, category: "system_proc", severity: SeverityMedium,
		title:   "Extended/system procedure usage",
		details: "Calls an extended stored procedure or OLE automation system procedure.",
		detect: func(n string) []string {
			var sig []string
			if reXpProc.MatchString(n) {
				sig = append(sig, "xp_")
			}
			if reSpOA.MatchString(n) {
				sig = append(sig, "sp_OA*")
			}
			return sig
		},
	},
	{
		id: ImpTempTable, category: "temp_table", severity: SeverityLow,
		title:   "Temporary table usage",
		details: "Creates or references a #temp table for intermediate results.",
		detect: func(n string) []string {
			if reTempTable.MatchString(n) {
				return []string{"TEMP_TABLE"}
			}
			return nil
		},
	},
	{
		id: ImpTableVariable, category: "table_variable", severity: SeverityLow,
		title:   "Table variable usage",
		details: "Declares a @table-valued variable for intermediate results.",
		detect: func(n string) []string {
			if reTableVar.MatchString(n) {
				return []string{"DECLARE @table"}
			}
			return nil
		},
	},
	{
		id: ImpMerge, category: "merge", severity: SeverityMedium,
		title:   "MERGE statement",
		details: "Uses MERGE to combine insert/update/delete logic in one statement.",
		detect: func(n string) []string {
			if reMergeKw.MatchString(n) {
				return []string{"MERGE"}
			}
			return nil
		},
	},
	{
		id: ImpOutputClause, category: "output_clause", severity: SeverityLow,
		title:   "OUTPUT clause",
		details: "Captures INSERTED/DELETED rows from a DML statement via OUTPUT.",
		detect: func(n string) []string {
			if reOutputClause.MatchString(n) {
				return []string{"OUTPUT"}
			}
			return nil
		},
	},
	{
		id: ImpIdentity, category: "identity", severity: SeverityLow,
		title:   "Identity-value retrieval",
		details: "Reads the last generated identity value.",
		detect: func(n string) []string {
			var sig []string
			if reScopeIdent.MatchString(n) {
				sig = append(sig, "SCOPE_IDENTITY()")
			}
			if reAtAtIdent.MatchString(n) {
				sig = append(sig, "@@IDENTITY")
			}
			if reIdentCurrent.MatchString(n) {
				sig = append(sig, "IDENT_CURRENT")
			}
			return sig
		},
	},
	{
		id: ImpNondeterm, category: "nondeterminism", severity: SeverityLow,
		title:   "Non-deterministic function usage",
		details: "Result depends on wall-clock time or randomness; a faithful migration must account for this.",
		detect: func(n string) []string {
			var sig []string
			if reGetDate.MatchString(n) {
				sig = append(sig, "GETDATE()")
			}
			if reNewID.MatchString(n) {
				sig = append(sig, "NEWID()")
			}
			if reRandFn.MatchString(n) {
				sig = append(sig, "RAND(")
			}
			return sig
		},
	},
	{
		id: ImpErrorSignal, category: "error_signaling", severity: SeverityMedium,
		title:   "Explicit error signaling",
		details: "Raises or inspects errors explicitly via THROW/@@ERROR.",
		detect: func(n string) []string {
			var sig []string
			if reThrowKw.MatchString(n) {
				sig = append(sig, "THROW")
			}
			if reAtAtError.MatchString(n) {
				sig = append(sig, "@@ERROR")
			}
			return sig
		},
	},
}

const impactsSignalCap = 10

// MigrationImpacts implements spec §4.5 over the comment/string-masked,
// whitespace-collapsed SQL text.
func MigrationImpacts(sql string) ImpactsResult {
	safe := safetext.Strip(sql)
	norm := strings.Join(strings.Fields(safe), " ")

	var items []ImpactItem
	var errs []string
	for _, rule := range impactRules {
		sig := rule.detect(norm)
		if len(sig) == 0 {
			continue
		}
		capped, terrs := normalize.CapStrings(normalize.DedupInsertionOrder(sig), impactsSignalCap, "migration_impacts."+rule.category+".signals")
		errs = append(errs, terrs...)
		items = append(items, ImpactItem{
			ID:       rule.id,
			Category: rule.category,
			Severity: rule.severity,
			Title:    rule.title,
			Signals:  capped,
			Details:  rule.details,
		})
	}
	return ImpactsResult{Impacts: items, Errors: errs}
}
