// Package scoring implements the eight deterministic scoring analyzers of
// spec §4.11: Reusability, MyBatisDifficulty, PerformanceRisk,
// DbDependency, BusinessRules, MappingStrategy, TxBoundary, ExternalDeps.
// Every scorer shares one input shape (Signals) derived from SafeText and
// the primitive analyzers, so formulas stay centralized and consistent
// across producers.
package scoring

import (
	"regexp"
	"strings"

	"github.com/tsqlspec/tsqlspec/internal/analyzer"
	"github.com/tsqlspec/tsqlspec/internal/safetext"
)

// Signals is the shared feature vector every scorer composes from
// SafeText plus the primitive analyzers' outputs, per spec §4.11 step 1.
type Signals struct {
	Writes               bool
	DistinctWriteOps     int
	UsesTransaction      bool
	TryCatch             bool
	RollbackInCatch      bool
	DynamicSQL           bool
	Cursor               bool
	TempObjects          bool
	Merge                bool
	OutputClause         bool
	Identity             bool
	AtAtError            bool
	LinkedServerCount    int
	CrossDBCount         int
	RemoteExecCount      int
	OpenQueryRowsetCount int
	XpCmdshell           bool
	SystemProcCount      int
	CLR                  bool
	TempDBRef            bool
	TableCount           int
	CyclomaticComplexity int
	FunctionCallCount    int
}

func (s Signals) LinkedServer() bool { return s.LinkedServerCount > 0 }
func (s Signals) CrossDB() bool      { return s.CrossDBCount > 0 }

var (
	reXpCmdshell  = regexp.MustCompile(`(?i)\bxp_cmdshell\b`)
	reSystemProc  = regexp.MustCompile(`(?i)\bxp_\w+|\bsp_OA\w*`)
	reCLR         = regexp.MustCompile(`(?i)\bEXTERNAL\s+NAME\b`)
	reTempDB      = regexp.MustCompile(`(?i)\btempdb\.`)
	reThreePart   = regexp.MustCompile(`\b([A-Za-z0-9_]+)\.([A-Za-z0-9_]+)\.([A-Za-z0-9_]+)\b`)
	reFourPartRef = regexp.MustCompile(`\b[A-Za-z0-9_]+\.[A-Za-z0-9_]+\.[A-Za-z0-9_]+\.[A-Za-z0-9_]+\b`)
	reFuncCall    = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\s*\(`)
	reCatchBlock  = regexp.MustCompile(`(?is)BEGIN\s+CATCH(.*?)END\s+CATCH`)
	reRollback    = regexp.MustCompile(`(?i)\bROLLBACK\b`)
	reOpenQuery   = regexp.MustCompile(`(?i)\bOPEN(?:QUERY|ROWSET|DATASOURCE)\s*\(`)
	reRemoteExec  = regexp.MustCompile(`(?i)\bEXEC(?:UTE)?\s+[A-Za-z0-9_]+\.[A-Za-z0-9_]+\.[A-Za-z0-9_]+\.[A-Za-z0-9_]+\b`)
)

var crossDBExclude = map[string]struct{}{
	"DBO": {}, "SYS": {}, "INFORMATION_SCHEMA": {},
}

// BuildSignals composes the shared Signals vector by running the
// primitive analyzers once and deriving the scoring-specific extras that
// are not owned by any primitive analyzer (cross-db counting, CLR,
// tempdb, system-proc counts).
func BuildSignals(sql string) Signals {
	safe := safetext.Strip(sql)
	norm := strings.Join(strings.Fields(safe), " ")

	refs := analyzer.References(sql)
	txn := analyzer.Transactions(sql)
	impacts := analyzer.MigrationImpacts(sql)
	cf := analyzer.ControlFlow(sql)
	dc := analyzer.DataChanges(sql)
	eh := analyzer.ErrorHandling(sql)

	var s Signals
	s.UsesTransaction = txn.UsesTransaction
	s.TryCatch = txn.HasTryCatch
	s.AtAtError = eh.HasAtAtError
	s.CyclomaticComplexity = cf.Summary.CyclomaticComplexity
	s.TableCount = len(refs.Tables)
	s.FunctionCallCount = len(reFuncCall.FindAllString(norm, -1))

	writeOps := map[string]struct{}{}
	for op, count := range dc.Counts {
		if count > 0 && op != analyzer.OpSelectInto {
			writeOps[string(op)] = struct{}{}
		}
	}
	s.Writes = len(writeOps) > 0
	s.DistinctWriteOps = len(writeOps)

	for _, item := range impacts.Impacts {
		switch item.ID {
		case analyzer.ImpDynSQL:
			s.DynamicSQL = true
		case analyzer.ImpCursor:
			s.Cursor = true
		case analyzer.ImpTempTable, analyzer.ImpTableVariable:
			s.TempObjects = true
		case analyzer.ImpMerge:
			s.Merge = true
		case analyzer.ImpOutputClause:
			s.OutputClause = true
		case analyzer.ImpIdentity:
			s.Identity = true
		case analyzer.ImpLinkedServer:
			s.LinkedServerCount++
		}
	}

	if m := reCatchBlock.FindStringSubmatch(safe); m != nil {
		s.RollbackInCatch = reRollback.MatchString(m[1])
	}

	s.XpCmdshell = reXpCmdshell.MatchString(norm)
	s.SystemProcCount = len(reSystemProc.FindAllString(norm, -1))
	s.CLR = reCLR.MatchString(norm)
	s.TempDBRef = reTempDB.MatchString(norm)
	s.OpenQueryRowsetCount = len(reOpenQuery.FindAllString(norm, -1))
	s.RemoteExecCount = len(reRemoteExec.FindAllString(norm, -1))

	fourParts := reFourPartRef.FindAllString(norm, -1)
	fourSet := map[string]struct{}{}
	for _, f := range fourParts {
		fourSet[f] = struct{}{}
	}
	crossDBCount := 0
	for _, m := range reThreePart.FindAllString(norm, -1) {
		overlapped := false
		for f := range fourSet {
			if strings.Contains(f, m) {
				overlapped = true
				break
			}
		}
		if overlapped {
			continue
		}
		parts := strings.SplitN(m, ".", 2)
		db := strings.ToUpper(parts[0])
		if _, excl := crossDBExclude[db]; excl {
			continue
		}
		crossDBCount++
	}
	s.CrossDBCount = crossDBCount

	return s
}
