// Package callgraph implements the cross-object analyzers of spec §4.9
// and §4.10: finding callers of a target object across a corpus, and
// building the directed multigraph of call relationships within it.
package callgraph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tsqlspec/tsqlspec/internal/model"
	"github.com/tsqlspec/tsqlspec/internal/normalize"
	"github.com/tsqlspec/tsqlspec/internal/safetext"
)

const (
	callersMaxObjects  = 500
	callersMaxBytes    = 1_000_000
	callersSignalCap   = 10
)

var (
	reCallersExec = regexp.MustCompile(`(?i)\bEXEC(?:UTE)?\s+([a-zA-Z0-9_\.\[\]"]+)`)
	reCallersFn   = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_\.\[\]]*)\s*\(`)
	reCallersDyn  = regexp.MustCompile(`(?i)\bEXEC(?:UTE)?\s*\(\s*@`)
	reCallersDynL = regexp.MustCompile(`(?i)\bEXEC(?:UTE)?\s*\(\s*''`)
)

// Caller is one corpus object found to call the target.
type Caller struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	CallCount int      `json:"call_count"`
	Signals   []string `json:"signals"`
}

// CallersOptions controls spec §4.9 resolution behavior.
type CallersOptions struct {
	SchemaSensitive bool
	IncludeSelf     bool
}

// CallersResult is the output of the Callers analyzer (spec §4.9).
type CallersResult struct {
	Target  string   `json:"target"`
	Callers []Caller `json:"callers"`
	Errors  []string `json:"errors"`
}

// FindCallers scans corpus for objects that call target, per spec §4.9.
func FindCallers(target model.SqlObject, targetType string, corpus []model.SqlObject, opts CallersOptions) CallersResult {
	targetNorm := model.Normalize(target.Name, true)

	var errs []string

	objectsToProcess := corpus
	if len(corpus) > callersMaxObjects {
		errs = append(errs, fmt.Sprintf(
			"object_limit_exceeded: max=%d provided=%d processed=%d",
			callersMaxObjects, len(corpus), callersMaxObjects))
		objectsToProcess = corpus[:callersMaxObjects]
	}

	var totalLength int
	for _, obj := range corpus {
		totalLength += len(obj.SQL)
	}
	if totalLength > callersMaxBytes {
		errs = append(errs, fmt.Sprintf(
			"sql_limit_exceeded: max_total_len=%d provided=%d", callersMaxBytes, totalLength))
	}

	var kept []model.SqlObject
	var runningLength int
	for _, obj := range objectsToProcess {
		if runningLength+len(obj.SQL) > callersMaxBytes {
			break
		}
		kept = append(kept, obj)
		runningLength += len(obj.SQL)
	}
	if len(kept) < len(objectsToProcess) && totalLength <= callersMaxBytes {
		errs = append(errs, "sql_limit_exceeded: truncated_objects due to per-request SQL length cap")
	}

	var callers []Caller
	for _, obj := range kept {
		objNorm := model.Normalize(obj.Name, true)
		if !opts.IncludeSelf && objNorm.Equal(targetNorm) {
			continue
		}
		safe := safetext.Strip(obj.SQL)

		var sig []string
		count := 0

		if targetType == "procedure" {
			for _, m := range reCallersExec.FindAllStringSubmatch(safe, -1) {
				if isDynamicExecCall(m[0]) {
					continue
				}
				if matchesTarget(m[1], targetNorm, opts.SchemaSensitive) {
					count++
					sig = append(sig, "EXEC "+strings.ToUpper(m[1]))
				}
			}
		} else {
			for _, m := range reCallersFn.FindAllStringSubmatch(safe, -1) {
				if _, ok := builtinCallNames[strings.ToUpper(m[1])]; ok {
					continue
				}
				if matchesTarget(m[1], targetNorm, opts.SchemaSensitive) {
					count++
					sig = append(sig, strings.ToUpper(m[1])+"(")
				}
			}
		}

		if count == 0 {
			continue
		}
		capped, terrs := normalize.CapStrings(normalize.DedupInsertionOrder(sig), callersSignalCap, "callers."+obj.Name+".signals")
		errs = append(errs, terrs...)
		callers = append(callers, Caller{Name: obj.Name, Type: string(obj.Type), CallCount: count, Signals: capped})
	}

	sort.Slice(callers, func(i, j int) bool {
		if callers[i].CallCount != callers[j].CallCount {
			return callers[i].CallCount > callers[j].CallCount
		}
		return strings.ToLower(callers[i].Name) < strings.ToLower(callers[j].Name)
	})

	return CallersResult{Target: target.Name, Callers: callers, Errors: errs}
}

func isDynamicExecCall(raw string) bool {
	return reCallersDyn.MatchString(raw) || reCallersDynL.MatchString(raw)
}

func matchesTarget(raw string, targetNorm model.NormalizedName, schemaSensitive bool) bool {
	candidate := model.Normalize(raw, true)
	if schemaSensitive {
		return candidate.Equal(targetNorm)
	}
	return candidate.EqualBase(targetNorm)
}

// builtinCallNames mirrors the analyzer package's blocklist so function-call
// scanning does not misreport builtins as callable references.
var builtinCallNames = map[string]struct{}{
	"IF": {}, "WHILE": {}, "EXISTS": {}, "NOT": {}, "AND": {}, "OR": {},
	"CASE": {}, "WHEN": {}, "BEGIN": {}, "END": {}, "RETURN": {}, "PRINT": {},
	"THROW": {}, "CAST": {}, "CONVERT": {}, "COUNT": {}, "SUM": {}, "AVG": {},
	"MIN": {}, "MAX": {}, "ISNULL": {}, "COALESCE": {}, "NULLIF": {},
	"GETDATE": {}, "GETUTCDATE": {}, "SYSDATETIME": {}, "SCOPE_IDENTITY": {},
	"DATEADD": {}, "DATEDIFF": {}, "DATEPART": {}, "OBJECT_ID": {},
	"DECLARE": {}, "SET": {}, "SELECT": {}, "INSERT": {}, "UPDATE": {},
	"DELETE": {}, "FROM": {}, "WHERE": {}, "ORDER": {}, "GROUP": {},
	"HAVING": {}, "JOIN": {}, "ON": {}, "AS": {}, "TOP": {}, "DISTINCT": {},
	"UNION": {}, "WITH": {}, "TRY": {}, "CATCH": {}, "RAISERROR": {},
	"OUTPUT": {}, "VALUES": {}, "INTO": {}, "MERGE": {}, "USING": {},
	"THEN": {}, "ELSE": {}, "GO": {}, "NEWID": {}, "RAND": {},
	"ERROR_NUMBER": {}, "ERROR_MESSAGE": {}, "ERROR_STATE": {},
	"ERROR_SEVERITY": {}, "ERROR_LINE": {}, "ERROR_PROCEDURE": {},
	"XACT_STATE": {}, "LEN": {}, "SUBSTRING": {}, "UPPER": {}, "LOWER": {},
	"CONCAT": {}, "TRIM": {}, "REPLACE": {}, "ISNUMERIC": {},
}
