package analyzer

import (
	"regexp"
	"strings"

	"github.com/tsqlspec/tsqlspec/internal/normalize"
	"github.com/tsqlspec/tsqlspec/internal/safetext"
)

// ReferencesResult is the output of the References analyzer (spec §4.3):
// every table and callable-function name the object touches, excluding
// its own CREATE ... self-definition.
type ReferencesResult struct {
	Tables    []string `json:"tables"`
	Functions []string `json:"functions"`
	Errors    []string `json:"errors"`
}

var (
	reCreateHeader = regexp.MustCompile(`(?is)\bCREATE\s+(?:OR\s+ALTER\s+)?(?:PROCEDURE|PROC|FUNCTION|TRIGGER|VIEW)\s+([a-zA-Z0-9_\.\[\]"]+)`)

	reTableRef = regexp.MustCompile(`(?i)\b(?:FROM|JOIN|INTO|UPDATE)\s+([a-zA-Z0-9_\.\[\]"#]+)`)
	reMergeRef = regexp.MustCompile(`(?i)\bMERGE\s+(?:INTO\s+)?([a-zA-Z0-9_\.\[\]"#]+)`)
	reExecRef  = regexp.MustCompile(`(?i)\bEXEC(?:UTE)?\s+([a-zA-Z0-9_\.\[\]"]+)`)
	reCallRef  = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_\.\[\]]*)\s*\(`)
)

// builtinNames are T-SQL keywords/built-in functions that must never be
// reported as a user-defined callable reference.
var builtinNames = map[string]struct{}{
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

const referencesCap = 15

// References extracts the table and callable-function references from a
// T-SQL object definition.
func References(sql string) ReferencesResult {
	safe := safetext.Strip(sql)

	selfDef := ""
	if m := reCreateHeader.FindStringSubmatch(safe); m != nil {
		selfDef = normalizeUpper(m[1])
	}

	var tables, funcs []string
	for _, m := range reTableRef.FindAllStringSubmatch(safe, -1) {
		addRef(&tables, m[1], selfDef)
	}
	for _, m := range reMergeRef.FindAllStringSubmatch(safe, -1) {
		addRef(&tables, m[1], selfDef)
	}
	for _, m := range reExecRef.FindAllStringSubmatch(safe, -1) {
		addRef(&funcs, m[1], selfDef)
	}
	for _, m := range reCallRef.FindAllStringSubmatch(safe, -1) {
		name := strings.ToUpper(m[1])
		if _, ok := builtinNames[name]; ok {
			continue
		}
		addRef(&funcs, m[1], selfDef)
	}

	var errs []string
	tablesOut, terrs := normalize.CapStrings(normalize.SortedUniqueStrings(tables), referencesCap, "references.tables")
	funcsOut, ferrs := normalize.CapStrings(normalize.SortedUniqueStrings(funcs), referencesCap, "references.functions")
	errs = append(errs, terrs...)
	errs = append(errs, ferrs...)

	return ReferencesResult{Tables: tablesOut, Functions: funcsOut, Errors: errs}
}

func addRef(dst *[]string, raw, selfDef string) {
	name := normalizeUpper(raw)
	if name == "" || name == selfDef {
		return
	}
	if _, ok := builtinNames[name]; ok {
		return
	}
	*dst = append(*dst, name)
}

func normalizeUpper(raw string) string {
	raw = strings.Trim(raw, "[]\"")
	parts := strings.Split(raw, ".")
	for i, p := range parts {
		parts[i] = strings.ToUpper(strings.Trim(p, "[]\""))
	}
	return strings.Join(parts, ".")
}
