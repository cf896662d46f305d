package analyzer

import (
	"regexp"
	"sort"

	"github.com/tsqlspec/tsqlspec/internal/safetext"
	"github.com/tsqlspec/tsqlspec/internal/sqlast"
)

// DataChangeOp enumerates the data-mutating operation kinds tracked by
// spec §4.7.
type DataChangeOp string

const (
	OpInsert     DataChangeOp = "INSERT"
	OpUpdate     DataChangeOp = "UPDATE"
	OpDelete     DataChangeOp = "DELETE"
	OpMerge      DataChangeOp = "MERGE"
	OpTruncate   DataChangeOp = "TRUNCATE"
	OpSelectInto DataChangeOp = "SELECT INTO"
)

// TableChange is the per-table operation summary, spec §4.7.
type TableChange struct {
	Table string         `json:"table"`
	Ops   []DataChangeOp `json:"ops"`
}

// DataChangesResult is the output of the Data Changes analyzer (spec §4.7).
type DataChangesResult struct {
	Counts map[DataChangeOp]int `json:"counts"`
	Tables []TableChange        `json:"tables"`
	Notes  []string             `json:"notes"`
	Errors []string             `json:"errors"`
}

var (
	reDCInsert     = regexp.MustCompile(`(?i)\bINSERT\s+INTO\s+([a-zA-Z0-9_\.\[\]"#]+)`)
	reDCUpdate     = regexp.MustCompile(`(?i)\bUPDATE\s+([a-zA-Z0-9_\.\[\]"#]+)\s+SET\b`)
	reDCDelete     = regexp.MustCompile(`(?i)\bDELETE\s+FROM\s+([a-zA-Z0-9_\.\[\]"#]+)`)
	reDCMerge      = regexp.MustCompile(`(?i)\bMERGE\s+(?:INTO\s+)?([a-zA-Z0-9_\.\[\]"#]+)`)
	reDCTruncate   = regexp.MustCompile(`(?i)\bTRUNCATE\s+TABLE\s+([a-zA-Z0-9_\.\[\]"#]+)`)
	reDCSelectInto = regexp.MustCompile(`(?i)\bSELECT\b[\s\S]*?\bINTO\s+([a-zA-Z0-9_\.\[\]"#]+)`)
	reDCMergeSpan  = regexp.MustCompile(`(?i)\bMERGE\b[\s\S]*?;`)
)

// DataChanges implements spec §4.7: per-op counts and per-table
// operation attribution, preferring AST evidence and falling back to
// regex evidence when the AST is unavailable or silent for an op.
func DataChanges(sql string) DataChangesResult {
	safe := safetext.Strip(sql)
	ast := sqlast.Parse(sql, "tsql")

	counts := map[DataChangeOp]int{
		OpInsert: 0, OpUpdate: 0, OpDelete: 0, OpMerge: 0, OpTruncate: 0, OpSelectInto: 0,
	}
	tableOps := map[string]map[DataChangeOp]struct{}{}
	var notes []string

	record := func(op DataChangeOp, table string) {
		counts[op]++
		if table == "" {
			notes = append(notes, string(op)+" detected but target table uncertain.")
			return
		}
		if tableOps[table] == nil {
			tableOps[table] = map[DataChangeOp]struct{}{}
		}
		tableOps[table][op] = struct{}{}
	}

	mergeSpans := reDCMergeSpan.FindAllStringIndex(safe, -1)
	inMergeSpan := func(pos int) bool {
		for _, sp := range mergeSpans {
			if pos >= sp[0] && pos < sp[1] {
				return true
			}
		}
		return false
	}

	astInsert, astUpdate, astDelete := false, false, false
	for _, frag := range ast.Fragments {
		switch frag.Kind {
		case sqlast.KindInsert:
			record(OpInsert, frag.Table)
			astInsert = true
		case sqlast.KindUpdate:
			record(OpUpdate, frag.Table)
			astUpdate = true
		case sqlast.KindDelete:
			record(OpDelete, frag.Table)
			astDelete = true
		}
	}

	if !astInsert {
		for _, m := range reDCInsert.FindAllStringSubmatch(safe, -1) {
			record(OpInsert, normalizeUpper(m[1]))
		}
	}
	if !astUpdate {
		for _, m := range reDCUpdate.FindAllStringSubmatchIndex(safe, -1) {
			if inMergeSpan(m[0]) {
				continue
			}
			record(OpUpdate, normalizeUpper(safe[m[2]:m[3]]))
		}
	}
	if !astDelete {
		for _, m := range reDCDelete.FindAllStringSubmatchIndex(safe, -1) {
			if inMergeSpan(m[0]) {
				continue
			}
			record(OpDelete, normalizeUpper(safe[m[2]:m[3]]))
		}
	}
	for _, m := range reDCMerge.FindAllStringSubmatch(safe, -1) {
		record(OpMerge, normalizeUpper(m[1]))
	}
	for _, m := range reDCTruncate.FindAllStringSubmatch(safe, -1) {
		record(OpTruncate, normalizeUpper(m[1]))
	}
	for _, m := range reDCSelectInto.FindAllStringSubmatch(safe, -1) {
		record(OpSelectInto, normalizeUpper(m[1]))
	}

	var tables []TableChange
	for tbl, ops := range tableOps {
		opList := make([]string, 0, len(ops))
		for op := range ops {
			opList = append(opList, string(op))
		}
		sort.Strings(opList)
		out := make([]DataChangeOp, len(opList))
		for i, o := range opList {
			out[i] = DataChangeOp(o)
		}
		tables = append(tables, TableChange{Table: tbl, Ops: out})
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].Table < tables[j].Table })

	notes = dedupNotes(notes)

	return DataChangesResult{Counts: counts, Tables: tables, Notes: notes, Errors: nil}
}

func dedupNotes(notes []string) []string {
	seen := make(map[string]struct{}, len(notes))
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
