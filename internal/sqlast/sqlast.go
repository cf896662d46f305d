// Package sqlast is the structural parser adapter described in spec §4.2.
// T-SQL stored-procedure/function bodies are not themselves valid input to
// any MySQL-dialect grammar, so this adapter never tries to parse the
// whole object: it slices the SafeText rendering into semicolon-delimited
// fragments and offers each fragment, independently, to
// vitess.io/vitess/go/vt/sqlparser. Vitess successfully parses the
// fragments that happen to be ordinary DML (a bare INSERT/UPDATE/DELETE/
// SELECT), which is precisely the evidence write-statement detection and
// reference extraction need; it errors out on T-SQL-only syntax
// (DECLARE/IF/WHILE/BEGIN.../EXEC/TRY CATCH and friends), which is
// expected and never fatal. Every analyzer that consults this package must
// still produce a complete result when every fragment fails to parse.
package sqlast

import (
	"strings"
	"sync"

	"vitess.io/vitess/go/vt/sqlparser"

	"github.com/tsqlspec/tsqlspec/internal/safetext"
)

// StatementKind classifies a successfully parsed fragment.
type StatementKind string

const (
	KindSelect StatementKind = "select"
	KindInsert StatementKind = "insert"
	KindUpdate StatementKind = "update"
	KindDelete StatementKind = "delete"
	KindOther  StatementKind = "other"
)

// Statement is the structural evidence extracted from one fragment that
// vitess was able to parse.
type Statement struct {
	Kind     StatementKind
	Table    string // best-effort target/source table, upper-cased
	HasWhere bool
}

// Result is the outcome of attempting a structural parse of a SQL object.
// Fragments is always populated with whatever vitess could parse;
// ParseErrors holds the fixed-vocabulary "parse_error: <kind>" strings for
// fragments it could not. A non-empty ParseErrors list does not mean the
// overall parse "failed" - callers always get whatever Fragments were
// recovered and must be able to proceed from Fragments == nil.
type Result struct {
	Fragments   []Statement
	ParseErrors []string
}

var (
	parserOnce sync.Once
	parser     *sqlparser.Parser
	parserErr  error
)

func getParser() (*sqlparser.Parser, error) {
	parserOnce.Do(func() {
		parser, parserErr = sqlparser.New(sqlparser.Options{})
	})
	return parser, parserErr
}

// Parse splits sql (the caller's raw, un-masked object body) into
// semicolon-delimited fragments of its SafeText rendering and attempts to
// parse each one. dialect is accepted for interface symmetry with the
// spec's contract but is currently always treated as "tsql" (the only
// dialect this engine analyzes); it exists so callers match the contract
// in spec §4.2 and so a future dialect tag has somewhere to plug in.
func Parse(sql string, dialect string) Result {
	safe := safetext.Strip(sql)
	fragments := splitStatements(safe)

	p, err := getParser()
	if err != nil {
		return Result{ParseErrors: []string{"parse_error: parser_unavailable"}}
	}

	var res Result
	sawFailure := false
	for _, frag := range fragments {
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}
		stmt, perr := p.Parse(frag)
		if perr != nil {
			sawFailure = true
			continue
		}
		if s, ok := classify(stmt); ok {
			res.Fragments = append(res.Fragments, s)
		}
	}
	if sawFailure {
		res.ParseErrors = append(res.ParseErrors, "parse_error: unsupported_syntax")
	}
	return res
}

func classify(stmt sqlparser.Statement) (Statement, bool) {
	switch s := stmt.(type) {
	case *sqlparser.Select:
		return Statement{Kind: KindSelect}, true
	case *sqlparser.Insert:
		tbl := ""
		if s.Table != nil {
			if tn, ok := s.Table.Expr.(sqlparser.TableName); ok {
				tbl = tableNameString(tn)
			}
		}
		return Statement{Kind: KindInsert, Table: tbl}, true
	case *sqlparser.Update:
		tbl, _ := firstTableFromExprs(s.TableExprs)
		return Statement{Kind: KindUpdate, Table: tbl, HasWhere: s.Where != nil}, true
	case *sqlparser.Delete:
		tbl, _ := firstTableFromExprs(s.TableExprs)
		return Statement{Kind: KindDelete, Table: tbl, HasWhere: s.Where != nil}, true
	default:
		return Statement{Kind: KindOther}, true
	}
}

func firstTableFromExprs(exprs sqlparser.TableExprs) (string, bool) {
	for _, e := range exprs {
		if ate, ok := e.(*sqlparser.AliasedTableExpr); ok {
			if tn, ok := ate.Expr.(sqlparser.TableName); ok {
				return tableNameString(tn), true
			}
		}
	}
	return "", false
}

func tableNameString(tn sqlparser.TableName) string {
	parts := []string{}
	if !tn.Qualifier.IsEmpty() {
		parts = append(parts, tn.Qualifier.String())
	}
	parts = append(parts, tn.Name.String())
	return strings.ToUpper(strings.Join(parts, "."))
}

// splitStatements divides SafeText SQL into top-level, semicolon-delimited
// fragments. Because SafeText has already blanked comments and collapsed
// string literals, a bare top-level scan for ';' is safe: no remaining
// semicolon can be inside a string or comment.
func splitStatements(safe string) []string {
	var out []string
	start := 0
	for i := 0; i < len(safe); i++ {
		if safe[i] == ';' {
			out = append(out, safe[start:i])
			start = i + 1
		}
	}
	if start < len(safe) {
		out = append(out, safe[start:])
	}
	return out
}
