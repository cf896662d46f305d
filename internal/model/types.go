// Package model holds the small set of types shared across every analyzer:
// the SQL object identity the whole engine is keyed on, and its normalized
// form used for call-graph/caller equality.
package model

import "strings"

// ObjectType enumerates the kinds of T-SQL object the engine accepts.
type ObjectType string

const (
	Procedure ObjectType = "procedure"
	Function  ObjectType = "function"
	Trigger   ObjectType = "trigger"
	View      ObjectType = "view"
)

// SqlObject is one T-SQL definition submitted for analysis, optionally as
// part of a corpus (callers, call-graph).
type SqlObject struct {
	Name string
	Type ObjectType
	SQL  string
}

// NormalizedName is an identifier string with brackets/quotes stripped,
// parts split on '.', and (by default) lowercased, used for equality in
// call resolution. Two names normalize equal iff they denote the same
// object under case/quoting-insensitive comparison.
type NormalizedName struct {
	// Parts holds the dot-separated, unquoted identifier parts in
	// original left-to-right order, e.g. ["dbo", "usp_example"].
	Parts []string
	// foldCase records whether Parts were lowercased; kept so String()
	// can be deterministic regardless of caller-supplied casing.
	foldCase bool
}

// Normalize strips bracket/quote delimiters from each dot-separated part of
// name and optionally lowercases it.
func Normalize(name string, foldCase bool) NormalizedName {
	raw := strings.Split(name, ".")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		p = stripQuoting(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if foldCase {
			p = strings.ToLower(p)
		}
		parts = append(parts, p)
	}
	return NormalizedName{Parts: parts, foldCase: foldCase}
}

func stripQuoting(s string) string {
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	s = strings.Trim(s, "\"")
	s = strings.Trim(s, "`")
	return s
}

// String renders the normalized name back out dot-joined.
func (n NormalizedName) String() string {
	return strings.Join(n.Parts, ".")
}

// Base returns the last (unqualified) component, e.g. the procedure name
// without its schema.
func (n NormalizedName) Base() string {
	if len(n.Parts) == 0 {
		return ""
	}
	return n.Parts[len(n.Parts)-1]
}

// Equal reports whether two normalized names denote the same object.
func (n NormalizedName) Equal(other NormalizedName) bool {
	return n.String() == other.String()
}

// EqualBase reports whether the unqualified base names match, ignoring
// schema/database qualification. Used for schema_sensitive=false lookups.
func (n NormalizedName) EqualBase(other NormalizedName) bool {
	return n.Base() == other.Base()
}
