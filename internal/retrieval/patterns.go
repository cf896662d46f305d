package retrieval

import "strings"

// PatternRecommendation is one fixed spec-tag-triggered recommendation,
// optionally grounded in a retrieved reference document.
type PatternRecommendation struct {
	Tag          string   `json:"tag"`
	ID           string   `json:"id"`
	Message      string   `json:"message"`
	SourceDocID  string   `json:"source_doc_id,omitempty"`
}

// patternCatalog is the fixed tag -> (recommendation id, message,
// keyword set) table, per spec §4.12. Keyword sets double as the
// evidence test for attaching a source_doc_id to the recommendation.
var patternCatalog = []struct {
	tag      string
	id       string
	message  string
	keywords []string
}{
	{
		tag:      "dynamic_sql",
		id:       "REC_DYNAMIC_SQL",
		message:  "Replace dynamic SQL construction with parameterized MyBatis statements.",
		keywords: []string{"dynamic", "sp_executesql", "exec", "parameteriz"},
	},
	{
		tag:      "cursor",
		id:       "REC_CURSOR",
		message:  "Rewrite cursor-driven iteration as a set-based query or a batched Java loop.",
		keywords: []string{"cursor", "fetch", "row-by-row", "rbar"},
	},
	{
		tag:      "uses_transaction",
		id:       "REC_TRANSACTION_BOUNDARY",
		message:  "Move the transaction boundary to the service layer instead of managing it in T-SQL.",
		keywords: []string{"transaction", "commit", "rollback", "boundary"},
	},
	{
		tag:      "linked_server|cross_db",
		id:       "REC_EXTERNAL_DEPENDENCY",
		message:  "Isolate linked-server/cross-database access behind an explicit integration adapter.",
		keywords: []string{"linked server", "cross-database", "openquery", "four-part"},
	},
	{
		tag:      "SELECT_STAR",
		id:       "REC_SELECT_STAR",
		message:  "Project explicit columns instead of SELECT * to keep MyBatis result maps stable.",
		keywords: []string{"select *", "result map", "column", "projection"},
	},
}

// BuildPatternRecommendations emits one fixed recommendation per tag
// present in tags, optionally attaching the hit (among hits) whose
// title+text contains at least two of the recommendation's keywords,
// breaking ties by the smaller doc_id, per spec §4.12.
func BuildPatternRecommendations(tags []string, hits []Hit) []PatternRecommendation {
	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tagSet[t] = struct{}{}
	}

	var out []PatternRecommendation
	for _, entry := range patternCatalog {
		if !tagPresent(entry.tag, tagSet) {
			continue
		}
		rec := PatternRecommendation{Tag: entry.tag, ID: entry.id, Message: entry.message}
		if docID, ok := bestSourceDoc(entry.keywords, hits); ok {
			rec.SourceDocID = docID
		}
		out = append(out, rec)
	}
	return out
}

// tagPresent handles the single compound tag "linked_server|cross_db",
// which fires if either half of the pipe-separated alternative is set.
func tagPresent(tag string, tagSet map[string]struct{}) bool {
	for _, alt := range strings.Split(tag, "|") {
		if _, ok := tagSet[alt]; ok {
			return true
		}
	}
	return false
}

func bestSourceDoc(keywords []string, hits []Hit) (string, bool) {
	var bestDocID string
	found := false
	for _, h := range hits {
		haystack := strings.ToLower(h.Document.Title + " " + h.Document.Text)
		matches := 0
		for _, kw := range keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				matches++
			}
		}
		if matches < 2 {
			continue
		}
		if !found || h.Document.DocID < bestDocID {
			bestDocID = h.Document.DocID
			found = true
		}
	}
	return bestDocID, found
}
