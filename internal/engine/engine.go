// Package engine is the core library façade of spec.md §6: one Go
// function per external operation, each wrapping the primitive
// analyzers, cross-object analyzers, scorers, and the Spec Assembler
// behind the fixed, versioned contract the transport layer depends on.
//
// Every exported function here is the single place a request boundary
// calls into; no analyzer package is meant to be driven directly by a
// caller outside this package (the CLI in cmd/ goes through here too).
package engine

import (
	"github.com/google/uuid"

	"github.com/tsqlspec/tsqlspec/internal/analyzer"
	"github.com/tsqlspec/tsqlspec/internal/callgraph"
	"github.com/tsqlspec/tsqlspec/internal/enginelog"
	"github.com/tsqlspec/tsqlspec/internal/model"
	"github.com/tsqlspec/tsqlspec/internal/normalize"
	"github.com/tsqlspec/tsqlspec/internal/retrieval"
	"github.com/tsqlspec/tsqlspec/internal/scoring"
	"github.com/tsqlspec/tsqlspec/internal/spec"
)

// Object identifies the analyzed SQL object in every per-object report,
// mirroring spec.Object.
type Object struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func objectOf(obj model.SqlObject) Object {
	return Object{Name: obj.Name, Type: string(obj.Type)}
}

// newRequestID mints a per-call correlation id, attached only to the
// logrus entry in enginelog.Call — it never appears in a returned
// report, matching SPEC_FULL.md §2's determinism note on uuid usage.
func newRequestID() string {
	return uuid.NewString()
}

// AnalyzeResult is the output of spec §6's `analyze` operation.
type AnalyzeResult struct {
	Version          string                        `json:"version"`
	References       analyzer.ReferencesResult      `json:"references"`
	Transactions     analyzer.TransactionsResult    `json:"transactions"`
	MigrationImpacts analyzer.ImpactsResult         `json:"migration_impacts"`
	ControlFlow      analyzer.ControlFlowResult     `json:"control_flow"`
	DataChanges      analyzer.DataChangesResult     `json:"data_changes"`
	ErrorHandling    analyzer.ErrorHandlingResult   `json:"error_handling"`
	Errors           []string                       `json:"errors"`
}

// Analyze runs every primitive analyzer over sql, spec §6 `analyze`
// (version "0.6").
func Analyze(sql string) AnalyzeResult {
	enginelog.Call("analyze", newRequestID(), sql)

	refs := analyzer.References(sql)
	txn := analyzer.Transactions(sql)
	impacts := analyzer.MigrationImpacts(sql)
	cf := analyzer.ControlFlow(sql)
	dc := analyzer.DataChanges(sql)
	eh := analyzer.ErrorHandling(sql)

	var errs []string
	errs = append(errs, refs.Errors...)
	errs = append(errs, txn.Errors...)
	errs = append(errs, impacts.Errors...)
	errs = append(errs, cf.Errors...)
	errs = append(errs, dc.Errors...)
	errs = append(errs, eh.Errors...)

	return AnalyzeResult{
		Version:          "0.6",
		References:       refs,
		Transactions:     txn,
		MigrationImpacts: impacts,
		ControlFlow:      cf,
		DataChanges:      dc,
		ErrorHandling:    eh,
		Errors:           normalize.SortedUniqueStrings(errs),
	}
}

// CallersReport is the output of spec §6 `callers` (version "2.1.0").
type CallersReport struct {
	Version string                 `json:"version"`
	Target  string                 `json:"target"`
	Summary CallersSummary         `json:"summary"`
	Callers []callgraph.Caller     `json:"callers"`
	Errors  []string               `json:"errors"`
}

// CallersSummary is the §4.9 aggregate count attached to a CallersReport.
type CallersSummary struct {
	CallerCount int `json:"caller_count"`
}

// Callers runs the Callers analyzer over a corpus, spec §6 `callers`.
func Callers(target model.SqlObject, targetType string, corpus []model.SqlObject, opts callgraph.CallersOptions) CallersReport {
	enginelog.Call("callers", newRequestID(), target.SQL)

	r := callgraph.FindCallers(target, targetType, corpus, opts)
	return CallersReport{
		Version: "2.1.0",
		Target:  r.Target,
		Summary: CallersSummary{CallerCount: len(r.Callers)},
		Callers: r.Callers,
		Errors:  r.Errors,
	}
}

// CallGraphReport is the output of spec §6 `common/call-graph` (version
// "2.4.0").
type CallGraphReport struct {
	Version  string                    `json:"version"`
	Summary  callgraph.Summary         `json:"summary"`
	Graph    callGraphBody             `json:"graph"`
	Topology callgraph.Topology        `json:"topology"`
	Errors   []callgraph.CallGraphError `json:"errors"`
}

type callGraphBody struct {
	Nodes []callgraph.Node `json:"nodes"`
	Edges []callgraph.Edge `json:"edges"`
}

// CallGraph builds the directed call multigraph over corpus, spec §6
// `common/call-graph`.
func CallGraph(corpus []model.SqlObject, opts callgraph.GraphOptions) CallGraphReport {
	enginelog.Call("common/call-graph", newRequestID(), "")

	r := callgraph.Build(corpus, opts)
	return CallGraphReport{
		Version:  "2.4.0",
		Summary:  r.Summary,
		Graph:    callGraphBody{Nodes: r.Nodes, Edges: r.Edges},
		Topology: r.Topology,
		Errors:   r.Errors,
	}
}

// ExternalDepsReport is the output of spec §6 `external-deps` (version
// "2.2.0").
type ExternalDepsReport struct {
	Version string `json:"version"`
	Object  Object `json:"object"`
	scoring.ExternalDepsResult
}

// ExternalDeps runs the External Deps scorer, spec §6 `external-deps`.
func ExternalDeps(obj model.SqlObject) ExternalDepsReport {
	enginelog.Call("external-deps", newRequestID(), obj.SQL)

	return ExternalDepsReport{
		Version:             "2.2.0",
		Object:               objectOf(obj),
		ExternalDepsResult:   scoring.ExternalDeps(obj.SQL),
	}
}

// ReusabilityReport is the output of spec §6 `common/reusability`
// (version "2.2.0").
type ReusabilityReport struct {
	Version string `json:"version"`
	Object  Object `json:"object"`
	scoring.ReusabilityResult
}

// Reusability runs the Reusability scorer, spec §6 `common/reusability`.
func Reusability(obj model.SqlObject) ReusabilityReport {
	enginelog.Call("common/reusability", newRequestID(), obj.SQL)

	signals := scoring.BuildSignals(obj.SQL)
	rules := scoring.BusinessRules(obj.SQL)
	hasGuard := false
	for _, r := range rules.Rules {
		if r.Kind == scoring.KindGuardClause {
			hasGuard = true
			break
		}
	}

	return ReusabilityReport{
		Version:           "2.2.0",
		Object:             objectOf(obj),
		ReusabilityResult:  scoring.Reusability(signals, hasGuard),
	}
}

// RulesTemplateReport is the output of spec §6 `common/rules-template`
// (version "2.3.0").
type RulesTemplateReport struct {
	Version string `json:"version"`
	Object  Object `json:"object"`
	scoring.BusinessRulesResult
}

// RulesTemplate runs the Business Rules scorer, spec §6
// `common/rules-template`.
func RulesTemplate(obj model.SqlObject) RulesTemplateReport {
	enginelog.Call("common/rules-template", newRequestID(), obj.SQL)

	return RulesTemplateReport{
		Version:             "2.3.0",
		Object:               objectOf(obj),
		BusinessRulesResult:  scoring.BusinessRules(obj.SQL),
	}
}

// MappingStrategyReport is the output of spec §6
// `migration/mapping-strategy` (version "3.1.0").
type MappingStrategyReport struct {
	Version string `json:"version"`
	Object  Object `json:"object"`
	scoring.MappingStrategyResult
}

// MappingStrategy runs the Mapping Strategy scorer, spec §6
// `migration/mapping-strategy`.
func MappingStrategy(obj model.SqlObject, targetStyle string) MappingStrategyReport {
	enginelog.Call("migration/mapping-strategy", newRequestID(), obj.SQL)

	signals := scoring.BuildSignals(obj.SQL)
	return MappingStrategyReport{
		Version:                "3.1.0",
		Object:                  objectOf(obj),
		MappingStrategyResult:   scoring.MappingStrategy(signals, targetStyle),
	}
}

// TransactionBoundaryReport is the output of spec §6
// `migration/transaction-boundary` (version "3.2.0").
type TransactionBoundaryReport struct {
	Version string `json:"version"`
	Object  Object `json:"object"`
	scoring.TxBoundaryResult
}

// TransactionBoundary runs the Tx Boundary scorer, spec §6
// `migration/transaction-boundary`.
func TransactionBoundary(obj model.SqlObject) TransactionBoundaryReport {
	enginelog.Call("migration/transaction-boundary", newRequestID(), obj.SQL)

	signals := scoring.BuildSignals(obj.SQL)
	return TransactionBoundaryReport{
		Version:            "3.2.0",
		Object:              objectOf(obj),
		TxBoundaryResult:    scoring.TxBoundary(signals),
	}
}

// MyBatisDifficultyReport is the output of spec §6
// `migration/mybatis-difficulty` (version "3.3.0").
type MyBatisDifficultyReport struct {
	Version string `json:"version"`
	Object  Object `json:"object"`
	scoring.MyBatisDifficultyResult
}

// MyBatisDifficulty runs the MyBatis Difficulty scorer, spec §6
// `migration/mybatis-difficulty`.
func MyBatisDifficulty(obj model.SqlObject) MyBatisDifficultyReport {
	enginelog.Call("migration/mybatis-difficulty", newRequestID(), obj.SQL)

	signals := scoring.BuildSignals(obj.SQL)
	return MyBatisDifficultyReport{
		Version:                  "3.3.0",
		Object:                    objectOf(obj),
		MyBatisDifficultyResult:   scoring.MyBatisDifficulty(signals),
	}
}

// PerformanceRiskReport is the output of spec §6
// `quality/performance-risk` (version "4.1.0").
type PerformanceRiskReport struct {
	Version string `json:"version"`
	Object  Object `json:"object"`
	scoring.PerformanceRiskResult
}

// PerformanceRisk runs the Performance Risk scorer, spec §6
// `quality/performance-risk`.
func PerformanceRisk(obj model.SqlObject) PerformanceRiskReport {
	enginelog.Call("quality/performance-risk", newRequestID(), obj.SQL)

	signals := scoring.BuildSignals(obj.SQL)
	return PerformanceRiskReport{
		Version:                "4.1.0",
		Object:                  objectOf(obj),
		PerformanceRiskResult:   scoring.PerformanceRisk(obj.SQL, signals),
	}
}

// DbDependencyReport is the output of spec §6 `quality/db-dependency`
// (version "4.2.0").
type DbDependencyReport struct {
	Version string `json:"version"`
	Object  Object `json:"object"`
	scoring.DbDependencyResult
}

// DbDependency runs the Db Dependency scorer, spec §6
// `quality/db-dependency`.
func DbDependency(obj model.SqlObject) DbDependencyReport {
	enginelog.Call("quality/db-dependency", newRequestID(), obj.SQL)

	signals := scoring.BuildSignals(obj.SQL)
	return DbDependencyReport{
		Version:             "4.2.0",
		Object:               objectOf(obj),
		DbDependencyResult:   scoring.DbDependency(signals),
	}
}

// StandardizeSpec runs the Spec Assembler, spec §6 `standardize/spec`
// (version "5.1.0", fixed inside spec.Assemble).
func StandardizeSpec(obj model.SqlObject, opts spec.Options) spec.SpecReport {
	enginelog.Call("standardize/spec", newRequestID(), obj.SQL)
	return spec.Assemble(obj, opts)
}

// EvidenceOptions configures the extra evidence-retrieval step of
// `standardize/spec-with-evidence`, spec §6.
type EvidenceOptions struct {
	DocsDir         string
	TopK            int
	MaxSnippetChars int
}

func (o EvidenceOptions) resolve() EvidenceOptions {
	if o.TopK <= 0 {
		o.TopK = 5
	}
	if o.MaxSnippetChars <= 0 {
		o.MaxSnippetChars = 280
	}
	return o
}

// EvidenceSnippet is one retrieved reference-document match attached to a
// SpecReport by `standardize/spec-with-evidence`.
type EvidenceSnippet struct {
	DocID     string  `json:"doc_id"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
	Snippet   string  `json:"snippet"`
	Truncated bool    `json:"truncated"`
}

// Evidence is the spec §4.12/§6 evidence section: retrieved snippets plus
// the fixed pattern-catalog recommendations they ground.
type Evidence struct {
	Snippets        []EvidenceSnippet                    `json:"snippets"`
	Recommendations []retrieval.PatternRecommendation    `json:"recommendations"`
}

// SpecWithEvidenceReport is the output of spec §6
// `standardize/spec-with-evidence` (version "5.2.0").
type SpecWithEvidenceReport struct {
	Version string      `json:"version"`
	Object  spec.Object `json:"object"`
	Spec    spec.Content `json:"spec"`
	Evidence Evidence   `json:"evidence"`
	Errors  []string    `json:"errors"`
}

// StandardizeSpecWithEvidence runs the Spec Assembler and then retrieves
// supporting reference-document snippets for the assembled tags, spec §6
// `standardize/spec-with-evidence`.
func StandardizeSpecWithEvidence(obj model.SqlObject, opts spec.Options, evOpts EvidenceOptions) SpecWithEvidenceReport {
	enginelog.Call("standardize/spec-with-evidence", newRequestID(), obj.SQL)
	evOpts = evOpts.resolve()

	report := spec.Assemble(obj, opts)
	errs := append([]string{}, report.Errors...)

	var evidence Evidence
	var hits []retrieval.Hit

	if evOpts.DocsDir == "" {
		errs = append(errs, "DOCS_DIR_NOT_FOUND")
	} else {
		docs, err := retrieval.LoadDocuments(evOpts.DocsDir)
		if err != nil {
			errs = append(errs, "DOCS_DIR_NOT_FOUND")
		} else if len(docs) == 0 {
			errs = append(errs, "DOCS_EMPTY")
		} else {
			query := queryFromTags(report.Spec.Tags)
			if query == "" {
				errs = append(errs, "QUERY_TERMS_EMPTY")
			} else {
				idx := retrieval.BuildIndex(docs, true)
				hits = idx.Search(query, evOpts.TopK)
				for _, h := range hits {
					snippet, truncated := retrieval.BuildSnippet(h.Document.Text, evOpts.MaxSnippetChars)
					if truncated {
						errs = append(errs, "SNIPPET_TRUNCATED: "+h.Document.DocID)
					}
					evidence.Snippets = append(evidence.Snippets, EvidenceSnippet{
						DocID:     h.Document.DocID,
						Title:     h.Document.Title,
						Score:     h.Score,
						Snippet:   snippet,
						Truncated: truncated,
					})
				}
			}
		}
	}

	// Pattern recommendations are derived from tags alone and must be
	// emitted even when no docs were loaded, spec §8 scenario 7; hits is
	// nil in that case, so source_doc_id is simply never attached.
	evidence.Recommendations = retrieval.BuildPatternRecommendations(report.Spec.Tags, hits)

	return SpecWithEvidenceReport{
		Version:  "5.2.0",
		Object:   report.Object,
		Spec:     report.Spec,
		Evidence: evidence,
		Errors:   normalize.SortedUniqueStrings(errs),
	}
}

func queryFromTags(tags []string) string {
	out := ""
	for i, t := range tags {
		if i > 0 {
			out += " "
		}
		out += t
	}
	return out
}
