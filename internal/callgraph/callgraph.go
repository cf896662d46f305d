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
	graphMaxNodes = 500
	graphMaxEdges = 2000
	edgeSignalCap = 10
)

// EdgeKind enumerates call-graph edge kinds, spec §3.
type EdgeKind string

const (
	EdgeExec         EdgeKind = "exec"
	EdgeExecute      EdgeKind = "execute"
	EdgeFunctionCall EdgeKind = "function_call"
)

// Node is one call-graph node keyed by its normalized name.
type Node struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Edge is one directed call-graph edge.
type Edge struct {
	From    string   `json:"from"`
	To      string   `json:"to"`
	Kind    EdgeKind `json:"kind"`
	Count   int      `json:"count"`
	Signals []string `json:"signals"`
}

// Topology is the derived structural summary of a CallGraph.
type Topology struct {
	Roots     []string       `json:"roots"`
	Leaves    []string       `json:"leaves"`
	InDegree  map[string]int `json:"in_degree"`
	OutDegree map[string]int `json:"out_degree"`
}

// Summary carries graph-level flags.
type Summary struct {
	HasCycles bool `json:"has_cycles"`
	Truncated bool `json:"truncated"`
}

// GraphOptions controls node inclusion and edge-resolution behavior for
// spec §4.10.
type GraphOptions struct {
	IncludeProcedures bool
	IncludeFunctions  bool
	SchemaSensitive   bool
	IgnoreDynamicExec bool
}

// CallGraphError is one structured call-graph error, spec §7:
// `{id, message, object?}`. Object is omitted for errors that are not
// attributable to a single caller (cap overflow, cycle detection).
type CallGraphError struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Object  string `json:"object,omitempty"`
}

// CallGraphResult is the output of the Call Graph analyzer (spec §4.10).
type CallGraphResult struct {
	Nodes    []Node           `json:"nodes"`
	Edges    []Edge           `json:"edges"`
	Topology Topology         `json:"topology"`
	Summary  Summary          `json:"summary"`
	Errors   []CallGraphError `json:"errors"`
}

var reGraphExec = regexp.MustCompile(`(?i)\bEXEC(UTE)?\s+([a-zA-Z0-9_\.\[\]"]+)`)
var reGraphFn = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_\.\[\]]*)\s*\(`)

// nodeEntry is the internal working representation of a call-graph node
// while Build resolves edges; Node is the public, JSON-facing projection.
type nodeEntry struct {
	id   string
	name string
	typ  string
	norm model.NormalizedName
}

// edgeKey identifies one (from, to, kind) multigraph edge for
// deduplication, per spec §4.10.
type edgeKey struct {
	from, to string
	kind     EdgeKind
}

// Build constructs the directed call multigraph over corpus per spec
// §4.10.
func Build(corpus []model.SqlObject, opts GraphOptions) CallGraphResult {
	var errs []CallGraphError

	var nodes []nodeEntry
	byBase := map[string][]int{}
	byFull := map[string]int{}

	for _, obj := range corpus {
		if obj.Type == model.Procedure && !opts.IncludeProcedures {
			continue
		}
		if obj.Type == model.Function && !opts.IncludeFunctions {
			continue
		}
		norm := model.Normalize(obj.Name, true)
		id := norm.String()
		idx := len(nodes)
		nodes = append(nodes, nodeEntry{id: id, name: obj.Name, typ: string(obj.Type), norm: norm})
		byFull[id] = idx
		base := norm.Base()
		byBase[base] = append(byBase[base], idx)
	}

	truncated := false
	if len(nodes) > graphMaxNodes {
		errs = append(errs, CallGraphError{
			ID:      "NODE_LIMIT_EXCEEDED",
			Message: fmt.Sprintf("Node limit exceeded. max_nodes=%d.", graphMaxNodes),
		})
		nodes = nodes[:graphMaxNodes]
		truncated = true
	}

	edgeOrder := []edgeKey{}
	edgeData := map[edgeKey]*Edge{}
	ambiguous := map[string]struct{}{}

	resolve := func(raw string) (string, bool) {
		norm := model.Normalize(raw, true)
		id := norm.String()
		if _, ok := byFull[id]; ok {
			return id, true
		}
		if !opts.SchemaSensitive {
			base := norm.Base()
			cands := byBase[base]
			if len(cands) == 1 {
				return nodes[cands[0]].id, true
			}
			if len(cands) > 1 {
				return "", false
			}
		}
		return "", false
	}

	for i, n := range nodes {
		if i >= len(corpus) {
			break
		}
		var obj model.SqlObject
		for _, o := range corpus {
			if o.Name == n.name {
				obj = o
				break
			}
		}
		safe := safetext.Strip(obj.SQL)

		for _, m := range reGraphExec.FindAllStringSubmatch(safe, -1) {
			if opts.IgnoreDynamicExec && isDynamicExecCall(m[0]) {
				continue
			}
			kind := EdgeExec
			if m[1] != "" {
				kind = EdgeExecute
			}
			toID, ok := resolve(m[2])
			if !ok {
				base := model.Normalize(m[2], true).Base()
				if opts.SchemaSensitive || len(byBase[base]) < 2 {
					continue
				}
				key := n.id + "|" + strings.ToUpper(base)
				if _, seen := ambiguous[key]; !seen {
					ambiguous[key] = struct{}{}
					errs = append(errs, CallGraphError{
						ID:      "AMBIGUOUS_TARGET",
						Message: fmt.Sprintf("Call to %s is ambiguous across schemas.", base),
						Object:  n.name,
					})
				}
				continue
			}
			addEdge(&edgeOrder, edgeData, n.id, toID, kind, strings.ToUpper(m[2]))
		}
		for _, m := range reGraphFn.FindAllStringSubmatch(safe, -1) {
			up := strings.ToUpper(m[1])
			if _, ok := builtinCallNames[up]; ok {
				continue
			}
			toID, ok := resolve(m[1])
			if !ok {
				continue
			}
			addEdge(&edgeOrder, edgeData, n.id, toID, EdgeFunctionCall, up+"(")
		}
	}

	var edges []Edge
	for _, k := range edgeOrder {
		e := edgeData[k]
		capped, terrs := normalize.CapStrings(normalize.DedupInsertionOrder(e.Signals), edgeSignalCap, "call_graph.edge."+e.From+"."+e.To+".signals")
		e.Signals = capped
		for _, t := range terrs {
			errs = append(errs, CallGraphError{ID: "SECTION_TRUNCATED", Message: t})
		}
		edges = append(edges, *e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Kind < edges[j].Kind
	})

	if len(edges) > graphMaxEdges {
		errs = append(errs, CallGraphError{
			ID:      "EDGE_LIMIT_EXCEEDED",
			Message: fmt.Sprintf("Edge limit exceeded. max_edges=%d.", graphMaxEdges),
		})
		edges = edges[:graphMaxEdges]
		truncated = true
	}

	var outNodes []Node
	inDeg := map[string]int{}
	outDeg := map[string]int{}
	for _, n := range nodes {
		outNodes = append(outNodes, Node{ID: n.id, Name: n.name, Type: n.typ})
		inDeg[n.id] = 0
		outDeg[n.id] = 0
	}
	sort.Slice(outNodes, func(i, j int) bool { return outNodes[i].ID < outNodes[j].ID })

	for _, e := range edges {
		outDeg[e.From] += e.Count
		inDeg[e.To] += e.Count
	}

	var roots, leaves []string
	for _, n := range nodes {
		if inDeg[n.id] == 0 {
			roots = append(roots, n.id)
		}
		if outDeg[n.id] == 0 {
			leaves = append(leaves, n.id)
		}
	}
	sort.Strings(roots)
	sort.Strings(leaves)

	hasCycles, cycleKnown := detectCycle(nodes, edges)
	if !cycleKnown {
		errs = append(errs, CallGraphError{
			ID:      "CYCLE_DETECTION_UNAVAILABLE",
			Message: "Cycle detection is not available; has_cycles defaults to false.",
		})
		hasCycles = false
	}

	errs = sortDedupCallGraphErrors(errs)

	return CallGraphResult{
		Nodes: outNodes,
		Edges: edges,
		Topology: Topology{
			Roots: roots, Leaves: leaves, InDegree: inDeg, OutDegree: outDeg,
		},
		Summary: Summary{HasCycles: hasCycles, Truncated: truncated},
		Errors:  errs,
	}
}

// sortDedupCallGraphErrors deduplicates identical {id, message, object}
// triples and orders the result by (id, object, message) so that map-driven
// construction never leaks nondeterministic ordering into the output.
func sortDedupCallGraphErrors(errs []CallGraphError) []CallGraphError {
	seen := make(map[CallGraphError]struct{}, len(errs))
	out := make([]CallGraphError, 0, len(errs))
	for _, e := range errs {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		if out[i].Object != out[j].Object {
			return out[i].Object < out[j].Object
		}
		return out[i].Message < out[j].Message
	})
	return out
}

func addEdge(order *[]edgeKey, data map[edgeKey]*Edge, from, to string, kind EdgeKind, signal string) {
	key := edgeKey{from, to, kind}
	e, ok := data[key]
	if !ok {
		e = &Edge{From: from, To: to, Kind: kind}
		data[key] = e
		*order = append(*order, key)
	}
	e.Count++
	e.Signals = append(e.Signals, signal)
}

// detectCycle runs a plain DFS-based cycle check (Tarjan-equivalent for
// our purposes: any back-edge in a DFS tree implies a cycle in a directed
// graph). Always succeeds for in-memory graphs of this size, so known is
// always true; kept as a distinct return so a future implementation that
// cannot complete in bounded time can report unavailability honestly.
func detectCycle(nodes []nodeEntry, edges []Edge) (has bool, known bool) {
	adj := map[string][]string{}
	for _, e := range edges {
		adj[e.From] = append(adj[e.From], e.To)
	}
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, next := range adj[id] {
			switch color[next] {
			case gray:
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}
	for _, n := range nodes {
		if color[n.id] == white {
			if visit(n.id) {
				return true, true
			}
		}
	}
	return false, true
}
