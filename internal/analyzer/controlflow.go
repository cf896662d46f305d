package analyzer

import (
	"regexp"

	"github.com/tsqlspec/tsqlspec/internal/normalize"
	"github.com/tsqlspec/tsqlspec/internal/safetext"
)

// NodeType enumerates control-flow graph node kinds, spec §3.
type NodeType string

const (
	NodeStart  NodeType = "start"
	NodeIf     NodeType = "if"
	NodeWhile  NodeType = "while"
	NodeTry    NodeType = "try"
	NodeCatch  NodeType = "catch"
	NodeReturn NodeType = "return"
	NodeGoto   NodeType = "goto"
	NodeEnd    NodeType = "end"
)

// EdgeLabel enumerates control-flow graph edge kinds, spec §3.
type EdgeLabel string

const (
	EdgeNext     EdgeLabel = "next"
	EdgeTrue     EdgeLabel = "true"
	EdgeFalse    EdgeLabel = "false"
	EdgeLoop     EdgeLabel = "loop"
	EdgeExit     EdgeLabel = "exit"
	EdgeOnError  EdgeLabel = "on_error"
	EdgeReturn   EdgeLabel = "return"
	EdgeGotoEdge EdgeLabel = "goto"
)

// CFNode is one node in the synthesized control-flow graph.
type CFNode struct {
	ID   int      `json:"id"`
	Type NodeType `json:"type"`
}

// CFEdge is one directed edge in the synthesized control-flow graph.
type CFEdge struct {
	From  int       `json:"from"`
	To    int       `json:"to"`
	Label EdgeLabel `json:"label"`
}

// ControlFlowSummary is the scalar feature summary half of spec §4.6.
type ControlFlowSummary struct {
	HasBranching         bool `json:"has_branching"`
	HasLoops             bool `json:"has_loops"`
	HasTryCatch          bool `json:"has_try_catch"`
	HasGoto              bool `json:"has_goto"`
	HasReturn            bool `json:"has_return"`
	BranchCount          int  `json:"branch_count"`
	LoopCount            int  `json:"loop_count"`
	ReturnCount          int  `json:"return_count"`
	GotoCount            int  `json:"goto_count"`
	MaxNestingDepth      int  `json:"max_nesting_depth"`
	CyclomaticComplexity int  `json:"cyclomatic_complexity"`
}

// ControlFlowResult is the output of the Control Flow analyzer (spec §4.6).
type ControlFlowResult struct {
	Summary ControlFlowSummary `json:"summary"`
	Nodes   []CFNode           `json:"nodes"`
	Edges   []CFEdge           `json:"edges"`
	Errors  []string           `json:"errors"`
}

const (
	cfMaxNodes = 200
	cfMaxEdges = 400
)

var (
	reCFIf       = regexp.MustCompile(`(?i)\bIF\b`)
	reCFWhile    = regexp.MustCompile(`(?i)\bWHILE\b`)
	reCFBeginTry = regexp.MustCompile(`(?i)\bBEGIN\s+TRY\b`)
	reCFEndTry   = regexp.MustCompile(`(?i)\bEND\s+TRY\b`)
	reCFBeginCat = regexp.MustCompile(`(?i)\bBEGIN\s+CATCH\b`)
	reCFEndCat   = regexp.MustCompile(`(?i)\bEND\s+CATCH\b`)
	reCFReturn   = regexp.MustCompile(`(?i)\bRETURN\b`)
	reCFGoto     = regexp.MustCompile(`(?i)\bGOTO\s+\w+`)
	reCFBegin    = regexp.MustCompile(`(?i)\bBEGIN\b`)
	reCFEnd      = regexp.MustCompile(`(?i)\bEND\b`)
)

type cfToken struct {
	pos  int
	kind string // "if","while","try","catch","return","goto"
}

// ControlFlow implements spec §4.6: a scalar summary plus a synthesized
// control-flow graph, both derived from a single ordered token scan over
// the comment/string-masked SQL.
func ControlFlow(sql string) ControlFlowResult {
	safe := safetext.Strip(sql)

	tokens := scanControlTokens(safe)

	var summary ControlFlowSummary
	depth, maxDepth := 0, 0
	var orderedControl []cfToken

	for _, tok := range tokens {
		switch tok.kind {
		case "try_begin":
			depth++
		case "catch_begin":
			depth++
		case "begin", "if_block", "while_block":
			depth++
		case "try_end", "catch_end", "end":
			depth--
			if depth < 0 {
				depth = 0
			}
		}
		if depth > maxDepth {
			maxDepth = depth
		}
		switch tok.kind {
		case "if_block":
			summary.BranchCount++
			orderedControl = append(orderedControl, cfToken{tok.pos, "if"})
		case "while_block":
			summary.LoopCount++
			orderedControl = append(orderedControl, cfToken{tok.pos, "while"})
		case "try_begin":
			orderedControl = append(orderedControl, cfToken{tok.pos, "try"})
		case "catch_begin":
			orderedControl = append(orderedControl, cfToken{tok.pos, "catch"})
		case "return":
			summary.ReturnCount++
			orderedControl = append(orderedControl, cfToken{tok.pos, "return"})
		case "goto":
			summary.GotoCount++
			orderedControl = append(orderedControl, cfToken{tok.pos, "goto"})
		}
	}

	summary.HasBranching = summary.BranchCount > 0
	summary.HasLoops = summary.LoopCount > 0
	summary.HasTryCatch = reCFBeginTry.MatchString(safe)
	summary.HasGoto = summary.GotoCount > 0
	summary.HasReturn = summary.ReturnCount > 0
	summary.MaxNestingDepth = maxDepth

	cc := 1 + summary.BranchCount + summary.LoopCount
	if summary.HasTryCatch {
		cc++
	}
	if summary.GotoCount > 0 {
		cc++
	}
	summary.CyclomaticComplexity = cc

	nodes, edges, errs := buildGraph(orderedControl)

	return ControlFlowResult{Summary: summary, Nodes: nodes, Edges: edges, Errors: errs}
}

// scanControlTokens produces one ordered event per control-structure
// occurrence by position, distinguishing BEGIN TRY/CATCH from plain BEGIN
// and END TRY/CATCH from plain END so nesting depth and graph synthesis
// agree on the same token stream.
func scanControlTokens(safe string) []struct {
	pos  int
	kind string
} {
	type span struct {
		pos  int
		end  int
		kind string
	}
	var spans []span

	add := func(re *regexp.Regexp, kind string) {
		for _, loc := range re.FindAllStringIndex(safe, -1) {
			spans = append(spans, span{pos: loc[0], end: loc[1], kind: kind})
		}
	}

	add(reCFBeginTry, "try_begin")
	add(reCFEndTry, "try_end")
	add(reCFBeginCat, "catch_begin")
	add(reCFEndCat, "catch_end")
	add(reCFIf, "if_raw")
	add(reCFWhile, "while_raw")
	add(reCFReturn, "return")
	add(reCFGoto, "goto")
	add(reCFBegin, "begin_raw")
	add(reCFEnd, "end_raw")

	// sort by position, stable.
	for i := 1; i < len(spans); i++ {
		for j := i; j > 0 && spans[j].pos < spans[j-1].pos; j-- {
			spans[j], spans[j-1] = spans[j-1], spans[j]
		}
	}

	// suppress plain BEGIN/END that overlap a TRY/CATCH BEGIN/END span.
	covered := make([]bool, len(safe)+1)
	for _, s := range spans {
		if s.kind == "try_begin" || s.kind == "try_end" || s.kind == "catch_begin" || s.kind == "catch_end" {
			for i := s.pos; i < s.end && i < len(covered); i++ {
				covered[i] = true
			}
		}
	}

	out := []struct {
		pos  int
		kind string
	}{}
	for _, s := range spans {
		switch s.kind {
		case "if_raw":
			out = append(out, struct {
				pos  int
				kind string
			}{s.pos, "if_block"})
		case "while_raw":
			out = append(out, struct {
				pos  int
				kind string
			}{s.pos, "while_block"})
		case "begin_raw", "end_raw":
			if covered[s.pos] {
				continue
			}
			k := "begin"
			if s.kind == "end_raw" {
				k = "end"
			}
			out = append(out, struct {
				pos  int
				kind string
			}{s.pos, k})
		default:
			out = append(out, struct {
				pos  int
				kind string
			}{s.pos, s.kind})
		}
	}
	return out
}

// buildGraph synthesizes the node/edge graph from the ordered list of
// control tokens per spec §4.6: a start node, one node per control token,
// and an end node, with edges determined by node type.
func buildGraph(tokens []cfToken) ([]CFNode, []CFEdge, []string) {
	var errs []string

	n := len(tokens) + 2 // start + tokens + end
	if n > cfMaxNodes {
		errs = append(errs, normalize.MaxItemsExceeded("control_flow.nodes", cfMaxNodes))
		n = cfMaxNodes
	}

	nodes := make([]CFNode, 0, n)
	nodes = append(nodes, CFNode{ID: 0, Type: NodeStart})
	kept := n - 2
	if kept < 0 {
		kept = 0
	}
	if kept > len(tokens) {
		kept = len(tokens)
	}
	for i := 0; i < kept; i++ {
		var t NodeType
		switch tokens[i].kind {
		case "if":
			t = NodeIf
		case "while":
			t = NodeWhile
		case "try":
			t = NodeTry
		case "catch":
			t = NodeCatch
		case "return":
			t = NodeReturn
		case "goto":
			t = NodeGoto
		}
		nodes = append(nodes, CFNode{ID: i + 1, Type: t})
	}
	endID := kept + 1
	nodes = append(nodes, CFNode{ID: endID, Type: NodeEnd})

	var edges []CFEdge
	addEdge := func(e CFEdge) {
		if len(edges) >= cfMaxEdges {
			return
		}
		edges = append(edges, e)
	}

	for i := 0; i < kept; i++ {
		id := i + 1
		next := id + 1
		if i == kept-1 {
			next = endID
		}
		switch tokens[i].kind {
		case "if":
			addEdge(CFEdge{From: id, To: next, Label: EdgeTrue})
			addEdge(CFEdge{From: id, To: next, Label: EdgeFalse})
		case "while":
			addEdge(CFEdge{From: id, To: id, Label: EdgeLoop})
			addEdge(CFEdge{From: id, To: next, Label: EdgeExit})
		case "try":
			// find the next catch token, if any, to emit on_error + next.
			catchID := -1
			afterCatchID := next
			for j := i + 1; j < kept; j++ {
				if tokens[j].kind == "catch" {
					catchID = j + 1
					if j+1 < kept {
						afterCatchID = j + 2
					} else {
						afterCatchID = endID
					}
					break
				}
			}
			if catchID != -1 {
				addEdge(CFEdge{From: id, To: catchID, Label: EdgeOnError})
				addEdge(CFEdge{From: id, To: afterCatchID, Label: EdgeNext})
			} else {
				addEdge(CFEdge{From: id, To: next, Label: EdgeNext})
			}
		case "return":
			addEdge(CFEdge{From: id, To: endID, Label: EdgeReturn})
		case "goto":
			addEdge(CFEdge{From: id, To: endID, Label: EdgeGotoEdge})
		default:
			addEdge(CFEdge{From: id, To: next, Label: EdgeNext})
		}
	}

	if len(edges) >= cfMaxEdges && len(tokens) > kept {
		errs = append(errs, normalize.MaxItemsExceeded("control_flow.edges", cfMaxEdges))
	}

	return nodes, edges, errs
}
