package callgraph

import (
	"testing"

	"github.com/tsqlspec/tsqlspec/internal/model"
)

func TestBuild_SimpleChainHasNoCycles(t *testing.T) {
	corpus := []model.SqlObject{
		{Name: "dbo.usp_A", Type: model.Procedure, SQL: `CREATE PROCEDURE dbo.usp_A AS
BEGIN EXEC dbo.usp_B; END`},
		{Name: "dbo.usp_B", Type: model.Procedure, SQL: `CREATE PROCEDURE dbo.usp_B AS
BEGIN SELECT 1; END`},
	}
	r := Build(corpus, GraphOptions{IncludeProcedures: true, IncludeFunctions: true, SchemaSensitive: true})
	if r.Summary.HasCycles {
		t.Fatalf("expected no cycles, got %+v", r)
	}
	if len(r.Edges) != 1 {
		t.Fatalf("expected one edge A->B, got %+v", r.Edges)
	}
	if len(r.Topology.Roots) != 1 || r.Topology.Roots[0] != "dbo.usp_a" {
		t.Fatalf("expected usp_A as the sole root, got %+v", r.Topology.Roots)
	}
}

func TestBuild_DetectsCycle(t *testing.T) {
	corpus := []model.SqlObject{
		{Name: "dbo.usp_A", Type: model.Procedure, SQL: `CREATE PROCEDURE dbo.usp_A AS
BEGIN EXEC dbo.usp_B; END`},
		{Name: "dbo.usp_B", Type: model.Procedure, SQL: `CREATE PROCEDURE dbo.usp_B AS
BEGIN EXEC dbo.usp_A; END`},
	}
	r := Build(corpus, GraphOptions{IncludeProcedures: true, IncludeFunctions: true, SchemaSensitive: true})
	if !r.Summary.HasCycles {
		t.Fatalf("expected a cycle to be detected, got %+v", r.Summary)
	}
}

func TestBuild_AmbiguousBaseNameDropsEdge(t *testing.T) {
	corpus := []model.SqlObject{
		{Name: "dbo.usp_Caller", Type: model.Procedure, SQL: `CREATE PROCEDURE dbo.usp_Caller AS
BEGIN EXEC usp_Target; END`},
		{Name: "schemaA.usp_Target", Type: model.Procedure, SQL: `CREATE PROCEDURE schemaA.usp_Target AS
BEGIN SELECT 1; END`},
		{Name: "schemaB.usp_Target", Type: model.Procedure, SQL: `CREATE PROCEDURE schemaB.usp_Target AS
BEGIN SELECT 1; END`},
	}
	r := Build(corpus, GraphOptions{IncludeProcedures: true, IncludeFunctions: true, SchemaSensitive: false})
	for _, e := range r.Edges {
		if e.From == "dbo.usp_caller" {
			t.Fatalf("expected ambiguous edge to be dropped, got %+v", r.Edges)
		}
	}
	foundAmbiguous := false
	for _, err := range r.Errors {
		if err.ID == "AMBIGUOUS_TARGET" && err.Object == "dbo.usp_Caller" {
			foundAmbiguous = true
		}
	}
	if !foundAmbiguous {
		t.Fatalf("expected an AMBIGUOUS_TARGET error naming the caller, got %+v", r.Errors)
	}
}

func TestBuild_EdgeDeduplicationIncrementsCount(t *testing.T) {
	corpus := []model.SqlObject{
		{Name: "dbo.usp_A", Type: model.Procedure, SQL: `CREATE PROCEDURE dbo.usp_A AS
BEGIN EXEC dbo.usp_B; EXEC dbo.usp_B; EXEC dbo.usp_B; END`},
		{Name: "dbo.usp_B", Type: model.Procedure, SQL: `CREATE PROCEDURE dbo.usp_B AS
BEGIN SELECT 1; END`},
	}
	r := Build(corpus, GraphOptions{IncludeProcedures: true, IncludeFunctions: true, SchemaSensitive: true})
	if len(r.Edges) != 1 {
		t.Fatalf("expected a single deduplicated edge, got %+v", r.Edges)
	}
	if r.Edges[0].Count != 3 {
		t.Fatalf("expected count=3, got %+v", r.Edges[0])
	}
}
