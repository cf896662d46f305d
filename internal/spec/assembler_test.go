package spec

import (
	"sort"
	"strings"
	"testing"

	"github.com/tsqlspec/tsqlspec/internal/model"
)

func simpleReadObject() model.SqlObject {
	return model.SqlObject{
		Name: "dbo.usp_get_customer",
		Type: model.Procedure,
		SQL:  "CREATE PROCEDURE dbo.usp_get_customer AS BEGIN SELECT id, name FROM dbo.customer WHERE id = 1 END",
	}
}

func riskyWriteObject() model.SqlObject {
	return model.SqlObject{
		Name: "dbo.usp_bulk_update",
		Type: model.Procedure,
		SQL: `CREATE PROCEDURE dbo.usp_bulk_update AS
BEGIN
	DECLARE cur CURSOR FOR SELECT id FROM dbo.account WITH (NOLOCK)
	UPDATE dbo.account SET balance = balance - 1
	SELECT * FROM dbo.account WHERE name LIKE '%smith'
END`,
	}
}

func TestAssemble_DefaultSectionsPopulatesEveryField(t *testing.T) {
	r := Assemble(simpleReadObject(), Options{})

	if r.Version != specAssemblerVersion {
		t.Fatalf("version = %q, want %q", r.Version, specAssemblerVersion)
	}
	if r.Object.Name != "dbo.usp_get_customer" || r.Object.Type != "procedure" {
		t.Fatalf("object = %+v, unexpected", r.Object)
	}
	if len(r.Spec.Tags) == 0 {
		t.Fatal("expected tags to be populated")
	}
	if r.Spec.Summary == nil || r.Spec.Summary.OneLiner == "" {
		t.Fatal("expected a non-empty summary one-liner")
	}
	if len(r.Spec.Templates) == 0 {
		t.Fatal("expected templates to be populated")
	}
	if r.Spec.Dependencies == nil {
		t.Fatal("expected dependencies section to be populated")
	}
	if r.Spec.Transactions == nil {
		t.Fatal("expected transactions section to be populated")
	}
	if r.Spec.MyBatis == nil {
		t.Fatal("expected mybatis section to be populated")
	}
	if r.Spec.Risks == nil {
		t.Fatal("expected risks section to be populated")
	}
	if len(r.Spec.Recommendations) == 0 {
		t.Fatal("expected at least the mapping-approach recommendation")
	}
}

func TestAssemble_SectionsOptionRestrictsOutputToRequestedKeys(t *testing.T) {
	r := Assemble(simpleReadObject(), Options{Sections: []string{"tags"}})

	if len(r.Spec.Tags) == 0 {
		t.Fatal("expected tags populated")
	}
	if r.Spec.Summary != nil {
		t.Fatal("summary should be nil when not requested")
	}
	if r.Spec.Dependencies != nil {
		t.Fatal("dependencies should be nil when not requested")
	}
	if r.Spec.Transactions != nil {
		t.Fatal("transactions should be nil when not requested")
	}
	if r.Spec.MyBatis != nil {
		t.Fatal("mybatis should be nil when not requested")
	}
	if r.Spec.Risks != nil {
		t.Fatal("risks should be nil when not requested")
	}
	if r.Spec.Recommendations != nil {
		t.Fatal("recommendations should be nil when not requested")
	}
}

func TestAssemble_MaxItemsPerSectionTruncatesAndReportsError(t *testing.T) {
	r := Assemble(riskyWriteObject(), Options{
		Sections:           []string{"tags", "risks"},
		MaxItemsPerSection: 1,
	})

	if len(r.Spec.Tags) != 1 {
		t.Fatalf("len(tags) = %d, want 1 (capped)", len(r.Spec.Tags))
	}
	found := false
	for _, e := range r.Errors {
		if e == "SECTION_TRUNCATED: spec.tags" {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors = %v, want SECTION_TRUNCATED: spec.tags", r.Errors)
	}
}

func TestAssemble_ReadOnlyObjectGetsReadOnlyAndNoTxnTags(t *testing.T) {
	r := Assemble(simpleReadObject(), Options{Sections: []string{"tags"}})

	if !contains(r.Spec.Tags, "read_only") {
		t.Fatalf("tags = %v, want read_only", r.Spec.Tags)
	}
	if !contains(r.Spec.Tags, "no_txn") {
		t.Fatalf("tags = %v, want no_txn", r.Spec.Tags)
	}
	if contains(r.Spec.Tags, "has_writes") {
		t.Fatalf("tags = %v, should not contain has_writes", r.Spec.Tags)
	}
}

func TestAssemble_CursorAndUpdateObjectGetsWriteAndPerfRiskTags(t *testing.T) {
	r := Assemble(riskyWriteObject(), Options{Sections: []string{"tags"}})

	if !contains(r.Spec.Tags, "has_writes") {
		t.Fatalf("tags = %v, want has_writes", r.Spec.Tags)
	}
	if !contains(r.Spec.Tags, "cursor") {
		t.Fatalf("tags = %v, want cursor", r.Spec.Tags)
	}
	if contains(r.Spec.Tags, "low_complexity") && contains(r.Spec.Tags, "high_complexity") {
		t.Fatal("low_complexity and high_complexity must be mutually exclusive")
	}
}

func TestAssemble_OneLinerNeverNamesSQLIdentifiers(t *testing.T) {
	r := Assemble(riskyWriteObject(), Options{Sections: []string{"summary"}})

	line := r.Spec.Summary.OneLiner
	for _, forbidden := range []string{"usp_bulk_update", "dbo.account", "SELECT", "UPDATE", "NOLOCK"} {
		if strings.Contains(line, forbidden) {
			t.Fatalf("one-liner %q must not contain %q", line, forbidden)
		}
	}
}

func TestAssemble_OneLinerIsDeterministicAcrossCalls(t *testing.T) {
	obj := riskyWriteObject()
	a := Assemble(obj, Options{Sections: []string{"summary"}})
	b := Assemble(obj, Options{Sections: []string{"summary"}})

	if a.Spec.Summary.OneLiner != b.Spec.Summary.OneLiner {
		t.Fatalf("one-liner not deterministic: %q vs %q", a.Spec.Summary.OneLiner, b.Spec.Summary.OneLiner)
	}
}

func TestAssemble_ErrorsAreSortedAndDeduped(t *testing.T) {
	r := Assemble(riskyWriteObject(), Options{
		Sections:           []string{"tags", "templates", "recommendations", "evidence.signals"},
		MaxItemsPerSection: 1,
	})

	if !sort.StringsAreSorted(r.Errors) {
		t.Fatalf("errors = %v, want sorted", r.Errors)
	}
	seen := map[string]struct{}{}
	for _, e := range r.Errors {
		if _, ok := seen[e]; ok {
			t.Fatalf("errors = %v, contains duplicate %q", r.Errors, e)
		}
		seen[e] = struct{}{}
	}
}

func TestAssemble_GivenInputBypassesComputationForThatSection(t *testing.T) {
	given := []string{"PRESET_TAG"}
	r := Assemble(simpleReadObject(), Options{
		Sections: []string{"tags"},
		Inputs:   &Inputs{Tags: given},
	})

	if len(r.Spec.Tags) != 1 || r.Spec.Tags[0] != "PRESET_TAG" {
		t.Fatalf("tags = %v, want the given input verbatim", r.Spec.Tags)
	}
}

func TestAssemble_NoSQLAndNoInputReportsSectionNotAvailable(t *testing.T) {
	obj := model.SqlObject{Name: "dbo.usp_no_sql", Type: model.Procedure}
	r := Assemble(obj, Options{Sections: []string{"tags", "summary"}})

	if r.Spec.Tags != nil {
		t.Fatalf("tags = %v, want nil with no sql and no input", r.Spec.Tags)
	}
	if r.Spec.Summary != nil {
		t.Fatalf("summary = %+v, want nil with no sql and no input", r.Spec.Summary)
	}
	for _, want := range []string{"SECTION_NOT_AVAILABLE: summary", "SECTION_NOT_AVAILABLE: tags"} {
		found := false
		for _, e := range r.Errors {
			if e == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("errors = %v, want %q", r.Errors, want)
		}
	}
}

func TestAssemble_NoSQLButGivenInputStillPopulatesSection(t *testing.T) {
	obj := model.SqlObject{Name: "dbo.usp_no_sql", Type: model.Procedure}
	r := Assemble(obj, Options{
		Sections: []string{"tags", "summary"},
		Inputs: &Inputs{
			Tags:    []string{"read_only"},
			Summary: &Summary{OneLiner: "precomputed one-liner"},
		},
	})

	if len(r.Spec.Tags) != 1 || r.Spec.Tags[0] != "read_only" {
		t.Fatalf("tags = %v, want the given input", r.Spec.Tags)
	}
	if r.Spec.Summary == nil || r.Spec.Summary.OneLiner != "precomputed one-liner" {
		t.Fatalf("summary = %+v, want the given input", r.Spec.Summary)
	}
	for _, e := range r.Errors {
		if strings.HasPrefix(e, "SECTION_NOT_AVAILABLE") {
			t.Fatalf("errors = %v, did not expect SECTION_NOT_AVAILABLE when inputs were given", r.Errors)
		}
	}
}
