package scoring

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tsqlspec/tsqlspec/internal/normalize"
)

const (
	extDepsSignalLimit = 15
	extDepsMaxItems    = 200
)

var extDepsExcludedDBNames = map[string]struct{}{
	"dbo": {}, "sys": {}, "information_schema": {},
}

const extIdentifier = `(?:\[[^\]]+\]|[A-Za-z_][\w$#]*)`

var (
	reExtOpenQuery       = regexp.MustCompile(`(?i)\bOPENQUERY\s*\(\s*(` + extIdentifier + `)\s*,`)
	reExtOpenDataSource  = regexp.MustCompile(`(?i)\bOPENDATASOURCE\s*\(`)
	reExtExecAt          = regexp.MustCompile(`(?i)\bEXEC(?:UTE)?\b[^;]*?\bAT\b\s*(` + extIdentifier + `)`)
	reExtFourPart        = regexp.MustCompile(`(?i)\b(` + extIdentifier + `)\s*\.\s*(` + extIdentifier + `)\s*\.\s*(` + extIdentifier + `)\s*\.\s*(` + extIdentifier + `)\b`)
	reExtThreePart       = regexp.MustCompile(`(?i)\b(` + extIdentifier + `)\s*\.\s*(` + extIdentifier + `)\s*\.\s*(` + extIdentifier + `)\b`)
	reExtXpCmdshell      = regexp.MustCompile(`(?i)\bxp_cmdshell\b`)
	reExtCreateAssembly  = regexp.MustCompile(`(?i)\bCREATE\s+ASSEMBLY\b`)
	reExtExternalAccess  = regexp.MustCompile(`(?i)\bEXTERNAL_ACCESS\b`)
	reExtUnsafe          = regexp.MustCompile(`(?i)\bUNSAFE\b`)
	reExtClrEnabled      = regexp.MustCompile(`(?i)\bsp_configure\b\s*N?'[^']*clr\s+enabled[^']*'`)
)

// LinkedServerRef is one detected linked-server target.
type LinkedServerRef struct {
	Name    string   `json:"name"`
	Signals []string `json:"signals"`
}

// CrossDatabaseRef is one detected three-part cross-database reference.
type CrossDatabaseRef struct {
	Database string `json:"database"`
	Schema   string `json:"schema"`
	Object   string `json:"object"`
	Kind     string `json:"kind"`
}

// RemoteTarget is one detected remote-exec/openquery/opendatasource target.
type RemoteTarget struct {
	Target  string   `json:"target"`
	Kind    string   `json:"kind"`
	Signals []string `json:"signals"`
}

// OtherDependency is one detected CLR/xp_cmdshell dependency not tied to
// a specific server or table.
type OtherDependency struct {
	ID      string   `json:"id"`
	Kind    string   `json:"kind"`
	Signals []string `json:"signals"`
}

// ExternalDepsSummary is the aggregate count view, spec §4.11.
type ExternalDepsSummary struct {
	HasExternalDeps     bool `json:"has_external_deps"`
	LinkedServerCount   int  `json:"linked_server_count"`
	CrossDBCount        int  `json:"cross_db_count"`
	RemoteExecCount     int  `json:"remote_exec_count"`
	OpenQueryCount      int  `json:"openquery_count"`
	OpenDataSourceCount int  `json:"opendatasource_count"`
}

// ExternalDependencies groups every detected external-dependency kind.
type ExternalDependencies struct {
	LinkedServers  []LinkedServerRef   `json:"linked_servers"`
	CrossDatabase  []CrossDatabaseRef  `json:"cross_database"`
	RemoteExec     []RemoteTarget      `json:"remote_exec"`
	OpenQuery      []RemoteTarget      `json:"openquery"`
	OpenDataSource []RemoteTarget      `json:"opendatasource"`
	Others         []OtherDependency   `json:"others"`
}

// ExternalDepsResult is the output of the External Deps analyzer, spec
// §4.11 / §6 (`external-deps` endpoint).
type ExternalDepsResult struct {
	Summary      ExternalDepsSummary   `json:"summary"`
	Dependencies ExternalDependencies  `json:"external_dependencies"`
	Signals      []string              `json:"signals"`
	Errors       []string              `json:"errors"`
}

// stringSet is an insertion-order-agnostic string set; External Deps
// always sorts output so build order does not matter.
type stringSet map[string]struct{}

func (s stringSet) add(v string) { s[v] = struct{}{} }

func (s stringSet) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// ExternalDeps implements spec §4.11's External Deps scan: linked
// servers, cross-database references, remote exec, openquery/
// opendatasource, and CLR/xp_cmdshell dependencies, over SafeText
// equivalent cleaning (comments stripped, string literals blanked).
func ExternalDeps(sql string) ExternalDepsResult {
	cleaned := stripCommentsAndStrings(sql)

	signals := stringSet{}
	linkedServers := map[string]stringSet{}
	crossDB := map[[4]string]struct{}{}
	remoteExec := map[string]stringSet{}
	openQuery := map[string]stringSet{}
	openDataSource := map[string]stringSet{}
	others := map[string]stringSet{}

	addSignal := func(targets map[string]stringSet, name, signal string) {
		if name == "" {
			return
		}
		set, ok := targets[name]
		if !ok {
			set = stringSet{}
			targets[name] = set
		}
		set.add(signal)
	}

	for _, m := range reExtOpenQuery.FindAllStringSubmatch(cleaned, -1) {
		server := cleanIdentifier(m[1])
		addSignal(openQuery, server, "OPENQUERY")
		addSignal(linkedServers, server, "OPENQUERY")
		signals.add("OPENQUERY")
	}
	if reExtOpenDataSource.MatchString(cleaned) {
		addSignal(openDataSource, "OPENDATASOURCE", "OPENDATASOURCE")
		signals.add("OPENDATASOURCE")
	}
	for _, m := range reExtExecAt.FindAllStringSubmatch(cleaned, -1) {
		server := cleanIdentifier(m[1])
		addSignal(remoteExec, server, "EXEC AT")
		addSignal(linkedServers, server, "EXEC AT")
		signals.add("EXEC AT")
	}

	var fourPartSpans [][2]int
	for _, m := range reExtFourPart.FindAllStringSubmatchIndex(cleaned, -1) {
		fourPartSpans = append(fourPartSpans, [2]int{m[0], m[1]})
		server := cleanIdentifier(cleaned[m[2]:m[3]])
		addSignal(linkedServers, server, "four_part_name")
		signals.add("four_part_name")
	}

	for _, m := range reExtThreePart.FindAllStringSubmatchIndex(cleaned, -1) {
		if spanWithin([2]int{m[0], m[1]}, fourPartSpans) {
			continue
		}
		database := cleanIdentifier(cleaned[m[2]:m[3]])
		if _, excluded := extDepsExcludedDBNames[strings.ToLower(database)]; excluded {
			continue
		}
		schema := cleanIdentifier(cleaned[m[4]:m[5]])
		obj := cleanIdentifier(cleaned[m[6]:m[7]])
		crossDB[[4]string{database, schema, obj, "three_part_name"}] = struct{}{}
		signals.add("three_part_name")
	}

	clrSignals := detectCLRSignals(cleaned)
	if len(clrSignals) > 0 {
		others["EXT_CLR"] = stringSet{}
		for _, s := range clrSignals {
			others["EXT_CLR"].add(s)
		}
		signals.add("CLR")
	}
	if reExtXpCmdshell.MatchString(cleaned) {
		others["EXT_XP_CMDSHELL"] = stringSet{"XP_CMDSHELL": {}}
		signals.add("XP_CMDSHELL")
	}

	linkedServersList := buildLinkedServerList(linkedServers)
	crossDBList := buildCrossDatabaseList(crossDB)
	remoteExecList := buildTargetList(remoteExec, "exec_at")
	openQueryList := buildTargetList(openQuery, "openquery")
	openDataSourceList := buildTargetList(openDataSource, "opendatasource")
	othersList := buildOtherList(others)

	var errs []string
	linkedServersList, errs = applyLimit(linkedServersList, extDepsMaxItems, errs, "linked_servers")
	crossDBList, errs = applyLimitCross(crossDBList, extDepsMaxItems, errs, "cross_database")
	remoteExecList, errs = applyLimitTarget(remoteExecList, extDepsMaxItems, errs, "remote_exec")
	openQueryList, errs = applyLimitTarget(openQueryList, extDepsMaxItems, errs, "openquery")
	openDataSourceList, errs = applyLimitTarget(openDataSourceList, extDepsMaxItems, errs, "opendatasource")
	othersList, errs = applyLimitOther(othersList, extDepsMaxItems, errs, "others")

	summary := ExternalDepsSummary{
		HasExternalDeps: len(linkedServersList) > 0 || len(crossDBList) > 0 || len(remoteExecList) > 0 ||
			len(openQueryList) > 0 || len(openDataSourceList) > 0 || len(othersList) > 0,
		LinkedServerCount:   len(linkedServersList),
		CrossDBCount:        len(crossDBList),
		RemoteExecCount:     len(remoteExecList),
		OpenQueryCount:      len(openQueryList),
		OpenDataSourceCount: len(openDataSourceList),
	}

	sortedSignals := signals.sorted()
	if len(sortedSignals) > extDepsSignalLimit {
		sortedSignals = sortedSignals[:extDepsSignalLimit]
	}

	return ExternalDepsResult{
		Summary: summary,
		Dependencies: ExternalDependencies{
			LinkedServers:  linkedServersList,
			CrossDatabase:  crossDBList,
			RemoteExec:     remoteExecList,
			OpenQuery:      openQueryList,
			OpenDataSource: openDataSourceList,
			Others:         othersList,
		},
		Signals: sortedSignals,
		Errors:  errs,
	}
}

var (
	reExtBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reExtLineComment  = regexp.MustCompile(`(?m)--.*?$`)
	reExtStringLit    = regexp.MustCompile(`(?s)N?'(?:''|[^'])*'`)
)

// stripCommentsAndStrings mirrors the original implementation's
// comment-stripping and string-blanking passes, kept separate from
// safetext.Strip since External Deps needs span offsets into the
// cleaned text for four-part/three-part overlap exclusion.
func stripCommentsAndStrings(sql string) string {
	noComments := reExtLineComment.ReplaceAllString(reExtBlockComment.ReplaceAllString(sql, " "), " ")
	return reExtStringLit.ReplaceAllString(noComments, "''")
}

func cleanIdentifier(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "[") && strings.HasSuffix(id, "]") {
		return id[1 : len(id)-1]
	}
	return id
}

func detectCLRSignals(sql string) []string {
	set := stringSet{}
	if reExtCreateAssembly.MatchString(sql) {
		set.add("CLR")
		set.add("CREATE ASSEMBLY")
	}
	if reExtExternalAccess.MatchString(sql) {
		set.add("CLR")
		set.add("EXTERNAL_ACCESS")
	}
	if reExtUnsafe.MatchString(sql) {
		set.add("CLR")
		set.add("UNSAFE")
	}
	if reExtClrEnabled.MatchString(sql) {
		set.add("CLR")
		set.add("CLR_ENABLED")
	}
	return set.sorted()
}

func spanWithin(span [2]int, spans [][2]int) bool {
	for _, s := range spans {
		if span[0] >= s[0] && span[1] <= s[1] {
			return true
		}
	}
	return false
}

func buildLinkedServerList(m map[string]stringSet) []LinkedServerRef {
	out := make([]LinkedServerRef, 0, len(m))
	for name, sigs := range m {
		out = append(out, LinkedServerRef{Name: name, Signals: sigs.sorted()})
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out
}

func buildCrossDatabaseList(m map[[4]string]struct{}) []CrossDatabaseRef {
	out := make([]CrossDatabaseRef, 0, len(m))
	for k := range m {
		out = append(out, CrossDatabaseRef{Database: k[0], Schema: k[1], Object: k[2], Kind: k[3]})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		al, bl := strings.ToLower(a.Database), strings.ToLower(b.Database)
		if al != bl {
			return al < bl
		}
		al, bl = strings.ToLower(a.Schema), strings.ToLower(b.Schema)
		if al != bl {
			return al < bl
		}
		return strings.ToLower(a.Object) < strings.ToLower(b.Object)
	})
	return out
}

func buildTargetList(m map[string]stringSet, kind string) []RemoteTarget {
	out := make([]RemoteTarget, 0, len(m))
	for target, sigs := range m {
		out = append(out, RemoteTarget{Target: target, Kind: kind, Signals: sigs.sorted()})
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Target) < strings.ToLower(out[j].Target) })
	return out
}

func buildOtherList(m map[string]stringSet) []OtherDependency {
	out := make([]OtherDependency, 0, len(m))
	for id, sigs := range m {
		out = append(out, OtherDependency{ID: id, Kind: inferOtherKind(id), Signals: sigs.sorted()})
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].ID) < strings.ToLower(out[j].ID) })
	return out
}

func inferOtherKind(key string) string {
	if key == "EXT_XP_CMDSHELL" {
		return "xp_cmdshell"
	}
	return "clr"
}

func applyLimit(items []LinkedServerRef, max int, errs []string, label string) ([]LinkedServerRef, []string) {
	if len(items) <= max {
		return items, errs
	}
	return items[:max], append(errs, normalize.MaxItemsExceeded(label, max))
}

func applyLimitCross(items []CrossDatabaseRef, max int, errs []string, label string) ([]CrossDatabaseRef, []string) {
	if len(items) <= max {
		return items, errs
	}
	return items[:max], append(errs, normalize.MaxItemsExceeded(label, max))
}

func applyLimitTarget(items []RemoteTarget, max int, errs []string, label string) ([]RemoteTarget, []string) {
	if len(items) <= max {
		return items, errs
	}
	return items[:max], append(errs, normalize.MaxItemsExceeded(label, max))
}

func applyLimitOther(items []OtherDependency, max int, errs []string, label string) ([]OtherDependency, []string) {
	if len(items) <= max {
		return items, errs
	}
	return items[:max], append(errs, normalize.MaxItemsExceeded(label, max))
}
