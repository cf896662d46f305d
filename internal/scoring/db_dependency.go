package scoring

import "github.com/tsqlspec/tsqlspec/internal/normalize"

// DbDependencyResult is the output of the Db Dependency scorer, spec
// §4.11.
type DbDependencyResult struct {
	Score   int                `json:"score"`
	Level   string             `json:"level"`
	Reasons []normalize.Reason `json:"reasons"`
	Errors  []string           `json:"errors"`
}

const dbDependencyMaxReasons = 20

// DbDependency implements spec §4.11's canonical Db Dependency scoring
// formula.
func DbDependency(s Signals) DbDependencyResult {
	reasons := normalize.NewReasonSet()
	score := 0

	if s.LinkedServerCount > 0 {
		pts := normalize.Clamp(35+10*(s.LinkedServerCount-1), 0, 55)
		score += pts
		reasons.Add("DBD_LINKED_SERVER", pts, "Object uses one or more linked-server references.")
	}
	if s.CrossDBCount > 0 {
		pts := normalize.Clamp(10+2*(s.CrossDBCount-1), 0, 20)
		score += pts
		reasons.Add("DBD_CROSS_DB", pts, "Object references tables in another database via a three-part name.")
	}
	if s.RemoteExecCount > 0 {
		score += 25
		reasons.Add("DBD_REMOTE_EXEC", 25, "Object executes a procedure on a remote four-part-named server.")
	}
	if s.OpenQueryRowsetCount > 0 {
		pts := normalize.Clamp(25, 0, 25)
		score += pts
		reasons.Add("DBD_OPENQUERY", pts, "Object uses OPENQUERY/OPENROWSET/OPENDATASOURCE.")
	}
	if s.XpCmdshell {
		score += 40
		reasons.Add("DBD_XP_CMDSHELL", 40, "Object shells out via xp_cmdshell.")
	}
	if s.SystemProcCount > 0 {
		pts := normalize.Clamp(10*s.SystemProcCount, 0, 20)
		score += pts
		reasons.Add("DBD_SYSTEM_PROC", pts, "Object calls one or more extended/system procedures.")
	}
	if s.CLR {
		score += 20
		reasons.Add("DBD_CLR", 20, "Object invokes a CLR-hosted external routine.")
	}
	if s.TempDBRef {
		pts := normalize.Clamp(6+3, 0, 10)
		score += pts
		reasons.Add("DBD_TEMPDB", pts, "Object references tempdb explicitly.")
	}
	if s.TableCount > 10 {
		score += 5
		reasons.Add("DBD_TABLE_FANOUT", 5, "Object references more than ten distinct tables.")
	}

	score = normalize.Clamp(score, 0, 100)

	var level string
	switch {
	case score >= 70:
		level = "critical"
	case score >= 45:
		level = "high"
	case score >= 20:
		level = "medium"
	default:
		level = "low"
	}

	capped, errs := normalize.CapN(reasons.ByWeightThenID(), dbDependencyMaxReasons, "db_dependency.reasons")

	return DbDependencyResult{Score: score, Level: level, Reasons: capped, Errors: errs}
}
