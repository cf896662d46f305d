package analyzer

import (
	"regexp"
	"strings"

	"github.com/tsqlspec/tsqlspec/internal/normalize"
	"github.com/tsqlspec/tsqlspec/internal/safetext"
)

// TransactionsResult is the output of the Transactions analyzer (spec §4.4).
type TransactionsResult struct {
	UsesTransaction bool     `json:"uses_transaction"`
	BeginCount      int      `json:"begin_count"`
	CommitCount     int      `json:"commit_count"`
	RollbackCount   int      `json:"rollback_count"`
	SaveCount       int      `json:"save_count"`
	HasTryCatch     bool     `json:"has_try_catch"`
	XactAbort       string   `json:"xact_abort,omitempty"`
	IsolationLevel  string   `json:"isolation_level,omitempty"`
	HasAtAtTranCnt  bool     `json:"has_at_tran_count"`
	HasXactState    bool     `json:"has_xact_state"`
	HasThrow        bool     `json:"has_throw"`
	HasRaiserror    bool     `json:"has_raiserror"`
	Signals         []string `json:"signals"`
	Errors          []string `json:"errors"`
}

var (
	reBeginTran    = regexp.MustCompile(`(?i)\bBEGIN\s+TRAN(?:SACTION)?\b`)
	reCommitTran   = regexp.MustCompile(`(?i)\bCOMMIT(?:\s+TRAN(?:SACTION)?)?\b`)
	reRollbackTran = regexp.MustCompile(`(?i)\bROLLBACK(?:\s+TRAN(?:SACTION)?)?\b`)
	reSaveTran     = regexp.MustCompile(`(?i)\bSAVE\s+TRAN(?:SACTION)?\b`)
	reBeginTry     = regexp.MustCompile(`(?i)\bBEGIN\s+TRY\b`)
	reXactAbort    = regexp.MustCompile(`(?i)\bSET\s+XACT_ABORT\s+(ON|OFF)\b`)
	reIsolation    = regexp.MustCompile(`(?i)\bSET\s+TRANSACTION\s+ISOLATION\s+LEVEL\s+([A-Za-z ]+?)(?:;|\r?\n|$)`)
	reAtTranCount  = regexp.MustCompile(`@@TRANCOUNT`)
	reXactState    = regexp.MustCompile(`(?i)\bXACT_STATE\s*\(\s*\)`)
	reThrow        = regexp.MustCompile(`(?i)\bTHROW\b`)
	reRaiserror    = regexp.MustCompile(`(?i)\bRAISERROR\b`)
)

const transactionsSignalCap = 12

// Transactions implements spec §4.4: regex-based transactional structure
// counts over the comment/string-masked SQL.
func Transactions(sql string) TransactionsResult {
	safe := safetext.Strip(sql)

	r := TransactionsResult{}
	r.BeginCount = len(reBeginTran.FindAllString(safe, -1))
	r.CommitCount = len(reCommitTran.FindAllString(safe, -1))
	r.RollbackCount = len(reRollbackTran.FindAllString(safe, -1))
	r.SaveCount = len(reSaveTran.FindAllString(safe, -1))
	r.HasTryCatch = reBeginTry.MatchString(safe)
	r.HasAtAtTranCnt = reAtTranCount.MatchString(safe)
	r.HasXactState = reXactState.MatchString(safe)
	r.HasThrow = reThrow.MatchString(safe)
	r.HasRaiserror = reRaiserror.MatchString(safe)

	if ms := reXactAbort.FindAllStringSubmatch(safe, -1); len(ms) > 0 {
		r.XactAbort = strings.ToUpper(ms[len(ms)-1][1])
	}
	if ms := reIsolation.FindAllStringSubmatch(safe, -1); len(ms) > 0 {
		raw := strings.ToUpper(strings.Join(strings.Fields(ms[len(ms)-1][1]), " "))
		if lvl, ok := normalize.CanonicalIsolationLevel(raw); ok {
			r.IsolationLevel = lvl
		}
	}

	r.UsesTransaction = r.BeginCount > 0 || r.CommitCount > 0 || r.RollbackCount > 0 || r.SaveCount > 0

	var signals []string
	if r.IsolationLevel != "" {
		signals = append(signals, "ISOLATION LEVEL "+r.IsolationLevel)
	}
	if r.XactAbort != "" {
		signals = append(signals, "XACT_ABORT "+r.XactAbort)
	}
	if r.BeginCount > 0 {
		signals = append(signals, "BEGIN TRAN")
	}
	if r.CommitCount > 0 {
		signals = append(signals, "COMMIT")
	}
	if r.RollbackCount > 0 {
		signals = append(signals, "ROLLBACK")
	}
	if r.SaveCount > 0 {
		signals = append(signals, "SAVE TRAN")
	}
	if r.HasTryCatch {
		signals = append(signals, "TRY/CATCH")
	}
	if r.HasThrow {
		signals = append(signals, "THROW")
	}
	if r.HasRaiserror {
		signals = append(signals, "RAISERROR")
	}
	if r.HasAtAtTranCnt {
		signals = append(signals, "@@TRANCOUNT")
	}
	if r.HasXactState {
		signals = append(signals, "XACT_STATE()")
	}

	signals, errs := normalize.CapStrings(normalize.DedupInsertionOrder(signals), transactionsSignalCap, "transactions.signals")
	r.Signals = signals
	r.Errors = errs
	return r
}
