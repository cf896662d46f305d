package analyzer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tsqlspec/tsqlspec/internal/normalize"
	"github.com/tsqlspec/tsqlspec/internal/safetext"
)

// ErrorHandlingResult is the output of the Error Handling analyzer (spec
// §4.8).
type ErrorHandlingResult struct {
	HasTryCatch      bool     `json:"has_try_catch"`
	HasThrow         bool     `json:"has_throw"`
	ThrowCount       int      `json:"throw_count"`
	HasRaiserror     bool     `json:"has_raiserror"`
	RaiserrorCount   int      `json:"raiserror_count"`
	HasAtAtError     bool     `json:"has_at_error"`
	HasPrint         bool     `json:"has_print"`
	PrintCount       int      `json:"print_count"`
	HasReturn        bool     `json:"has_return"`
	ReturnValues     []int    `json:"return_values"`
	ErrorFunctions   []string `json:"error_functions"`
	ErrorOutputParam []string `json:"error_output_params"`
	Signals          []string `json:"signals"`
	Errors           []string `json:"errors"`
}

var (
	reEHBeginTryCatch = regexp.MustCompile(`(?i)\bBEGIN\s+(?:TRY|CATCH)\b`)
	reEHThrow         = regexp.MustCompile(`(?i)\bTHROW\b`)
	reEHRaiserror     = regexp.MustCompile(`(?i)\bRAISERROR\b`)
	reEHAtAtError     = regexp.MustCompile(`@@ERROR\b`)
	reEHPrint         = regexp.MustCompile(`(?i)\bPRINT\b`)
	reEHReturn        = regexp.MustCompile(`(?i)\bRETURN\s*\(?\s*(-?\d+)?\s*\)?`)
	reEHOutputParam   = regexp.MustCompile(`(?i)@(\w*(?:err\w*|error\w*|ret\w*)\w*)\s+[A-Za-z0-9_\(\)]+\s+OUTPUT\b`)
)

// errorFunctionNames are the named error-inspection functions tracked in
// a fixed, ASCII-sorted order.
var errorFunctionNames = []struct {
	name string
	re   *regexp.Regexp
}{
	{"ERROR_LINE", regexp.MustCompile(`(?i)\bERROR_LINE\s*\(\s*\)`)},
	{"ERROR_MESSAGE", regexp.MustCompile(`(?i)\bERROR_MESSAGE\s*\(\s*\)`)},
	{"ERROR_NUMBER", regexp.MustCompile(`(?i)\bERROR_NUMBER\s*\(\s*\)`)},
	{"ERROR_PROCEDURE", regexp.MustCompile(`(?i)\bERROR_PROCEDURE\s*\(\s*\)`)},
	{"ERROR_SEVERITY", regexp.MustCompile(`(?i)\bERROR_SEVERITY\s*\(\s*\)`)},
	{"ERROR_STATE", regexp.MustCompile(`(?i)\bERROR_STATE\s*\(\s*\)`)},
}

const errorHandlingSignalCap = 12

// ErrorHandling implements spec §4.8 over the comment/string-masked SQL.
func ErrorHandling(sql string) ErrorHandlingResult {
	safe := safetext.Strip(sql)

	r := ErrorHandlingResult{}
	r.HasTryCatch = reEHBeginTryCatch.MatchString(safe)
	r.ThrowCount = len(reEHThrow.FindAllString(safe, -1))
	r.HasThrow = r.ThrowCount > 0
	r.RaiserrorCount = len(reEHRaiserror.FindAllString(safe, -1))
	r.HasRaiserror = r.RaiserrorCount > 0
	r.HasAtAtError = reEHAtAtError.MatchString(safe)
	r.PrintCount = len(reEHPrint.FindAllString(safe, -1))
	r.HasPrint = r.PrintCount > 0

	var returnVals []int
	for _, m := range reEHReturn.FindAllStringSubmatch(safe, -1) {
		if m[1] != "" {
			if v, err := strconv.Atoi(m[1]); err == nil {
				returnVals = append(returnVals, v)
			}
		}
	}
	r.HasReturn = len(reEHReturn.FindAllString(safe, -1)) > 0
	r.ReturnValues = returnVals

	var fns []string
	for _, ef := range errorFunctionNames {
		if ef.re.MatchString(safe) {
			fns = append(fns, ef.name)
		}
	}
	r.ErrorFunctions = fns

	var outParams []string
	for _, m := range reEHOutputParam.FindAllStringSubmatch(safe, -1) {
		outParams = append(outParams, "@"+strings.ToLower(m[1]))
	}
	r.ErrorOutputParam = normalize.SortedUniqueStrings(outParams)

	var signals []string
	if r.HasTryCatch {
		signals = append(signals, "TRY/CATCH")
	}
	if r.HasThrow {
		signals = append(signals, "THROW")
	}
	if r.HasRaiserror {
		signals = append(signals, "RAISERROR")
	}
	if r.HasAtAtError {
		signals = append(signals, "@@ERROR")
	}
	if r.HasPrint {
		signals = append(signals, "PRINT")
	}
	if r.HasReturn {
		signals = append(signals, "RETURN")
	}
	for _, fn := range fns {
		signals = append(signals, fn)
	}

	capped, errs := normalize.CapStrings(normalize.DedupInsertionOrder(signals), errorHandlingSignalCap, "error_handling.signals")
	r.Signals = capped
	r.Errors = errs
	return r
}
