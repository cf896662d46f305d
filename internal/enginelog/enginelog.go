// Package enginelog is the engine's one structured-logging seam, spec §7's
// "logged records carry only len and sha256_8 of the SQL" policy. No
// other package in the engine imports logrus directly.
package enginelog

import (
	"github.com/sirupsen/logrus"

	"github.com/tsqlspec/tsqlspec/internal/safetext"
)

var log = logrus.StandardLogger()

// Call emits one Debug-level record for a top-level engine operation,
// carrying only the operation name, a correlation id, and the SQL's
// len/sha256_8 summary — never the SQL itself.
func Call(operation, requestID, sql string) {
	summary := safetext.Summarize(sql)
	log.WithFields(logrus.Fields{
		"operation":  operation,
		"request_id": requestID,
		"len":        summary.Len,
		"sha256_8":   summary.SHA256_8,
	}).Debug("engine call")
}
