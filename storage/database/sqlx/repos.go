// Package sqlxrepos implements the core repository interfaces on PostgreSQL via sqlx.
//
// Every method takes an optional exec override so service-level transactions
// (core.TxRunner) can be threaded through; by default the repository runs on
// the *sqlx.DB it was built with.
package sqlxrepos

import (
	"github.com/stlconsulting/mentoria/core"
)

func getExec(dflt core.DBExecutor, svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return dflt
}
