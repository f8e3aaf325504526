// Package metrics provides application-level counters using stdlib expvar.
// Counters are exported on /debug/vars by the serve command.
package metrics

import "expvar"

// Chat counters.
var (
	ChatTotal         = expvar.NewInt("chat_total")
	ChatFailed        = expvar.NewInt("chat_failed_total")
	FragmentsInserted = expvar.NewInt("fragments_inserted_total")
	FragmentsLost     = expvar.NewInt("fragments_lost_total")
	HeadingsDemoted   = expvar.NewInt("headings_demoted_total")
	RenormOverflow    = expvar.NewInt("renorm_overflow_total")
)

// Inc increments the given counter by 1.
func Inc(counter *expvar.Int) { counter.Add(1) }
