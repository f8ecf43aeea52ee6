// README: Monthly itinerary-generation quota per user.
package aiusage

import "errors"

// ErrQuotaExhausted is returned when a user has no generations left for the current month.
var ErrQuotaExhausted = errors.New("monthly generation quota exhausted")

// DefaultMonthlyGenerations is the allowance granted at the start of every month.
const DefaultMonthlyGenerations = 100

// monthKey formats the reset bucket, e.g. "2025-03".
const monthKey = "2006-01"
