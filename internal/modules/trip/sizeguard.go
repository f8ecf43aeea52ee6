package trip

import (
	"fmt"

	"github.com/rs/zerolog"

	"tripbuddy/internal/metrics"
)

const (
	// MaxDetailBytes is the per-document ceiling of the trip store.
	MaxDetailBytes = 1024 * 1024
	// WarnRatio of the ceiling triggers a warning on every write path.
	WarnRatio = 0.9
)

type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
)

// SizeGuard measures compact JSON details before writes.
// Creates over the ceiling fail; updates over it only warn.
type SizeGuard struct {
	max       int
	warnRatio float64
	log       zerolog.Logger
}

func NewSizeGuard(log zerolog.Logger) *SizeGuard {
	return &SizeGuard{max: MaxDetailBytes, warnRatio: WarnRatio, log: log}
}

// Check never truncates the payload.
func (g *SizeGuard) Check(op Op, detail []byte) error {
	n := len(detail)
	mb := float64(n) / (1024 * 1024)
	limitMB := float64(g.max) / (1024 * 1024)
	metrics.RecordTripPayload(string(op), n)

	if n > g.max {
		if op == OpCreate {
			g.log.Error().Str("op", string(op)).Int("bytes", n).Float64("mb", mb).Msg("trip detail exceeds size limit")
			return fmt.Errorf("%w: %.2fMB exceeds %.0fMB", ErrPayloadTooLarge, mb, limitMB)
		}
		g.log.Warn().Str("op", string(op)).Int("bytes", n).Float64("mb", mb).Msg("trip detail exceeds size limit, saving anyway")
		return nil
	}
	if float64(n) > float64(g.max)*g.warnRatio {
		g.log.Warn().Str("op", string(op)).Int("bytes", n).Float64("mb", mb).Msg("trip detail close to size limit")
	}
	return nil
}
