// internal/domain/order/number.go
package order

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
)

// NewNumber builds a human-readable order number from the last eight digits
// of the unix millisecond clock and a four digit random suffix. Uniqueness is
// enforced by the order_number index, not by this function.
func NewNumber(now time.Time) string {
	return formatNumber(now, rand.IntN(10000))
}

func formatNumber(now time.Time, suffix int) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return fmt.Sprintf("ORD-%s-%04d", ms, suffix)
}
