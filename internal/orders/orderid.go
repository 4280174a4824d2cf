package orders

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderCode returns the customer-facing order code: "ORD", the creation
// time in unix milliseconds and eight random hex characters.
func NewOrderCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "ORD" + strconv.FormatInt(now.UnixMilli(), 10) + suffix
}
