package checkout

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
)

// DefaultReferencePrefix is used when a flow is built without one.
const DefaultReferencePrefix = "VELT"

// refSeq starts at a random point and increments per reference, so the
// suffix never repeats within a millisecond even under a tight loop.
var refSeq atomic.Uint64

func init() {
	refSeq.Store(rand.Uint64())
}

// NewReference produces a checkout attempt reference of the form
// "<PREFIX>-<epochMillis>-<rand6>". References identify one attempt to both
// the checkout provider and the verify endpoint and must never be reused.
func NewReference(prefix string) string {
	if prefix == "" {
		prefix = DefaultReferencePrefix
	}
	suffix := refSeq.Add(1) % 1000000
	return fmt.Sprintf("%s-%d-%06d", prefix, time.Now().UnixMilli(), suffix)
}
