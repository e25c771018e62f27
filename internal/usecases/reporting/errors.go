package reporting

import (
	"fmt"

	"github.com/pkg/errors"
)

// Reconciliation-internal anomalies (missing catalog entries, non-finite
// metrics, sync timing mismatches) are handled locally and never surface as
// errors. Only the toggle operation propagates failures to callers, using
// the types below.

// ErrMissingCatalogEntry is returned when a toggle targets an entity the
// catalog has no record of. During view resolution the same condition is
// recovered by rendering the row with UNKNOWN status instead.
var ErrMissingCatalogEntry = errors.New("entity not found in catalog")

// StatusUpdateRejectedError means the platform refused the status change,
// e.g. because of an account payment block. It carries the raw platform
// reason and is not retried automatically.
type StatusUpdateRejectedError struct {
	Reason string
}

func (e *StatusUpdateRejectedError) Error() string {
	return fmt.Sprintf("status update rejected by platform: %s", e.Reason)
}

// StatusUpdateRateLimitedError means the platform throttled the status
// change. Surfaced distinctly so the caller can advise waiting; not retried
// automatically.
type StatusUpdateRateLimitedError struct {
	Reason string
}

func (e *StatusUpdateRateLimitedError) Error() string {
	return fmt.Sprintf("status update rate limited: %s", e.Reason)
}

// IsStatusUpdateRejected reports whether err is a platform rejection.
func IsStatusUpdateRejected(err error) bool {
	var target *StatusUpdateRejectedError
	return errors.As(err, &target)
}

// IsStatusUpdateRateLimited reports whether err is a platform throttle.
func IsStatusUpdateRateLimited(err error) bool {
	var target *StatusUpdateRateLimitedError
	return errors.As(err, &target)
}
