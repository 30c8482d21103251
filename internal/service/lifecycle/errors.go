package lifecycle

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrConcurrentChange means the guarded status update matched no row:
	// the state moved between the read and the write. The caller should
	// re-read and decide again rather than retry blindly.
	ErrConcurrentChange = errors.New("state changed concurrently, re-read and retry")
)
