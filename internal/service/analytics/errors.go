package analytics

import "errors"

// ErrUnavailable means the snapshot read failed and no report could be
// produced. A report is all-or-nothing; partial figures are never served.
var ErrUnavailable = errors.New("analytics snapshot unavailable")
