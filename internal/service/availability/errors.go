package availability

import "errors"

var ErrVenueNotFound = errors.New("venue not found")
