package toast

import "errors"

// ErrCenterClosed is returned when adding to a closed Center.
var ErrCenterClosed = errors.New("toast center is closed")
