package client

import "errors"

// ErrUnavailable reports that the remote store could not be reached.
var ErrUnavailable = errors.New("remote store unavailable")
