package csvfile

import "errors"

// ErrShortRow is returned when a row lacks one of the configured columns.
var ErrShortRow = errors.New("csvfile: short row")
