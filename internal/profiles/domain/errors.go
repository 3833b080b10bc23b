package profiles

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDate is returned when a date string cannot be turned into a datehour key.
	ErrInvalidDate = errors.New("profiles: invalid date")
	// ErrInvalidQuantity is returned when a non-empty numeric field cannot be parsed.
	ErrInvalidQuantity = errors.New("profiles: invalid quantity")
	// ErrMisaligned is returned when series keys are out of order or cannot be merged.
	ErrMisaligned = errors.New("profiles: misaligned series")
	// ErrEmptySeries is returned when an operation needs at least one sample.
	ErrEmptySeries = errors.New("profiles: empty series")
	// ErrCutoverNotFound is returned when the truncation key never occurs in the merged table.
	ErrCutoverNotFound = errors.New("profiles: cutover key not found")
	// ErrInvalidParameters is returned when normalization parameters are unusable.
	ErrInvalidParameters = errors.New("profiles: invalid parameters")
)

// FormatError describes a date string that does not resolve to a datehour key.
type FormatError struct {
	Input  string
	Hour   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("profiles: invalid date %q hour %d: %s", e.Input, e.Hour, e.Reason)
}

func (e *FormatError) Unwrap() error { return ErrInvalidDate }

// AlignmentError describes an ordering violation within or across series.
type AlignmentError struct {
	Series   string
	Index    int
	Key      DatehourKey
	MergeKey DatehourKey
	Reason   string
}

func (e *AlignmentError) Error() string {
	if e.MergeKey == "" {
		return fmt.Sprintf("profiles: series %s index %d key %s: %s", e.Series, e.Index, e.Key, e.Reason)
	}
	return fmt.Sprintf("profiles: series %s index %d key %s merge key %s: %s", e.Series, e.Index, e.Key, e.MergeKey, e.Reason)
}

func (e *AlignmentError) Unwrap() error { return ErrMisaligned }

// RecordError attaches series and input line context to a record-level failure.
type RecordError struct {
	Series string
	Line   int
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("profiles: series %s line %d: %v", e.Series, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
