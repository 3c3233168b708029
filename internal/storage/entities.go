package storage

import "fmt"

type ItemListFilter struct {
	// Scheduled keeps rows with remind, period or daily switched on.
	Scheduled bool
	Active    *bool
	Limit     int
	Offset    int
	// OnInvalid, when set, receives rows that fail to decode; they are
	// skipped instead of failing the whole listing.
	OnInvalid func(err *InvalidItemError)
}

type Setting struct {
	Key   string
	Value string
}

// InvalidItemError reports a stored row whose columns do not decode.
type InvalidItemError struct {
	ID  int64
	Err error
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.ID, e.Err)
}

func (e *InvalidItemError) Unwrap() error {
	return e.Err
}
