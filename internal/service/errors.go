package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	ErrUnsupportedInstrument = errors.New("unsupported instrument")
	ErrTooManyActiveBatches  = errors.New("too many active batch runs")
	ErrBatchNotFound         = errors.New("batch run not found")
)

// UnsupportedInstrumentError is returned when an instrument is not in the whitelist.
type UnsupportedInstrumentError struct {
	Instrument string
}

func (e *UnsupportedInstrumentError) Error() string {
	return fmt.Sprintf("instrument is not supported: %q", e.Instrument)
}

func (e *UnsupportedInstrumentError) Is(target error) bool {
	return target == ErrUnsupportedInstrument
}

// TooManyActiveBatchesError is returned when the active batch run limit is reached.
type TooManyActiveBatchesError struct {
	Limit int
}

func (e *TooManyActiveBatchesError) Error() string {
	return fmt.Sprintf("max number of active batch runs reached: %d", e.Limit)
}

func (e *TooManyActiveBatchesError) Is(target error) bool {
	return target == ErrTooManyActiveBatches
}

// BatchNotFoundError is returned for ids that are unknown, finished or evicted.
type BatchNotFoundError struct {
	ID int64
}

func (e *BatchNotFoundError) Error() string {
	return fmt.Sprintf("batch run not found: %d", e.ID)
}

func (e *BatchNotFoundError) Is(target error) bool {
	return target == ErrBatchNotFound
}
