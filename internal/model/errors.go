package model

import "errors"

var (
	// ErrConfig marks an invalid configuration value (pair budget, batch size, thresholds)
	ErrConfig = errors.New("configuration error")

	// ErrDataIntegrity marks input that would corrupt the graph:
	// unknown claim references or self-loop edges
	ErrDataIntegrity = errors.New("data integrity error")

	// ErrInvalidInput marks malformed caller input (duplicate IDs, unreadable files)
	ErrInvalidInput = errors.New("invalid input")

	// ErrClassification marks an operational failure of the relationship classifier.
	// Callers may retry.
	ErrClassification = errors.New("classification failed")
)
