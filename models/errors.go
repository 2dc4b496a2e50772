package models

import "errors"

var (
	// ErrSourceNotFound means the listings source is missing or unreadable.
	ErrSourceNotFound = errors.New("listings source not found")
	// ErrMalformedDataset means a required column is missing or ids repeat.
	ErrMalformedDataset = errors.New("malformed listings dataset")
	// ErrInvalidFilterCriteria is recoverable: the caller should re-prompt.
	ErrInvalidFilterCriteria = errors.New("invalid filter criteria")
)
