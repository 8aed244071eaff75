package apperrors

import (
	"errors"
)

var (
	ErrShutdown          = errors.New("shutdown error")
	ErrConfigPathIsEmpty = errors.New("config path is empty")

	// Broker side.
	ErrTransportUnavailable = errors.New("broker transport unavailable")
	ErrDeliveryUncertain    = errors.New("event delivery outcome unknown")
	ErrNotConnected         = errors.New("publisher is not connected")

	// Consumer side.
	ErrMalformedEvent     = errors.New("malformed event")
	ErrSinkDeliveryFailed = errors.New("notification delivery failed")

	// Stores.
	ErrDuplicateContent = errors.New("content already processed")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrAccountNotFound  = errors.New("account does not exist")

	ErrSweepInProgress = errors.New("sweep already in progress")

	ErrContextValueDoesNotExist = errors.New("context value does not exist")
	ErrContextValueInvalidType  = errors.New("invalid context value type")
)
