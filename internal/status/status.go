package status

import "errors"

var (
	ErrValidation        = errors.New("validation: invalid input")
	ErrInvalidInterval   = errors.New("validation: interval end must be after start")
	ErrCapacityExhausted = errors.New("ledger: capacity exhausted")
	ErrResourceInactive  = errors.New("ledger: resource not active")
	ErrInvalidTransition = errors.New("booking: transition not allowed")
	ErrNotAuthorized     = errors.New("auth: actor not authorized")
	ErrAlreadyExists     = errors.New("record: already exists")
	ErrNotFound          = errors.New("record: not found")
	ErrIssuanceFailure   = errors.New("issuer: code generation retries exhausted")
)
