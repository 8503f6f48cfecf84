package errors

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrNotInitialized         = errors.New("verification state not initialized")
	ErrParticipantUnavailable = errors.New("participant unavailable")
	ErrLeaderUnreachable      = errors.New("leader unreachable")
	ErrOracleFailure          = errors.New("oracle failure")
	ErrOracleDisabled         = errors.New("oracle disabled")
	ErrQueueEmpty             = errors.New("queue empty")
)
