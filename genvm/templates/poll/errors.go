package poll

import "errors"

var (
	// ErrQuestionTooLong is returned if the question exceeds MaxQuestionLength bytes.
	ErrQuestionTooLong = errors.New("question too long")
	// ErrInvalidExpiry is returned if the poll expires before it is created.
	ErrInvalidExpiry = errors.New("invalid expiry time")
	// ErrPollExpired is returned for votes cast at or after the expiry time.
	ErrPollExpired = errors.New("poll expired")
	// ErrDuplicateVote is returned if the voter is already in the register.
	ErrDuplicateVote = errors.New("duplicate vote")
	// ErrThresholdExceeded is returned if the poll already collected threshold votes.
	ErrThresholdExceeded = errors.New("threshold exceeded")
	// ErrRegisterFull is returned if the register reached MaxRegisterSize voters.
	ErrRegisterFull = errors.New("voter register is full")
)
