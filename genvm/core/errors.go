package core

import "errors"

var (
	// ErrInternal raised on any unexpected error due to the programming mistakes or
	// storage failures. Batch of transactions is not applied if this error is returned.
	ErrInternal = errors.New("internal")
	// ErrMalformed raised when transaction can't be parsed.
	ErrMalformed = errors.New("malformed tx")
	// ErrNotSpawned raised if account is not spawned.
	ErrNotSpawned = errors.New("account is not spawned")
	// ErrSpawned raised if account already spawned.
	ErrSpawned = errors.New("account already spawned")
	// ErrNonce raised if transaction nonce doesn't match next nonce of the principal.
	ErrNonce = errors.New("invalid nonce")
	// ErrAuth raised if transaction failed verification.
	ErrAuth = errors.New("failed verification")
)
