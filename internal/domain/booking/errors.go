package booking

import "errors"

var (
	// ErrConflict means the slot is no longer free at commit time.
	ErrConflict = errors.New("appointment slot conflict")

	// ErrNotFound means the appointment id is absent from the store.
	ErrNotFound = errors.New("appointment not found")

	// ErrDuplicateID means an insert reused an existing appointment id.
	ErrDuplicateID = errors.New("appointment id already exists")

	// ErrAlreadyCancelled is returned when cancelling a cancelled appointment.
	ErrAlreadyCancelled = errors.New("appointment already cancelled")

	// ErrInvalidTransition is returned for a status change the lifecycle
	// state machine does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrPersistence wraps durable-storage failures. The in-memory state is
	// rolled back before it is returned.
	ErrPersistence = errors.New("persistence failure")
)
