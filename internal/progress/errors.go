package progress

import "errors"

var (
	// ErrHeartsExhausted is advisory: the learner has no hearts left for new
	// lesson attempts. Callers decide whether to block.
	ErrHeartsExhausted = errors.New("hearts exhausted")

	// ErrNoFreezesAvailable is returned when a freeze is requested with none left.
	ErrNoFreezesAvailable = errors.New("no streak freezes available")

	// ErrAlreadyProtectedToday is returned when today is already covered by a freeze.
	ErrAlreadyProtectedToday = errors.New("streak already protected today")

	// ErrProfileNotFound means the learner has no stored profile yet.
	// Callers should initialize a default profile.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrStoreConflict signals a lost optimistic-concurrency race.
	// Callers re-read, re-apply the transition and write again.
	ErrStoreConflict = errors.New("profile version conflict")

	// ErrInvalidTimezone is returned for an unknown IANA timezone name.
	ErrInvalidTimezone = errors.New("invalid timezone")
)
