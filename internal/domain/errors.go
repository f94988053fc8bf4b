package domain

import (
	"errors"
	"fmt"
)

// Error families. Callers classify failures with errors.Is against these.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrIntegrity  = errors.New("integrity violation")
	ErrNotFound   = errors.New("not found")
)

var (
	ErrTierConfig        = fmt.Errorf("%w: tier thresholds must be strictly increasing with level", ErrIntegrity)
	ErrInvalidMultiplier = fmt.Errorf("%w: tier reward multiplier must be positive", ErrIntegrity)
	ErrReferralCycle     = fmt.Errorf("%w: referral would create a cycle", ErrIntegrity)

	ErrSelfReferral     = fmt.Errorf("%w: user cannot refer themselves", ErrValidation)
	ErrInvalidEmail     = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidDepth     = fmt.Errorf("%w: tree depth must be positive", ErrValidation)
	ErrUnknownAction    = fmt.Errorf("%w: unknown reward action", ErrValidation)
	ErrNegativeCount    = fmt.Errorf("%w: referral count must not be negative", ErrValidation)
	ErrInvalidLinkToken = fmt.Errorf("%w: invalid referral link token", ErrValidation)
	ErrLinkInactive     = fmt.Errorf("%w: referral link is not active", ErrValidation)
	ErrUserNotActivated = fmt.Errorf("%w: user has not completed activation payment", ErrValidation)
	ErrRewardImmutable  = fmt.Errorf("%w: paid rewards cannot change", ErrValidation)
	ErrRewardTransition = fmt.Errorf("%w: reward status transition not allowed", ErrValidation)

	ErrAlreadyReferred = fmt.Errorf("%w: user already has a referrer", ErrConflict)
	ErrDuplicateEvent  = fmt.Errorf("%w: event already processed", ErrConflict)
	ErrEmailTaken      = fmt.Errorf("%w: email already registered", ErrConflict)

	ErrUserNotFound         = fmt.Errorf("%w: user", ErrNotFound)
	ErrLinkNotFound         = fmt.Errorf("%w: referral link", ErrNotFound)
	ErrReferralNotFound     = fmt.Errorf("%w: referral", ErrNotFound)
	ErrRewardNotFound       = fmt.Errorf("%w: reward", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("%w: notification", ErrNotFound)
)

// IsRetryable reports whether err is a dependency failure worth retrying.
// Validation, conflict, integrity and not-found errors are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrIntegrity),
		errors.Is(err, ErrNotFound):
		return false
	}
	return true
}
