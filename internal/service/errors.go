package service

import "errors"

// Validation rejections. The error text doubles as the machine-readable
// reason code handed to the caller; none of these partially mutate
// state.
var (
	ErrUnknownRank        = errors.New("unknown_rank")
	ErrNotHigherRank      = errors.New("not_higher_rank")
	ErrInsufficientFunds  = errors.New("insufficient_funds")
	ErrInsufficientPoints = errors.New("insufficient_points")
	ErrAlreadyAtCeiling   = errors.New("already_at_ceiling")
	ErrSuspended          = errors.New("suspended")
	ErrNotSuspended       = errors.New("not_suspended")
	ErrCooldownActive     = errors.New("cooldown_active")
	ErrDailyCapReached    = errors.New("daily_cap_reached")
	ErrTotemCapReached    = errors.New("totem_cap_reached")
	ErrAdNotFound         = errors.New("ad_not_found")
	ErrAdBudgetExhausted  = errors.New("ad_budget_exhausted")
	ErrAdSlotsExhausted   = errors.New("ad_slots_exhausted")
	ErrNotAdOwner         = errors.New("not_ad_owner")
	ErrPaymentFailed      = errors.New("payment_failed")
	ErrPaymentTooSmall    = errors.New("insufficient_payment")
)

// IsRejection reports whether err is an expected validation rejection
// rather than a storage failure.
func IsRejection(err error) bool {
	for _, rejection := range []error{
		ErrUnknownRank, ErrNotHigherRank, ErrInsufficientFunds,
		ErrInsufficientPoints, ErrAlreadyAtCeiling, ErrSuspended,
		ErrNotSuspended, ErrCooldownActive, ErrDailyCapReached,
		ErrTotemCapReached, ErrAdNotFound, ErrAdBudgetExhausted,
		ErrAdSlotsExhausted, ErrNotAdOwner,
		ErrPaymentFailed, ErrPaymentTooSmall,
	} {
		if errors.Is(err, rejection) {
			return true
		}
	}
	return false
}
