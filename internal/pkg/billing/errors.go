package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrPlanNotFound covers missing and inactive catalog rows alike.
	ErrPlanNotFound         = errors.New("subscription plan not found or inactive")
	ErrUserNotFound         = errors.New("user profile not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrSubscriptionNotFound = errors.New("no subscription found for user")

	// ErrInvalidCurrency rejects anything but the supported INR/USD pair.
	ErrInvalidCurrency = errors.New("unsupported currency")

	// ErrSignatureMismatch deliberately carries no detail about which part
	// of the verification failed.
	ErrSignatureMismatch = errors.New("signature verification failed")

	// ErrPaymentNotCaptured means the signature checked out but the gateway
	// reports the payment in a non-captured state.
	ErrPaymentNotCaptured = errors.New("payment not captured")

	// ErrSecretNotConfigured is a deployment fault; verification never
	// degrades to a pass when a secret is absent.
	ErrSecretNotConfigured = errors.New("verification secret is not configured")
)

// WriteFailure reports which step of a multi-row write failed.
type WriteFailure struct {
	Step string
	Err  error
}

func (e *WriteFailure) Error() string {
	return fmt.Sprintf("write failed at step %q: %v", e.Step, e.Err)
}

func (e *WriteFailure) Unwrap() error {
	return e.Err
}
