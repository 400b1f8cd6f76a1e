package contracts

import "errors"

// Common errors shared across services and handlers
var (
	// ErrMissingParameter occurs when a required request parameter is absent or empty
	ErrMissingParameter = errors.New("required parameter missing")

	// ErrSubscriptionNotFound occurs when a webhook subscription ID does not exist on the target list
	ErrSubscriptionNotFound = errors.New("subscription not found")
)
