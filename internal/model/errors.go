package model

import "errors"

// Common errors used across the application
var (
	// User record errors
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailRequired = errors.New("email is required")

	// Session errors
	ErrSessionNotFound     = errors.New("session not found")
	ErrPendingAuthNotFound = errors.New("pending authorization not found")

	// Provider errors
	ErrProviderNotFound     = errors.New("provider not configured")
	ErrInvalidState         = errors.New("invalid or expired oauth state")
	ErrProviderDenied       = errors.New("provider denied authorization")
	ErrProviderExchange     = errors.New("provider token exchange failed")
	ErrProviderProfile      = errors.New("provider profile request failed")
	ErrMissingProviderEmail = errors.New("provider profile has no email")
	ErrMissingUsername      = errors.New("provider profile has no username")
)
