package shared

import (
	"errors"
	"fmt"
)

// Taxonomy sentinels. Every typed error below matches exactly one of these
// through errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrAuth            = errors.New("authentication required")
	ErrServerRejection = errors.New("server rejected request")
	ErrNetwork         = errors.New("network error")
	ErrNotFound        = errors.New("not found")
)

// Domain-specific errors
var (
	// Bid errors
	ErrBidBelowFloor     = errors.New("bid amount is below the auction minimum")
	ErrBidOnOwnAuction   = errors.New("you cannot bid on your own auction")
	ErrAuctionEnded      = errors.New("auction has ended")
	ErrBidAmountInvalid  = errors.New("bid amount must be greater than 0")
	ErrAuctionNotLoaded  = errors.New("auction is not loaded")
	ErrBiddingNotAllowed = errors.New("your account is not allowed to bid")

	// Auction creation errors
	ErrTitleRequired       = errors.New("title is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrCategoryRequired    = errors.New("category is required")
	ErrConditionRequired   = errors.New("condition is required")
	ErrBasePriceInvalid    = errors.New("base price must be a positive whole number")
	ErrStartTimeRequired   = errors.New("start time is required")
	ErrEndTimeRequired     = errors.New("end time is required")
	ErrInvalidEndTime      = errors.New("end time must be after start time")
	ErrInvalidStartTime    = errors.New("start time must be in the future")
	ErrCreateNotAllowed    = errors.New("verify your identity before creating auctions")

	// Account errors
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrCredentialsRequired = errors.New("email and password are required")
	ErrDocumentRequired    = errors.New("document number and at least one image are required")
	ErrAdminRequired       = errors.New("admin access required")
	ErrNotAuctionWinner    = errors.New("only the auction winner can pay")
	ErrSessionExpired      = errors.New("session expired")
	ErrNoSession           = errors.New("not logged in")
	ErrRatingInvalid       = errors.New("rating must be between 1 and 5")
	ErrVerificationStatus  = errors.New("status must be verified or rejected")

	// Live channel errors
	ErrChannelClosed     = errors.New("live channel closed")
	ErrAlreadyJoined     = errors.New("auction room already joined")
	ErrAuctionIDRequired = errors.New("auction id is required")
	ErrUnknownEvent      = errors.New("unknown event")
)

// ValidationError is a client-side pre-check failure. No request was sent.
type ValidationError struct {
	Field string
	Err   error
}

// NewValidationError creates a new validation error for field
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AuthError means the session is missing or expired; callers route to login.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return e.Err.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// ServerRejection carries the server's failure message verbatim.
type ServerRejection struct {
	StatusCode int
	Message    string
}

func (e *ServerRejection) Error() string {
	return e.Message
}

func (e *ServerRejection) Is(target error) bool { return target == ErrServerRejection }

// NetworkError means the request never completed.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// NotFoundError reports that the referenced resource no longer exists.
type NotFoundError struct {
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Resource + " not found"
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// UserMessage renders err the way a view shows it inline. Server rejections
// are shown verbatim, network failures get a generic retry prompt.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var rejection *ServerRejection
	switch {
	case errors.As(err, &rejection):
		return rejection.Message
	case errors.Is(err, ErrNetwork):
		return "Network error, please try again"
	case errors.Is(err, ErrAuth):
		return "Please log in to continue"
	default:
		return err.Error()
	}
}
