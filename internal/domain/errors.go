package domain

import "errors"

// Domain errors
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrAmountTooLarge  = errors.New("amount cannot exceed 1,000,000")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrInvalidDueDay   = errors.New("due day must be between 1 and 31")
	ErrInvalidCategory = errors.New("invalid bill category")
	ErrNameRequired    = errors.New("name is required")
	ErrNameTooLong     = errors.New("name exceeds maximum length")
	ErrBillNotFound    = errors.New("bill not found")
	ErrRecordNotFound  = errors.New("calculation record not found")
	ErrPersistence     = errors.New("persistence failure")
)

// Validation constants
const (
	MaxBillNameLength = 255
)
