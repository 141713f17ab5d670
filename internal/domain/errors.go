package domain

import "errors"

// Errors
var (
	ErrInsufficientStock   = errors.New("insufficient stock available")
	ErrReleaseExceedsStock = errors.New("release quantity exceeds reserved stock")
	ErrDeductExceedsStock  = errors.New("deduction quantity exceeds reserved stock")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrNegativeResult      = errors.New("operation would result in negative stock")
	ErrStockNotFound       = errors.New("stock record not found")
	ErrDuplicateProduct    = errors.New("stock record already exists for product")
	ErrInvalidMovementType = errors.New("invalid movement type")
	ErrInvalidAlertType    = errors.New("invalid alert type")
	ErrAlertNotFound       = errors.New("stock alert not found")
)
