package businessflow

import (
	"errors"
	"fmt"
)

// Error categories. Every specific sentinel below wraps exactly one of them,
// so callers can match either the precise cause or its class.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrPersistence  = errors.New("persistence failure")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDevice       = errors.New("device not usable")
)

// Business flow error constants
var (
	// Trader-related errors
	ErrTraderNotFound      = fmt.Errorf("trader %w", ErrNotFound)
	ErrTraderKeyRequired   = fmt.Errorf("%w: trader key is required", ErrValidation)
	ErrInvalidTraderPhone  = fmt.Errorf("%w: trader phone must contain 7 to 15 digits", ErrValidation)
	ErrTraderNameRequired  = fmt.Errorf("%w: trader name is required", ErrValidation)
	ErrTraderAlreadyExists = fmt.Errorf("%w: trader already exists", ErrValidation)

	// Ledger errors
	ErrInvalidAmount          = fmt.Errorf("%w: amount must be a finite value >= 0", ErrValidation)
	ErrAmountTooLarge         = fmt.Errorf("%w: amount is too large", ErrValidation)
	ErrInvalidTransactionKind = fmt.Errorf("%w: kind must be credit_add or voucher_purchase", ErrValidation)
	ErrDescriptionTooLong     = fmt.Errorf("%w: description is too long", ErrValidation)
	ErrInvalidLimit           = fmt.Errorf("%w: limit must be positive", ErrValidation)
	ErrAppendInProgress       = fmt.Errorf("%w: an append with this idempotency key is in progress", ErrConflict)
	ErrIdempotencyKeyReused   = fmt.Errorf("%w: idempotency key was used for a different trader", ErrConflict)

	// Client errors
	ErrClientNotFound     = fmt.Errorf("client %w", ErrNotFound)
	ErrInvalidClientPhone = fmt.Errorf("%w: client phone must contain 7 to 15 digits", ErrValidation)
	ErrInvalidMACAddress  = fmt.Errorf("%w: mac address must contain 12 hexadecimal digits", ErrValidation)
	ErrClientPhoneExists  = fmt.Errorf("%w: a client with this phone already exists for the trader", ErrValidation)
	ErrClientMACExists    = fmt.Errorf("%w: a client with this mac address already exists for the trader", ErrValidation)

	// Pricing errors
	ErrInvalidCategory     = fmt.Errorf("%w: category must be one of hour, day, week, month", ErrValidation)
	ErrInvalidBasePrice    = fmt.Errorf("%w: base price must be a finite value >= 0", ErrValidation)
	ErrInvalidDiscountRule = fmt.Errorf("%w: discount rules need threshold >= 0 and percent in [0, 100]", ErrValidation)
	ErrDuplicateThreshold  = fmt.Errorf("%w: discount thresholds must be unique", ErrValidation)
	ErrPricingTierNotFound = fmt.Errorf("pricing tier %w", ErrNotFound)

	// Device registry errors
	ErrDeviceNotFound          = fmt.Errorf("device %w", ErrNotFound)
	ErrNoActiveDevice          = fmt.Errorf("active device %w", ErrNotFound)
	ErrInvalidDeviceConfig     = fmt.Errorf("%w: device configuration is invalid", ErrValidation)
	ErrDevicePasswordRequired  = fmt.Errorf("%w: device password is required", ErrValidation)
	ErrSessionIDRequired       = fmt.Errorf("%w: session id is required", ErrValidation)
	ErrDeviceCredentialCorrupt = fmt.Errorf("%w: stored device credential cannot be decrypted", ErrPersistence)
	ErrDeviceUnavailable       = fmt.Errorf("%w: device unavailable", ErrDevice)
	ErrDeviceProtocol          = fmt.Errorf("%w: device protocol error", ErrDevice)
	ErrDeviceSessionNotFound   = fmt.Errorf("device session %w", ErrNotFound)

	// Admin auth errors
	ErrIncorrectCredentials = fmt.Errorf("%w: incorrect username or password", ErrUnauthorized)
	ErrInvalidAccessToken   = fmt.Errorf("%w: invalid access token", ErrUnauthorized)

	// Filter errors
	ErrInvalidPage = fmt.Errorf("%w: offset must not be negative", ErrValidation)
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// persistenceError tags a store failure so it matches ErrPersistence while keeping the cause
func persistenceError(code, message string, err error) *BusinessError {
	return NewBusinessError(code, message, fmt.Errorf("%w: %w", ErrPersistence, err))
}

// BusinessCode returns the code of the outermost BusinessError in err's chain
func BusinessCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsDeviceUnavailable(err error) bool {
	return errors.Is(err, ErrDeviceUnavailable)
}

func IsDeviceProtocol(err error) bool {
	return errors.Is(err, ErrDeviceProtocol)
}

func IsTraderNotFound(err error) bool {
	return errors.Is(err, ErrTraderNotFound)
}

func IsTraderAlreadyExists(err error) bool {
	return errors.Is(err, ErrTraderAlreadyExists)
}

func IsInvalidAmount(err error) bool {
	return errors.Is(err, ErrInvalidAmount)
}

func IsClientPhoneExists(err error) bool {
	return errors.Is(err, ErrClientPhoneExists)
}

func IsClientMACExists(err error) bool {
	return errors.Is(err, ErrClientMACExists)
}

func IsInvalidCategory(err error) bool {
	return errors.Is(err, ErrInvalidCategory)
}

func IsDeviceNotFound(err error) bool {
	return errors.Is(err, ErrDeviceNotFound)
}

func IsNoActiveDevice(err error) bool {
	return errors.Is(err, ErrNoActiveDevice)
}

func IsAppendInProgress(err error) bool {
	return errors.Is(err, ErrAppendInProgress)
}

func IsDeviceCredentialCorrupt(err error) bool {
	return errors.Is(err, ErrDeviceCredentialCorrupt)
}
