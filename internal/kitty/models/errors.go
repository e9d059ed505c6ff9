package models

import dErrors "kitties/pkg/domain-errors"

// Reason names a kitty registry failure. The set covers creation, transfer,
// and per-owner limits even though only creation is implemented; callers
// extending the registry should reuse these rather than add parallel errors.
type Reason string

const (
	ReasonDuplicateKitty    Reason = "duplicate_kitty"
	ReasonTooManyOwned      Reason = "too_many_owned"
	ReasonNoKitty           Reason = "no_kitty"
	ReasonNotOwner          Reason = "not_owner"
	ReasonTransferToSelf    Reason = "transfer_to_self"
	ReasonCannotConvert     Reason = "cannot_convert"
	ReasonExceedKittyNumber Reason = "exceed_kitty_number"
)

// Error is a registry failure kind. Values are compared by identity with
// errors.Is against the Err* variables below.
type Error struct {
	Reason  Reason
	Message string
}

// Error is the reason alone. Message travels on the coded error from Wrap.
func (e *Error) Error() string {
	return string(e.Reason)
}

// Code is the domain error code the failure is reported under.
func (e *Error) Code() dErrors.Code {
	switch e.Reason {
	case ReasonDuplicateKitty:
		return dErrors.CodeConflict
	case ReasonNotOwner:
		return dErrors.CodeForbidden
	case ReasonNoKitty:
		return dErrors.CodeNotFound
	case ReasonTooManyOwned, ReasonExceedKittyNumber:
		return dErrors.CodeLimitExceeded
	case ReasonTransferToSelf:
		return dErrors.CodeInvalidInput
	default:
		return dErrors.CodeInternal
	}
}

// Wrap reports e under its own code and message.
func (e *Error) Wrap() error {
	return dErrors.Wrap(e, e.Code(), e.Message)
}

var (
	// ErrDuplicateKitty: the derived DNA is already registered.
	ErrDuplicateKitty = &Error{Reason: ReasonDuplicateKitty, Message: "kitty with this dna already exists"}
	// ErrTooManyOwned is reserved for per-owner limits.
	ErrTooManyOwned = &Error{Reason: ReasonTooManyOwned, Message: "owner holds too many kitties"}
	// ErrNoKitty is reserved for lookup by DNA.
	ErrNoKitty = &Error{Reason: ReasonNoKitty, Message: "kitty not found"}
	// ErrNotOwner: the caller is not the owner named in the request.
	ErrNotOwner = &Error{Reason: ReasonNotOwner, Message: "caller is not the owner"}
	// ErrTransferToSelf is reserved for transfers.
	ErrTransferToSelf = &Error{Reason: ReasonTransferToSelf, Message: "cannot transfer a kitty to its owner"}
	// ErrCannotConvert is reserved for attribute derivation failures.
	ErrCannotConvert = &Error{Reason: ReasonCannotConvert, Message: "cannot derive kitty attributes"}
	// ErrExceedKittyNumber is reserved for a global supply cap.
	ErrExceedKittyNumber = &Error{Reason: ReasonExceedKittyNumber, Message: "kitty supply exhausted"}
)

// AllErrors lists every declared failure kind.
var AllErrors = []*Error{
	ErrDuplicateKitty,
	ErrTooManyOwned,
	ErrNoKitty,
	ErrNotOwner,
	ErrTransferToSelf,
	ErrCannotConvert,
	ErrExceedKittyNumber,
}
