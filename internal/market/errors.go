// Package market defines the domain error taxonomy shared by the catalog,
// order and messaging engines. Handlers translate these into HTTP status
// codes; anything else is treated as an infrastructure failure.
package market

import "errors"

var (
	// ErrNotFound: the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden: the acting user is neither party to the entity.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict: an availability race was lost (e.g. product already
	// reserved or sold). A legitimate outcome, not a transient fault.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState: the operation is illegal for the current status.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidInput: request validation failed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSelfTransaction: a buyer attempted to purchase their own product.
	ErrSelfTransaction = errors.New("cannot purchase your own product")
)
