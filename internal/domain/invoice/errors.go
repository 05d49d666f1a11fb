package invoice

import "errors"

var (
	// ErrInvoiceNotFound indicates the invoice doesn't exist.
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrInvoicePaid indicates an attempt to change or delete a paid invoice.
	ErrInvoicePaid = errors.New("invoice is paid and cannot be changed")
	// ErrInvalidInput indicates malformed invoice input.
	ErrInvalidInput = errors.New("invalid invoice input")
	// ErrInvalidStatusChange indicates a status change outside the allowed set.
	ErrInvalidStatusChange = errors.New("invalid invoice status change")
	// ErrPaymentDeclined indicates the payment gateway did not approve the charge.
	ErrPaymentDeclined = errors.New("payment declined")
)
