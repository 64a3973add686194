package dto

import "net/http"

// Domain error codes understood by the HTTP boundary
const (
	CodeValidation         = "VALIDATION"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInvalidSignature   = "INVALID_SIGNATURE"
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeNeedsPaymentMethod = "NEEDS_PAYMENT_METHOD"
	CodeInvalidState       = "INVALID_STATE"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	CodeValidation:         http.StatusBadRequest,
	CodeInvalidInput:       http.StatusBadRequest,
	CodeInvalidSignature:   http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeAlreadyExists:      http.StatusConflict,
	CodeNeedsPaymentMethod: http.StatusConflict,
	CodeInvalidState:       http.StatusUnprocessableEntity,
}

// StatusForCode returns the HTTP status for a domain error code.
// Unknown codes, including provider failures, map to 500.
func StatusForCode(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
