package errors

import (
	stderrors "errors"
)

// ErrorResponse is the body of every failed groupd response:
//
//	{"error":{"code":"TIMEOUT","message":"...","retryable":true,"details":{...}}}
//
// Event streams send only the inner ErrorBody as the data of their final
// error event, since the status line has already gone out.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries what a client needs to decide whether to retry.
type ErrorBody struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// ToResponse builds the client-facing envelope. Cause is never included.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: ErrorBody{
			Code:      e.Code,
			Message:   e.Message,
			Retryable: e.Retryable,
			Details:   e.Details,
		},
	}
}

// IsAppError reports whether err wraps an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError returns the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
