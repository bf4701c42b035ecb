package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/iudanet/possync/pkg/api"
)

var (
	// ErrDuplicateTransaction indicates that the server already has an order with this transaction id
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrNotFound indicates that the record does not exist on the server
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized indicates that the access token is missing or invalid
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a non-2xx response of the record store.
type Error struct {
	Code       string // машиночитаемый код из тела ответа
	Message    string
	StatusCode int
}

func newError(status int, body []byte) *Error {
	e := &Error{StatusCode: status}

	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		e.Code = errResp.Error
		e.Message = errResp.Message
		return e
	}

	e.Message = strings.TrimSpace(string(body))
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func (e *Error) Error() string {
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("server error (%d): %s: %s", e.StatusCode, e.Code, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// ErrorCode returns the backend error code, empty if the response had none.
func (e *Error) ErrorCode() string {
	return e.Code
}

// Is maps well-known responses onto the package sentinel errors.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrDuplicateTransaction:
		return e.StatusCode == http.StatusConflict && e.Code == api.CodeDuplicateTransaction
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IsRetryable reports whether err is a transient failure worth another attempt:
// network errors, timeouts, 408, 429 and 5xx responses.
// Other 4xx responses are permanent rejections.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusRequestTimeout,
			apiErr.StatusCode == http.StatusTooManyRequests,
			apiErr.StatusCode >= 500:
			return true
		}
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
