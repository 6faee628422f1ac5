package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidFileName rejects a download before any network round-trip
// when the requested name does not carry the report file extension.
var ErrInvalidFileName = errors.New("report file name must end in .xlsx")

// ErrInvalidMonth rejects a monthly generation request with an
// out-of-range month before it is sent.
var ErrInvalidMonth = errors.New("month must be between 1 and 12")

// Category is the user-facing classification of a transport failure,
// independent of the backend's technical message.
type Category string

const (
	CategoryNotFound    Category = "not_found"
	CategoryBadRequest  Category = "bad_request"
	CategoryServerError Category = "server_error"
	CategoryUnknown     Category = "unknown"
)

// APIError is a non-2xx answer or malformed payload from the report
// backend. RawBody keeps the best-effort error body for logging.
type APIError struct {
	Status   int
	Category Category
	Message  string
	RawBody  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("report backend returned status %d: %s", e.Status, e.Message)
}

func newAPIError(status int, rawBody string) *APIError {
	cat := CategoryUnknown
	msg := "unexpected error from report backend"
	switch {
	case status == http.StatusNotFound:
		cat, msg = CategoryNotFound, "resource not found"
	case status == http.StatusBadRequest:
		cat, msg = CategoryBadRequest, "invalid request"
	case status >= http.StatusInternalServerError:
		cat, msg = CategoryServerError, "report backend internal error"
	}
	return &APIError{Status: status, Category: cat, Message: msg, RawBody: rawBody}
}
