// internal/api/response/response.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// SuccessResponse is the standard success response format.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// statusByCode maps error codes to HTTP statuses.
var statusByCode = map[string]int{
	core.ErrInvalidRequest.Code:      http.StatusBadRequest,
	core.ErrUnauthorized.Code:        http.StatusUnauthorized,
	core.ErrNoScan.Code:              http.StatusNotFound,
	core.ErrJobNotFound.Code:         http.StatusNotFound,
	core.ErrSymbolNotFound.Code:      http.StatusNotFound,
	core.ErrScanInProgress.Code:      http.StatusConflict,
	core.ErrProviderUnreachable.Code: http.StatusBadGateway,
	core.ErrDataUnavailable.Code:     http.StatusBadGateway,
	core.ErrProviderError.Code:       http.StatusBadGateway,
	core.ErrScanFailed.Code:          http.StatusBadGateway,
	core.ErrStorageFailed.Code:       http.StatusServiceUnavailable,
}

// StatusFor returns the HTTP status for err, defaulting to 500.
func StatusFor(err error) int {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		if status, ok := statusByCode[coreErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// JSON wraps data in the success envelope.
func JSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC()},
	})
}

// DetailFor converts err to its wire form. Uncoded errors are reported as
// INTERNAL_ERROR without leaking their text.
func DetailFor(err error) ErrorDetail {
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		return ErrorDetail{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}
	}
	d := ErrorDetail{Code: coreErr.Code, Message: coreErr.Message}
	if coreErr.Cause != nil {
		d.Cause = coreErr.Cause.Error()
	}
	return d
}

// Error writes err in the error envelope with an explicit status.
func Error(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: DetailFor(err)})
}

// Fail writes err with the status its code maps to.
func Fail(w http.ResponseWriter, err error) {
	Error(w, StatusFor(err), err)
}
