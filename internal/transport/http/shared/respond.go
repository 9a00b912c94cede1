// Package shared holds the JSON response helpers every feature handler uses,
// so error translation happens in exactly one place.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "trustgrid/pkg/domain-errors"
)

// ErrorBody is the uniform error envelope.
type ErrorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON serializes v with the given status. Encoding failures are
// unrecoverable at this point; the status line has already been sent.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps a domain error onto the HTTP taxonomy and writes the
// envelope. Unknown errors become 500 with a generic message so internals
// never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := dErrors.MessageOf(err)
	if code == "" || code == dErrors.CodeInternal || code == dErrors.CodeOracleUnavailable {
		code = dErrors.CodeInternal
		message = "internal error"
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), ErrorBody{
		Error: errorDetail{Code: string(code), Message: message},
	})
}

// Decode parses a JSON request body into dst. Unknown fields are tolerated:
// clients may send more than the handler reads.
func Decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
