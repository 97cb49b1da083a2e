package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxJSONBody = 1 << 20

// DecodeJSON reads exactly one JSON value from the request body into dst.
// Unknown fields, trailing data and bodies over 1 MiB are rejected. On
// failure a 400 (or 413) is written and false returned.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil && dec.More() {
		err = errors.New("request body must contain a single JSON value")
	}
	if err == nil {
		return true
	}

	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
		err = fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
	case errors.Is(err, io.EOF):
		err = errors.New("request body is empty")
	}
	WriteError(w, ErrorParams{Code: status, ErrCode: "invalid_json", Err: err})
	return false
}

// WriteJSON encodes v with the given status. Encoding happens before the
// header is written so a failure still yields a clean 500.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(append(body, '\n'))
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
	Field   string
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteError writes an errorBody. A nil Err uses the status text as message.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	msg := http.StatusText(p.Code)
	if p.Err != nil {
		msg = p.Err.Error()
	}
	WriteJSON(w, p.Code, errorBody{Error: p.ErrCode, Message: msg, Field: p.Field})
}
