package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/yoohoo-guru/yoohoo-api/internal/errors"
)

// maxJSONBody bounds request bodies decoded by DecodeJSON.
const maxJSONBody = 1 << 20

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// client disconnects can't be recovered from here
	_, _ = buf.WriteTo(w)
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code       int
	ErrCode    string
	Err        error
	RedirectTo string // optional navigation hint for fetch clients
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	body := map[string]string{"error": p.ErrCode, "message": p.Err.Error()}
	if p.RedirectTo != "" {
		body["redirect_to"] = p.RedirectTo
	}
	WriteJSON(w, p.Code, body)
}

// writeServiceError maps service/data errors onto HTTP responses. Errors
// without an application code are reported as a generic 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error", Err: errors.New("internal server error")})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeConflict:
		status = http.StatusConflict
	case apperrors.ErrCodeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	case apperrors.ErrCodeCanceled:
		status = http.StatusServiceUnavailable
	}
	msg := appErr.Message
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	body := map[string]string{"error": string(appErr.Code), "message": msg}
	if appErr.Field != "" {
		body["field"] = appErr.Field
	}
	WriteJSON(w, status, body)
}
