package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	streamauth "github.com/atrisomya/streamauth"
)

// envelope is the wire shape shared by every endpoint. Success responses
// carry data; error responses carry only the message.
type envelope struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

const genericErrorMessage = "Something went wrong"

// statusFor is the single translation point from engine errors to HTTP
// status codes. Unrecognized failures collapse to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, streamauth.ErrFieldsRequired),
		errors.Is(err, streamauth.ErrAvatarRequired):
		return http.StatusBadRequest
	case errors.Is(err, streamauth.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, streamauth.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, streamauth.ErrUnauthorized),
		errors.Is(err, streamauth.ErrInvalidCredentials),
		errors.Is(err, streamauth.ErrTokenInvalid),
		errors.Is(err, streamauth.ErrTokenExpired):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	writeJSON(w, status, envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		// internal detail stays in the logs
		message = genericErrorMessage
	}
	writeJSON(w, status, envelope{
		StatusCode: status,
		Message:    message,
		Success:    false,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
