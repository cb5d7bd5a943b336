package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"library-catalog/auth"
	"library-catalog/library"
)

const maxBodyBytes = 1 << 20

var errBadJSON = errors.New("invalid json body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errBadJSON, err.Error())
	}
	if _, err := dec.Token(); err != io.EOF {
		return errBadJSON
	}
	return nil
}

// statusFor maps domain and auth errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadJSON),
		errors.Is(err, auth.ErrBadRequest),
		errors.Is(err, library.ErrBadRequest),
		errors.Is(err, library.ErrInvalidStatus):
		return http.StatusBadRequest
	case auth.IsAuthenticationError(err):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrInsufficientRole):
		return http.StatusForbidden
	case errors.Is(err, library.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status for err. Internal errors are logged and
// their detail is not sent to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		requestLogger(r, s.log).WithError(err).Error("request failed")
		errorJSON(w, status, "internal error")
		return
	}
	errorJSON(w, status, err.Error())
}
