package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ferrianes/foodmarket-backend/internal/auth"
	"github.com/ferrianes/foodmarket-backend/internal/errorz"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Envelope wraps every JSON response.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

type Meta struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) writeSuccess(w http.ResponseWriter, r *http.Request, code int, message string, data any) {
	s.writeEnvelope(w, r, Envelope{
		Meta: Meta{Code: code, Status: statusSuccess, Message: message},
		Data: data,
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, code int, message string, data any) {
	s.writeEnvelope(w, r, Envelope{
		Meta: Meta{Code: code, Status: statusError, Message: message},
		Data: data,
	})
}

func (s *Server) writeEnvelope(w http.ResponseWriter, r *http.Request, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Meta.Code)

	err := json.NewEncoder(w).Encode(env)
	if err != nil {
		s.deps.Logger.Error("failed to write response", "url", r.URL.String(), "error", err)
	}
}

// handleError writes the envelope matching err. Errors that are not
// expected are logged and reported without detail.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var invalidInput errorz.InvalidInput
	if errors.As(err, &invalidInput) {
		s.writeError(w, r, http.StatusUnprocessableEntity, "Validation Failed", map[string]any{
			"errors": invalidInput.Fields(),
		})
		return
	}

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.writeError(w, r, http.StatusUnauthorized, "Authentication Failed", map[string]string{
			"message": "Unauthorized",
		})
	case errors.Is(err, auth.ErrUnauthenticated):
		s.writeError(w, r, http.StatusUnauthorized, "Unauthenticated", nil)
	case errors.Is(err, errorz.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, "Not Found", nil)
	case isBodyTooLarge(err):
		s.writeError(w, r, http.StatusRequestEntityTooLarge, "Request Too Large", nil)
	case errors.Is(err, errBadRequest):
		s.writeError(w, r, http.StatusBadRequest, "Bad Request", nil)
	default:
		s.deps.Logger.Error("internal server error", "url", r.URL.String(), "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "Something went wrong", nil)
	}
}
