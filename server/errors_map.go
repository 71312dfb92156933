package server

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/arsalanrobotronics/famaserve-admin-backend/auth"
)

const internalErrorMessage = "Something went wrong, please try again later."

// writeServiceError turns a session-core failure into the envelope the
// clients expect. Anything outside the taxonomy is logged and surfaced as the
// generic internal message, never with detail.
func (s *Server) writeServiceError(w http.ResponseWriter, heading string, err error) {
	var inactiveErr *auth.AccountInactiveError
	var lockedErr *auth.AccountLockedError

	switch {
	case errors.Is(err, auth.ErrInvalidUsername),
		errors.Is(err, auth.ErrInvalidPassword):
		respond(w, heading, http.StatusNotFound, false, err.Error(), nil)

	case errors.Is(err, auth.ErrAccountNotFound):
		respond(w, heading, http.StatusNotFound, false, "User not found", nil)

	case errors.As(err, &inactiveErr),
		errors.As(err, &lockedErr),
		errors.Is(err, auth.ErrRoleArchived),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrRefreshExpired),
		errors.Is(err, auth.ErrCurrentPasswordWrong),
		errors.Is(err, auth.ErrSecretUnchanged),
		errors.Is(err, auth.ErrSecretReused),
		errors.Is(err, auth.ErrEmailTaken):
		respond(w, heading, http.StatusUnprocessableEntity, false, err.Error(), nil)

	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrSessionRevoked):
		respond(w, heading, http.StatusUnauthorized, false, "Unauthorized", nil)

	default:
		s.log.Error().Err(err).Str("heading", heading).Msg("unexpected service error")
		respond(w, heading, http.StatusInternalServerError, false, internalErrorMessage, nil)
	}
}
