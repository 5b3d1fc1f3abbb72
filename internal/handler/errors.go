package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"qualidoc/internal/domain"
	"qualidoc/internal/domain/models"
	"qualidoc/internal/httputil"
)

// handleError maps domain errors to RFC 7807 responses. Validation failures
// carry their field map, conflicts carry the resource they collided with.
// Anything unmapped is logged and surfaced as a generic 500.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		extras := map[string]interface{}{}
		if len(verr.Fields) > 0 {
			extras["errors"] = verr.Fields
		}
		httputil.RespondErrorWithExtras(w, verr.StatusCode(), verr.Message, extras)
		return
	}

	var cerr *domain.ConflictError
	if errors.As(err, &cerr) {
		extras := map[string]interface{}{}
		if cerr.ResourceType != "" {
			extras["resource_type"] = cerr.ResourceType
		}
		if cerr.ResourceID != "" {
			extras["resource_id"] = cerr.ResourceID
		}
		httputil.RespondErrorWithExtras(w, cerr.StatusCode(), cerr.Message, extras)
		return
	}

	var herr domain.HTTPError
	if errors.As(err, &herr) {
		status := herr.StatusCode()
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "error", err)
			httputil.RespondError(w, status, "internal server error")
			return
		}
		httputil.RespondError(w, status, herr.Error())
		return
	}

	logger.Error("unhandled error", "error", err)
	httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
}

// requireActor fetches the authenticated actor or writes a 401. The auth
// middleware always sets it; this guards direct handler use in tests.
func requireActor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := httputil.GetActor(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
		return models.Actor{}, false
	}
	return actor, true
}
