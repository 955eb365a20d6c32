package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"giantylive-web/internal/auth"
	"giantylive-web/internal/locale"
	"giantylive-web/internal/model"
	"giantylive-web/pkg/apierror"
)

const maxJSONBody = 1 << 20

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// writeError maps err onto the JSON envelope. A 401 carries a redirect hint
// computed from the page that issued the request.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Fields = apiErr.Fields
		if apiErr.Kind != apierror.KindNetwork && apiErr.Kind != apierror.KindServer {
			body.Details = apiErr.Details
		}
	} else if errors.Is(err, model.ErrNoSession) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Authentication required"
	} else if errors.Is(err, model.ErrInvalidToken) {
		status = http.StatusUnauthorized
		body.Code = "UNAUTHORIZED"
		body.Message = "Invalid session token"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = "BAD_REQUEST"
		body.Message = "Invalid input"
	} else {
		// Log unclassified errors so they are visible in container logs.
		slog.ErrorContext(r.Context(), "unhandled error in writeError", "error", err.Error())
	}

	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status == http.StatusUnauthorized {
		body.Redirect = auth.SignInRedirect(refererPath(r), locale.FromContext(r.Context()))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apierror.New("BAD_REQUEST", "request body is required", "", http.StatusBadRequest)
		}
		return apierror.New("BAD_REQUEST", "invalid JSON body", err.Error(), http.StatusBadRequest)
	}
	return nil
}

// refererPath is the path of the page the browser was on, or "/" when the
// header is missing or unparsable.
func refererPath(r *http.Request) string {
	raw := r.Header.Get("Referer")
	if raw == "" {
		return "/"
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Path == "" {
		return "/"
	}
	return parsed.Path
}

func APINotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apierror.New("NOT_FOUND", "Resource not found", "", http.StatusNotFound))
}
