package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"giantylive-web/internal/model"
	"giantylive-web/pkg/apierror"
)

// Backend is the part of the API client the resource services use.
type Backend interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body any, out any) error
	Put(ctx context.Context, path string, body any, out any) error
	Patch(ctx context.Context, path string, body any, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// pathID escapes a single path segment and rejects empty ids before any
// request is sent.
func pathID(name string, id model.ID) (string, error) {
	trimmed := strings.TrimSpace(id.String())
	if trimmed == "" {
		return "", apierror.Validation(fmt.Sprintf("%s is required", name), map[string]string{name: "required"})
	}
	return url.PathEscape(trimmed), nil
}

func requireText(field string, value string, message string) error {
	if strings.TrimSpace(value) == "" {
		return apierror.Validation(message, map[string]string{field: message})
	}
	return nil
}

func withQuery(path string, query url.Values) string {
	if encoded := query.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}
