package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 1000
)

// pathParam binds a required simple-style path parameter.
func pathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false})
	if err != nil {
		return "", fmt.Errorf("%w: parameter %q: %w", domain.ErrInvalidArgument, name, err)
	}
	if v == "" {
		return "", fmt.Errorf("%w: parameter %q is required", domain.ErrInvalidArgument, name)
	}
	return v, nil
}

// sessionParam returns the {session} path parameter. Scope validation
// happens in the usecases.
func sessionParam(r *http.Request) (string, error) {
	v, err := pathParam(r, "session")
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidScope, err)
	}
	return v, nil
}

// limitParam binds the optional ?limit= query parameter.
func limitParam(r *http.Request) (int, error) {
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		return 0, fmt.Errorf("%w: parameter \"limit\": %w", domain.ErrInvalidArgument, err)
	}
	if limit == nil {
		return defaultHistoryLimit, nil
	}
	if *limit <= 0 || *limit > maxHistoryLimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidArgument, maxHistoryLimit)
	}
	return *limit, nil
}

// stringQueryParam binds an optional form-style query parameter.
func stringQueryParam(r *http.Request, name string) (string, error) {
	var v *string
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &v); err != nil {
		return "", fmt.Errorf("%w: parameter %q: %w", domain.ErrInvalidArgument, name, err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}
