package http

import (
	"fmt"
	"net/http"
	"strconv"

	apierrors "retailsight/internal/errors"
)

func floatParam(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apierrors.NewValidationError(fmt.Sprintf("%s must be a number, got %q", name, raw))
	}
	return &v, nil
}

func intParam(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apierrors.NewValidationError(fmt.Sprintf("%s must be an integer, got %q", name, raw))
	}
	return &v, nil
}

func boolParam(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apierrors.NewValidationError(fmt.Sprintf("%s must be a boolean, got %q", name, raw))
	}
	return &v, nil
}

func intParamOr(r *http.Request, name string, fallback int) (int, error) {
	v, err := intParam(r, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return fallback, nil
	}
	return *v, nil
}
