package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/saascannon/saascannon-vango/pkg/saascannon"
	"github.com/saascannon/saascannon-vango/pkg/spa"
)

// FromAuth maps an error from the saascannon or spa packages to a coded
// error with a suggestion. Other errors are wrapped as fallback.
func FromAuth(err error, fallback string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}

	var apiErr *spa.APIError
	switch {
	case stderrors.Is(err, saascannon.ErrNoProvider):
		return New("S001").Wrap(err).
			WithSuggestion("Render the component inside the provider, or use saascannon.Lookup() where a provider is optional").
			WithExample("spa.NewProvider(saascannon.Props[spa.Options]{\n    Config:   opts,\n    Children: []any{App()},\n})")
	case stderrors.Is(err, spa.ErrMissingDomain), stderrors.Is(err, spa.ErrMissingClientID):
		return New("S121").Wrap(err).
			WithSuggestion("Set saascannon.domain and saascannon.clientId, or SAASCANNON_DOMAIN and SAASCANNON_CLIENT_ID")
	case stderrors.Is(err, spa.ErrInvalidState):
		return New("S041").Wrap(err).
			WithSuggestion("Start the login again from the application")
	case stderrors.Is(err, spa.ErrNotAuthenticated):
		return New("S042").Wrap(err)
	case stderrors.As(err, &apiErr):
		code := "S060"
		if apiErr.Code == "invalid_grant" {
			code = "S040"
		}
		return New(code).Wrap(err).
			WithDetail(fmt.Sprintf("The tenant answered %d %s.", apiErr.Status, apiErr.Code))
	}
	return New(fallback).Wrap(err)
}
