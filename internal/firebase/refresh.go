package firebase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"session_broker_backend/internal/shared"
)

// tokenRefresher exchanges refresh tokens at the Secure Token endpoint using
// the standard OAuth2 refresh_token grant.
type tokenRefresher struct {
	httpClient *http.Client
	config     *oauth2.Config
}

func newTokenRefresher(httpClient *http.Client, tokenURL, apiKey string) *tokenRefresher {
	return &tokenRefresher{
		httpClient: httpClient,
		config: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL + "?key=" + url.QueryEscape(apiKey),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// errMissingAccessToken is the oauth2 failure for a 200 response without access_token.
const errMissingAccessToken = "server response missing access_token"

// refresh returns a new session built from the raw id_token and refresh_token
// fields. A field the provider omitted stays empty in the returned session.
func (r *tokenRefresher) refresh(ctx context.Context, refreshToken string) (*shared.Session, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
	tok, err := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			status := http.StatusUnauthorized
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			return nil, parseRESTError(status, retrieveErr.Body)
		}
		if strings.Contains(err.Error(), errMissingAccessToken) {
			return &shared.Session{}, nil
		}
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	// oauth2 copies the submitted refresh token into tok.RefreshToken when the
	// response has none, so the raw field is read instead.
	idToken, _ := tok.Extra("id_token").(string)
	rawRefresh, _ := tok.Extra("refresh_token").(string)

	return &shared.Session{
		AccessToken:  idToken,
		RefreshToken: rawRefresh,
	}, nil
}
