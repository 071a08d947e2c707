// Framebridge - Samsung Frame TV Art Mode Bridge
// Copyright 2026 Framebridge Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/framebridge/framebridge

package token

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// smartThingsTokenURL is the SmartThings OAuth2 token endpoint.
const smartThingsTokenURL = "https://auth-global.api.smartthings.com/oauth/token"

// OAuthRefresher exchanges refresh tokens against a standard OAuth2 token
// endpoint via golang.org/x/oauth2.
type OAuthRefresher struct {
	cfg *oauth2.Config
}

// NewSmartThingsRefresher builds a refresher for the SmartThings cloud.
func NewSmartThingsRefresher(clientID, clientSecret string) *OAuthRefresher {
	return &OAuthRefresher{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: smartThingsTokenURL},
		},
	}
}

// NewOAuthRefresher builds a refresher for an arbitrary token endpoint.
func NewOAuthRefresher(clientID, clientSecret, tokenURL string) *OAuthRefresher {
	return &OAuthRefresher{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
	}
}

// Refresh exchanges the current refresh token for a new token pair. The
// returned *oauth2.RetrieveError (when the endpoint rejects the exchange)
// drives the manager's terminal/transient classification.
func (r *OAuthRefresher) Refresh(ctx context.Context, current *oauth2.Token) (*oauth2.Token, error) {
	if current == nil || current.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", ErrRefreshInvalid)
	}

	// TokenSource with an expired token forces a refresh exchange.
	stale := &oauth2.Token{RefreshToken: current.RefreshToken}
	newTok, err := r.cfg.TokenSource(ctx, stale).Token()
	if err != nil {
		return nil, err
	}
	return newTok, nil
}
