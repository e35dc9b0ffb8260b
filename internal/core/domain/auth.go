package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// OAuthToken represents stored OAuth credentials.
type OAuthToken struct {
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`
	// Expiry is when the access token expires.
	Expiry time.Time `json:"expiry,omitempty"`
}

// IsExpired returns true if the token has expired.
func (t *OAuthToken) IsExpired() bool {
	if t.Expiry.IsZero() {
		return false
	}
	return time.Now().After(t.Expiry)
}

// Marshal encodes the token for storage in the vault.
func (t *OAuthToken) Marshal() ([]byte, error) {
	return json.Marshal(t)
}

// ParseOAuthToken decodes a token previously produced by Marshal.
func ParseOAuthToken(data []byte) (*OAuthToken, error) {
	var t OAuthToken
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding oauth token: %w", err)
	}
	if t.RefreshToken == "" && t.AccessToken == "" {
		return nil, fmt.Errorf("decoding oauth token: %w", ErrInvalidInput)
	}
	return &t, nil
}

// AuthState is a step in the interactive authorization flow.
type AuthState string

// Authorization flow states. Every attempt starts at Idle and ends in
// Created, Updated or Failed.
const (
	AuthStateIdle             AuthState = "idle"
	AuthStateListenerStarting AuthState = "listener_starting"
	AuthStateAwaitingRedirect AuthState = "awaiting_redirect"
	AuthStateExchangingCode   AuthState = "exchanging_code"
	AuthStateIdentityResolved AuthState = "identity_resolved"
	AuthStateCreated          AuthState = "created"
	AuthStateUpdated          AuthState = "updated"
	AuthStateFailed           AuthState = "failed"
)

// IsTerminal returns true once the flow can no longer transition.
func (s AuthState) IsTerminal() bool {
	return s == AuthStateCreated || s == AuthStateUpdated || s == AuthStateFailed
}

// AuthResult is the outcome of a completed authorization.
type AuthResult struct {
	// CredentialID is the vault record created or updated.
	CredentialID int64
	// Name is the credential name after the flow.
	Name string
	// AccountID is the subject resolved from the identity token.
	AccountID string
	// Service is the provider that was authorised.
	Service ServiceType
	// State is AuthStateCreated or AuthStateUpdated.
	State AuthState
}
