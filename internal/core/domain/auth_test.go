package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOAuthToken_IsExpired(t *testing.T) {
	tests := []struct {
		name   string
		expiry time.Time
		want   bool
	}{
		{"zero expiry never expires", time.Time{}, false},
		{"future", time.Now().Add(time.Hour), false},
		{"past", time.Now().Add(-time.Minute), true},
		{"far past", time.Now().AddDate(-1, 0, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := &OAuthToken{AccessToken: "a", Expiry: tt.expiry}
			assert.Equal(t, tt.want, token.IsExpired())
		})
	}
}

func TestOAuthToken_MarshalRoundTrip(t *testing.T) {
	token := &OAuthToken{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	data, err := token.Marshal()
	assert.NoError(t, err)

	parsed, err := ParseOAuthToken(data)
	assert.NoError(t, err)
	assert.Equal(t, token.RefreshToken, parsed.RefreshToken)
	assert.True(t, token.Expiry.Equal(parsed.Expiry))
}

func TestParseOAuthToken_Invalid(t *testing.T) {
	_, err := ParseOAuthToken([]byte("not json"))
	assert.Error(t, err)

	_, err = ParseOAuthToken([]byte(`{"token_type":"Bearer"}`))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAuthState_IsTerminal(t *testing.T) {
	terminal := []AuthState{AuthStateCreated, AuthStateUpdated, AuthStateFailed}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), s)
	}

	running := []AuthState{
		AuthStateIdle, AuthStateListenerStarting, AuthStateAwaitingRedirect,
		AuthStateExchangingCode, AuthStateIdentityResolved,
	}
	for _, s := range running {
		assert.False(t, s.IsTerminal(), s)
	}
}
