// Package connectortest provides a fake OAuth authorization server and an
// in-memory vault for connector tests.
package connectortest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tether/internal/adapters/driven/crypto/siv"
	"github.com/custodia-labs/tether/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/services"
)

// plainWrapper hands the master secret back unchanged.
type plainWrapper struct{}

func (plainWrapper) Name() string { return "plain" }

func (plainWrapper) Wrap(secret []byte) ([]byte, error) { return bytes.Clone(secret), nil }

func (plainWrapper) Unwrap(envelope []byte) ([]byte, error) { return bytes.Clone(envelope), nil }

// NewVault returns a vault over in-memory stores.
func NewVault() *services.Vault {
	return services.NewVault(memory.NewCredentialStore(), memory.NewSecretStore(), plainWrapper{}, siv.New())
}

// Seed stores a credential whose refresh token is "refresh-<accountID>".
func Seed(t testing.TB, vault *services.Vault, service domain.ServiceType, name, accountID string) int64 {
	t.Helper()
	tok := domain.OAuthToken{
		RefreshToken: "refresh-" + accountID,
		TokenType:    "Bearer",
	}
	payload, err := tok.Marshal()
	require.NoError(t, err)
	id, err := vault.Store(context.Background(), name, accountID, service, payload)
	require.NoError(t, err)
	return id
}

// Provider is a fake authorization server.
//
// The authorization code grant issues tokens for Subject. The refresh grant
// accepts "refresh-<account>" and mints "access-<account>", unless the
// account is listed in Revoked.
type Provider struct {
	Server *httptest.Server

	mu        sync.Mutex
	subject   string
	email     string
	revoked   map[string]bool
	refreshes int
}

// NewProvider starts a fake authorization server for the life of t.
func NewProvider(t testing.TB) *Provider {
	t.Helper()
	p := &Provider{subject: "user-1", email: "user1@example.com", revoked: map[string]bool{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", p.handleToken)
	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Server.Close)
	return p
}

// SetIdentity changes the account returned by the next code exchange.
func (p *Provider) SetIdentity(subject, email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subject, p.email = subject, email
}

// Revoke makes refreshes for accountID fail with invalid_grant.
func (p *Provider) Revoke(accountID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked[accountID] = true
}

// Refreshes returns how many refresh grants were served.
func (p *Provider) Refreshes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refreshes
}

// Descriptor returns a connector descriptor pointing at the fake server.
func (p *Provider) Descriptor(service domain.ServiceType, hosts ...string) domain.ConnectorDescriptor {
	return domain.ConnectorDescriptor{
		Service:      service,
		Name:         service.String(),
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Scopes:       []string{"openid", "files"},
		AuthURL:      p.Server.URL + "/authorize",
		TokenURL:     p.Server.URL + "/token",
		Hosts:        hosts,
	}
}

// Browser returns an OpenBrowser stand-in that approves the consent page by
// following the redirect_uri with a code and the original state.
func (p *Provider) Browser(t testing.TB) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		if err != nil {
			return err
		}
		q := u.Query()
		if q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" {
			return fmt.Errorf("auth URL missing PKCE challenge: %s", authURL)
		}
		redirect := q.Get("redirect_uri") + "?" + url.Values{
			"code":  {"auth-code"},
			"state": {q.Get("state")},
		}.Encode()
		go func() {
			resp, err := http.Get(redirect) //nolint:noctx // test browser
			if err != nil {
				t.Logf("fake browser: %v", err)
				return
			}
			_ = resp.Body.Close()
		}()
		return nil
	}
}

func (p *Provider) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		if r.PostForm.Get("code") != "auth-code" || r.PostForm.Get("code_verifier") == "" {
			writeOAuthError(w, "invalid_grant")
			return
		}
		idToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":   p.subject,
			"email": p.email,
			"iat":   time.Now().Unix(),
		}).SignedString([]byte("test-signing-key"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{
			"access_token":  "access-" + p.subject,
			"refresh_token": "refresh-" + p.subject,
			"token_type":    "Bearer",
			"expires_in":    3600,
			"id_token":      idToken,
		})
	case "refresh_token":
		p.refreshes++
		var account string
		if _, err := fmt.Sscanf(r.PostForm.Get("refresh_token"), "refresh-%s", &account); err != nil || p.revoked[account] {
			writeOAuthError(w, "invalid_grant")
			return
		}
		writeJSON(w, map[string]any{
			"access_token": "access-" + account,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	default:
		writeOAuthError(w, "unsupported_grant_type")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeOAuthError(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
