package connectors

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	oauthtoken "github.com/custodia-labs/tether/internal/adapters/driven/oauth"
	"github.com/custodia-labs/tether/internal/adapters/driving/oauth"
	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driving"
	"github.com/custodia-labs/tether/internal/logger"
)

// Default loopback settings.
const (
	DefaultPortStart   = 8443
	DefaultPortEnd     = 8453
	DefaultAuthTimeout = 30 * time.Second
)

// AuthFlowConfig configures the interactive authorization flow.
type AuthFlowConfig struct {
	// PortStart and PortEnd bound the loopback listener. PortStart 0 binds an
	// ephemeral port.
	PortStart int
	PortEnd   int
	// Timeout is how long to wait for the browser redirect.
	Timeout time.Duration
	// OpenBrowser launches the consent page. Defaults to oauth.OpenBrowser.
	OpenBrowser func(url string) error
	// OnAuthURL, if set, receives the consent URL before the browser opens.
	OnAuthURL func(url string)
	// OnState, if set, observes every state transition.
	OnState func(domain.AuthState)
	// HTTPClient is used for the token exchange. Nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// DefaultAuthFlowConfig returns the standard loopback configuration.
func DefaultAuthFlowConfig() AuthFlowConfig {
	return AuthFlowConfig{
		PortStart: DefaultPortStart,
		PortEnd:   DefaultPortEnd,
		Timeout:   DefaultAuthTimeout,
	}
}

// AuthFlow runs the authorization code flow with PKCE against a loopback
// redirect and stores the resulting token in the vault.
type AuthFlow struct {
	vault driving.CredentialVault
	cfg   AuthFlowConfig
}

// NewAuthFlow creates an authorization flow backed by vault.
func NewAuthFlow(vault driving.CredentialVault, cfg AuthFlowConfig) *AuthFlow {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAuthTimeout
	}
	if cfg.OpenBrowser == nil {
		cfg.OpenBrowser = oauth.OpenBrowser
	}
	return &AuthFlow{vault: vault, cfg: cfg}
}

// Authenticate authorises a new account for desc and stores it as name.
//
// If the resolved account already has a credential for this provider, its
// token is replaced and it is renamed to name instead of creating a duplicate.
func (f *AuthFlow) Authenticate(ctx context.Context, desc domain.ConnectorDescriptor, name string) (*domain.AuthResult, error) {
	log := logger.With("auth").With("service", desc.Service.String())
	state := domain.AuthStateIdle
	transition := func(next domain.AuthState) {
		log.Debug("auth state", "from", string(state), "to", string(next))
		state = next
		if f.cfg.OnState != nil {
			f.cfg.OnState(next)
		}
	}
	fail := func(err error) (*domain.AuthResult, error) {
		transition(domain.AuthStateFailed)
		return nil, err
	}

	if desc.ClientID == "" {
		return fail(fmt.Errorf("%w: no OAuth client configured for %s", domain.ErrInvalidInput, desc.Name))
	}
	if err := f.checkName(ctx, desc.Service, name); err != nil {
		return fail(err)
	}

	transition(domain.AuthStateListenerStarting)
	callbackState, err := randomState()
	if err != nil {
		return fail(err)
	}
	srv := oauth.NewCallbackServer(callbackState)
	if err := srv.Start(f.cfg.PortStart, f.cfg.PortEnd); err != nil {
		return fail(fmt.Errorf("starting callback listener: %w", err))
	}
	defer func() { _ = srv.Stop() }()

	cfg := oauthtoken.Config(desc, srv.RedirectURI())
	verifier := oauth2.GenerateVerifier()
	authURL := oauthtoken.AuthCodeURL(cfg, callbackState, verifier)

	transition(domain.AuthStateAwaitingRedirect)
	if f.cfg.OnAuthURL != nil {
		f.cfg.OnAuthURL(authURL)
	}
	if err := f.cfg.OpenBrowser(authURL); err != nil {
		logger.Warn("could not open browser, open the URL manually", "error", err)
	}

	code, err := srv.Wait(ctx, f.cfg.Timeout)
	if err != nil {
		return fail(err)
	}

	transition(domain.AuthStateExchangingCode)
	if f.cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, f.cfg.HTTPClient)
	}
	tok, err := oauthtoken.Exchange(ctx, cfg, code, verifier)
	if err != nil {
		return fail(err)
	}
	identity, err := oauthtoken.IdentityFromToken(tok)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", domain.ErrAuthorizationFailed, err))
	}
	transition(domain.AuthStateIdentityResolved)
	log.Debug("identity resolved", "account", logger.Mask(identity.Subject))

	stored := oauthtoken.ToDomain(tok)
	payload, err := stored.Marshal()
	if err != nil {
		return fail(err)
	}

	result := &domain.AuthResult{
		Name:      name,
		AccountID: identity.Subject,
		Service:   desc.Service,
	}

	id, err := f.vault.RetrieveByAccountAndService(ctx, identity.Subject, desc.Service)
	switch {
	case err == nil:
		if err := f.vault.ReplaceToken(ctx, id, payload); err != nil {
			return fail(err)
		}
		if err := f.vault.Rename(ctx, id, name); err != nil {
			return fail(err)
		}
		result.CredentialID = id
		transition(domain.AuthStateUpdated)
	case errors.Is(err, domain.ErrNotFound):
		id, err := f.vault.Store(ctx, name, identity.Subject, desc.Service, payload)
		if err != nil {
			return fail(err)
		}
		result.CredentialID = id
		transition(domain.AuthStateCreated)
	default:
		return fail(err)
	}

	result.State = state
	logger.Info("account authorised", "name", name, "service", desc.Service.String(), "state", string(state))
	return result, nil
}

// checkName rejects names already in use before any browser round trip.
func (f *AuthFlow) checkName(ctx context.Context, service domain.ServiceType, name string) error {
	creds, err := f.vault.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range creds {
		if c.Name != name {
			continue
		}
		if c.Service == service {
			return domain.ErrCredentialExists
		}
		return domain.ErrDuplicateName
	}
	return nil
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
