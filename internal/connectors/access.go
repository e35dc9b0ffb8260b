package connectors

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	oauthtoken "github.com/custodia-labs/tether/internal/adapters/driven/oauth"
	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driving"
	"github.com/custodia-labs/tether/internal/logger"
)

// Probe fetches a file's metadata using an authorised client.
type Probe func(ctx context.Context, client *http.Client) (*domain.FileMetadata, error)

// FindGrant tries every stored credential of desc.Service in turn and returns
// the first one whose probe succeeds.
//
// Per-credential failures (expired refresh tokens, 403, 404) are logged at
// debug level and the search moves on. When every credential fails the
// result is domain.ErrAccessDenied.
func FindGrant(
	ctx context.Context,
	vault driving.CredentialVault,
	desc domain.ConnectorDescriptor,
	base *http.Client,
	probe Probe,
) (*domain.AccessGrant, error) {
	creds, err := vault.ListByService(ctx, desc.Service)
	if err != nil {
		return nil, err
	}

	cfg := oauthtoken.Config(desc, "")
	for i := range creds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		grant, err := tryCredential(ctx, vault, cfg, &creds[i], base, probe)
		if err == nil {
			logger.Debug("credential has access", "service", desc.Service.String(), "credential", creds[i].Name)
			return grant, nil
		}
		logger.Debug("credential cannot read file",
			"service", desc.Service.String(), "credential", creds[i].Name, "error", err)
	}

	return nil, fmt.Errorf("%w: %d %s credential(s) tried", domain.ErrAccessDenied, len(creds), desc.Name)
}

func tryCredential(
	ctx context.Context,
	vault driving.CredentialVault,
	cfg *oauth2.Config,
	cred *domain.Credential,
	base *http.Client,
	probe Probe,
) (*domain.AccessGrant, error) {
	defer clear(cred.Token)

	stored, err := domain.ParseOAuthToken(cred.Token)
	if err != nil {
		return nil, err
	}
	ts, err := oauthtoken.TokenSource(ctx, cfg, *cred, base)
	if err != nil {
		return nil, err
	}
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	if tok.AccessToken != stored.AccessToken {
		persistRefreshed(ctx, vault, cred, tok)
	}

	meta, err := probe(ctx, BearerClient(ctx, base, tok.AccessToken))
	if err != nil {
		return nil, err
	}
	return &domain.AccessGrant{
		CredentialID:   cred.ID,
		CredentialName: cred.Name,
		AccessToken:    tok.AccessToken,
		File:           *meta,
	}, nil
}

// persistRefreshed writes a refreshed token back so rotated refresh tokens
// are not lost. Failures only cost an extra refresh next time.
func persistRefreshed(ctx context.Context, vault driving.CredentialVault, cred *domain.Credential, tok *oauth2.Token) {
	updated := oauthtoken.ToDomain(tok)
	payload, err := updated.Marshal()
	if err != nil {
		return
	}
	defer clear(payload)
	if err := vault.ReplaceToken(ctx, cred.ID, payload); err != nil {
		logger.Warn("could not persist refreshed token", "credential", cred.Name, "error", err)
	}
}

// BearerClient returns an HTTP client that sends accessToken on every
// request, layered over base's transport.
func BearerClient(ctx context.Context, base *http.Client, accessToken string) *http.Client {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
}
