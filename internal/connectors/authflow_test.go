package connectors

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tether/internal/connectors/connectortest"
	"github.com/custodia-labs/tether/internal/core/domain"
)

type stateRecorder struct {
	mu     sync.Mutex
	states []domain.AuthState
}

func (r *stateRecorder) record(s domain.AuthState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) all() []domain.AuthState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuthState(nil), r.states...)
}

func newTestFlow(t *testing.T, p *connectortest.Provider, rec *stateRecorder) (*AuthFlow, *connectortest.Provider) {
	t.Helper()
	vault := connectortest.NewVault()
	cfg := AuthFlowConfig{
		Timeout:     5 * time.Second,
		OpenBrowser: p.Browser(t),
		HTTPClient:  p.Server.Client(),
	}
	if rec != nil {
		cfg.OnState = rec.record
	}
	return NewAuthFlow(vault, cfg), p
}

func TestAuthFlow_CreatesCredential(t *testing.T) {
	rec := &stateRecorder{}
	flow, p := newTestFlow(t, connectortest.NewProvider(t), rec)
	desc := p.Descriptor(domain.ServiceGoogleDrive)

	res, err := flow.Authenticate(context.Background(), desc, "work")
	require.NoError(t, err)

	assert.Equal(t, domain.AuthStateCreated, res.State)
	assert.Equal(t, "user-1", res.AccountID)
	assert.Equal(t, "work", res.Name)
	assert.NotZero(t, res.CredentialID)
	assert.Equal(t, []domain.AuthState{
		domain.AuthStateListenerStarting,
		domain.AuthStateAwaitingRedirect,
		domain.AuthStateExchangingCode,
		domain.AuthStateIdentityResolved,
		domain.AuthStateCreated,
	}, rec.all())

	service, token, err := flow.vault.RetrieveByName(context.Background(), "work")
	require.NoError(t, err)
	assert.Equal(t, domain.ServiceGoogleDrive, service)
	stored, err := domain.ParseOAuthToken(token)
	require.NoError(t, err)
	assert.Equal(t, "refresh-user-1", stored.RefreshToken)
}

func TestAuthFlow_ReauthorisingSameAccountUpdatesAndRenames(t *testing.T) {
	flow, p := newTestFlow(t, connectortest.NewProvider(t), nil)
	desc := p.Descriptor(domain.ServiceOneDrive)
	ctx := context.Background()

	first, err := flow.Authenticate(ctx, desc, "A")
	require.NoError(t, err)

	second, err := flow.Authenticate(ctx, desc, "B")
	require.NoError(t, err)

	assert.Equal(t, domain.AuthStateUpdated, second.State)
	assert.Equal(t, first.CredentialID, second.CredentialID)

	creds, err := flow.vault.ListByService(ctx, domain.ServiceOneDrive)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, "B", creds[0].Name)
	assert.Equal(t, "user-1", creds[0].AccountID)
}

func TestAuthFlow_DifferentAccountsCoexist(t *testing.T) {
	flow, p := newTestFlow(t, connectortest.NewProvider(t), nil)
	desc := p.Descriptor(domain.ServiceGoogleDrive)
	ctx := context.Background()

	_, err := flow.Authenticate(ctx, desc, "personal")
	require.NoError(t, err)
	p.SetIdentity("user-2", "user2@example.com")
	res, err := flow.Authenticate(ctx, desc, "work")
	require.NoError(t, err)
	assert.Equal(t, domain.AuthStateCreated, res.State)

	creds, err := flow.vault.ListByService(ctx, domain.ServiceGoogleDrive)
	require.NoError(t, err)
	assert.Len(t, creds, 2)
}

func TestAuthFlow_NameConflicts(t *testing.T) {
	p := connectortest.NewProvider(t)
	vault := connectortest.NewVault()
	connectortest.Seed(t, vault, domain.ServiceGoogleDrive, "taken", "someone")

	opened := 0
	flow := NewAuthFlow(vault, AuthFlowConfig{
		Timeout:     time.Second,
		OpenBrowser: func(string) error { opened++; return nil },
	})

	_, err := flow.Authenticate(context.Background(), p.Descriptor(domain.ServiceGoogleDrive), "taken")
	assert.ErrorIs(t, err, domain.ErrCredentialExists)

	_, err = flow.Authenticate(context.Background(), p.Descriptor(domain.ServiceOneDrive), "taken")
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	assert.Zero(t, opened, "browser must not open when the name is rejected")
}

func TestAuthFlow_Timeout(t *testing.T) {
	p := connectortest.NewProvider(t)
	rec := &stateRecorder{}
	flow := NewAuthFlow(connectortest.NewVault(), AuthFlowConfig{
		Timeout:     50 * time.Millisecond,
		OpenBrowser: func(string) error { return nil },
		OnState:     rec.record,
	})

	_, err := flow.Authenticate(context.Background(), p.Descriptor(domain.ServiceGoogleDrive), "slow")
	require.ErrorIs(t, err, domain.ErrAuthorizationTimeout)

	states := rec.all()
	require.NotEmpty(t, states)
	assert.Equal(t, domain.AuthStateFailed, states[len(states)-1])

	creds, err := flow.vault.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, creds)
}

func TestAuthFlow_RequiresClientID(t *testing.T) {
	p := connectortest.NewProvider(t)
	flow := NewAuthFlow(connectortest.NewVault(), DefaultAuthFlowConfig())
	desc := p.Descriptor(domain.ServiceGoogleDrive)
	desc.ClientID = ""

	_, err := flow.Authenticate(context.Background(), desc, "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
