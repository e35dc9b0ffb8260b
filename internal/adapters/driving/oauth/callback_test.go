//nolint:noctx // Test file uses http.Get for convenience; context not required in tests
package oauth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tether/internal/core/domain"
)

func startServer(t *testing.T, state string) *CallbackServer {
	t.Helper()
	s := NewCallbackServer(state)
	require.NoError(t, s.Start(0, 0))
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func callbackURL(s *CallbackServer, params url.Values) string {
	return fmt.Sprintf("http://127.0.0.1:%d%s?%s", s.Port(), CallbackPath, params.Encode())
}

func TestCallbackServer_StartAndRedirectURI(t *testing.T) {
	s := startServer(t, "st")

	assert.NotZero(t, s.Port())
	assert.Equal(t, fmt.Sprintf("http://localhost:%d/callback", s.Port()), s.RedirectURI())
}

func TestCallbackServer_PicksFirstFreePortInRange(t *testing.T) {
	// Occupy one port and offer a range starting with it.
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	busyPort := busy.Addr().(*net.TCPAddr).Port

	s := NewCallbackServer("st")
	err = s.Start(busyPort, busyPort+20)
	if err != nil {
		t.Skipf("no free port near %d: %v", busyPort, err)
	}
	defer s.Stop()

	assert.Greater(t, s.Port(), busyPort)
}

func TestCallbackServer_NoPortAvailable(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	port := busy.Addr().(*net.TCPAddr).Port

	s := NewCallbackServer("st")
	err = s.Start(port, port)
	assert.ErrorIs(t, err, ErrNoPort)
}

func TestCallbackServer_DeliversCode(t *testing.T) {
	s := startServer(t, "expected-state")

	resp, err := http.Get(callbackURL(s, url.Values{"code": {"auth-code"}, "state": {"expected-state"}}))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	code, err := s.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "auth-code", code)
}

func TestCallbackServer_ServesExactlyOnce(t *testing.T) {
	s := startServer(t, "st")

	resp, err := http.Get(callbackURL(s, url.Values{"code": {"first"}, "state": {"st"}}))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(callbackURL(s, url.Values{"code": {"second"}, "state": {"st"}}))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusGone, resp.StatusCode)

	code, err := s.Wait(context.Background(), time.Second)
	require.NoError(t, err)
	assert.Equal(t, "first", code)
}

func TestCallbackServer_Failures(t *testing.T) {
	tests := []struct {
		name   string
		params url.Values
		want   string
	}{
		{"provider error", url.Values{"error": {"access_denied"}, "error_description": {"user said no"}}, "access_denied"},
		{"state mismatch", url.Values{"code": {"c"}, "state": {"wrong"}}, "state mismatch"},
		{"missing code", url.Values{"state": {"st"}}, "no authorization code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := startServer(t, "st")

			resp, err := http.Get(callbackURL(s, tt.params))
			require.NoError(t, err)
			resp.Body.Close()

			_, err = s.Wait(context.Background(), time.Second)
			assert.ErrorIs(t, err, domain.ErrAuthorizationFailed)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestCallbackServer_RejectsForeignHost(t *testing.T) {
	s := startServer(t, "st")

	req, err := http.NewRequest(http.MethodGet, callbackURL(s, url.Values{"code": {"c"}, "state": {"st"}}), nil)
	require.NoError(t, err)
	req.Host = "evil.example.com"

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The rejected request must not consume the single slot.
	resp, err = http.Get(callbackURL(s, url.Values{"code": {"c"}, "state": {"st"}}))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCallbackServer_Timeout(t *testing.T) {
	s := startServer(t, "st")

	_, err := s.Wait(context.Background(), 20*time.Millisecond)
	assert.ErrorIs(t, err, domain.ErrAuthorizationTimeout)
}

func TestCallbackServer_ContextCancelled(t *testing.T) {
	s := startServer(t, "st")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Wait(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCallbackServer_StopIdempotent(t *testing.T) {
	s := NewCallbackServer("st")
	assert.NoError(t, s.Stop(), "stop before start")

	require.NoError(t, s.Start(0, 0))
	assert.NoError(t, s.Stop())
	assert.NoError(t, s.Stop())
}

func TestCallbackServer_StopRightAfterStart(t *testing.T) {
	for i := 0; i < 200; i++ {
		s := NewCallbackServer("st")
		require.NoError(t, s.Start(0, 0))
		require.NoError(t, s.Stop())
	}
}

func TestCallbackServer_CancelledWaitThenStop(t *testing.T) {
	s := NewCallbackServer("st")
	require.NoError(t, s.Start(0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Wait(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, s.Stop())

	// The port is released once stopped.
	_, err = http.Get(s.RedirectURI())
	assert.Error(t, err)
}

func TestIsLoopbackHost(t *testing.T) {
	for host, want := range map[string]bool{
		"localhost:8443":   true,
		"LOCALHOST":        true,
		"127.0.0.1:8443":   true,
		"[::1]:8443":       true,
		"10.0.0.2:8443":    false,
		"example.com":      false,
		"localhost.evil:1": false,
	} {
		assert.Equal(t, want, isLoopbackHost(host), host)
	}
}
