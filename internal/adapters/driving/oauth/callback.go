// Package oauth provides the loopback redirect listener and browser launcher
// used by the interactive authorization flow.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/tether/internal/core/domain"
)

// CallbackPath is the path the provider redirects to.
const CallbackPath = "/callback"

// ErrNoPort is returned when every port in the configured range is taken.
var ErrNoPort = errors.New("oauth: no available loopback port")

// CallbackServer receives a single OAuth redirect on the loopback interface.
//
// The first request to CallbackPath is the only one processed; its result is
// delivered on a channel owned by this server, so concurrent authorization
// attempts never observe each other's codes.
type CallbackServer struct {
	mu            sync.Mutex
	port          int
	expectedState string
	result        chan callbackResult
	served        bool
	server        *http.Server
	listener      net.Listener
}

type callbackResult struct {
	code string
	err  error
}

// NewCallbackServer creates a listener expecting the given state parameter.
func NewCallbackServer(expectedState string) *CallbackServer {
	return &CallbackServer{
		expectedState: expectedState,
		result:        make(chan callbackResult, 1),
	}
}

// Start binds the first free port in [startPort, endPort] on 127.0.0.1 and
// begins serving. A zero startPort binds an ephemeral port.
func (s *CallbackServer) Start(startPort, endPort int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("oauth: callback server already started")
	}

	listener, err := listenInRange(startPort, endPort)
	if err != nil {
		return err
	}
	s.listener = listener
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, s.handleCallback)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	s.server = srv

	// Stop may clear s.server before this goroutine runs.
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.deliver(callbackResult{err: fmt.Errorf("oauth: callback server: %w", err)})
		}
	}()

	return nil
}

func listenInRange(startPort, endPort int) (net.Listener, error) {
	if startPort == 0 {
		return net.Listen("tcp", "127.0.0.1:0")
	}
	for port := startPort; port <= endPort; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w in range %d-%d", ErrNoPort, startPort, endPort)
}

// handleCallback processes the OAuth redirect.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if !isLoopbackHost(r.Host) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	s.mu.Lock()
	if s.served {
		s.mu.Unlock()
		http.Error(w, "authorization already handled", http.StatusGone)
		return
	}
	s.served = true
	s.mu.Unlock()

	q := r.URL.Query()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	// Check for error from provider
	if errParam := q.Get("error"); errParam != "" {
		desc := q.Get("error_description")
		s.deliver(callbackResult{err: fmt.Errorf("%w: %s %s", domain.ErrAuthorizationFailed, errParam, desc)})
		fmt.Fprint(w, resultHTML("Authorization failed", html.EscapeString(errParam+": "+desc)))
		return
	}

	if q.Get("state") != s.expectedState {
		s.deliver(callbackResult{err: fmt.Errorf("%w: state mismatch", domain.ErrAuthorizationFailed)})
		fmt.Fprint(w, resultHTML("Authorization failed", "Invalid state parameter."))
		return
	}

	code := q.Get("code")
	if code == "" {
		s.deliver(callbackResult{err: fmt.Errorf("%w: no authorization code received", domain.ErrAuthorizationFailed)})
		fmt.Fprint(w, resultHTML("Authorization failed", "No authorization code received."))
		return
	}

	s.deliver(callbackResult{code: code})
	fmt.Fprint(w, resultHTML("Authorization successful", "You can close this window and return to Tether."))
}

func (s *CallbackServer) deliver(r callbackResult) {
	select {
	case s.result <- r:
	default:
	}
}

// Wait blocks until the redirect arrives, ctx is cancelled or timeout elapses.
// A timeout returns domain.ErrAuthorizationTimeout.
func (s *CallbackServer) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-s.result:
		return r.code, r.err
	case <-timer.C:
		return "", domain.ErrAuthorizationTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Stop shuts down the listener. It is safe to call more than once.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	// Shutdown only closes listeners Serve has picked up.
	_ = s.listener.Close()
	s.server = nil
	return err
}

// Port returns the bound port, or zero before Start.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// RedirectURI returns the redirect URI to register with the provider.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d%s", s.Port(), CallbackPath)
}

// isLoopbackHost accepts only Host headers naming the local machine.
func isLoopbackHost(hostport string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func resultHTML(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>Tether - %[1]s</title>
    <style>
        body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; display: flex;
               justify-content: center; align-items: center; height: 100vh; margin: 0; background: #F6F7F9; }
        .card { text-align: center; background: white; padding: 40px 56px; border-radius: 12px;
                border: 1px solid #D5D8DD; }
        h1 { color: #27303F; margin: 0 0 8px 0; font-size: 22px; }
        p { color: #6B7380; margin: 0; }
    </style>
</head>
<body>
    <div class="card">
        <h1>%[1]s</h1>
        <p>%[2]s</p>
    </div>
</body>
</html>`, title, message)
}

// OpenBrowser opens the default browser to the given URL.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
