package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// CallbackResult is what the browser delivered to the redirect URL.
type CallbackResult struct {
	Code  string
	State string
}

// ErrStateMismatch is returned when the callback carries a foreign state.
var ErrStateMismatch = errors.New("oauth callback state does not match")

// CallbackServer receives the authorization code on the loopback redirect
// URL registered for the installed-app client.
type CallbackServer struct {
	listener net.Listener
	path     string
	state    string
	results  chan callbackOutcome
	srv      *http.Server
}

type callbackOutcome struct {
	res CallbackResult
	err error
}

// ListenCallback binds the host and port of redirectURL. Only loopback
// redirects are accepted since the listener must not be reachable remotely.
func ListenCallback(redirectURL, state string) (*CallbackServer, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URL %q: %w", redirectURL, err)
	}
	host := u.Hostname()
	if host != "localhost" && host != "127.0.0.1" && host != "::1" {
		return nil, fmt.Errorf("redirect URL %q is not a loopback address", redirectURL)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	l, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", u.Host, err)
	}

	cs := &CallbackServer{
		listener: l,
		path:     path,
		state:    state,
		results:  make(chan callbackOutcome, 1),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(path, cs.handle)
	cs.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		_ = cs.srv.Serve(l)
	}()
	return cs, nil
}

// Addr returns the bound listener address.
func (cs *CallbackServer) Addr() string {
	return cs.listener.Addr().String()
}

func (cs *CallbackServer) handle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var outcome callbackOutcome
	switch {
	case q.Get("error") != "":
		outcome.err = fmt.Errorf("authorization denied: %s", q.Get("error"))
	case q.Get("state") != cs.state:
		outcome.err = ErrStateMismatch
	case q.Get("code") == "":
		outcome.err = errors.New("callback carried no authorization code")
	default:
		outcome.res = CallbackResult{Code: q.Get("code"), State: q.Get("state")}
	}

	if outcome.err != nil {
		http.Error(w, outcome.err.Error(), http.StatusBadRequest)
	} else {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Authorization received. You can close this window.\n"))
	}

	select {
	case cs.results <- outcome:
	default:
	}
}

// Wait blocks until the first callback arrives or ctx is done, then shuts
// the listener down.
func (cs *CallbackServer) Wait(ctx context.Context) (CallbackResult, error) {
	defer cs.Close()

	select {
	case out := <-cs.results:
		return out.res, out.err
	case <-ctx.Done():
		return CallbackResult{}, ctx.Err()
	}
}

// Close stops the listener.
func (cs *CallbackServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return cs.srv.Shutdown(ctx)
}
