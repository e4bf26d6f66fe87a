package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"

	"bulletin/models"
	"bulletin/services/board"
	"bulletin/services/tokenstore"
)

// countingHandler wraps a handler and counts requests reaching it.
type countingHandler struct {
	calls int64
	next  http.Handler
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&h.calls, 1)
	h.next.ServeHTTP(w, r)
}

func setupController(t *testing.T, handler http.Handler) (*Controller, *tokenstore.Store, *countingHandler) {
	t.Helper()
	counter := &countingHandler{next: handler}
	server := httptest.NewServer(counter)
	t.Cleanup(server.Close)

	tokens := tokenstore.New(afero.NewMemMapFs(), "/state")
	client := board.NewClient(server.URL, tokens)
	return NewController(tokens, client), tokens, counter
}

func TestResolve_NoTokenIsAnonymousWithoutNetwork(t *testing.T) {
	ctrl, _, counter := setupController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	if id := ctrl.Resolve(); id != nil {
		t.Errorf("expected anonymous, got %+v", id)
	}
	if n := atomic.LoadInt64(&counter.calls); n != 0 {
		t.Errorf("expected zero network calls, got %d", n)
	}
}

func TestResolve_RejectedTokenStaysStored(t *testing.T) {
	ctrl, tokens, _ := setupController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	tokens.Set("stale-token")

	if id := ctrl.Resolve(); id != nil {
		t.Errorf("expected anonymous, got %+v", id)
	}

	// The session is anonymous but the token survives: a transient
	// failure must not act like a logout.
	if token, ok := tokens.Get(); !ok || token != "stale-token" {
		t.Errorf("expected token to remain stored, got %q (present=%v)", token, ok)
	}
}

func TestResolve_AuthoritativeIdentity(t *testing.T) {
	ctrl, tokens, _ := setupController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Identity{ID: 5, Nickname: "tester"})
	}))
	tokens.Set("valid-token")

	id := ctrl.Resolve()
	if id == nil {
		t.Fatal("expected identity")
	}
	if id.ID != 5 || id.Nickname != "tester" {
		t.Errorf("unexpected identity: %+v", id)
	}
}

func TestRequireUser_NoToken(t *testing.T) {
	ctrl, _, _ := setupController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	_, err := ctrl.RequireUser()
	if !errors.Is(err, board.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRequireUser_StaleToken(t *testing.T) {
	ctrl, tokens, _ := setupController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	tokens.Set("stale")

	_, err := ctrl.RequireUser()
	if !errors.Is(err, ErrSessionInvalid) {
		t.Errorf("expected ErrSessionInvalid, got %v", err)
	}
}

func TestLogin_StoresToken(t *testing.T) {
	ctrl, tokens, _ := setupController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"accessToken": "fresh-token"})
	}))

	if err := ctrl.Login("test@example.com", "pass1234"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token, ok := tokens.Get(); !ok || token != "fresh-token" {
		t.Errorf("expected fresh-token stored, got %q (present=%v)", token, ok)
	}
}

func TestLogin_FailureLeavesStoreUntouched(t *testing.T) {
	ctrl, tokens, _ := setupController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))

	err := ctrl.Login("test@example.com", "wrong")
	var reqErr *board.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *board.RequestError, got %T", err)
	}
	if _, ok := tokens.Get(); ok {
		t.Error("failed login must not store a token")
	}
}

func TestLogout_ClearsToken(t *testing.T) {
	ctrl, tokens, _ := setupController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	tokens.Set("tok")

	if err := ctrl.Logout(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tokens.Get(); ok {
		t.Error("expected token cleared")
	}
}

func TestDecodedUserID_Advisory(t *testing.T) {
	ctrl, tokens, counter := setupController(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("decoding must not hit the network")
	}))
	// header/payload/signature with payload {"sub":42}
	tokens.Set("eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOjQyfQ.sig")

	id, ok := ctrl.DecodedUserID()
	if !ok || id != 42 {
		t.Errorf("expected 42, got %d (present=%v)", id, ok)
	}
	if n := atomic.LoadInt64(&counter.calls); n != 0 {
		t.Errorf("expected zero network calls, got %d", n)
	}
}
