package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func tokenEndpoint(t *testing.T, calls *int, accessToken string, expiresIn int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++

		if err := r.ParseForm(); err != nil {
			t.Errorf("Failed to parse grant form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("Expected client_credentials grant, got %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"` + accessToken + `","token_type":"Bearer","expires_in":` + strconv.Itoa(expiresIn) + `}`))
	}))
}

func TestTokenProvider_FetchesAndCaches(t *testing.T) {
	calls := 0
	server := tokenEndpoint(t, &calls, "tok-1", 3600)
	defer server.Close()

	state := newFakeState()
	provider := NewTokenProvider(server.URL, "client", "secret", "listings.read", state)

	token, err := provider.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken failed: %v", err)
	}
	if token != "tok-1" {
		t.Errorf("Expected tok-1, got %q", token)
	}

	// Second call must reuse the persisted token.
	token, err = provider.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("Second AccessToken failed: %v", err)
	}
	if token != "tok-1" {
		t.Errorf("Expected cached tok-1, got %q", token)
	}
	if calls != 1 {
		t.Errorf("Expected 1 grant request, got %d", calls)
	}
}

func TestTokenProvider_RefreshesNearExpiry(t *testing.T) {
	calls := 0
	// expires_in 20s is inside the 30s safety margin, so the cached
	// token is stale immediately.
	server := tokenEndpoint(t, &calls, "tok-short", 20)
	defer server.Close()

	state := newFakeState()
	provider := NewTokenProvider(server.URL, "client", "secret", "", state)

	if _, err := provider.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken failed: %v", err)
	}
	if _, err := provider.AccessToken(context.Background()); err != nil {
		t.Fatalf("Second AccessToken failed: %v", err)
	}

	if calls != 2 {
		t.Errorf("Expected a refetch for a near-expiry token, got %d grant requests", calls)
	}
}

func TestTokenProvider_SurvivesRestart(t *testing.T) {
	calls := 0
	server := tokenEndpoint(t, &calls, "tok-persist", 3600)
	defer server.Close()

	state := newFakeState()

	first := NewTokenProvider(server.URL, "client", "secret", "", state)
	if _, err := first.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken failed: %v", err)
	}

	// A new provider over the same state store simulates a process
	// restart.
	second := NewTokenProvider(server.URL, "client", "secret", "", state)
	token, err := second.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken after restart failed: %v", err)
	}
	if token != "tok-persist" {
		t.Errorf("Expected persisted token, got %q", token)
	}
	if calls != 1 {
		t.Errorf("Expected no refetch after restart, got %d grant requests", calls)
	}
}

func TestTokenProvider_GrantFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	provider := NewTokenProvider(server.URL, "client", "bad-secret", "", newFakeState())

	if _, err := provider.AccessToken(context.Background()); err == nil {
		t.Error("Expected error for rejected grant")
	}
}

func TestTokenProvider_Invalidate(t *testing.T) {
	calls := 0
	server := tokenEndpoint(t, &calls, "tok-x", 3600)
	defer server.Close()

	state := newFakeState()
	provider := NewTokenProvider(server.URL, "client", "secret", "", state)

	if _, err := provider.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken failed: %v", err)
	}
	if err := provider.Invalidate(); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if _, err := provider.AccessToken(context.Background()); err != nil {
		t.Fatalf("AccessToken after invalidate failed: %v", err)
	}

	if calls != 2 {
		t.Errorf("Expected a fresh grant after invalidate, got %d requests", calls)
	}
}

func TestTokenProvider_ExpiredCacheEntry(t *testing.T) {
	calls := 0
	server := tokenEndpoint(t, &calls, "tok-new", 3600)
	defer server.Close()

	state := newFakeState()
	state.Set("source.access_token", "tok-stale")
	state.SetTime("source.token_expiry", time.Now().Add(-time.Minute))

	provider := NewTokenProvider(server.URL, "client", "secret", "", state)

	token, err := provider.AccessToken(context.Background())
	if err != nil {
		t.Fatalf("AccessToken failed: %v", err)
	}
	if token != "tok-new" {
		t.Errorf("Expected fresh token over stale cache, got %q", token)
	}
}
