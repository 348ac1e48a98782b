package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/sagepoint/listing-sync/app/database"
)

const (
	// tokenTimeout bounds the token endpoint request.
	tokenTimeout = 30 * time.Second
	// expirySafetyMargin keeps a token from being used right before it
	// dies mid-request.
	expirySafetyMargin = 30 * time.Second
)

// TokenProvider acquires an OAuth2 client-credentials bearer token and
// caches it through the state repository, so a valid token survives
// process restarts and is refreshed transparently near expiry.
type TokenProvider struct {
	conf  *clientcredentials.Config
	state database.StateRepository
	now   func() time.Time
}

func NewTokenProvider(tokenURL, clientID, clientSecret, scope string, state database.StateRepository) *TokenProvider {
	var scopes []string
	if scope != "" {
		scopes = []string{scope}
	}

	return &TokenProvider{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		},
		state: state,
		now:   time.Now,
	}
}

// AccessToken returns a valid bearer token, executing the grant when the
// cached token is absent or expired. A failed grant is logged and returned
// as an error; the caller must treat it as fatal for the batch.
func (p *TokenProvider) AccessToken(ctx context.Context) (string, error) {
	cached, err := p.cachedToken()
	if err != nil {
		slog.Warn("Failed to read cached token, refetching", "error", err)
	} else if cached != "" {
		return cached, nil
	}

	grantCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: tokenTimeout})

	token, err := p.conf.Token(grantCtx)
	if err != nil {
		slog.Error("Token grant failed", "endpoint", p.conf.TokenURL, "error", err)
		return "", fmt.Errorf("token grant failed: %w", err)
	}
	if token.AccessToken == "" {
		slog.Error("Token grant returned no access token", "endpoint", p.conf.TokenURL)
		return "", fmt.Errorf("token grant returned no access token")
	}

	if err := p.cacheToken(token); err != nil {
		// A cache write failure only costs an extra grant next batch.
		slog.Warn("Failed to cache token", "error", err)
	}

	return token.AccessToken, nil
}

// Invalidate drops the cached token so the next batch performs a fresh
// grant. Exposed as a maintenance task.
func (p *TokenProvider) Invalidate() error {
	if err := p.state.Delete(database.KeyAccessToken); err != nil {
		return err
	}
	return p.state.Delete(database.KeyTokenExpiry)
}

func (p *TokenProvider) cachedToken() (string, error) {
	token, err := p.state.Get(database.KeyAccessToken)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", nil
	}

	expiry, err := p.state.GetTime(database.KeyTokenExpiry)
	if err != nil {
		return "", err
	}
	if expiry == nil || !p.now().Before(*expiry) {
		return "", nil
	}

	return token, nil
}

func (p *TokenProvider) cacheToken(token *oauth2.Token) error {
	if err := p.state.Set(database.KeyAccessToken, token.AccessToken); err != nil {
		return err
	}

	expiry := token.Expiry
	if expiry.IsZero() {
		// No expires_in in the grant; treat the token as already stale
		// so every batch refetches rather than running on a dead token.
		expiry = p.now()
	}

	return p.state.SetTime(database.KeyTokenExpiry, expiry.Add(-expirySafetyMargin))
}
