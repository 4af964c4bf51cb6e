package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/schedule/internal/instrumentation"
	"github.com/teemow/schedule/internal/logging"
)

// Variant names how a session was obtained
type Variant string

const (
	// VariantCachedValid reuses a stored token that has not expired
	VariantCachedValid Variant = "cached-valid"
	// VariantRefreshed exchanges the stored refresh token for a new access token
	VariantRefreshed Variant = "refreshed"
	// VariantInteractive runs the browser consent flow
	VariantInteractive Variant = "interactive"
)

// AuthConfig configures an Authenticator
type AuthConfig struct {
	// CredentialsFile is the installed-app client secret JSON downloaded from the Google console
	CredentialsFile string

	// Store persists the token. Required.
	Store TokenStore

	// Prompter runs the interactive login. Nil disables it.
	Prompter Prompter

	// Scopes defaults to DefaultOAuthScopes
	Scopes []string

	// Metrics records session acquisitions. Nil disables recording.
	Metrics *instrumentation.Metrics

	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

// Session is an authenticated connection to Google APIs
type Session struct {
	// Client refreshes its access token automatically
	Client      *http.Client
	TokenSource oauth2.TokenSource
	Token       *oauth2.Token
	Variant     Variant
}

// Authenticator produces Sessions from cached, refreshed or freshly granted tokens
type Authenticator struct {
	conf     *oauth2.Config
	store    TokenStore
	prompter Prompter
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// NewAuthenticator reads the client secret and prepares the OAuth2 configuration
func NewAuthenticator(cfg AuthConfig) (*Authenticator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("token store cannot be nil")
	}

	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, &AuthError{Op: OpLoadCredentials, Err: fmt.Errorf("unable to read client secret file: %w", err)}
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}

	conf, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, &AuthError{Op: OpLoadCredentials, Err: fmt.Errorf("unable to parse client secret file: %w", err)}
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Authenticator{
		conf:     conf,
		store:    cfg.Store,
		prompter: cfg.Prompter,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Authenticate returns a session, trying the cached token first, then a refresh,
// then the interactive login. New or refreshed tokens are persisted.
func (a *Authenticator) Authenticate(ctx context.Context) (*Session, error) {
	ctx, span := instrumentation.StartSpan(ctx, "oauth.session")
	defer span.End()

	session, variant, err := a.authenticate(ctx)

	result := instrumentation.OAuthResultSuccess
	if err != nil {
		result = instrumentation.OAuthResultFailure
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	span.SetAttributes(attribute.String(instrumentation.SpanAttrVariant, string(variant)))
	a.metrics.RecordOAuthAuth(ctx, string(variant), result)

	if err != nil {
		a.logger.DebugContext(ctx, "authentication failed", logging.Variant(string(variant)), logging.Err(err))
		return nil, err
	}

	a.logger.DebugContext(ctx, "authenticated", logging.Variant(string(variant)))
	return session, nil
}

func (a *Authenticator) authenticate(ctx context.Context) (*Session, Variant, error) {
	token, err := a.store.Load()
	switch {
	case errors.Is(err, ErrNoToken):
		token = nil
	case err != nil:
		return nil, "", &AuthError{Op: OpLoadToken, Err: err}
	}

	var variant Variant
	switch {
	case token != nil && token.Valid():
		variant = VariantCachedValid

	case token != nil && token.RefreshToken != "":
		fresh, err := a.conf.TokenSource(ctx, token).Token()
		if err == nil {
			variant = VariantRefreshed
			token = fresh
			break
		}
		a.logger.WarnContext(ctx, "Cached token could not be refreshed", logging.Err(err))
	}

	if variant == "" {
		variant = VariantInteractive
		if a.prompter == nil {
			return nil, variant, &AuthError{Op: OpInteractive, Err: ErrNotInteractive}
		}
		token, err = a.prompter.Prompt(ctx, a.conf)
		if err != nil {
			return nil, variant, &AuthError{Op: OpInteractive, Err: err}
		}
	}

	if variant != VariantCachedValid {
		if err := a.store.Save(token); err != nil {
			return nil, variant, &AuthError{Op: OpSaveToken, Err: err}
		}
	}

	ts := a.conf.TokenSource(ctx, token)
	return &Session{
		Client:      oauth2.NewClient(ctx, ts),
		TokenSource: ts,
		Token:       token,
		Variant:     variant,
	}, variant, nil
}
