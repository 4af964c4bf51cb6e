package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"golang.org/x/oauth2"

	"github.com/teemow/schedule/internal/logging"
)

const callbackPath = "/callback"

const successPage = `<html>
	<head><title>Authentication Successful</title></head>
	<body>
		<h1>Authentication Successful!</h1>
		<p>You can close this window and return to the terminal.</p>
	</body>
</html>
`

// Prompter obtains a new token with the user's consent
type Prompter interface {
	Prompt(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error)
}

// LoopbackPrompter runs the installed-app flow: it listens on a random
// 127.0.0.1 port, sends the user to the consent page and exchanges the code
// delivered to the redirect URL.
type LoopbackPrompter struct {
	// Out receives the instructions and the consent URL. Defaults to os.Stderr.
	Out io.Writer

	// OpenBrowser opens the consent URL. Defaults to the platform opener.
	OpenBrowser func(url string) error

	// IsTerminal reports whether a user is present. Defaults to checking stdin.
	IsTerminal func() bool

	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

type callbackResult struct {
	code string
	err  error
}

// Prompt implements Prompter
func (p *LoopbackPrompter) Prompt(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	isTerminal := p.IsTerminal
	if isTerminal == nil {
		isTerminal = stdinIsTerminal
	}
	if !isTerminal() {
		return nil, ErrNotInteractive
	}

	out := p.Out
	if out == nil {
		out = os.Stderr
	}
	open := p.OpenBrowser
	if open == nil {
		open = openBrowser
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start callback listener: %w", err)
	}

	// The redirect URL depends on the port, so work on a copy
	c := *conf
	c.RedirectURL = "http://" + ln.Addr().String() + callbackPath

	state := uuid.NewString()
	results := make(chan callbackResult, 1)
	deliver := func(r callbackResult) {
		select {
		case results <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("state mismatch in OAuth callback")})
		case q.Get("error") != "":
			http.Error(w, "authorization failed: "+q.Get("error"), http.StatusBadRequest)
			deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
		case q.Get("code") == "":
			http.Error(w, "no authorization code received", http.StatusBadRequest)
			deliver(callbackResult{err: errors.New("no authorization code in OAuth callback")})
		default:
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = io.WriteString(w, successPage)
			deliver(callbackResult{code: q.Get("code")})
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("OAuth callback server stopped", logging.Err(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := c.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Opening browser for authentication...\nIf the browser doesn't open automatically, visit:\n%s\n", authURL)
	if err := open(authURL); err != nil {
		logger.Warn("Failed to open browser", logging.Err(err))
	}
	fmt.Fprintln(out, "Waiting for authentication...")

	var res callbackResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-results:
	}
	if res.err != nil {
		return nil, res.err
	}

	token, err := c.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}

	return token, nil
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// openBrowser tries to open the URL in a browser
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}
