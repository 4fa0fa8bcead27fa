package drive

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gdrive "google.golang.org/api/drive/v3"
)

const callbackPath = "/callback"

func NewOAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gdrive.DriveReadonlyScope},
	}
}

// LoopbackAuthorizer runs the installed-app OAuth flow: it serves the redirect on
// 127.0.0.1 and exchanges the returned code for a token.
type LoopbackAuthorizer struct {
	cfg  *oauth2.Config
	port int
	// Open shows the consent URL to the user, e.g. by printing it.
	Open func(authURL string) error
}

func NewLoopbackAuthorizer(cfg *oauth2.Config, port int, open func(string) error) *LoopbackAuthorizer {
	return &LoopbackAuthorizer{cfg: cfg, port: port, Open: open}
}

type callbackResult struct {
	code string
	err  error
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (a *LoopbackAuthorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", a.port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for oauth callback: %w", err)
	}

	cfg := *a.cfg
	cfg.RedirectURL = fmt.Sprintf("http://%s%s", ln.Addr().String(), callbackPath)

	state, err := randomState()
	if err != nil {
		ln.Close()
		return nil, err
	}

	results := make(chan callbackResult, 1)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET(callbackPath, func(c *gin.Context) {
		if c.Query("state") != state {
			c.String(http.StatusBadRequest, "state mismatch")
			return
		}
		var res callbackResult
		if e := c.Query("error"); e != "" {
			res.err = fmt.Errorf("authorization denied: %s", e)
			c.String(http.StatusOK, "Authorization failed, you can close this window.")
		} else {
			res.code = c.Query("code")
			c.String(http.StatusOK, "Google Drive connected, you can close this window.")
		}
		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{Handler: engine, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("oauth callback server stopped", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err = a.Open(cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := cfg.Exchange(ctx, res.code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
		}
		return tok, nil
	}
}

func LoadToken(path string) (*oauth2.Token, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{}
	if err = json.Unmarshal(raw, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}
