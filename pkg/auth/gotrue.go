package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/forptiter/study-assistant/pkg/types"
)

// Client is a minimal GoTrue client covering the password flow.
type Client struct {
	endpoint string
	anonKey  string
	client   *http.Client
}

func NewClient(endpoint, anonKey string, timeout time.Duration) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		anonKey:  anonKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (s Session) ToUser(now time.Time) types.User {
	expiresAt := time.Unix(s.ExpiresAt, 0)
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		expiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return types.User{
		ID:           s.User.ID,
		Email:        s.User.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    expiresAt,
	}
}

// Error is the GoTrue error envelope; older versions use error/error_description.
type Error struct {
	StatusCode       int    `json:"-"`
	Code             any    `json:"code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorName        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *Error) Error() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.ErrorName} {
		if s != "" {
			return fmt.Sprintf("auth: %s (status %d)", s, e.StatusCode)
		}
	}
	return fmt.Sprintf("auth: unexpected status code: %d", e.StatusCode)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call auth service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		e := &Error{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(e)
		return e
	}

	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}
	return nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", credentials{email, password}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SignUp returns a session only when the project auto-confirms emails; otherwise
// the returned session has no access token and the user must confirm first.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/signup", "", credentials{email, password}, &raw); err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to decode auth response: %w", err)
	}
	if s.AccessToken == "" {
		// unconfirmed sign up returns the bare user object
		if err := json.Unmarshal(raw, &s.User); err != nil {
			return nil, fmt.Errorf("failed to decode auth response: %w", err)
		}
	}
	return &s, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var s Session
	in := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}
