package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/forptiter/study-assistant/pkg/types"
)

// Client talks to the chat backend: streamed chat, file upload/delete and the agent list.
type Client struct {
	endpoint string
	// client is used for bounded calls, stream has no timeout because a reply
	// may legitimately take minutes.
	client *http.Client
	stream *http.Client
}

type Option func(*Client)

func WithHTTPClient(cli *http.Client) Option {
	return func(c *Client) {
		c.client = cli
		c.stream = cli
	}
}

func New(endpoint string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
		stream:   &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned for any non-success response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d, %s", e.StatusCode, e.Body)
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
}

func ok(code int) bool {
	return code >= 200 && code < 300
}

// Chat posts the request and returns the open reply stream. The caller must Close it.
func (c *Client) Chat(ctx context.Context, payload types.ChatRequest) (*Stream, error) {
	payload.Stream = true
	if payload.ConversationHistory == nil {
		payload.ConversationHistory = []types.Message{}
	}
	if payload.FileIDs == nil {
		payload.FileIDs = []string{}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send chat request: %w", err)
	}

	if !ok(resp.StatusCode) {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}

	return NewResponseStream(resp), nil
}

type UploadFileArgs struct {
	UserID   string
	SpaceID  string
	Filename string
	Body     io.Reader
}

func (c *Client) UploadFile(ctx context.Context, args UploadFileArgs) (*types.UploadFileResponse, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			part, err := writer.CreateFormFile("file", args.Filename)
			if err != nil {
				return err
			}
			if _, err = io.Copy(part, args.Body); err != nil {
				return err
			}
			if err = writer.WriteField("user_id", args.UserID); err != nil {
				return err
			}
			if args.SpaceID != "" {
				if err = writer.WriteField("space_id", args.SpaceID); err != nil {
					return err
				}
			}
			return writer.Close()
		}()
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/file/upload", pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		return nil, statusError(resp)
	}

	var res types.UploadFileResponse
	if err = json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if res.FileID == "" {
		if res.Error != "" {
			return nil, fmt.Errorf("upload rejected: %s", res.Error)
		}
		return nil, fmt.Errorf("upload response has no file_id")
	}
	if res.Filename == "" {
		res.Filename = args.Filename
	}
	return &res, nil
}

func (c *Client) DeleteFile(ctx context.Context, fileID, userID string) error {
	u := fmt.Sprintf("%s/file/%s?user_id=%s", c.endpoint, url.PathEscape(fileID), url.QueryEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		return statusError(resp)
	}
	return nil
}

func (c *Client) ListAgents(ctx context.Context) ([]types.Agent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/agents", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		return nil, statusError(resp)
	}

	var res types.AgentList
	if err = json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode agent list: %w", err)
	}
	return res.Agents, nil
}
