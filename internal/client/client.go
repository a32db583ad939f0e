// Package client provides a typed HTTP client for the Taskdeck API.
// It is used by the terminal UI and the end-to-end test suite.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/internal/handler/dto"
)

const (
	// ClientTimeout is the total request timeout.
	ClientTimeout = 30 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 10 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 15 * time.Second

	userAgent = "Taskdeck-Client/1.0"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// IsNotFound reports whether the server returned 404.
func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsUnauthorized reports whether the server returned 401.
func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

// Client talks to a Taskdeck API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token used for authenticated requests.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newHTTPClient creates an HTTP client with production timeouts.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// SetToken replaces the bearer token after a successful login.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current bearer token.
func (c *Client) Token() string { return c.token }

// Login exchanges credentials for an access token and stores it on the
// client. The endpoint accepts form-encoded OAuth2 password-grant
// fields, so the email travels in "username".
func (c *Client) Login(ctx context.Context, email, password string) (*dto.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	var token dto.TokenResponse
	if err := c.send(req, http.StatusOK, &token); err != nil {
		return nil, err
	}

	c.token = token.AccessToken
	return &token, nil
}

// Logout revokes the current token and clears it from the client.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/logout", nil, http.StatusNoContent, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, email, password string) (*dto.UserResponse, error) {
	body := dto.RegisterRequest{Email: email, Password: password}
	var user dto.UserResponse
	if err := c.do(ctx, http.MethodPost, "/users/", body, http.StatusCreated, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Me returns the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*dto.UserResponse, error) {
	var user dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/users/me/", nil, http.StatusOK, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// MyTodos returns the authenticated user's todos.
func (c *Client) MyTodos(ctx context.Context, skip, limit int) ([]dto.TodoResponse, error) {
	var todos []dto.TodoResponse
	path := paginated("/users/me/todos/", skip, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// CreateTodo creates a todo owned by the authenticated user.
func (c *Client) CreateTodo(ctx context.Context, title, description string) (*dto.TodoResponse, error) {
	body := dto.CreateTodoRequest{Title: title, Description: description}
	var todo dto.TodoResponse
	if err := c.do(ctx, http.MethodPost, "/todos/", body, http.StatusCreated, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// ListTodos returns the authenticated user's todos.
func (c *Client) ListTodos(ctx context.Context, skip, limit int) ([]dto.TodoResponse, error) {
	var todos []dto.TodoResponse
	path := paginated("/todos/", skip, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// GetTodo returns a single todo with its owner embedded.
func (c *Client) GetTodo(ctx context.Context, id string) (*dto.TodoWithOwnerResponse, error) {
	var todo dto.TodoWithOwnerResponse
	if err := c.do(ctx, http.MethodGet, "/todos/"+url.PathEscape(id), nil, http.StatusOK, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// UpdateTodo applies a partial update to a todo.
func (c *Client) UpdateTodo(ctx context.Context, id string, update dto.UpdateTodoRequest) (*dto.TodoResponse, error) {
	var todo dto.TodoResponse
	if err := c.do(ctx, http.MethodPut, "/todos/"+url.PathEscape(id), update, http.StatusOK, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// DeleteTodo deletes a todo.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, http.StatusNoContent, nil)
}

// ListUsers returns all users. Requires an admin token.
func (c *Client) ListUsers(ctx context.Context, skip, limit int) ([]dto.UserResponse, error) {
	var users []dto.UserResponse
	path := paginated("/users/", skip, limit)
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns a user with their todos. Requires an admin token.
func (c *Client) GetUser(ctx context.Context, id string) (*dto.UserWithTodosResponse, error) {
	var user dto.UserWithTodosResponse
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, http.StatusOK, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// do builds a JSON request, sends it, and decodes the response into out.
func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", userAgent)

	return c.send(req, wantStatus, out)
}

// send executes the request and maps error bodies to APIError.
func (c *Client) send(req *http.Request, wantStatus int, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return decodeAPIError(resp)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeAPIError reads an error body into an APIError.
// Bodies that are not the standard error shape still produce a usable error.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return apiErr
	}

	var body dto.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}

	return apiErr
}

// paginated appends skip/limit query parameters when set.
func paginated(path string, skip, limit int) string {
	query := url.Values{}
	if skip > 0 {
		query.Set("skip", fmt.Sprintf("%d", skip))
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
