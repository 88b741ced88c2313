// Package authapi is the HTTP client for the remote Auth API.  Every non-2xx
// answer becomes an *APIError carrying the server's message; transport
// failures are returned wrapped as they are.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oakline/storefront/internal/model"
)

// APIError is a non-2xx response from the Auth API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth api: status %d", e.Status)
	}
	return fmt.Sprintf("auth api: status %d: %s", e.Status, e.Message)
}

// AuthResponse is the body of login and register responses.  Register may
// omit both fields.
type AuthResponse struct {
	Token string
	User  *model.User
}

// Client talks to the Auth API rooted at BaseURL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for baseURL.  timeout bounds every request; zero
// means no client-side limit.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type credentialsReq struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	Token string    `json:"token"`
	User  *wireUser `json:"user"`
}

type userResp struct {
	User *wireUser `json:"user"`
}

// Login posts credentials and returns the issued token and user.
func (c *Client) Login(ctx context.Context, identifier, secret string) (AuthResponse, error) {
	var out authResp
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", credentialsReq{Email: identifier, Password: secret}, &out); err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{Token: out.Token, User: out.User.model()}, nil
}

// Register creates an account.  The token is present only when the server
// logs the new account in straight away.
func (c *Client) Register(ctx context.Context, name, identifier, secret string) (AuthResponse, error) {
	var out authResp
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", credentialsReq{Name: name, Email: identifier, Password: secret}, &out); err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{Token: out.Token, User: out.User.model()}, nil
}

// Profile returns the user the token belongs to.
func (c *Client) Profile(ctx context.Context, token string) (model.User, error) {
	var out userResp
	if err := c.do(ctx, http.MethodGet, "/auth/profile", token, nil, &out); err != nil {
		return model.User{}, err
	}
	if out.User == nil {
		return model.User{}, errors.New("auth api: profile response without user")
	}
	return *out.User.model(), nil
}

// UpdateProfile renames the token's user.
func (c *Client) UpdateProfile(ctx context.Context, name, token string) (model.User, error) {
	var out userResp
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPut, "/auth/profile", token, body, &out); err != nil {
		return model.User{}, err
	}
	if out.User == nil {
		return model.User{}, errors.New("auth api: profile response without user")
	}
	return *out.User.model(), nil
}

// ChangePassword replaces the token user's password.
func (c *Client) ChangePassword(ctx context.Context, current, next, token string) error {
	body := map[string]string{"current_password": current, "new_password": next}
	return c.do(ctx, http.MethodPut, "/auth/password", token, body, nil)
}

// ForgotPassword requests a reset email.
func (c *Client) ForgotPassword(ctx context.Context, identifier string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": identifier}, nil)
}

// ResetPassword sets a new password using an emailed reset token.
func (c *Client) ResetPassword(ctx context.Context, resetToken, secret string) error {
	body := map[string]string{"token": resetToken, "password": secret}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", "", body, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("auth api: encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("auth api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("auth api: decode response: %w", err)
	}
	return nil
}

// errorMessage reads {"error": "..."} or {"message": "..."} from an error body.
func errorMessage(r io.Reader) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
