// Package identity is the HTTP client for the external identity provider,
// the service of record for account credentials and user metadata.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrInvalidCredentials is returned when the provider rejects an
	// email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound is returned when no user record matches the lookup.
	ErrNotFound = errors.New("user not found")
)

// ProviderError is a non-success response from the provider that is not an
// authentication or not-found failure. The body snippet is for logs only
// and must never reach a user-facing page.
type ProviderError struct {
	Status int
	Body   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Body)
}

// User is a user record as held by the provider. Metadata carries
// free-form keys, at least "name".
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata"`
}

// Name returns the display name stored in the record's metadata.
func (u *User) Name() string {
	if u.Metadata == nil {
		return ""
	}
	name, _ := u.Metadata["name"].(string)
	return name
}

// UserUpdate carries the fields of an update-user-record call. Zero-value
// fields are omitted from the request.
type UserUpdate struct {
	Email    string         `json:"email,omitempty"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

// Client talks to the identity provider over HTTP. It performs no retries
// and applies no timeout beyond what the injected http.Client carries.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a provider client for the given base URL and API key.
// A nil httpClient gets a default with a 30s timeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    httpClient,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp creates a new account with the provider.
func (c *Client) SignUp(ctx context.Context, email, password string) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodPost, "/auth/v1/signup", nil, credentials{Email: email, Password: password}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SignInWithPassword authenticates an email/password pair. A rejected pair
// returns ErrInvalidCredentials.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*User, error) {
	var resp struct {
		User *User `json:"user"`
	}
	query := url.Values{"grant_type": {"password"}}
	err := c.do(ctx, http.MethodPost, "/auth/v1/token", query, credentials{Email: email, Password: password}, &resp)
	if err != nil {
		var perr *ProviderError
		if errors.As(err, &perr) && (perr.Status == http.StatusBadRequest || perr.Status == http.StatusUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if resp.User == nil {
		return nil, ErrInvalidCredentials
	}
	return resp.User, nil
}

// GetUser fetches a user record by id. An absent record returns ErrNotFound.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodGet, "/auth/v1/admin/users/"+url.PathEscape(id), nil, nil, &user)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &user, nil
}

// UpdateUser submits new email and/or metadata for a user record.
func (c *Client) UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error) {
	var user User
	err := c.do(ctx, http.MethodPut, "/auth/v1/admin/users/"+url.PathEscape(id), nil, update, &user)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return &user, nil
}

// FindUserByName looks up a user record whose metadata name equals the
// given display name. The first match wins; no match returns ErrNotFound.
func (c *Client) FindUserByName(ctx context.Context, name string) (*User, error) {
	var users []User
	query := url.Values{"name": {"eq." + name}, "select": {"*"}}
	err := c.do(ctx, http.MethodGet, "/rest/v1/auth_users", query, nil, &users)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return &users[0], nil
}

// do performs one provider request and decodes a 2xx response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProviderError{Status: resp.StatusCode, Body: snippet(resp.Body)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode provider response: %w", err)
		}
	}
	return nil
}

// notFoundOr maps a 404 provider response to ErrNotFound.
func notFoundOr(err error) error {
	var perr *ProviderError
	if errors.As(err, &perr) && perr.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}

func snippet(r io.Reader) string {
	const limit = 256
	data, _ := io.ReadAll(io.LimitReader(r, limit))
	return string(data)
}
