// Package backend is the HTTP client for the dashboard REST API (login,
// privileges, profile and user administration).
package backend

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

	"github.com/rs/zerolog"

	"github.com/caparizon/qa-dashboard/internal/core/domain"
	"github.com/caparizon/qa-dashboard/internal/core/ports"
	"github.com/caparizon/qa-dashboard/internal/pkg/schema"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client implements ports.AuthBackend and ports.UserAdminBackend.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

var (
	_ ports.AuthBackend      = (*Client)(nil)
	_ ports.UserAdminBackend = (*Client)(nil)
)

// NewClient returns a client for baseURL. Every request is bounded by timeout;
// a non-positive timeout uses defaultTimeout.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User json.RawMessage `json:"user"`
}

type privilegesResponse struct {
	Privileges map[string]bool `json:"privileges"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Login posts the credentials. Any 4xx is reported as
// domain.ErrInvalidCredentials; the backend's finer distinction is dropped.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Identity, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/login", loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return domain.Identity{}, domain.ErrInvalidCredentials
		}
		return domain.Identity{}, fmt.Errorf("login: %w", err)
	}
	return decodeIdentity(resp.User)
}

// FetchPrivileges returns the identity's privilege map. A reply without a
// privileges field yields an empty set.
func (c *Client) FetchPrivileges(ctx context.Context, identityID int64) (domain.PrivilegeSet, error) {
	var resp privilegesResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/privileges/%d", identityID), nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch privileges: %w", err)
	}
	return domain.PrivilegeSet(resp.Privileges).Clone(), nil
}

func (c *Client) UpdateIdentity(ctx context.Context, identityID int64, patch domain.IdentityPatch) (domain.Identity, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/user/%d", identityID), patch, &raw); err != nil {
		return domain.Identity{}, fmt.Errorf("update identity: %w", err)
	}
	return decodeIdentity(raw)
}

func (c *Client) RequestPasswordReset(ctx context.Context, username string) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/api/forgot-password", map[string]string{"username": username}, &resp); err != nil {
		return "", fmt.Errorf("password reset: %w", err)
	}
	return resp.Message, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.Identity, error) {
	var raw []json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &raw); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.Identity, 0, len(raw))
	for _, r := range raw {
		id, err := decodeIdentity(r)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, id)
	}
	return users, nil
}

// CreateUser posts a new account. The backend replies 201 with the created
// identity or 400 with a message such as a duplicate employee id.
func (c *Client) CreateUser(ctx context.Context, user domain.NewUser) (domain.Identity, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/users", user, &raw); err != nil {
		return domain.Identity{}, fmt.Errorf("create user: %w", err)
	}
	return decodeIdentity(raw)
}

func (c *Client) SetPrivileges(ctx context.Context, identityID int64, grants []ports.PrivilegeGrant) error {
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/user-privileges/%d", identityID), grants, nil); err != nil {
		return fmt.Errorf("set privileges: %w", err)
	}
	return nil
}

func (c *Client) DeleteUser(ctx context.Context, identityID int64) error {
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/users/%d", identityID), nil, nil)
	var ve *domain.ValidationError
	if errors.As(err, &ve) && ve.Status == http.StatusNotFound {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// decodeIdentity rejects null, non-object and structurally invalid identities.
func decodeIdentity(raw json.RawMessage) (domain.Identity, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return domain.Identity{}, fmt.Errorf("%w: user is not an object", domain.ErrDeserialization)
	}
	var id domain.Identity
	if err := json.Unmarshal(trimmed, &id); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: user: %v", domain.ErrDeserialization, err)
	}
	if err := schema.Identity(id); err != nil {
		return domain.Identity{}, err
	}
	return id, nil
}

// do sends one JSON request. Transport failures and 5xx wrap
// domain.ErrBackendUnavailable, other non-2xx replies become
// *domain.ValidationError, and undecodable bodies wrap
// domain.ErrDeserialization.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("backend request failed")
		return fmt.Errorf("%w: %s %s: %v", domain.ErrBackendUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", domain.ErrBackendUnavailable, method, path, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, payload)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrDeserialization, method, path, err)
	}
	return nil
}

func statusError(code int, payload []byte) error {
	var env struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(payload, &env)
	msg := env.Error
	if msg == "" {
		msg = http.StatusText(code)
	}
	if code >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d: %s", domain.ErrBackendUnavailable, code, msg)
	}
	return &domain.ValidationError{Status: code, Message: msg}
}
