package identityapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainerrors "gatekeeper/contexts/identity-access/account-service/domain/errors"
	"gatekeeper/contexts/identity-access/account-service/ports"
	tokenports "gatekeeper/contexts/identity-access/token-service/ports"
)

const serviceSubject = "account-service"

// Client is the HTTP implementation of the internal identity API consumed by
// the trust boundary. Tokens here are opaque action tokens minted by the
// identity-of-record service; this client never inspects them.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     ports.TokenCodec // optional: mints outbound service tokens
	serviceTTL time.Duration
	logger     *slog.Logger
}

// NewClient builds a trust client. The timeout bounds every call so the auth
// boundary fails fast instead of hanging on a sick identity service. A nil
// codec disables outbound service tokens.
func NewClient(baseURL string, timeout time.Duration, tokens ports.TokenCodec, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		serviceTTL: 2 * time.Minute,
		logger:     logger,
	}
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createUserResponse struct {
	UserID int64 `json:"userId"`
}

type validateCredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type validateCredentialsResponse struct {
	UserID int64    `json:"userId"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
}

type userInfoResponse struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
}

type userRolesResponse struct {
	Roles []string `json:"roles"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type passwordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type verificationConfirmRequest struct {
	Token string `json:"token"`
}

func (c *Client) CreateUser(ctx context.Context, name string, email string, password string) (ports.RegisteredUser, error) {
	var out createUserResponse
	err := c.call(ctx, http.MethodPost, "/internal/v1/users", createUserRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, &out)
	if err != nil {
		return ports.RegisteredUser{}, err
	}
	return ports.RegisteredUser{UserID: out.UserID}, nil
}

func (c *Client) ValidateCredentials(ctx context.Context, email string, password string) (ports.CredentialIdentity, error) {
	var out validateCredentialsResponse
	err := c.call(ctx, http.MethodPost, "/internal/v1/credentials/validate", validateCredentialsRequest{
		Email:    email,
		Password: password,
	}, &out)
	if err != nil {
		return ports.CredentialIdentity{}, err
	}
	return ports.CredentialIdentity{
		UserID: out.UserID,
		Email:  out.Email,
		Name:   out.Name,
		Roles:  out.Roles,
	}, nil
}

func (c *Client) GetUserInfo(ctx context.Context, userID int64) (ports.UserInfo, error) {
	var out userInfoResponse
	err := c.call(ctx, http.MethodGet, fmt.Sprintf("/internal/v1/users/%d", userID), nil, &out)
	if err != nil {
		return ports.UserInfo{}, err
	}
	return ports.UserInfo{
		ID:            out.ID,
		Email:         out.Email,
		Name:          out.Name,
		EmailVerified: out.EmailVerified,
		CreatedAt:     out.CreatedAt,
	}, nil
}

func (c *Client) GetUserRoles(ctx context.Context, userID int64) ([]string, error) {
	var out userRolesResponse
	err := c.call(ctx, http.MethodGet, fmt.Sprintf("/internal/v1/users/%d/roles", userID), nil, &out)
	if err != nil {
		return nil, err
	}
	return out.Roles, nil
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.call(ctx, http.MethodPost, "/internal/v1/password-reset/request", emailRequest{Email: email}, nil)
}

func (c *Client) ConfirmPasswordReset(ctx context.Context, resetToken string, newPassword string) error {
	return c.call(ctx, http.MethodPost, "/internal/v1/password-reset/confirm", passwordResetConfirmRequest{
		Token:       resetToken,
		NewPassword: newPassword,
	}, nil)
}

func (c *Client) RequestEmailVerification(ctx context.Context, email string) error {
	return c.call(ctx, http.MethodPost, "/internal/v1/email-verification/request", emailRequest{Email: email}, nil)
}

func (c *Client) ConfirmEmailVerification(ctx context.Context, verificationToken string) error {
	return c.call(ctx, http.MethodPost, "/internal/v1/email-verification/confirm", verificationConfirmRequest{
		Token: verificationToken,
	}, nil)
}

func (c *Client) call(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		serviceToken, err := c.tokens.Issue(serviceSubject, []string{"service"}, tokenports.TokenTypeAccess, c.serviceTTL)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+serviceToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("identity api call failed",
			"event", "identity_api_call_failed",
			"module", "identity-access/account-service",
			"layer", "adapter",
			"method", method,
			"path", path,
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %v", domainerrors.ErrIdentityUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode identity api response: %w", err)
	}
	return nil
}

func classifyStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusConflict:
		return domainerrors.ErrEmailAlreadyRegistered
	case status == http.StatusUnauthorized:
		return domainerrors.ErrInvalidCredentials
	case status == http.StatusNotFound:
		return domainerrors.ErrProfileNotFound
	case status == http.StatusBadRequest, status == http.StatusGone:
		return domainerrors.ErrInvalidActionToken
	default:
		return fmt.Errorf("%w: status %d", domainerrors.ErrIdentityUnavailable, status)
	}
}
