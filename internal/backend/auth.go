package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/tidwall/gjson"
	"storefront-client/internal/domain"
)

const (
	pathLogin         = "/login/"
	pathLogout        = "/logout/"
	pathRegister      = "/register/"
	pathRefresh       = "/token/refresh/"
	pathAuthenticated = "/authenticated/"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// ExchangeCredentials logs in with a username or email and password.
func (c *Client) ExchangeCredentials(ctx context.Context, usernameOrEmail, password string) (domain.Credentials, error) {
	resp, err := c.do(ctx, "auth", "login", http.MethodPost, pathLogin, "", loginRequest{Username: usernameOrEmail, Password: password})
	if err != nil {
		return domain.Credentials{}, err
	}
	if !resp.ok() {
		return domain.Credentials{}, authFailure("login", resp, "Login failed. Please try again.")
	}
	creds, err := parseCredentials(resp.json())
	if err != nil {
		return domain.Credentials{}, &domain.CollaboratorError{Collaborator: "auth", Op: "login", StatusCode: resp.status, Err: err}
	}
	if creds.User.Username == "" && creds.User.ID == "" {
		creds.User.Username = usernameOrEmail
	}
	return creds, nil
}

// CreateAccount registers a user. The backend answers registration with the
// created user only, so a login follows to obtain the credential.
func (c *Client) CreateAccount(ctx context.Context, username, email, password string) (domain.Credentials, error) {
	resp, err := c.do(ctx, "auth", "register", http.MethodPost, pathRegister, "", registerRequest{Username: username, Email: email, Password: password})
	if err != nil {
		return domain.Credentials{}, err
	}
	if !resp.ok() {
		return domain.Credentials{}, authFailure("register", resp, "Registration failed. Please try again.")
	}

	body := resp.json()
	if body.Get("access").Exists() {
		creds, err := parseCredentials(body)
		if err != nil {
			return domain.Credentials{}, &domain.CollaboratorError{Collaborator: "auth", Op: "register", StatusCode: resp.status, Err: err}
		}
		return creds, nil
	}

	creds, err := c.ExchangeCredentials(ctx, username, password)
	if err != nil {
		return domain.Credentials{}, err
	}
	registered := parseUser(body)
	if creds.User.Email == "" {
		creds.User.Email = firstNonEmpty(registered.Email, email)
	}
	if creds.User.ID == "" {
		creds.User.ID = registered.ID
	}
	return creds, nil
}

// InvalidateSession notifies the backend of a logout. Callers treat it as
// best effort; failures are logged here.
func (c *Client) InvalidateSession(ctx context.Context, token string) error {
	resp, err := c.do(ctx, "auth", "logout", http.MethodPost, pathLogout, token, struct{}{})
	if err != nil {
		c.logger.Warn().Err(err).Msg("logout notification failed")
		return err
	}
	if !resp.ok() {
		err := &domain.CollaboratorError{Collaborator: "auth", Op: "logout", StatusCode: resp.status}
		c.logger.Warn().Err(err).Msg("logout notification rejected")
		return err
	}
	return nil
}

// RefreshCredentials trades a refresh token for a new access token.
func (c *Client) RefreshCredentials(ctx context.Context, refreshToken string) (domain.Credentials, error) {
	resp, err := c.do(ctx, "auth", "refresh", http.MethodPost, pathRefresh, "", refreshRequest{Refresh: refreshToken})
	if err != nil {
		return domain.Credentials{}, err
	}
	if !resp.ok() {
		return domain.Credentials{}, &domain.CollaboratorError{Collaborator: "auth", Op: "refresh", StatusCode: resp.status, Err: errors.New(errorMessage(resp.json(), "refresh rejected"))}
	}
	body := resp.json()
	access := body.Get("access").String()
	if access == "" {
		return domain.Credentials{}, &domain.CollaboratorError{Collaborator: "auth", Op: "refresh", StatusCode: resp.status, Err: errors.New("response has no access token")}
	}
	return domain.Credentials{
		User:         parseUser(body.Get("user")),
		AccessToken:  access,
		RefreshToken: body.Get("refresh").String(),
	}, nil
}

// CheckSession asks the backend whether token is still accepted.
func (c *Client) CheckSession(ctx context.Context, token string) error {
	resp, err := c.do(ctx, "auth", "check", http.MethodGet, pathAuthenticated, token, nil)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return &domain.CollaboratorError{Collaborator: "auth", Op: "check", StatusCode: resp.status}
	}
	// Some deployments answer 200 with {"authenticated": false}.
	if v := resp.json().Get("authenticated"); v.Exists() && !v.Bool() {
		return &domain.CollaboratorError{Collaborator: "auth", Op: "check", StatusCode: http.StatusUnauthorized}
	}
	return nil
}

func authFailure(op string, resp response, fallback string) error {
	switch {
	case resp.status == http.StatusBadRequest,
		resp.status == http.StatusUnauthorized,
		resp.status == http.StatusForbidden,
		resp.status == http.StatusConflict:
		return &domain.AuthenticationError{
			Message: errorMessage(resp.json(), fallback),
			Err:     &domain.CollaboratorError{Collaborator: "auth", Op: op, StatusCode: resp.status},
		}
	default:
		return &domain.CollaboratorError{Collaborator: "auth", Op: op, StatusCode: resp.status}
	}
}

func parseCredentials(body gjson.Result) (domain.Credentials, error) {
	access := body.Get("access").String()
	if access == "" {
		access = body.Get("token").String()
	}
	if access == "" {
		return domain.Credentials{}, errors.New("response has no access token")
	}
	return domain.Credentials{
		User:         parseUser(body.Get("user")),
		AccessToken:  access,
		RefreshToken: body.Get("refresh").String(),
	}, nil
}

func parseUser(v gjson.Result) domain.User {
	if !v.Exists() || !v.IsObject() {
		return domain.User{}
	}
	return domain.User{
		ID:       v.Get("id").String(),
		Username: v.Get("username").String(),
		Email:    v.Get("email").String(),
		Avatar:   v.Get("avatar").String(),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
