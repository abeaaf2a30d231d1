package pos

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKey is the store key holding the bearer token
const TokenKey = "auth_token"

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Validate checks the fields the server would reject anyway
func (r RegisterRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return errors.New("name is required")
	case !strings.Contains(r.Email, "@"):
		return errors.New("a valid email is required")
	case r.Password == "":
		return errors.New("password is required")
	case r.Password != r.PasswordConfirmation:
		return errors.New("passwords do not match")
	}
	return nil
}

type loginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Login exchanges credentials for a token and stores it
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", errors.New("email and password are required")
	}

	var resp loginResponse
	body := map[string]string{"email": strings.TrimSpace(email), "password": password}
	if err := c.Request(ctx, http.MethodPost, "login", body, &resp); err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	if resp.Token == "" {
		msg := resp.Message
		if msg == "" {
			msg = "no token in response"
		}
		return "", &APIError{StatusCode: http.StatusOK, Message: msg}
	}

	if c.Store == nil {
		return "", errors.New("no state store configured")
	}
	if err := c.Store.Set(TokenKey, resp.Token); err != nil {
		return "", fmt.Errorf("cannot save token: %w", err)
	}
	return resp.Message, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, r RegisterRequest) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := c.Request(ctx, http.MethodPost, "register", r, &resp); err != nil {
		return "", fmt.Errorf("registration failed: %w", err)
	}
	return resp.Message, nil
}

// Logout forgets the stored token
func (c *Client) Logout() error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Delete(TokenKey)
}

// RequireToken returns ErrNotLoggedIn when no token is stored
func (c *Client) RequireToken() error {
	if c.Token() == "" {
		return ErrNotLoggedIn
	}
	return nil
}

// TokenInfo describes a stored token. Claims are only available for JWTs and
// are read without verifying the signature; they are for display only.
type TokenInfo struct {
	IsJWT     bool
	Subject   string
	Email     string
	Name      string
	ExpiresAt time.Time
}

type tokenClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// ParseTokenInfo inspects token. Opaque tokens yield IsJWT=false.
func ParseTokenInfo(token string) TokenInfo {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}
	}

	info := TokenInfo{
		IsJWT:   true,
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info
}

// Expired reports whether the token carries an expiry in the past
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// Identity is a short label for the logged in user
func (t TokenInfo) Identity() string {
	switch {
	case t.Email != "":
		return t.Email
	case t.Name != "":
		return t.Name
	case t.Subject != "":
		return "user " + t.Subject
	}
	return "authenticated user"
}

// CmdLogin logs in and reports the result
func (c *Client) CmdLogin(ctx context.Context, email, password string) error {
	msg, err := c.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Logged in"
	}
	fmt.Printf("%s✓ %s%s\n", Green, msg, Reset)
	if info := ParseTokenInfo(c.Token()); info.IsJWT {
		fmt.Printf("  Signed in as: %s%s%s\n", Yellow, info.Identity(), Reset)
	}
	return nil
}

// CmdRegister creates an account and reports the result
func (c *Client) CmdRegister(ctx context.Context, r RegisterRequest) error {
	msg, err := c.Register(ctx, r)
	if err != nil {
		return err
	}
	if msg == "" {
		msg = "Account created"
	}
	fmt.Printf("%s✓ %s%s\n", Green, msg, Reset)
	fmt.Printf("  Run %spos-cli login%s to sign in\n", Cyan, Reset)
	return nil
}

// CmdLogout clears the stored token
func (c *Client) CmdLogout() error {
	if err := c.Logout(); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	fmt.Printf("%s✓ Logged out%s\n", Green, Reset)
	return nil
}

// CmdWhoami shows what is known about the current session
func (c *Client) CmdWhoami() error {
	token := c.Token()
	if token == "" {
		return ErrNotLoggedIn
	}

	info := ParseTokenInfo(token)
	if !info.IsJWT {
		fmt.Printf("%sLogged in%s (opaque token %s...)\n", Green, Reset, token[:min(6, len(token))])
		return nil
	}

	fmt.Printf("%sLogged in as %s%s\n", Green, info.Identity(), Reset)
	if !info.ExpiresAt.IsZero() {
		if info.Expired(time.Now()) {
			fmt.Printf("  Expired: %s%s%s\n", Red, info.ExpiresAt.Format(time.RFC1123), Reset)
		} else {
			fmt.Printf("  Expires: %s\n", info.ExpiresAt.Format(time.RFC1123))
		}
	}
	return nil
}
