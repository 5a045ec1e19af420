package client

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

	"github.com/form3tech-oss/jwt-go"
	"github.com/zalando/go-keyring"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/lib/utils"
)

// KeyringService is the name of the service in the system keyring where the JWT token and refresh token are stored.
const KeyringService = "GetFit"

// Default keyring entries for the two tokens.
const (
	DefaultKeyringKey        = "auth_token"
	DefaultRefreshKeyringKey = "auth_token_refresh"
)

const (
	defaultPollInterval = 30 * time.Second
	refreshLeeway       = 30 * time.Second
)

// Error is a failure reported by the server. Its message is safe to show.
type Error struct {
	Status  int                 `json:"-"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  []map[string]string `json:"fields,omitempty"`
}

func (e *Error) Error() string       { return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message) }
func (e *Error) UserMessage() string { return e.Message }

type clientError string

func (e clientError) Error() string       { return string(e) }
func (e clientError) UserMessage() string { return string(e) }

var (
	ErrNotSignedIn     error = clientError("No user is currently signed in.")
	ErrAlreadySignedIn error = clientError("A user is already signed in.")
	ErrSessionExpired  error = clientError("Session expired, please sign in again.")
)

// Client calls the GetFit RPC server on behalf of the user whose tokens are
// kept in the system keyring. Its methods mirror the repository so that the
// hooks can run against either.
type Client struct {
	serverURL    string
	http         *http.Client
	tokenKey     string
	refreshKey   string
	pollInterval time.Duration
	now          func() time.Time
}

// New creates a Client for the server at serverURL.
func New(serverURL string) *Client {
	return &Client{
		serverURL:    strings.TrimRight(serverURL, "/"),
		http:         &http.Client{Timeout: 30 * time.Second},
		tokenKey:     DefaultKeyringKey,
		refreshKey:   DefaultRefreshKeyringKey,
		pollInterval: defaultPollInterval,
		now:          time.Now,
	}
}

// WithKeyringKeys overrides the keyring entries the tokens are stored under.
func (c *Client) WithKeyringKeys(tokenKey, refreshKey string) *Client {
	if tokenKey != "" {
		c.tokenKey = tokenKey
	}
	if refreshKey != "" {
		c.refreshKey = refreshKey
	}
	return c
}

// WithPollInterval sets how often WatchUser polls the profile.
func (c *Client) WithPollInterval(d time.Duration) *Client {
	if d > 0 {
		c.pollInterval = d
	}
	return c
}

func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

// call posts in to procedure and decodes the result into out.
func (c *Client) call(ctx context.Context, procedure string, token string, in, out interface{}) error {
	if in == nil {
		in = struct{}{}
	}
	reqBody, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/rpc/"+procedure, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		return fmt.Errorf("unexpected response (%d): %w", resp.StatusCode, err)
	}
	if env.Error != nil {
		env.Error.Status = resp.StatusCode
		return env.Error
	}
	if resp.StatusCode != http.StatusOK {
		return &Error{Status: resp.StatusCode, Code: "internal", Message: "Something went wrong. Please try again."}
	}

	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", procedure, err)
	}
	return nil
}

// authed calls an authenticated procedure, refreshing the auth token first
// when it is about to expire.
func (c *Client) authed(ctx context.Context, procedure string, in, out interface{}) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNotSignedIn
	}
	return c.call(ctx, procedure, token, in, out)
}

// Token returns a usable auth token, refreshing it when it expired or is
// about to. An empty token means no user is signed in.
func (c *Client) Token(ctx context.Context) (string, error) {
	token, err := c.keyringGet(c.tokenKey)
	if err != nil || token == "" {
		return "", err
	}

	claims, err := unverifiedClaims(token)
	if err != nil {
		return "", err
	}
	if exp, ok := claims["exp"].(float64); ok && c.now().Add(refreshLeeway).Unix() < int64(exp) {
		return token, nil
	}
	return c.refresh(ctx)
}

// CurrentUserID returns the id carried by the stored auth token, or "" when
// nobody is signed in.
func (c *Client) CurrentUserID() (string, error) {
	token, err := c.keyringGet(c.tokenKey)
	if err != nil || token == "" {
		return "", err
	}
	claims, err := unverifiedClaims(token)
	if err != nil {
		return "", err
	}
	id, _ := claims["id"].(string)
	return id, nil
}

// unverifiedClaims reads a token's claims without checking the signature.
// The server verifies every token it receives.
func unverifiedClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("stored token is malformed: %w", err)
	}
	return claims, nil
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	refreshToken, err := c.keyringGet(c.refreshKey)
	if err != nil {
		return "", err
	}
	if refreshToken == "" {
		return "", ErrSessionExpired
	}

	var res models.AuthResult
	err = c.call(ctx, "auth.refresh", "", map[string]string{"refreshToken": refreshToken}, &res)
	if err != nil {
		var serverErr *Error
		if errors.As(err, &serverErr) && serverErr.Status == http.StatusUnauthorized {
			if clearErr := c.ClearKeyring(); clearErr != nil {
				return "", clearErr
			}
			return "", ErrSessionExpired
		}
		return "", err
	}
	if err := c.storeTokens(res.Token, res.RefreshToken); err != nil {
		return "", err
	}
	return res.Token, nil
}

func (c *Client) keyringGet(key string) (string, error) {
	value, err := keyring.Get(KeyringService, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", errors.New("failed to access keyring: " + err.Error())
	}
	return value, nil
}

// storeTokens saves both tokens, leaving neither behind when the second
// write fails.
func (c *Client) storeTokens(token, refreshToken string) error {
	if err := keyring.Set(KeyringService, c.tokenKey, token); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := keyring.Set(KeyringService, c.refreshKey, refreshToken); err != nil {
			keyring.Delete(KeyringService, c.tokenKey)
			return err
		}
	}
	return nil
}

// ClearKeyring removes both tokens. Missing entries are not an error.
func (c *Client) ClearKeyring() error {
	for _, key := range []string{c.tokenKey, c.refreshKey} {
		if err := keyring.Delete(KeyringService, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return errors.New("failed to clear keyring: " + err.Error())
		}
	}
	return nil
}

// SignUp registers a new account and stores its tokens.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*models.AuthResult, error) {
	if err := c.ensureSignedOut(); err != nil {
		return nil, err
	}
	if !utils.ValidateEmail(email) {
		return nil, clientError("Please enter a valid email address.")
	}
	if !utils.ValidatePassword(password) {
		return nil, clientError("Password must be at least 8 characters and contain both letters and numbers.")
	}
	return c.authenticate(ctx, "auth.signUp", map[string]string{
		"email": email, "password": password, "displayName": displayName,
	})
}

// SignIn signs in and stores the tokens.
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.AuthResult, error) {
	if err := c.ensureSignedOut(); err != nil {
		return nil, err
	}
	return c.authenticate(ctx, "auth.signIn", map[string]string{"email": email, "password": password})
}

// SignOut forgets the stored tokens.
func (c *Client) SignOut() error {
	token, err := c.keyringGet(c.tokenKey)
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNotSignedIn
	}
	return c.ClearKeyring()
}

func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return c.authed(ctx, "auth.changePassword", map[string]string{
		"currentPassword": currentPassword, "newPassword": newPassword,
	}, nil)
}

func (c *Client) ensureSignedOut() error {
	token, err := c.keyringGet(c.tokenKey)
	if err != nil {
		return err
	}
	if token != "" {
		return ErrAlreadySignedIn
	}
	return nil
}

func (c *Client) authenticate(ctx context.Context, procedure string, in interface{}) (*models.AuthResult, error) {
	var res models.AuthResult
	if err := c.call(ctx, procedure, "", in, &res); err != nil {
		return nil, err
	}
	if err := c.storeTokens(res.Token, res.RefreshToken); err != nil {
		return nil, err
	}
	return &res, nil
}
