package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/jghoshh/getfit/backend/models"
	"github.com/jghoshh/getfit/backend/repository"
	"github.com/jghoshh/getfit/backend/storage/persistent"
	"github.com/jghoshh/getfit/lib/utils"
)

// Token lifetimes.
const (
	AuthTokenTTL    = time.Hour
	RefreshTokenTTL = 30 * 24 * time.Hour
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

// Error codes carried by *Error.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeInvalid         = "invalid"
	CodeConflict        = "conflict"
)

// Error is an authentication failure that is safe to show to the user.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string       { return e.Message }
func (e *Error) UserMessage() string { return e.Message }

var (
	ErrInvalidCredentials = &Error{Code: CodeUnauthenticated, Message: "Incorrect email or password."}
	ErrInvalidToken       = &Error{Code: CodeUnauthenticated, Message: "Your session is not valid. Please sign in again."}
	ErrExpiredToken       = &Error{Code: CodeUnauthenticated, Message: "Your session has expired. Please sign in again."}
	ErrEmailTaken         = &Error{Code: CodeConflict, Message: "An account with this email already exists."}
	ErrInvalidEmail       = &Error{Code: CodeInvalid, Message: "Please enter a valid email address."}
	ErrWeakPassword       = &Error{Code: CodeInvalid, Message: "Password must be at least 8 characters and contain both letters and numbers."}
)

// Claims are the identity fields carried by every token.
type Claims struct {
	UserID string
	Email  string
}

// Authenticator registers users, checks passwords and issues HS256 tokens.
type Authenticator struct {
	store      persistent.DocumentStore
	repo       *repository.Repository
	signingKey []byte
	now        func() time.Time
}

func New(store persistent.DocumentStore, repo *repository.Repository, signingKey string) *Authenticator {
	return &Authenticator{store: store, repo: repo, signingKey: []byte(signingKey), now: time.Now}
}

// WithClock replaces the time source used for token issue times.
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	a.now = now
	return a
}

func (a *Authenticator) createToken(userID, email, kind string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := jwt.MapClaims{
		"id":    userID,
		"email": email,
		"typ":   kind,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}

	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := newToken.SignedString(a.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to create %s token: %w", kind, err)
	}

	return signedToken, nil
}

// CreateTokens issues an auth token and a refresh token for a user.
func (a *Authenticator) CreateTokens(userID, email string) (string, string, error) {
	authToken, err := a.createToken(userID, email, tokenAccess, AuthTokenTTL)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := a.createToken(userID, email, tokenRefresh, RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}

	return authToken, refreshToken, nil
}

// ParseAuthToken validates an auth token and returns its claims.
func (a *Authenticator) ParseAuthToken(token string) (Claims, error) {
	return a.parse(token, tokenAccess)
}

func (a *Authenticator) parse(raw, kind string) (Claims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.signingKey, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid || claims["typ"] != kind {
		return Claims{}, ErrInvalidToken
	}
	userID, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	if userID == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{UserID: userID, Email: email}, nil
}

// SignUp registers a new account: a credential holding the bcrypt hash and a
// user profile with default goals and settings.
func (a *Authenticator) SignUp(ctx context.Context, email, password, displayName string) (*models.AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !utils.ValidateEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !utils.ValidatePassword(password) {
		return nil, ErrWeakPassword
	}

	existing, err := a.findCredential(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	userID := a.store.NewID(models.UsersCollection)
	credential := models.Credential{
		ID:           userID,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    a.now().UnixMilli(),
	}
	if err := a.store.Set(ctx, models.CredentialsCollection, userID, credential); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	if _, err := a.repo.CreateUser(ctx, userID, email, displayName); err != nil {
		if delErr := a.store.Delete(ctx, models.CredentialsCollection, userID); delErr != nil {
			log.Printf("failed to remove credential of unfinished sign up %s: %v", userID, delErr)
		}
		return nil, err
	}

	return a.result(userID, email)
}

// SignIn checks the password of the account registered under email.
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (*models.AuthResult, error) {
	credential, err := a.findCredential(ctx, email)
	if err != nil {
		return nil, err
	}
	if credential == nil {
		return nil, ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return a.result(credential.ID, credential.Email)
}

// Refresh exchanges a valid refresh token for a new pair of tokens.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*models.AuthResult, error) {
	claims, err := a.parse(refreshToken, tokenRefresh)
	if err != nil {
		return nil, err
	}

	var credential models.Credential
	found, err := a.store.Get(ctx, models.CredentialsCollection, claims.UserID, &credential)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	if !found {
		return nil, ErrInvalidToken
	}

	return a.result(credential.ID, credential.Email)
}

// ChangePassword replaces a user's password after checking the current one.
func (a *Authenticator) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	var credential models.Credential
	found, err := a.store.Get(ctx, models.CredentialsCollection, userID, &credential)
	if err != nil {
		return fmt.Errorf("failed to read credential: %w", err)
	}
	if !found {
		return ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(credential.PasswordHash), []byte(currentPassword))
	if err != nil {
		return ErrInvalidCredentials
	}
	if !utils.ValidatePassword(newPassword) {
		return ErrWeakPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return a.store.Update(ctx, models.CredentialsCollection, userID, map[string]interface{}{
		"passwordHash": string(hashedPassword),
	})
}

func (a *Authenticator) findCredential(ctx context.Context, email string) (*models.Credential, error) {
	var found []models.Credential
	q := persistent.Query{Collection: models.CredentialsCollection, Limit: 1}.
		Where("email", persistent.OpEqual, strings.ToLower(strings.TrimSpace(email)))
	if err := a.store.Query(ctx, q, &found); err != nil {
		return nil, fmt.Errorf("failed to look up credential: %w", err)
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (a *Authenticator) result(userID, email string) (*models.AuthResult, error) {
	token, refreshToken, err := a.CreateTokens(userID, email)
	if err != nil {
		return nil, err
	}
	return &models.AuthResult{UserID: userID, Token: token, RefreshToken: refreshToken}, nil
}
