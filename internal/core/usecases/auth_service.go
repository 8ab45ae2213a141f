package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/samirrijal/citydiscover/internal/core/domain"
	"github.com/samirrijal/citydiscover/internal/core/ports"
)

const (
	minPasswordLength = 6
	defaultTokenTTL   = 24 * time.Hour
)

// Session is what a successful login hands back to the client.
type Session struct {
	User      domain.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Claims is the JWT payload for a session token.
type Claims struct {
	Username string `json:"username"`
	Guest    bool   `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// AuthService handles demo account registration and login.
type AuthService struct {
	users  ports.UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService creates a new AuthService signing tokens with secret.
func NewAuthService(users ports.UserRepository, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{users: users, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email: %w", domain.ErrInvalidInput, err)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	rec := &ports.UserRecord{
		User: domain.User{
			ID:        uuid.NewString(),
			Username:  username,
			Email:     email,
			CreatedAt: s.now().UTC(),
			Preferences: domain.UserPreferences{
				ID:       uuid.NewString(),
				Language: "en",
			},
		},
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, rec); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user registered", "user_id", rec.User.ID)
	return s.issue(rec.User)
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	rec, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issue(rec.User)
}

// RequestReset accepts a password reset request. The demo has no mail
// delivery, so it only logs; the response never reveals whether the
// account exists.
func (s *AuthService) RequestReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: invalid email: %w", domain.ErrInvalidInput, err)
	}
	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "password reset requested")
	case errors.Is(err, domain.ErrUserNotFound):
		slog.DebugContext(ctx, "password reset for unknown account")
	default:
		return err
	}
	return nil
}

// Guest signs in an anonymous, unsaved user.
func (s *AuthService) Guest(ctx context.Context) (*Session, error) {
	u := domain.User{
		ID:        uuid.NewString(),
		Username:  "Guest",
		CreatedAt: s.now().UTC(),
		IsGuest:   true,
	}
	return s.issue(u)
}

// ParseToken validates a session token and returns its claims.
func (s *AuthService) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, err)
	}
	return claims, nil
}

func (s *AuthService) issue(u domain.User) (*Session, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		Username: u.Username,
		Guest:    u.IsGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{User: u, Token: signed, ExpiresAt: exp.UTC()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
