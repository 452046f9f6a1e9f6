package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/thraizz/kingdom-server-go/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidName        = errors.New("invalid player name")
	ErrWeakPassword       = errors.New("password too short")
)

const (
	MaxNameLength     = 24
	MinPasswordLength = 6
)

// Credentials is what a client presents when joining.
type Credentials struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

// Identity is an authenticated player.
type Identity struct {
	Name  string
	Guest bool
}

// Authenticator turns credentials into an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (Identity, error)
}

// UserStore is the account storage the password authenticator needs.
type UserStore interface {
	GetByName(ctx context.Context, name string) (*repository.User, error)
	Create(ctx context.Context, name, passwordHash string) (*repository.User, error)
}

// NormalizeName trims the name and checks its length and characters.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidName, MaxNameLength)
	}
	if strings.ContainsAny(name, " \t\n/") {
		return "", fmt.Errorf("%w: contains whitespace or '/'", ErrInvalidName)
	}
	return name, nil
}

// GuestAuthenticator accepts any valid name. An empty name gets a generated one.
type GuestAuthenticator struct{}

// Authenticate implements Authenticator.
func (GuestAuthenticator) Authenticate(ctx context.Context, creds Credentials) (Identity, error) {
	if strings.TrimSpace(creds.Name) == "" {
		return Identity{Name: "guest-" + uuid.NewString()[:8], Guest: true}, nil
	}
	name, err := NormalizeName(creds.Name)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Name: name, Guest: true}, nil
}

// PasswordAuthenticator checks bcrypt hashes stored in the user repository.
type PasswordAuthenticator struct {
	users  UserStore
	cost   int
	logger *zap.Logger
}

// NewPasswordAuthenticator creates an authenticator hashing with the given bcrypt cost.
func NewPasswordAuthenticator(users UserStore, cost int, logger *zap.Logger) *PasswordAuthenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordAuthenticator{users: users, cost: cost, logger: logger}
}

// Authenticate implements Authenticator.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, creds Credentials) (Identity, error) {
	name, err := NormalizeName(creds.Name)
	if err != nil {
		return Identity{}, err
	}

	u, err := a.users.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			a.logger.Debug("login for unknown user", zap.String("username", name))
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)); err != nil {
		a.logger.Warn("password mismatch", zap.String("username", name))
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{Name: u.Name}, nil
}

// Register creates an account and returns its identity.
func (a *PasswordAuthenticator) Register(ctx context.Context, creds Credentials) (Identity, error) {
	name, err := NormalizeName(creds.Name)
	if err != nil {
		return Identity{}, err
	}
	if len(creds.Password) < MinPasswordLength {
		return Identity{}, fmt.Errorf("%w: need at least %d characters", ErrWeakPassword, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), a.cost)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := a.users.Create(ctx, name, string(hash))
	if err != nil {
		return Identity{}, err
	}
	a.logger.Info("user registered", zap.String("username", u.Name))
	return Identity{Name: u.Name}, nil
}
