package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/thraizz/kingdom-server-go/internal/repository"
)

type memoryUsers struct {
	users map[string]*repository.User
	err   error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*repository.User)}
}

func (m *memoryUsers) GetByName(ctx context.Context, name string) (*repository.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[name]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *memoryUsers) Create(ctx context.Context, name, hash string) (*repository.User, error) {
	if _, ok := m.users[name]; ok {
		return nil, repository.ErrUserExists
	}
	u := &repository.User{ID: int64(len(m.users) + 1), Name: name, PasswordHash: hash}
	m.users[name] = u
	return u, nil
}

func TestNormalizeName(t *testing.T) {
	name, err := NormalizeName("  alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	for _, bad := range []string{"", "   ", "a b", "x/y", strings.Repeat("n", MaxNameLength+1)} {
		_, err := NormalizeName(bad)
		assert.ErrorIs(t, err, ErrInvalidName, bad)
	}
}

func TestGuestAuthenticator(t *testing.T) {
	var a Authenticator = GuestAuthenticator{}

	id, err := a.Authenticate(context.Background(), Credentials{Name: "carol"})
	require.NoError(t, err)
	assert.Equal(t, Identity{Name: "carol", Guest: true}, id)

	id, err = a.Authenticate(context.Background(), Credentials{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id.Name, "guest-"))
	assert.True(t, id.Guest)

	_, err = a.Authenticate(context.Background(), Credentials{Name: "has space"})
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestPasswordRegisterAndAuthenticate(t *testing.T) {
	users := newMemoryUsers()
	a := NewPasswordAuthenticator(users, bcrypt.MinCost, zaptest.NewLogger(t))
	ctx := context.Background()

	id, err := a.Register(ctx, Credentials{Name: "alice", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, Identity{Name: "alice"}, id)
	assert.NotEqual(t, "hunter22", users.users["alice"].PasswordHash)

	id, err = a.Authenticate(ctx, Credentials{Name: "alice", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Name)
	assert.False(t, id.Guest)

	_, err = a.Authenticate(ctx, Credentials{Name: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(ctx, Credentials{Name: "mallory", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordRegisterErrors(t *testing.T) {
	a := NewPasswordAuthenticator(newMemoryUsers(), bcrypt.MinCost, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := a.Register(ctx, Credentials{Name: "bob", Password: "123"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = a.Register(ctx, Credentials{Name: "", Password: "longenough"})
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = a.Register(ctx, Credentials{Name: "bob", Password: "longenough"})
	require.NoError(t, err)
	_, err = a.Register(ctx, Credentials{Name: "bob", Password: "longenough"})
	assert.ErrorIs(t, err, repository.ErrUserExists)
}

func TestPasswordAuthenticateStoreFailure(t *testing.T) {
	users := newMemoryUsers()
	users.err = errors.New("connection refused")
	a := NewPasswordAuthenticator(users, 0, nil)

	_, err := a.Authenticate(context.Background(), Credentials{Name: "alice", Password: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, bcrypt.DefaultCost, a.cost)
}
