package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wishlist-service/internal/config"
	"github.com/wishlist-service/internal/events"
	"github.com/wishlist-service/internal/models"
	"github.com/wishlist-service/pkg/crypto"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 42
	}
	return args.Error(0)
}

func (m *mockUserStore) GetByID(ctx context.Context, id uint64) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *mockUserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserStore) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

// countingVault records how many verifications ran.
type countingVault struct {
	crypto.PasswordVault
	mu       sync.Mutex
	verifies int
}

func (v *countingVault) Verify(password, encodedHash string) (bool, error) {
	v.mu.Lock()
	v.verifies++
	v.mu.Unlock()
	return v.PasswordVault.Verify(password, encodedHash)
}

func (v *countingVault) count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.verifies
}

func newTestVault(t *testing.T) *countingVault {
	t.Helper()
	vault, err := crypto.NewArgon2Vault(crypto.Argon2Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32})
	require.NoError(t, err)
	return &countingVault{PasswordVault: vault}
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret-0123456789abcdef", ExpireMinutes: 60, Issuer: "wishlist-service"}
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// recordingObserver counts reservation outcomes by action.
type recordingObserver struct {
	mu       sync.Mutex
	outcomes map[string][]bool
}

func (o *recordingObserver) ObserveReservation(action string, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = map[string][]bool{}
	}
	o.outcomes[action] = append(o.outcomes[action], ok)
}

func (o *recordingObserver) get(action string) []bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]bool(nil), o.outcomes[action]...)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}
