package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"session_broker_backend/internal/audit"
	"session_broker_backend/internal/autherr"
	"session_broker_backend/internal/cookie"
	"session_broker_backend/internal/profile"
	"session_broker_backend/internal/shared"
)

// MockProvider is a mock type for shared.IdentityProvider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (*shared.ProviderUser, *shared.Session, error) {
	args := m.Called(ctx, email, password)
	var pu *shared.ProviderUser
	if v := args.Get(0); v != nil {
		pu = v.(*shared.ProviderUser)
	}
	var sess *shared.Session
	if v := args.Get(1); v != nil {
		sess = v.(*shared.Session)
	}
	return pu, sess, args.Error(2)
}

func (m *MockProvider) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

func (m *MockProvider) SignUp(ctx context.Context, req shared.SignUpRequest) (*shared.ProviderUser, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.ProviderUser), args.Error(1)
}

func (m *MockProvider) RefreshSession(ctx context.Context, refreshToken string) (*shared.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Session), args.Error(1)
}

func (m *MockProvider) GetUserByAccessToken(ctx context.Context, accessToken string) (*shared.ProviderUser, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.ProviderUser), args.Error(1)
}

func (m *MockProvider) SendPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockProvider) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	return m.Called(ctx, accessToken, newPassword).Error(0)
}

func (m *MockProvider) SendEmailVerification(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

func (m *MockProvider) DeleteUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockProvider) EachUser(ctx context.Context, fn func(*shared.ProviderUser) error) error {
	return m.Called(ctx, fn).Error(0)
}

// MockProfileService is a mock type for profile.Service
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Lookup(ctx context.Context, email string) (*profile.Record, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Record), args.Error(1)
}

func (m *MockProfileService) Resolve(ctx context.Context, pu *shared.ProviderUser) (*profile.CanonicalUser, error) {
	args := m.Called(ctx, pu)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.CanonicalUser), args.Error(1)
}

func (m *MockProfileService) CreateFor(ctx context.Context, pu *shared.ProviderUser, fullname string) (*profile.Record, error) {
	args := m.Called(ctx, pu, fullname)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Record), args.Error(1)
}

func (m *MockProfileService) HasProfile(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileService) UpdateFullname(ctx context.Context, email, fullname string) (*profile.Record, error) {
	args := m.Called(ctx, email, fullname)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Record), args.Error(1)
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingEmitter) Emit(_ context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingEmitter) last() audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type fixture struct {
	provider  *MockProvider
	profiles  profile.Service
	repo      profile.Repository
	transport *cookie.Transport
	audit     *recordingEmitter
	service   Service
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&profile.Record{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// newFixture wires the service against a mock provider and a real profile
// service backed by in-memory SQLite.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := profile.NewGORMRepository(newTestDB(t))
	return newFixtureWithProfiles(t, profile.NewService(repo, zap.NewNop()), repo)
}

func newFixtureWithProfiles(t *testing.T, profiles profile.Service, repo profile.Repository) *fixture {
	t.Helper()
	f := &fixture{
		provider:  new(MockProvider),
		profiles:  profiles,
		repo:      repo,
		transport: cookie.NewTransport(cookie.DefaultPolicy("")),
		audit:     &recordingEmitter{},
	}
	f.service = NewService(
		f.provider,
		f.profiles,
		f.transport,
		autherr.New(autherr.AuthRules, false, zap.NewNop()),
		f.audit,
		nil,
		zap.NewNop(),
	)
	return f
}
