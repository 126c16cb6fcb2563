package services_test

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"storefront/internal/hash"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func notFound(username string) error {
	return fmt.Errorf("user with username %s not found: %w", username, repositories.ErrNotFound)
}

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newAuthService(repo repositories.UserRepository) *services.AuthService {
	return services.NewAuthService(repo, session.NewManager("test_session_secret", time.Hour), nil)
}

func TestAuthService_Register(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	// Successful registration stores a bcrypt hash and a non-admin flag.
	mockRepo.On("GetByUsername", "testuser").Return(nil, notFound("testuser")).Once()
	mockRepo.On("Create", mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "testuser" && !u.IsAdmin && hash.CheckPassword(u.HashedPassword, "password123")
	})).Return(nil).Once()

	err := authService.Register("testuser", "password123")
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// Username already taken.
	mockRepo.On("GetByUsername", "testuser").Return(&models.User{ID: "1", Username: "testuser"}, nil).Once()
	err = authService.Register("testuser", "password123")
	assert.ErrorIs(t, err, services.ErrDuplicateUser)
	mockRepo.AssertExpectations(t)

	// Lost race: the unique index rejects the insert.
	mockRepo.On("GetByUsername", "racer").Return(nil, notFound("racer")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).
		Return(fmt.Errorf("user with username racer already exists: %w", repositories.ErrDuplicate)).Once()
	err = authService.Register("racer", "password123")
	assert.ErrorIs(t, err, services.ErrDuplicateUser)
	mockRepo.AssertExpectations(t)

	// Unexpected store failure is not reported as a duplicate.
	mockRepo.On("GetByUsername", "broken").Return(nil, fmt.Errorf("connection refused")).Once()
	err = authService.Register("broken", "password123")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrDuplicateUser)
	mockRepo.AssertExpectations(t)

	// 40 Cyrillic characters are 80 bytes, over bcrypt's limit. Nothing is stored.
	mockRepo.On("GetByUsername", "ivan").Return(nil, notFound("ivan")).Once()
	err = authService.Register("ivan", strings.Repeat("п", 40))
	assert.ErrorIs(t, err, services.ErrPasswordTooLong)
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Create", mock.MatchedBy(func(u *models.User) bool { return u.Username == "ivan" }))
}

func TestAuthService_Login(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	hashedPassword, err := hash.HashPassword("password123")
	require.NoError(t, err)
	user := &models.User{ID: "user-123", Username: "testuser", HashedPassword: hashedPassword}

	// Successful login
	mockRepo.On("GetByUsername", "testuser").Return(user, nil).Once()
	sess, token, err := authService.Login("testuser", "password123")
	require.NoError(t, err)
	assert.Equal(t, "testuser", sess.Username)
	assert.NotEmpty(t, token)

	parsed, err := authService.Sessions().Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "testuser", parsed.Username)
	mockRepo.AssertExpectations(t)

	// Wrong password
	mockRepo.On("GetByUsername", "testuser").Return(user, nil).Once()
	_, _, err = authService.Login("testuser", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)

	// Unknown user gets the same error
	mockRepo.On("GetByUsername", "nonexistentuser").Return(nil, notFound("nonexistentuser")).Once()
	_, _, err = authService.Login("nonexistentuser", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_CurrentUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	mockRepo.On("GetByUsername", "boss").Return(&models.User{Username: "boss", IsAdmin: true}, nil).Once()
	user, err := authService.CurrentUser("boss")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	// The role is read again on every call.
	mockRepo.On("GetByUsername", "boss").Return(&models.User{Username: "boss", IsAdmin: false}, nil).Once()
	user, err = authService.CurrentUser("boss")
	require.NoError(t, err)
	assert.False(t, user.IsAdmin)

	mockRepo.On("GetByUsername", "ghost").Return(nil, notFound("ghost")).Once()
	_, err = authService.CurrentUser("ghost")
	assert.ErrorIs(t, err, services.ErrUserNotFound)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo)

	// First run creates the admin. Two lookups: EnsureAdmin, then CreateUser.
	mockRepo.On("GetByUsername", "admin").Return(nil, notFound("admin")).Twice()
	mockRepo.On("Create", mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "admin" && u.IsAdmin && hash.CheckPassword(u.HashedPassword, "admin")
	})).Return(nil).Once()

	created, err := authService.EnsureAdmin("admin", "admin")
	require.NoError(t, err)
	assert.True(t, created)
	mockRepo.AssertExpectations(t)

	// Later runs leave the existing account alone.
	mockRepo.On("GetByUsername", "admin").Return(&models.User{Username: "admin", IsAdmin: true}, nil).Once()
	created, err = authService.EnsureAdmin("admin", "admin")
	require.NoError(t, err)
	assert.False(t, created)
	mockRepo.AssertExpectations(t)
}
