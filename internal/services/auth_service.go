package services

import (
	"errors"
	"fmt"
	"log"

	"storefront/internal/config"
	"storefront/internal/hash"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/session"
)

var (
	// ErrDuplicateUser is returned when registering a username that exists.
	ErrDuplicateUser = errors.New("username already taken")
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when the session user no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrPasswordTooLong is returned when a password does not fit bcrypt's byte limit.
	ErrPasswordTooLong = errors.New("password too long")
)

// AuthService handles registration, login and the identity lookups behind
// the session gate.
type AuthService struct {
	userRepo repositories.UserRepository
	sessions *session.Manager
	metrics  *metrics.Metrics
}

// NewAuthService creates a new AuthService. m may be nil.
func NewAuthService(userRepo repositories.UserRepository, sessions *session.Manager, m *metrics.Metrics) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		metrics:  m,
	}
}

// Sessions returns the manager used to sign session cookies.
func (s *AuthService) Sessions() *session.Manager {
	return s.sessions
}

// Register creates a regular (non-admin) account.
func (s *AuthService) Register(username, password string) error {
	_, err := s.CreateUser(username, password, false)
	switch {
	case err == nil:
		s.metrics.ObserveRegistration("success")
	case errors.Is(err, ErrDuplicateUser):
		s.metrics.ObserveRegistration("duplicate")
	case errors.Is(err, ErrPasswordTooLong):
		s.metrics.ObserveRegistration("invalid")
	default:
		s.metrics.ObserveRegistration("error")
	}
	return err
}

// CreateUser hashes the password and stores a new user.
func (s *AuthService) CreateUser(username, password string, isAdmin bool) (*models.User, error) {
	if existing, err := s.userRepo.GetByUsername(username); err == nil && existing != nil {
		return nil, fmt.Errorf("username '%s': %w", username, ErrDuplicateUser)
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) {
			return nil, fmt.Errorf("password is %d bytes, limit %d: %w", len(password), hash.MaxPasswordBytes, ErrPasswordTooLong)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:       username,
		HashedPassword: hashedPassword,
		IsAdmin:        isAdmin,
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, fmt.Errorf("username '%s': %w", username, ErrDuplicateUser)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// Login verifies the credentials and opens a session for the user.
func (s *AuthService) Login(username, password string) (*session.Session, string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		s.metrics.ObserveLogin("failure")
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if !hash.CheckPassword(user.HashedPassword, password) {
		s.metrics.ObserveLogin("failure")
		return nil, "", ErrInvalidCredentials
	}

	sess, token, err := s.sessions.Issue(user.Username)
	if err != nil {
		return nil, "", err
	}
	s.metrics.ObserveLogin("success")
	return sess, token, nil
}

// CurrentUser loads the user behind a session. Roles are always read from
// the store so a changed is_admin flag applies on the next request.
func (s *AuthService) CurrentUser(username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the admin account named username unless a user with
// that name already exists. It reports whether an account was created.
func (s *AuthService) EnsureAdmin(username, password string) (bool, error) {
	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return false, nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return false, fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	if password == config.DefaultAdminPassword {
		log.Printf("Warning: bootstrap admin %q uses the default password, set BOOTSTRAP_ADMIN_PASSWORD or BOOTSTRAP_ADMIN=false", username)
	}

	if _, err := s.CreateUser(username, password, true); err != nil {
		// Another instance may have created it concurrently.
		if errors.Is(err, ErrDuplicateUser) {
			return false, nil
		}
		return false, err
	}
	log.Printf("Created bootstrap admin account %q", username)
	return true, nil
}
