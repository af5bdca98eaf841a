package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists           = errors.New("user already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
	ErrFailedToIssueToken   = errors.New("failed to issue token")
)

// AuthService handles registration, login and token issuance.
type AuthService struct {
	userRepo       repository.UserRepository
	jwtExpireHours int
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, jwtExpireHours int) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		jwtExpireHours: jwtExpireHours,
	}
}

// RegisterInput represents the required information to create a new user.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a new user and returns it along with a signed token.
func (s *AuthService) Register(input RegisterInput) (*models.User, string, error) {
	if len(input.Password) < constants.MinPasswordLength {
		return nil, "", ErrPasswordTooShort
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	username := strings.TrimSpace(input.Username)

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, "", ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, "", ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         models.UserRoleMember,
		IsActive:     true,
	}

	if err := s.userRepo.Create(user); err != nil {
		// The unique indexes may still fire if a concurrent registration
		// slipped past the lookups above.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrUserExists
		}
		return nil, "", ErrFailedToCreateUser
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user with a
// signed token. Unknown email and wrong password are indistinguishable to
// the caller.
func (s *AuthService) Login(input LoginInput) (*models.User, string, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", fmt.Errorf("failed to update last login: %w", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	token, err := utils.GenerateToken(user.ID, user.Username, string(user.Role), s.jwtExpireHours)
	if err != nil {
		return "", ErrFailedToIssueToken
	}
	return token, nil
}
