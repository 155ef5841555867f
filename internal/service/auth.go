package service

import (
	"context" // Request scoped cancellation
	"errors"  // Error inspection
	"fmt"     // Error wrapping
	"strings" // Input normalisation
	"time"    // Token lifetime

	"finance_tracker/internal/domain" // Importing domain models
	"finance_tracker/internal/utils"  // JWT helpers

	"github.com/google/uuid"     // Opaque identifiers
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// BcryptCost is the work factor used for stored password hashes
const BcryptCost = 10

// SignupInput is the body of a signup request
type SignupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput is the body of a login request
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned on a successful login
type LoginResult struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

// AuthService registers users and issues bearer tokens
type AuthService struct {
	db        *gorm.DB
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAuthService wires the credential store and signing secret
func NewAuthService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{db: db, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// normalizeEmail makes the uniqueness key case and whitespace insensitive
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a user. A second signup with the same email fails with ErrConflict.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, fail(ErrInvalidInput, "Name, email and password are required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if count > 0 {
		return nil, fail(ErrConflict, "User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{ID: uuid.NewString(), Name: name, Email: email, Password: string(hash)}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// Lost a race with a concurrent signup for the same email
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fail(ErrConflict, "User already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Login checks the password and issues a token whose subject is the user id
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, fail(ErrInvalidInput, "Email and password are required")
	}

	var user domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(ErrInvalidInput, "User not found")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, fail(ErrInvalidInput, "Invalid password")
	}

	token, err := utils.GenerateJWT(user.ID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &LoginResult{Token: token, User: user.Public()}, nil
}
