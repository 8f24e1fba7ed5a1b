// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login and token verification.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/server/auth"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/users"
)

// UserService provides authentication-related operations:
// - Signup: create users with a hashed password
// - Login: verify credentials and mint a token
// - VerifyToken: check a token presented with a chat message
type UserService struct {
	users  users.Repository
	tokens *auth.TokenIssuer
}

// NewUserService constructs a UserService over a user repository and a token issuer.
func NewUserService(repo users.Repository, tokens *auth.TokenIssuer) *UserService {
	return &UserService{users: repo, tokens: tokens}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// dummyPasswordHash is compared against when the user does not exist, so a
// failed login costs the same whether or not the name is registered.
func dummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("dummy password")
	})
	return dummyHash
}

// ValidateUsername checks the constraints the users table places on a name.
func ValidateUsername(name string) error {
	n := utf8.RuneCountInString(name)
	if n == 0 || n > models.MaxUserNameLength {
		return fmt.Errorf("%w: length must be between 1 and %d", common.ErrInvalidUsername, models.MaxUserNameLength)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: surrounding whitespace", common.ErrInvalidUsername)
	}
	return nil
}

// Signup registers a new user. It fails with common.ErrInvalidUsername,
// auth.ErrHash or common.ErrAlreadyExists.
func (s *UserService) Signup(ctx context.Context, username, password string) (*models.User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, &models.User{Name: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the password and, on success, returns a freshly signed token.
// Unknown users and wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.users.GetUserByName(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.VerifyPassword(password, dummyPasswordHash())
			return "", nil, common.ErrorUnauthorized
		}
		return "", nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return "", nil, common.ErrorUnauthorized
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// VerifyToken checks the signature and expiry of token.
func (s *UserService) VerifyToken(token string) error {
	_, err := s.tokens.Verify(token)
	return err
}
