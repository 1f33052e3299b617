// Package auth hashes and checks account passwords.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/cloudserver/internal/model"
)

// ErrEmptyPassword is returned when hashing an empty password
var ErrEmptyPassword = errors.New("password is empty")

// Config holds configuration for the auth service
type Config struct {
	// Cost is the bcrypt work factor
	Cost int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		Cost: bcrypt.DefaultCost,
	}
}

// Service hashes and verifies passwords
type Service struct {
	cost int
}

// New creates a new auth Service
func New(cfg Config) *Service {
	if cfg.Cost == 0 {
		cfg.Cost = DefaultConfig().Cost
	}
	if cfg.Cost < bcrypt.MinCost {
		cfg.Cost = bcrypt.MinCost
	}
	if cfg.Cost > bcrypt.MaxCost {
		cfg.Cost = bcrypt.MaxCost
	}
	return &Service{cost: cfg.Cost}
}

// HashPassword returns a bcrypt hash of password
func (s *Service) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the account's stored
// hash. An account without a password never matches.
func (s *Service) CheckPassword(account *model.Account, password string) bool {
	if account == nil || !account.HasPassword() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) == nil
}
