package auth

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/cloudserver/internal/model"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New(Config{Cost: bcrypt.MinCost})
}

func (s *ServiceSuite) TestHashAndCheck() {
	hash, err := s.service.HashPassword("secret123")
	s.Require().NoError(err)
	s.NotEqual("secret123", hash)

	account := &model.Account{Username: "alice", PasswordHash: hash}
	s.True(s.service.CheckPassword(account, "secret123"))
	s.False(s.service.CheckPassword(account, "wrong"))
}

func (s *ServiceSuite) TestHashIsSalted() {
	a, _ := s.service.HashPassword("secret123")
	b, _ := s.service.HashPassword("secret123")
	s.NotEqual(a, b)
}

func (s *ServiceSuite) TestEmptyPasswordRejected() {
	_, err := s.service.HashPassword("")
	s.ErrorIs(err, ErrEmptyPassword)
}

func (s *ServiceSuite) TestAccountWithoutPasswordNeverMatches() {
	s.False(s.service.CheckPassword(&model.Account{Username: "alice"}, ""))
	s.False(s.service.CheckPassword(&model.Account{Username: "alice"}, "anything"))
	s.False(s.service.CheckPassword(nil, "anything"))
}

func (s *ServiceSuite) TestCostIsClamped() {
	s.Equal(bcrypt.DefaultCost, New(Config{}).cost)
	s.Equal(bcrypt.MinCost, New(Config{Cost: 1}).cost)
	s.Equal(bcrypt.MaxCost, New(Config{Cost: 99}).cost)
}
