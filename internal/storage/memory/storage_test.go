package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/cloudserver/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Account tests

func (s *StorageSuite) TestSaveAndGetAccount() {
	err := s.storage.SaveAccount(s.ctx, "1", &model.Account{Username: "alice"})
	s.Require().NoError(err)

	account, err := s.storage.GetAccount(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal("alice", account.Username)

	exists, err := s.storage.AccountExists(s.ctx, "1")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StorageSuite) TestGetAccountNotFound() {
	_, err := s.storage.GetAccount(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrAccountNotFound)

	exists, err := s.storage.AccountExists(s.ctx, "nonexistent")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestAccountIsCopied() {
	account := &model.Account{Username: "alice"}
	_ = s.storage.SaveAccount(s.ctx, "1", account)
	account.Username = "mallory"

	retrieved, _ := s.storage.GetAccount(s.ctx, "1")
	s.Equal("alice", retrieved.Username)
}

// Played games tests

func (s *StorageSuite) TestSaveAndGetPlayedGames() {
	err := s.storage.SavePlayedGames(s.ctx, "1", model.PlayedGames{"a", "b"})
	s.Require().NoError(err)

	games, err := s.storage.GetPlayedGames(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal(model.PlayedGames{"a", "b"}, games)
}

func (s *StorageSuite) TestGetPlayedGamesNotFound() {
	_, err := s.storage.GetPlayedGames(s.ctx, "1")
	s.ErrorIs(err, model.ErrPlayedGamesNotFound)
}

// Game data tests

func (s *StorageSuite) TestSaveGetDeleteGameData() {
	err := s.storage.SaveGameData(s.ctx, "1", "level1", model.GameData{"score": "42"})
	s.Require().NoError(err)

	data, err := s.storage.GetGameData(s.ctx, "1", "level1")
	s.Require().NoError(err)
	s.Equal("42", data["score"])

	data["score"] = "0"
	again, _ := s.storage.GetGameData(s.ctx, "1", "level1")
	s.Equal("42", again["score"])

	s.Require().NoError(s.storage.DeleteGameData(s.ctx, "1", "level1"))
	_, err = s.storage.GetGameData(s.ctx, "1", "level1")
	s.ErrorIs(err, model.ErrGameDataNotFound)
}

func (s *StorageSuite) TestGameDataIsPerUser() {
	_ = s.storage.SaveGameData(s.ctx, "1", "level1", model.GameData{"score": "42"})

	_, err := s.storage.GetGameData(s.ctx, "2", "level1")
	s.ErrorIs(err, model.ErrGameDataNotFound)
}
