package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/cloudserver/internal/codec"
	"github.com/mcoot/cloudserver/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig(), codec.Must())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Account tests

func (s *StorageSuite) TestSaveAndGetAccount() {
	account := &model.Account{Username: "alice", PasswordHash: "hash"}

	err := s.storage.SaveAccount(s.ctx, "1234", account)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetAccount(s.ctx, "1234")
	s.Require().NoError(err)
	s.Equal(*account, *retrieved)
	s.True(s.mini.Exists("cloudsave:user:1234:account"))
}

func (s *StorageSuite) TestGetAccountNotFound() {
	_, err := s.storage.GetAccount(s.ctx, "1234")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestAccountExists() {
	exists, err := s.storage.AccountExists(s.ctx, "1234")
	s.Require().NoError(err)
	s.False(exists)

	_ = s.storage.SaveAccount(s.ctx, "1234", &model.Account{Username: "alice"})

	exists, err = s.storage.AccountExists(s.ctx, "1234")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StorageSuite) TestAccountHasNoTTL() {
	_ = s.storage.SaveAccount(s.ctx, "1234", &model.Account{Username: "alice"})
	s.Equal(time.Duration(0), s.mini.TTL("cloudsave:user:1234:account"))
}

// Played games tests

func (s *StorageSuite) TestSaveAndGetPlayedGames() {
	err := s.storage.SavePlayedGames(s.ctx, "1234", model.PlayedGames{"level1"})
	s.Require().NoError(err)

	games, err := s.storage.GetPlayedGames(s.ctx, "1234")
	s.Require().NoError(err)
	s.Equal(model.PlayedGames{"level1"}, games)
	s.True(s.mini.Exists("cloudsave:user:1234:games:played"))
}

func (s *StorageSuite) TestGetPlayedGamesNotFound() {
	_, err := s.storage.GetPlayedGames(s.ctx, "1234")
	s.ErrorIs(err, model.ErrPlayedGamesNotFound)
}

// Game data tests

func (s *StorageSuite) TestSaveAndGetGameData() {
	err := s.storage.SaveGameData(s.ctx, "1234", "level1", model.GameData{"score": "42"})
	s.Require().NoError(err)

	data, err := s.storage.GetGameData(s.ctx, "1234", "level1")
	s.Require().NoError(err)
	s.Equal(model.GameData{"score": "42"}, data)
}

func (s *StorageSuite) TestGameDataOutlivesIndexAge() {
	_ = s.storage.SavePlayedGames(s.ctx, "1234", model.PlayedGames{"level1"})
	_ = s.storage.SaveGameData(s.ctx, "1234", "level1", model.GameData{"score": "42"})

	s.Equal(time.Duration(0), s.mini.TTL("cloudsave:user:1234:games:level1"))

	s.mini.FastForward(365 * 24 * time.Hour)

	games, err := s.storage.GetPlayedGames(s.ctx, "1234")
	s.Require().NoError(err)
	s.Require().True(games.Contains("level1"))
	data, err := s.storage.GetGameData(s.ctx, "1234", "level1")
	s.Require().NoError(err)
	s.Equal(model.GameData{"score": "42"}, data)
}

func (s *StorageSuite) TestDeleteGameData() {
	_ = s.storage.SaveGameData(s.ctx, "1234", "level1", model.GameData{"score": "42"})

	err := s.storage.DeleteGameData(s.ctx, "1234", "level1")
	s.Require().NoError(err)

	_, err = s.storage.GetGameData(s.ctx, "1234", "level1")
	s.ErrorIs(err, model.ErrGameDataNotFound)
}

func (s *StorageSuite) TestInvalidKeys() {
	_, err := s.storage.GetAccount(s.ctx, "")
	s.ErrorIs(err, model.ErrInvalidUserID)

	err = s.storage.SaveGameData(s.ctx, "1234", model.PlayedGamesName, model.GameData{})
	s.ErrorIs(err, model.ErrInvalidGameID)
}

func (s *StorageSuite) TestConnectionFailure() {
	s.mini.Close()

	_, err := s.storage.GetAccount(s.ctx, "1234")
	s.Error(err)
	s.NotErrorIs(err, model.ErrAccountNotFound)
}
