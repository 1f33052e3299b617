package memory

import (
	"context"
	"sync"

	"github.com/mcoot/cloudserver/internal/model"
	"github.com/mcoot/cloudserver/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	accounts    map[model.UserID]model.Account
	playedGames map[model.UserID]model.PlayedGames
	gameData    map[gameKey]model.GameData
}

type gameKey struct {
	user model.UserID
	game model.GameID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:    make(map[model.UserID]model.Account),
		playedGames: make(map[model.UserID]model.PlayedGames),
		gameData:    make(map[gameKey]model.GameData),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) AccountExists(ctx context.Context, user model.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[user]
	return ok, nil
}

func (s *Storage) GetAccount(ctx context.Context, user model.UserID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[user]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return &account, nil
}

func (s *Storage) SaveAccount(ctx context.Context, user model.UserID, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[user] = *account
	return nil
}

// Played games operations

func (s *Storage) GetPlayedGames(ctx context.Context, user model.UserID) (model.PlayedGames, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	games, ok := s.playedGames[user]
	if !ok {
		return nil, model.ErrPlayedGamesNotFound
	}
	result := make(model.PlayedGames, len(games))
	copy(result, games)
	return result, nil
}

func (s *Storage) SavePlayedGames(ctx context.Context, user model.UserID, games model.PlayedGames) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make(model.PlayedGames, len(games))
	copy(stored, games)
	s.playedGames[user] = stored
	return nil
}

// Game data operations

func (s *Storage) GetGameData(ctx context.Context, user model.UserID, game model.GameID) (model.GameData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.gameData[gameKey{user: user, game: game}]
	if !ok {
		return nil, model.ErrGameDataNotFound
	}
	return data.Clone(), nil
}

func (s *Storage) SaveGameData(ctx context.Context, user model.UserID, game model.GameID, data model.GameData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameData[gameKey{user: user, game: game}] = data.Clone()
	return nil
}

func (s *Storage) DeleteGameData(ctx context.Context, user model.UserID, game model.GameID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.gameData, gameKey{user: user, game: game})
	return nil
}
