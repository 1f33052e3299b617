// Package filesystem stores each user's records as codec-encoded files:
//
//	<root>/<user>/account
//	<root>/<user>/games/played
//	<root>/<user>/games/<game>
package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/mcoot/cloudserver/internal/codec"
	"github.com/mcoot/cloudserver/internal/model"
	"github.com/mcoot/cloudserver/internal/storage"
)

const (
	accountFile = "account"
	gamesDir    = "games"

	dirPerm = 0o755
)

// Storage is a filesystem-backed implementation of the storage interface.
// Writes replace files atomically so a reader never sees a partial record.
type Storage struct {
	root  string
	codec *codec.Codec
}

// New creates a Storage rooted at dir, creating the directory if needed
func New(dir string, c *codec.Codec) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &Storage{root: dir, codec: c}, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Root returns the data directory
func (s *Storage) Root() string {
	return s.root
}

// Account operations

func (s *Storage) AccountExists(ctx context.Context, user model.UserID) (bool, error) {
	path, err := s.accountPath(user)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *Storage) GetAccount(ctx context.Context, user model.UserID) (*model.Account, error) {
	path, err := s.accountPath(user)
	if err != nil {
		return nil, err
	}
	var account model.Account
	if err := s.load(path, &account, model.ErrAccountNotFound); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) SaveAccount(ctx context.Context, user model.UserID, account *model.Account) error {
	path, err := s.accountPath(user)
	if err != nil {
		return err
	}
	return s.save(path, account)
}

// Played games operations

func (s *Storage) GetPlayedGames(ctx context.Context, user model.UserID) (model.PlayedGames, error) {
	path, err := s.gamePath(user, model.PlayedGamesName)
	if err != nil {
		return nil, err
	}
	games := model.PlayedGames{}
	if err := s.load(path, &games, model.ErrPlayedGamesNotFound); err != nil {
		return nil, err
	}
	return games, nil
}

func (s *Storage) SavePlayedGames(ctx context.Context, user model.UserID, games model.PlayedGames) error {
	path, err := s.gamePath(user, model.PlayedGamesName)
	if err != nil {
		return err
	}
	if games == nil {
		games = model.PlayedGames{}
	}
	return s.save(path, games)
}

// Game data operations

func (s *Storage) GetGameData(ctx context.Context, user model.UserID, game model.GameID) (model.GameData, error) {
	path, err := s.gameDataPath(user, game)
	if err != nil {
		return nil, err
	}
	data := model.GameData{}
	if err := s.load(path, &data, model.ErrGameDataNotFound); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Storage) SaveGameData(ctx context.Context, user model.UserID, game model.GameID, data model.GameData) error {
	path, err := s.gameDataPath(user, game)
	if err != nil {
		return err
	}
	if data == nil {
		data = model.GameData{}
	}
	return s.save(path, data)
}

func (s *Storage) DeleteGameData(ctx context.Context, user model.UserID, game model.GameID) error {
	path, err := s.gameDataPath(user, game)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Paths

func (s *Storage) userDir(user model.UserID) (string, error) {
	if !user.Valid() {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidUserID, user)
	}
	return filepath.Join(s.root, string(user)), nil
}

func (s *Storage) accountPath(user model.UserID) (string, error) {
	dir, err := s.userDir(user)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, accountFile), nil
}

func (s *Storage) gamePath(user model.UserID, name string) (string, error) {
	dir, err := s.userDir(user)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, gamesDir, name), nil
}

func (s *Storage) gameDataPath(user model.UserID, game model.GameID) (string, error) {
	if !game.Valid() {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidGameID, game)
	}
	return s.gamePath(user, string(game))
}

// Encoding

func (s *Storage) load(path string, v any, notFound error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound
		}
		return err
	}
	return s.codec.Decode(data, v)
}

func (s *Storage) save(path string, v any) error {
	data, err := s.codec.Encode(v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}
