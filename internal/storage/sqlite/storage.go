// Package sqlite stores user records in a single SQLite table keyed by
// (user, kind, name). Record bodies use the same codec as the file store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/cloudserver/internal/codec"
	"github.com/mcoot/cloudserver/internal/model"
	"github.com/mcoot/cloudserver/internal/storage"
	"github.com/mcoot/cloudserver/internal/storage/sqlite/migrations"
)

// Record kinds
const (
	kindAccount = "account"
	kindPlayed  = "played"
	kindGame    = "game"
)

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db    *sql.DB
	codec *codec.Codec
}

// Open opens (or creates) the database at path and applies the schema
func Open(ctx context.Context, path string, c *codec.Codec) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Storage{db: db, codec: c}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) AccountExists(ctx context.Context, user model.UserID) (bool, error) {
	if err := checkUser(user); err != nil {
		return false, err
	}
	var found int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM records WHERE user_id = ? AND kind = ? AND name = ''",
		string(user), kindAccount,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Storage) GetAccount(ctx context.Context, user model.UserID) (*model.Account, error) {
	if err := checkUser(user); err != nil {
		return nil, err
	}
	var account model.Account
	if err := s.load(ctx, user, kindAccount, "", &account, model.ErrAccountNotFound); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) SaveAccount(ctx context.Context, user model.UserID, account *model.Account) error {
	if err := checkUser(user); err != nil {
		return err
	}
	return s.save(ctx, user, kindAccount, "", account)
}

// Played games operations

func (s *Storage) GetPlayedGames(ctx context.Context, user model.UserID) (model.PlayedGames, error) {
	if err := checkUser(user); err != nil {
		return nil, err
	}
	games := model.PlayedGames{}
	if err := s.load(ctx, user, kindPlayed, "", &games, model.ErrPlayedGamesNotFound); err != nil {
		return nil, err
	}
	return games, nil
}

func (s *Storage) SavePlayedGames(ctx context.Context, user model.UserID, games model.PlayedGames) error {
	if err := checkUser(user); err != nil {
		return err
	}
	if games == nil {
		games = model.PlayedGames{}
	}
	return s.save(ctx, user, kindPlayed, "", games)
}

// Game data operations

func (s *Storage) GetGameData(ctx context.Context, user model.UserID, game model.GameID) (model.GameData, error) {
	if err := checkGame(user, game); err != nil {
		return nil, err
	}
	data := model.GameData{}
	if err := s.load(ctx, user, kindGame, string(game), &data, model.ErrGameDataNotFound); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Storage) SaveGameData(ctx context.Context, user model.UserID, game model.GameID, data model.GameData) error {
	if err := checkGame(user, game); err != nil {
		return err
	}
	if data == nil {
		data = model.GameData{}
	}
	return s.save(ctx, user, kindGame, string(game), data)
}

func (s *Storage) DeleteGameData(ctx context.Context, user model.UserID, game model.GameID) error {
	if err := checkGame(user, game); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE user_id = ? AND kind = ? AND name = ?",
		string(user), kindGame, string(game),
	)
	return err
}

// Helpers

func (s *Storage) load(ctx context.Context, user model.UserID, kind, name string, v any, notFound error) error {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM records WHERE user_id = ? AND kind = ? AND name = ?",
		string(user), kind, name,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if err != nil {
		return err
	}
	return s.codec.Decode(data, v)
}

func (s *Storage) save(ctx context.Context, user model.UserID, kind, name string, v any) error {
	data, err := s.codec.Encode(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO records (user_id, kind, name, data, updated_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, kind, name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		string(user), kind, name, data, time.Now().UTC().UnixMilli(),
	)
	return err
}

func checkUser(user model.UserID) error {
	if !user.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidUserID, user)
	}
	return nil
}

func checkGame(user model.UserID, game model.GameID) error {
	if err := checkUser(user); err != nil {
		return err
	}
	if !game.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidGameID, game)
	}
	return nil
}
