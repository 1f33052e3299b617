package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/cloudserver/internal/codec"
	"github.com/mcoot/cloudserver/internal/model"
	"github.com/mcoot/cloudserver/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
	codec  *codec.Codec
}

// New creates a new Redis storage instance
func New(cfg Config, c *codec.Codec) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewWithClient(client, cfg, c), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, c *codec.Codec) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
		codec:  c,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) AccountExists(ctx context.Context, user model.UserID) (bool, error) {
	if err := checkUser(user); err != nil {
		return false, err
	}
	exists, err := s.client.Exists(ctx, s.accountKey(user)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

func (s *Storage) GetAccount(ctx context.Context, user model.UserID) (*model.Account, error) {
	if err := checkUser(user); err != nil {
		return nil, err
	}
	var account model.Account
	if err := s.load(ctx, s.accountKey(user), &account, model.ErrAccountNotFound); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) SaveAccount(ctx context.Context, user model.UserID, account *model.Account) error {
	if err := checkUser(user); err != nil {
		return err
	}
	return s.save(ctx, s.accountKey(user), account)
}

// Played games operations

func (s *Storage) GetPlayedGames(ctx context.Context, user model.UserID) (model.PlayedGames, error) {
	if err := checkUser(user); err != nil {
		return nil, err
	}
	games := model.PlayedGames{}
	if err := s.load(ctx, s.playedGamesKey(user), &games, model.ErrPlayedGamesNotFound); err != nil {
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
	return s.save(ctx, s.playedGamesKey(user), games)
}

// Game data operations

func (s *Storage) GetGameData(ctx context.Context, user model.UserID, game model.GameID) (model.GameData, error) {
	if err := checkGame(user, game); err != nil {
		return nil, err
	}
	data := model.GameData{}
	if err := s.load(ctx, s.gameDataKey(user, game), &data, model.ErrGameDataNotFound); err != nil {
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
	return s.save(ctx, s.gameDataKey(user, game), data)
}

func (s *Storage) DeleteGameData(ctx context.Context, user model.UserID, game model.GameID) error {
	if err := checkGame(user, game); err != nil {
		return err
	}
	return s.client.Del(ctx, s.gameDataKey(user, game)).Err()
}

// Helpers

// Records never expire: an expired game key would leave its id behind in
// the played games index.

func (s *Storage) load(ctx context.Context, key string, v any, notFound error) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return s.codec.Decode(data, v)
}

func (s *Storage) save(ctx context.Context, key string, v any) error {
	data, err := s.codec.Encode(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, 0).Err()
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
