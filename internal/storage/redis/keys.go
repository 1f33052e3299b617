package redis

import (
	"fmt"

	"github.com/mcoot/cloudserver/internal/model"
)

// Key layout mirrors the on-disk layout: one key per user record.

// accountKey returns the Redis key for a user's account
func (s *Storage) accountKey(user model.UserID) string {
	return fmt.Sprintf("%s:user:%s:account", s.cfg.KeyPrefix, user)
}

// playedGamesKey returns the Redis key for a user's played games index
func (s *Storage) playedGamesKey(user model.UserID) string {
	return fmt.Sprintf("%s:user:%s:games:%s", s.cfg.KeyPrefix, user, model.PlayedGamesName)
}

// gameDataKey returns the Redis key for one game's data
func (s *Storage) gameDataKey(user model.UserID, game model.GameID) string {
	return fmt.Sprintf("%s:user:%s:games:%s", s.cfg.KeyPrefix, user, game)
}
