package storage

import (
	"context"

	"github.com/mcoot/cloudserver/internal/model"
)

// Storage defines the interface for per-user record persistence.
// Absent records are reported with the model.Err*NotFound errors.
type Storage interface {
	// Account operations
	AccountExists(ctx context.Context, user model.UserID) (bool, error)
	GetAccount(ctx context.Context, user model.UserID) (*model.Account, error)
	SaveAccount(ctx context.Context, user model.UserID, account *model.Account) error

	// Played games index operations
	GetPlayedGames(ctx context.Context, user model.UserID) (model.PlayedGames, error)
	SavePlayedGames(ctx context.Context, user model.UserID, games model.PlayedGames) error

	// Game data operations
	GetGameData(ctx context.Context, user model.UserID, game model.GameID) (model.GameData, error)
	SaveGameData(ctx context.Context, user model.UserID, game model.GameID, data model.GameData) error
	DeleteGameData(ctx context.Context, user model.UserID, game model.GameID) error
}
