package response

import (
	"github.com/mcoot/cloudserver/internal/model"
	"github.com/mcoot/cloudserver/internal/services/server"
)

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
}

// ChannelList is the response for GET /channels
type ChannelList struct {
	Channels []server.ChannelStatus `json:"channels"`
}

// User summarises a user's stored records
type User struct {
	ID          model.UserID `json:"user_id"`
	Username    string       `json:"username"`
	HasAccount  bool         `json:"has_account"`
	HasPassword bool         `json:"has_password"`
	PlayedGames []string     `json:"played_games"`
}

// UserFromRecords builds a User from its stored records. account may be nil.
func UserFromRecords(id model.UserID, account *model.Account, played model.PlayedGames) User {
	u := User{ID: id, PlayedGames: []string(played)}
	if u.PlayedGames == nil {
		u.PlayedGames = []string{}
	}
	if account != nil {
		u.HasAccount = true
		u.Username = account.Username
		u.HasPassword = account.HasPassword()
	}
	return u
}

// Game is one stored game record
type Game struct {
	ID   model.GameID   `json:"game_id"`
	Data model.GameData `json:"data"`
}
