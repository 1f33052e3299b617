package model

// GameID identifies one game a user has played
type GameID string

// PlayedGamesName is reserved: it names the played games index next to the
// per-game records.
const PlayedGamesName = "played"

// Valid reports whether the id can name a game record
func (id GameID) Valid() bool {
	return validName(string(id)) && string(id) != PlayedGamesName
}

// GameData is a user's saved progress in one game
type GameData map[string]string

// Clone returns a copy that does not share storage with d
func (d GameData) Clone() GameData {
	out := make(GameData, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
