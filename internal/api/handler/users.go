package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/cloudserver/internal/api/apierr"
	"github.com/mcoot/cloudserver/internal/api/response"
	"github.com/mcoot/cloudserver/internal/model"
	"github.com/mcoot/cloudserver/internal/storage"
)

// UserHandler exposes stored user records read-only
type UserHandler struct {
	storage storage.Storage
}

// NewUserHandler creates a new user handler
func NewUserHandler(store storage.Storage) *UserHandler {
	return &UserHandler{storage: store}
}

// Get handles GET /api/v1/users/{user}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := model.UserID(mux.Vars(r)["user"])
	if !user.Valid() {
		apierr.WriteError(w, model.ErrInvalidUserID)
		return
	}

	account, err := h.storage.GetAccount(r.Context(), user)
	hasAccount := err == nil
	if err != nil && !errors.Is(err, model.ErrAccountNotFound) {
		apierr.WriteError(w, err)
		return
	}
	played, err := h.storage.GetPlayedGames(r.Context(), user)
	hasPlayed := err == nil
	if err != nil && !errors.Is(err, model.ErrPlayedGamesNotFound) {
		apierr.WriteError(w, err)
		return
	}
	if !hasAccount && !hasPlayed {
		apierr.WriteError(w, apierr.ErrUserNotFound)
		return
	}

	response.JSON(w, http.StatusOK, response.UserFromRecords(user, account, played))
}

// GetGame handles GET /api/v1/users/{user}/games/{game}
func (h *UserHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	user := model.UserID(vars["user"])
	game := model.GameID(vars["game"])
	if !user.Valid() {
		apierr.WriteError(w, model.ErrInvalidUserID)
		return
	}
	if !game.Valid() {
		apierr.WriteError(w, model.ErrInvalidGameID)
		return
	}

	data, err := h.storage.GetGameData(r.Context(), user, game)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Game{ID: game, Data: data})
}
