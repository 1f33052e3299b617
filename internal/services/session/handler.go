package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mcoot/cloudserver/internal/model"
	"github.com/mcoot/cloudserver/internal/protocol"
	"github.com/mcoot/cloudserver/internal/services/auth"
	"github.com/mcoot/cloudserver/internal/storage"
)

// Handler applies commands to a session and its stored records
type Handler struct {
	storage        storage.Storage
	auth           *auth.Service
	requireAccount bool
	logger         *slog.Logger
}

// NewHandler creates a Handler. With requireAccount set, game and data
// commands are ignored until the user has an account.
func NewHandler(store storage.Storage, authService *auth.Service, requireAccount bool, logger *slog.Logger) *Handler {
	return &Handler{
		storage:        store,
		auth:           authService,
		requireAccount: requireAccount,
		logger:         logger,
	}
}

// Handle applies one command. A nil response means nothing is sent back.
// Errors are storage failures and end the session.
func (h *Handler) Handle(ctx context.Context, s *Session, cmd protocol.Command) (protocol.Response, error) {
	logger := h.logger.With(
		slog.String("user_id", string(s.User)),
		slog.String("session_id", s.ID),
	)

	switch c := cmd.(type) {
	case protocol.End:
		return nil, nil

	case protocol.GetHasAccount:
		exists, err := h.storage.AccountExists(ctx, s.User)
		if err != nil {
			return nil, storage.Wrap("check account", s.User, err)
		}
		return protocol.Respond{Key: protocol.KeyHasAccount, Value: strconv.FormatBool(exists)}, nil

	case protocol.GetData:
		if ok, err := h.accountReady(ctx, s, logger); !ok {
			return nil, err
		}
		return protocol.Respond{Key: protocol.DataKey(c.Name), Value: s.Data[c.Name]}, nil

	case protocol.SetAction:
		return h.setAction(ctx, s, c.Action, logger)

	case protocol.SetPassword:
		return h.setPassword(ctx, s, c.Value, logger)

	case protocol.SetGame:
		if ok, err := h.accountReady(ctx, s, logger); !ok {
			return nil, err
		}
		return h.setGame(ctx, s, c.GameID, logger)

	case protocol.SetData:
		if ok, err := h.gameReady(ctx, s, logger); !ok {
			return nil, err
		}
		s.Data[c.Name] = c.Value
		if err := h.storage.SaveGameData(ctx, s.User, s.ActiveGame, s.Data); err != nil {
			return nil, storage.Wrap("save game data", s.User, err)
		}
		return protocol.Ack(), nil

	case protocol.DeleteData:
		if ok, err := h.gameReady(ctx, s, logger); !ok {
			return nil, err
		}
		delete(s.Data, c.Name)
		if err := h.storage.SaveGameData(ctx, s.User, s.ActiveGame, s.Data); err != nil {
			return nil, storage.Wrap("save game data", s.User, err)
		}
		return protocol.Respond{Key: protocol.DataKey(c.Name)}, nil

	default:
		return nil, fmt.Errorf("%w: unhandled command %T", protocol.ErrMalformedCommand, cmd)
	}
}

func (h *Handler) setAction(ctx context.Context, s *Session, action model.Action, logger *slog.Logger) (protocol.Response, error) {
	s.Action = action

	switch action {
	case model.ActionCreateAccount:
		account := &model.Account{Username: s.Username}
		if err := h.storage.SaveAccount(ctx, s.User, account); err != nil {
			return nil, storage.Wrap("save account", s.User, err)
		}
		// an existing played games index survives re-creation
		if _, err := h.storage.GetPlayedGames(ctx, s.User); errors.Is(err, model.ErrPlayedGamesNotFound) {
			if err := h.storage.SavePlayedGames(ctx, s.User, model.PlayedGames{}); err != nil {
				return nil, storage.Wrap("save played games", s.User, err)
			}
		} else if err != nil {
			return nil, storage.Wrap("load played games", s.User, err)
		}
		s.Account = account
		logger.Info("account created", slog.String("username", s.Username))
		return protocol.Ack(), nil

	case model.ActionLogIn:
		account, err := h.storage.GetAccount(ctx, s.User)
		switch {
		case errors.Is(err, model.ErrAccountNotFound):
			s.Account = nil
		case err != nil:
			return nil, storage.Wrap("load account", s.User, err)
		default:
			s.Account = account
		}
		return protocol.Ack(), nil

	case model.ActionDeleteGame:
		// no acknowledgement: the remote side never waits on this one
		if !s.HasGame() {
			return nil, nil
		}
		game := s.ActiveGame
		if err := h.storage.DeleteGameData(ctx, s.User, game); err != nil {
			return nil, storage.Wrap("delete game data", s.User, err)
		}
		played, err := h.storage.GetPlayedGames(ctx, s.User)
		if err != nil && !errors.Is(err, model.ErrPlayedGamesNotFound) {
			return nil, storage.Wrap("load played games", s.User, err)
		}
		if played.Contains(game) {
			if err := h.storage.SavePlayedGames(ctx, s.User, played.Without(game)); err != nil {
				return nil, storage.Wrap("save played games", s.User, err)
			}
		}
		s.clearGame()
		logger.Info("game deleted", slog.String("game_id", string(game)))
		return nil, nil
	}
	return nil, nil
}

func (h *Handler) setPassword(ctx context.Context, s *Session, password string, logger *slog.Logger) (protocol.Response, error) {
	switch s.Action {
	case model.ActionCreateAccount:
		account := s.Account
		if account == nil {
			loaded, err := h.storage.GetAccount(ctx, s.User)
			if errors.Is(err, model.ErrAccountNotFound) {
				logger.Debug("password ignored: no account")
				return nil, nil
			}
			if err != nil {
				return nil, storage.Wrap("load account", s.User, err)
			}
			account = loaded
		}
		hash, err := h.auth.HashPassword(password)
		if err != nil {
			logger.Warn("password ignored", slog.String("error", err.Error()))
			return nil, nil
		}
		updated := *account
		updated.PasswordHash = hash
		if err := h.storage.SaveAccount(ctx, s.User, &updated); err != nil {
			return nil, storage.Wrap("save account", s.User, err)
		}
		s.Account = &updated
		return protocol.Ack(), nil

	case model.ActionLogIn:
		return protocol.AckBool(h.auth.CheckPassword(s.Account, password)), nil

	default:
		logger.Debug("password ignored", slog.String("action", string(s.Action)))
		return nil, nil
	}
}

func (h *Handler) setGame(ctx context.Context, s *Session, game model.GameID, logger *slog.Logger) (protocol.Response, error) {
	played, err := h.storage.GetPlayedGames(ctx, s.User)
	if errors.Is(err, model.ErrPlayedGamesNotFound) {
		played = model.PlayedGames{}
	} else if err != nil {
		return nil, storage.Wrap("load played games", s.User, err)
	}

	if played.Contains(game) {
		data, err := h.storage.GetGameData(ctx, s.User, game)
		switch {
		case err == nil:
			s.ActiveGame = game
			s.Data = data
			return protocol.AckBool(true), nil
		case !errors.Is(err, model.ErrGameDataNotFound):
			return nil, storage.Wrap("load game data", s.User, err)
		}
		logger.Warn("played game has no data, starting fresh", slog.String("game_id", string(game)))
	}

	data := model.GameData{}
	if err := h.storage.SaveGameData(ctx, s.User, game, data); err != nil {
		return nil, storage.Wrap("save game data", s.User, err)
	}
	if !played.Contains(game) {
		if err := h.storage.SavePlayedGames(ctx, s.User, append(played, string(game))); err != nil {
			return nil, storage.Wrap("save played games", s.User, err)
		}
	}
	s.ActiveGame = game
	s.Data = data
	return protocol.AckBool(false), nil
}

// accountReady enforces the account-first precondition when enabled
func (h *Handler) accountReady(ctx context.Context, s *Session, logger *slog.Logger) (bool, error) {
	if !h.requireAccount {
		return true, nil
	}
	exists, err := h.storage.AccountExists(ctx, s.User)
	if err != nil {
		return false, storage.Wrap("check account", s.User, err)
	}
	if !exists {
		logger.Debug("command ignored: no account")
	}
	return exists, nil
}

func (h *Handler) gameReady(ctx context.Context, s *Session, logger *slog.Logger) (bool, error) {
	if ok, err := h.accountReady(ctx, s, logger); !ok {
		return false, err
	}
	if !s.HasGame() {
		logger.Debug("command ignored: no active game")
		return false, nil
	}
	return true, nil
}
