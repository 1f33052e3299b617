package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/cloudserver/internal/api/response"
	"github.com/mcoot/cloudserver/internal/channel"
	"github.com/mcoot/cloudserver/internal/config"
	"github.com/mcoot/cloudserver/internal/factory"
	"github.com/mcoot/cloudserver/internal/model"
	redisstorage "github.com/mcoot/cloudserver/internal/storage/redis"
)

type inspectOptions struct {
	rawID      bool
	game       string
	remote     bool
	storage    string
	dataDir    string
	redisURL   string
	sqlitePath string
}

func newInspectCmd() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <username>",
		Short: "Show a user's stored account, games and game data",
		Long: `Show the records stored for a user. The username is encoded the same way
the project encodes it on the wire; pass --id to give the encoded id directly.

By default the store is opened directly using the same settings as serve.
With --remote the running server's API is queried instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := resolveUser(args[0], opts.rawID)
			if err != nil {
				return err
			}
			out := NewOutput(cmd.OutOrStdout(), cfg.Output)

			if opts.remote {
				return inspectRemote(cmd, out, user, model.GameID(opts.game))
			}
			return inspectStore(cmd, out, opts, user)
		},
	}

	cmd.Flags().BoolVar(&opts.rawID, "id", false, "Treat the argument as an encoded user id")
	cmd.Flags().StringVar(&opts.game, "game", "", "Show the data stored for this game")
	cmd.Flags().BoolVar(&opts.remote, "remote", false, "Query the running server instead of the store")
	cmd.Flags().StringVar(&opts.storage, "storage", "", "Storage backend (env: CLOUDSERVER_STORAGE_TYPE)")
	cmd.Flags().StringVar(&opts.dataDir, "data-dir", "", "Data directory (env: CLOUDSERVER_DATA_DIR)")
	cmd.Flags().StringVar(&opts.redisURL, "redis-url", "", "Redis URL (env: CLOUDSERVER_REDIS_URL)")
	cmd.Flags().StringVar(&opts.sqlitePath, "sqlite-path", "", "SQLite database (env: CLOUDSERVER_SQLITE_PATH)")

	return cmd
}

func resolveUser(arg string, raw bool) (model.UserID, error) {
	if raw {
		return model.UserID(arg), nil
	}
	encoded, err := channel.EncodeNumeric(arg)
	if err != nil {
		return "", fmt.Errorf("encode username %q: %w", arg, err)
	}
	return model.UserID(encoded), nil
}

func inspectRemote(cmd *cobra.Command, out *Output, user model.UserID, game model.GameID) error {
	path := "/api/v1/users/" + url.PathEscape(string(user))
	if game != "" {
		var g response.Game
		if err := client.Get(cmd.Context(), path+"/games/"+url.PathEscape(string(game)), &g); err != nil {
			return err
		}
		out.Print(g)
		return nil
	}

	var u response.User
	if err := client.Get(cmd.Context(), path, &u); err != nil {
		return err
	}
	out.Print(u)
	return nil
}

func inspectStore(cmd *cobra.Command, out *Output, opts *inspectOptions, user model.UserID) error {
	env, err := config.Load()
	if err != nil {
		return err
	}
	storageCfg := factory.StorageConfig{
		Type:       firstNonEmpty(opts.storage, env.StorageType),
		DataDir:    firstNonEmpty(opts.dataDir, env.DataDir),
		SQLitePath: firstNonEmpty(opts.sqlitePath, env.SQLitePath),
	}
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = firstNonEmpty(opts.redisURL, env.RedisURL)
	storageCfg.RedisConfig = &redisCfg

	ctx := cmd.Context()
	store, closer, err := factory.NewStorage(ctx, storageCfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	if opts.game != "" {
		game := model.GameID(opts.game)
		data, err := store.GetGameData(ctx, user, game)
		if err != nil {
			return fmt.Errorf("load game %s: %w", game, err)
		}
		out.Print(response.Game{ID: game, Data: data})
		return nil
	}

	account, err := store.GetAccount(ctx, user)
	hasAccount := err == nil
	if err != nil && !errors.Is(err, model.ErrAccountNotFound) {
		return fmt.Errorf("load account: %w", err)
	}
	played, err := store.GetPlayedGames(ctx, user)
	hasPlayed := err == nil
	if err != nil && !errors.Is(err, model.ErrPlayedGamesNotFound) {
		return fmt.Errorf("load played games: %w", err)
	}
	if !hasAccount && !hasPlayed {
		return fmt.Errorf("no records for user %s", user)
	}

	out.Print(response.UserFromRecords(user, account, played))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
