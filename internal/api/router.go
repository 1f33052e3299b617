package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/cloudserver/internal/api/apierr"
	"github.com/mcoot/cloudserver/internal/api/handler"
	"github.com/mcoot/cloudserver/internal/api/response"
	"github.com/mcoot/cloudserver/internal/middleware"
	"github.com/mcoot/cloudserver/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Status  handler.StatusProvider
	Storage storage.Storage
}

// NewRouter creates the read-only status router
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	channelHandler := handler.NewChannelHandler(cfg.Status)
	userHandler := handler.NewUserHandler(cfg.Storage)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger, internalErrorOnPanic))
	api.Use(middleware.Logging(cfg.Logger))

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	api.HandleFunc("/channels", channelHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/channels/{project}/{variant}", channelHandler.Get).Methods(http.MethodGet)

	api.HandleFunc("/users/{user}", userHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/users/{user}/games/{game}", userHandler.GetGame).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

func internalErrorOnPanic(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
