package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/cloudserver/internal/api/apierr"
	"github.com/mcoot/cloudserver/internal/api/response"
	"github.com/mcoot/cloudserver/internal/channel"
	"github.com/mcoot/cloudserver/internal/services/server"
)

// StatusProvider reports the state of every served channel
type StatusProvider interface {
	Status() []server.ChannelStatus
}

// ChannelHandler handles channel status endpoints
type ChannelHandler struct {
	status StatusProvider
}

// NewChannelHandler creates a new channel handler
func NewChannelHandler(status StatusProvider) *ChannelHandler {
	return &ChannelHandler{status: status}
}

// List handles GET /api/v1/channels
func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.ChannelList{Channels: h.status.Status()})
}

// Get handles GET /api/v1/channels/{project}/{variant}
func (h *ChannelHandler) Get(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	variant, err := channel.ParseVariant(vars["variant"])
	if err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError(err.Error()))
		return
	}
	target := server.Target{ProjectID: vars["project"], Variant: variant}

	for _, st := range h.status.Status() {
		if st.Target == target {
			response.JSON(w, http.StatusOK, st)
			return
		}
	}
	apierr.WriteError(w, apierr.ErrChannelNotFound)
}
