package handler

import (
	"github.com/gin-gonic/gin"

	"vidhub/internal/app"
	"vidhub/internal/apperr"
	"vidhub/internal/transport/http/response"
)

type ChannelHandler struct {
	channels *app.ChannelService
}

func NewChannelHandler(channels *app.ChannelService) *ChannelHandler {
	return &ChannelHandler{channels: channels}
}

func (h *ChannelHandler) Profile(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		response.Fail(c, apperr.Auth("unauthorized request"))
		return
	}
	profile, err := h.channels.GetChannelProfile(c.Request.Context(), c.Param("username"), viewerID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "user channel fetched successfully", profile)
}

func (h *ChannelHandler) Subscribe(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		response.Fail(c, apperr.Auth("unauthorized request"))
		return
	}
	if err := h.channels.Subscribe(c.Request.Context(), viewerID, c.Param("username")); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "subscribed", nil)
}

func (h *ChannelHandler) Unsubscribe(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		response.Fail(c, apperr.Auth("unauthorized request"))
		return
	}
	if err := h.channels.Unsubscribe(c.Request.Context(), viewerID, c.Param("username")); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "unsubscribed", nil)
}
