package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vidhub/internal/app"
	"vidhub/internal/apperr"
	"vidhub/internal/transport/http/response"
)

type HistoryHandler struct {
	history *app.HistoryService
}

func NewHistoryHandler(history *app.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

func (h *HistoryHandler) List(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		response.Fail(c, apperr.Auth("unauthorized request"))
		return
	}
	videos, err := h.history.GetWatchHistory(c.Request.Context(), viewerID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, "watch history fetched successfully", videos)
}

// Record accepts the watch and returns 202; the history entry may be written
// asynchronously.
func (h *HistoryHandler) Record(c *gin.Context) {
	viewerID, ok := currentUserID(c)
	if !ok {
		response.Fail(c, apperr.Auth("unauthorized request"))
		return
	}
	videoID, ok := parseUintParam(c, "videoId")
	if !ok {
		response.Fail(c, apperr.Validation("invalid video id"))
		return
	}
	if err := h.history.RecordWatch(c.Request.Context(), viewerID, videoID); err != nil {
		response.Fail(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, "watch recorded", nil)
}
