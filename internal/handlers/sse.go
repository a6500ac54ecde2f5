package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cvready/cvready-backend/internal/requestdata"
	"github.com/cvready/cvready-backend/internal/sse"
)

type SSEHandler struct {
	hub *sse.SSEHub
}

func NewSSEHandler(hub *sse.SSEHub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// Stream subscribes the caller to their own event channel and holds the
// connection open until the client goes away.
func (sh *SSEHandler) Stream(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	client := sh.hub.NewSSEClient(rd.UserID)
	sh.hub.AddChannel(client, rd.UserID.String())
	defer sh.hub.CloseClient(client)

	sh.hub.ServeHTTP(c.Writer, c.Request, client)
}
