package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"squad-markets/internal/auth"
	"squad-markets/internal/chat"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS layer for the REST surface; the
		// socket is protected by the JWT handed over in the token query param.
		return true
	},
}

// handleSquadWebSocket joins the caller to their squad's chat room
func (s *Server) handleSquadWebSocket(c *gin.Context) {
	squadID := c.Param("id")
	userID := auth.UserID(c)

	isMember, err := s.repo.IsMember(c.Request.Context(), squadID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this squad"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := chat.NewClient(s.hub, conn, squadID, userID)

	client.Send(marshalJSON(gin.H{
		"type":      "CONNECTED",
		"squad_id":  squadID,
		"timestamp": time.Now().UTC(),
	}))
}
