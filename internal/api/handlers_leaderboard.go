package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"squad-markets/internal/auth"
	"squad-markets/internal/leaderboard"
)

func (s *Server) handleGetLeaderboard(c *gin.Context) {
	squadID := c.Param("id")

	tf, err := leaderboard.ParseTimeframe(c.Query("timeframe"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "timeframe must be one of: all, weekly, daily"})
		return
	}

	board, err := s.leaderboards.GetLeaderboard(c.Request.Context(), squadID, auth.UserID(c), tf)
	if err != nil {
		s.respondLeaderboardError(c, squadID, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

func (s *Server) handleCalculateWinner(c *gin.Context) {
	squadID := c.Param("id")

	winner, err := s.leaderboards.CalculateWinner(c.Request.Context(), squadID, auth.UserID(c))
	if err != nil {
		s.respondLeaderboardError(c, squadID, err)
		return
	}

	c.JSON(http.StatusOK, winner)
}

// respondLeaderboardError maps core errors onto the HTTP surface:
// access denied and not-found are surfaced directly, no-data is a client
// error, and anything else (including persistence failures) is a server
// error. Per-member upstream failures never reach here; they degrade inside
// the build.
func (s *Server) respondLeaderboardError(c *gin.Context, squadID string, err error) {
	switch {
	case errors.Is(err, leaderboard.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this squad"})
	case errors.Is(err, leaderboard.ErrSquadNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "squad not found"})
	case errors.Is(err, leaderboard.ErrNoLeaderboardData):
		c.JSON(http.StatusBadRequest, gin.H{"error": "squad has no leaderboard data"})
	default:
		s.logger.Error().Err(err).Str("squad_id", squadID).Msg("leaderboard operation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
