package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"squad-markets/internal/auth"
	"squad-markets/internal/database"
)

type createSquadRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) handleCreateSquad(c *gin.Context) {
	var req createSquadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	squad := &database.Squad{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(req.Name),
		InviteCode: newInviteCode(),
		CreatorID:  auth.UserID(c),
	}

	if err := s.repo.CreateSquad(c.Request.Context(), squad); err != nil {
		s.logger.Error().Err(err).Msg("squad creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "squad creation failed"})
		return
	}

	squad.MemberCount = 1
	c.JSON(http.StatusCreated, squad)
}

func (s *Server) handleListSquads(c *gin.Context) {
	squads, err := s.repo.ListSquadsForUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		s.logger.Error().Err(err).Msg("squad listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "squad listing failed"})
		return
	}

	if squads == nil {
		squads = []database.Squad{}
	}
	c.JSON(http.StatusOK, gin.H{"squads": squads})
}

func (s *Server) handleGetSquad(c *gin.Context) {
	squadID := c.Param("id")

	squad, err := s.repo.GetSquadByID(c.Request.Context(), squadID)
	if err != nil {
		s.logger.Error().Err(err).Str("squad_id", squadID).Msg("squad lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "squad lookup failed"})
		return
	}
	if squad == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "squad not found"})
		return
	}

	isMember, err := s.repo.IsMember(c.Request.Context(), squadID, auth.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this squad"})
		return
	}

	c.JSON(http.StatusOK, squad)
}

type joinSquadRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
}

func (s *Server) handleJoinSquad(c *gin.Context) {
	var req joinSquadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	squad, err := s.repo.GetSquadByInviteCode(ctx, strings.TrimSpace(req.InviteCode))
	if err != nil {
		s.logger.Error().Err(err).Msg("invite lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invite lookup failed"})
		return
	}
	if squad == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invite code not recognized"})
		return
	}

	userID := auth.UserID(c)
	if err := s.repo.AddMember(ctx, squad.ID, userID, s.squadConfig.MaxMembers); err != nil {
		if errors.Is(err, database.ErrSquadFull) {
			c.JSON(http.StatusConflict, gin.H{"error": "squad is full"})
			return
		}
		s.logger.Error().Err(err).Str("squad_id", squad.ID).Msg("join failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "join failed"})
		return
	}

	displayName := ""
	if claims, ok := c.Get(auth.ContextKeyClaims); ok {
		if uc, ok := claims.(*auth.UserClaims); ok {
			displayName = uc.DisplayName
		}
	}
	s.eventBus.PublishMemberJoined(squad.ID, userID, displayName)

	c.JSON(http.StatusOK, squad)
}

func (s *Server) handleLeaveSquad(c *gin.Context) {
	squadID := c.Param("id")
	userID := auth.UserID(c)
	ctx := c.Request.Context()

	isMember, err := s.repo.IsMember(ctx, squadID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this squad"})
		return
	}

	if err := s.repo.RemoveMember(ctx, squadID, userID); err != nil {
		s.logger.Error().Err(err).Str("squad_id", squadID).Msg("leave failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leave failed"})
		return
	}

	s.eventBus.PublishMemberLeft(squadID, userID)
	c.JSON(http.StatusOK, gin.H{"status": "left"})
}

func (s *Server) handleListMessages(c *gin.Context) {
	squadID := c.Param("id")
	userID := auth.UserID(c)
	ctx := c.Request.Context()

	isMember, err := s.repo.IsMember(ctx, squadID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this squad"})
		return
	}

	messages, err := s.repo.ListRecentMessages(ctx, squadID, 50)
	if err != nil {
		s.logger.Error().Err(err).Str("squad_id", squadID).Msg("message listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "message listing failed"})
		return
	}

	if messages == nil {
		messages = []database.SquadMessage{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// newInviteCode derives a short invite code from a fresh UUID
func newInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
