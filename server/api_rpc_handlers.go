package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verdant-labs/verdant/errors"
	"github.com/verdant-labs/verdant/models"
	"github.com/verdant-labs/verdant/store"
)

// HandleMediaToken resolves the caller's grants for a room and mints the
// media access token. A user with no permission row still gets a join-only
// token with publish and subscribe off; that is the no-row-means-no-access
// rule, not an error.
func (s *Server) HandleMediaToken(c *gin.Context) {
	roomName := strings.TrimSpace(c.Query("room"))
	if roomName == "" {
		errJSON(c, http.StatusBadRequest, "invalid_request", "room is required")
		return
	}
	room, err := s.Rooms.FindByName(c.Request.Context(), roomName)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			errJSON(c, http.StatusNotFound, "not_found", "no such room")
			return
		}
		s.logger.Error("room lookup failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}

	subject := Subject(c)
	grant, err := s.Resolver.Resolve(c.Request.Context(), subject, room.ID)
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrUnknownSubject):
			// Token outlived the identity it was issued for.
			s.logger.Warn("unknown subject", zap.String("subject", subject))
			errJSON(c, http.StatusUnauthorized, "unauthorized", "unknown subject")
		case errors.Is(err, errors.ErrDuplicatePermission):
			s.logger.Error("duplicate permission rows",
				zap.String("subject", subject), zap.String("room", room.ID))
			errJSON(c, http.StatusInternalServerError, "data_integrity", "conflicting permission rows")
		default:
			s.logger.Error("grant resolution failed", zap.Error(err))
			errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		}
		return
	}

	token, err := s.Minter.Mint(subject, room.Name, grant)
	if err != nil {
		s.logger.Error("media token mint failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "media_token_error", "could not mint media token")
		return
	}
	now := time.Now()
	if err := s.Journal.Record(c.Request.Context(), token, store.IssuedToken{
		Identity:     subject,
		Room:         room.Name,
		CanPublish:   grant.CanPublish(),
		CanSubscribe: grant.CanSubscribe(),
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.Minter.Validity()),
	}); err != nil {
		s.logger.Error("journal write failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "media_token_error", "could not record issued token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"room":     room.Name,
		"identity": subject,
		"url":      s.Config.Media.BaseURL,
	})
}

// HandleListRooms returns all rooms.
func (s *Server) HandleListRooms(c *gin.Context) {
	rooms, err := s.Rooms.List(c.Request.Context())
	if err != nil {
		s.logger.Error("room list failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// HandleCreateRoom provisions a room and grants the creator the full
// permission row, room_admin included. The creator's flags are still a
// ceiling on later resolution like anyone else's.
func (s *Server) HandleCreateRoom(c *gin.Context) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || strings.TrimSpace(payload.Name) == "" {
		errJSON(c, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	creator, err := s.Users.FindBySubject(c.Request.Context(), Subject(c))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			errJSON(c, http.StatusUnauthorized, "unauthorized", "unknown subject")
			return
		}
		s.logger.Error("subject lookup failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}

	room := &models.Room{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(payload.Name),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Rooms.Insert(c.Request.Context(), room); err != nil {
		if errors.Is(err, errors.ErrDuplicateRoom) {
			errJSON(c, http.StatusConflict, "conflict", "room already exists")
			return
		}
		s.logger.Error("room insert failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}
	perm := &models.Permission{
		ID:           uuid.NewString(),
		UserID:       creator.ID,
		RoomID:       room.ID,
		RoomAdmin:    true,
		CanPublish:   true,
		CanSubscribe: true,
	}
	if err := s.Permissions.Upsert(c.Request.Context(), perm); err != nil {
		s.logger.Error("creator permission upsert failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}

	c.JSON(http.StatusCreated, room)
}

// requireRoomAdmin resolves the caller's grant in the room and rejects
// callers without the room_admin capability. Returns the room, or nil after
// writing the error response.
func (s *Server) requireRoomAdmin(c *gin.Context) *models.Room {
	roomName := c.Param("room")
	room, err := s.Rooms.FindByName(c.Request.Context(), roomName)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			errJSON(c, http.StatusNotFound, "not_found", "no such room")
			return nil
		}
		s.logger.Error("room lookup failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return nil
	}
	grant, err := s.Resolver.Resolve(c.Request.Context(), Subject(c), room.ID)
	if err != nil {
		if errors.Is(err, errors.ErrUnknownSubject) {
			errJSON(c, http.StatusUnauthorized, "unauthorized", "unknown subject")
			return nil
		}
		s.logger.Error("grant resolution failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return nil
	}
	if !grant.RoomAdmin {
		errJSON(c, http.StatusForbidden, "forbidden", "room admin required")
		return nil
	}
	return room
}

// HandleUpsertPermission lets a room admin set another user's permission row
// for the room. The target's coarse flags set here remain a ceiling when the
// target's grants are resolved; an admin cannot push anyone, including
// themselves, above it.
func (s *Server) HandleUpsertPermission(c *gin.Context) {
	room := s.requireRoomAdmin(c)
	if room == nil {
		return
	}
	var payload struct {
		Username     string `json:"username"`
		RoomAdmin    bool   `json:"room_admin"`
		CanPublish   bool   `json:"can_publish"`
		CanSubscribe bool   `json:"can_subscribe"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil || strings.TrimSpace(payload.Username) == "" {
		errJSON(c, http.StatusBadRequest, "invalid_request", "username is required")
		return
	}
	target, err := s.Users.FindByUsername(c.Request.Context(), payload.Username)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			errJSON(c, http.StatusNotFound, "not_found", "no such user")
			return
		}
		s.logger.Error("user lookup failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}

	perm := &models.Permission{
		ID:           uuid.NewString(),
		UserID:       target.ID,
		RoomID:       room.ID,
		RoomAdmin:    payload.RoomAdmin,
		CanPublish:   payload.CanPublish,
		CanSubscribe: payload.CanSubscribe,
	}
	if err := s.Permissions.Upsert(c.Request.Context(), perm); err != nil {
		s.logger.Error("permission upsert failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}
	c.JSON(http.StatusOK, perm)
}

// HandleRevokePermission deletes a user's permission row for the room.
func (s *Server) HandleRevokePermission(c *gin.Context) {
	room := s.requireRoomAdmin(c)
	if room == nil {
		return
	}
	target, err := s.Users.FindByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			errJSON(c, http.StatusNotFound, "not_found", "no such user")
			return
		}
		s.logger.Error("user lookup failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}
	if err := s.Permissions.Delete(c.Request.Context(), target.ID, room.ID); err != nil {
		s.logger.Error("permission delete failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleListParticipants returns the journal of media tokens issued for a
// room that have not yet expired. Admin-only: the journal names identities.
func (s *Server) HandleListParticipants(c *gin.Context) {
	room := s.requireRoomAdmin(c)
	if room == nil {
		return
	}
	issued, err := s.Journal.ListRoom(c.Request.Context(), room.Name)
	if err != nil {
		s.logger.Error("journal read failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}
	if issued == nil {
		issued = []store.IssuedToken{}
	}
	c.JSON(http.StatusOK, gin.H{"participants": issued})
}
