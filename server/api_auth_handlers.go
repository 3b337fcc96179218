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
)

// HandleAPILogin authenticates a user and issues a signed identity token.
// Unknown usernames and wrong passwords produce the identical response.
func (s *Server) HandleAPILogin(c *gin.Context) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		errJSON(c, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	if strings.TrimSpace(payload.Username) == "" || strings.TrimSpace(payload.Password) == "" {
		errJSON(c, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	token, err := s.Issuer.Issue(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidCredentials) {
			s.logger.Info("login rejected", zap.String("username", payload.Username))
			errJSON(c, http.StatusUnauthorized, "invalid_grant", "invalid username or password")
			return
		}
		s.logger.Error("login failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int64(s.Config.Issuer.Validity.Seconds()),
	})
}

// HandleAPIRegister creates a new user with a bcrypt-hashed password and a
// fresh claims subject.
func (s *Server) HandleAPIRegister(c *gin.Context) {
	var payload struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		errJSON(c, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	if strings.TrimSpace(payload.Username) == "" || strings.TrimSpace(payload.Password) == "" {
		errJSON(c, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	hash, err := s.Hasher.Hash(payload.Password)
	if err != nil {
		s.logger.Error("hash failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     payload.Username,
		Email:        payload.Email,
		Subject:      uuid.NewString(),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Users.Insert(c.Request.Context(), u); err != nil {
		if errors.Is(err, errors.ErrDuplicateUser) {
			errJSON(c, http.StatusConflict, "conflict", "username already exists")
			return
		}
		s.logger.Error("register failed", zap.Error(err))
		errJSON(c, http.StatusInternalServerError, "server_error", "temporary failure")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": u.ID, "username": u.Username})
}
