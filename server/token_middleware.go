package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/verdant-labs/verdant/errors"
)

// ctxSubject is the gin context key holding the verified claims subject.
const ctxSubject = "subject"

// BearerMiddleware validates the bearer token and sets the caller's subject
// in context. It runs before every protected handler; nothing downstream
// trusts a claimed identity that did not pass through here.
func (s *Server) BearerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			errJSON(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			c.Abort()
			return
		}
		ac, err := s.Verifier.Verify(token)
		if err != nil {
			desc := "invalid token"
			if errors.Is(err, errors.ErrExpired) {
				desc = "token expired"
			}
			errJSON(c, http.StatusUnauthorized, "unauthorized", desc)
			c.Abort()
			return
		}
		c.Set(ctxSubject, ac.Subject)
		c.Next()
	}
}

// bearerToken extracts the token from the Authorization header, falling back
// to the web session for browser flows.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}
	return sessionToken(c)
}

// Subject returns the verified subject set by BearerMiddleware.
func Subject(c *gin.Context) string {
	return c.GetString(ctxSubject)
}
