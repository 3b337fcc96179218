package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewGinEngine builds the router and registers all routes.
func NewGinEngine(s *Server) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())

	// Public surface: credential exchange and registration.
	r.POST("/auth/login", postLoginDispatch(s))
	r.GET("/auth/login", s.HandleLoginPage)
	r.POST("/auth/register", s.HandleAPIRegister)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Everything below requires verified identity claims.
	protected := r.Group("/")
	protected.Use(s.BearerMiddleware())
	{
		protected.GET("/media/client", s.HandleMediaClient)
		protected.GET("/rpc/token", s.HandleMediaToken)
		protected.GET("/rpc/rooms", s.HandleListRooms)
		protected.POST("/rpc/rooms", s.HandleCreateRoom)
		protected.PUT("/rpc/rooms/:room/permissions", s.HandleUpsertPermission)
		protected.DELETE("/rpc/rooms/:room/permissions/:username", s.HandleRevokePermission)
		protected.GET("/rpc/rooms/:room/participants", s.HandleListParticipants)
	}

	return r
}

// postLoginDispatch routes the login POST to the JSON handler or the web
// form handler based on content type, keeping one URL for both flows.
func postLoginDispatch(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.ContentType() == "application/json" {
			s.HandleAPILogin(c)
			return
		}
		s.HandleWebLogin(c)
	}
}
