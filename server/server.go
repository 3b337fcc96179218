// Package server exposes the claims issuance and room-grant pipeline over
// HTTP. Everything behind /rpc passes through the bearer middleware, which
// is the single gate recovering a caller's subject from its identity token.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/verdant-labs/verdant/claims"
	"github.com/verdant-labs/verdant/grants"
	"github.com/verdant-labs/verdant/mediatoken"
	"github.com/verdant-labs/verdant/password"
	"github.com/verdant-labs/verdant/store"
)

// Server wires the stores, the two token domains and the grant resolver
// behind the HTTP surface. All fields are set at construction and never
// mutated afterwards; request handling shares no other state.
type Server struct {
	Config *AppConfig

	Users       *store.UserStore
	Rooms       *store.RoomStore
	Permissions *store.PermissionStore
	Journal     store.Journal

	Hasher   password.Hasher
	Issuer   *claims.Issuer
	Verifier *claims.Verifier
	Resolver *grants.Resolver
	Minter   *mediatoken.Minter

	logger *zap.Logger
}

// Deps carries the constructed components into NewServer.
type Deps struct {
	Users       *store.UserStore
	Rooms       *store.RoomStore
	Permissions *store.PermissionStore
	Journal     store.Journal
	Hasher      password.Hasher
	Issuer      *claims.Issuer
	Verifier    *claims.Verifier
	Resolver    *grants.Resolver
	Minter      *mediatoken.Minter
	Logger      *zap.Logger
}

func NewServer(cfg *AppConfig, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Config:      cfg,
		Users:       d.Users,
		Rooms:       d.Rooms,
		Permissions: d.Permissions,
		Journal:     d.Journal,
		Hasher:      d.Hasher,
		Issuer:      d.Issuer,
		Verifier:    d.Verifier,
		Resolver:    d.Resolver,
		Minter:      d.Minter,
		logger:      logger,
	}
}

// errJSON writes the standard error body shape.
func errJSON(c *gin.Context, status int, code, description string) {
	c.JSON(status, gin.H{"error": code, "error_description": description})
}
