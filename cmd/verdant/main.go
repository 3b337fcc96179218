package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/verdant-labs/verdant/claims"
	"github.com/verdant-labs/verdant/grants"
	"github.com/verdant-labs/verdant/mediatoken"
	"github.com/verdant-labs/verdant/migrate"
	"github.com/verdant-labs/verdant/password"
	"github.com/verdant-labs/verdant/seed"
	"github.com/verdant-labs/verdant/server"
	"github.com/verdant-labs/verdant/store"
)

func main() {
	cfg := server.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := migrate.RunFromEnv(); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	dsn := cfg.DSN()
	if dsn == "" {
		logger.Fatal("database DSN not set (VERDANT_DATABASE__DSN)")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		// The service cannot safely serve without its identity store.
		logger.Fatal("open database", zap.Error(err))
	}

	users := store.NewUserStore(db)
	rooms := store.NewRoomStore(db)
	permissions := store.NewPermissionStore(db)

	var journal store.Journal
	switch cfg.Journal.Backend {
	case "valkey":
		journal, err = store.NewValkeyJournal(cfg.Journal.Addr, "")
	default:
		journal, err = store.NewBuntJournal(cfg.Journal.Path)
	}
	if err != nil {
		logger.Fatal("open journal", zap.Error(err))
	}
	defer journal.Close()

	var keys *claims.KeyPair
	if cfg.Issuer.KeyFile != "" {
		keys, err = claims.LoadKeyPair(cfg.Issuer.KeyFile)
	} else {
		logger.Warn("no key file configured, generating ephemeral signing key")
		keys, err = claims.GenerateKeyPair()
	}
	if err != nil {
		logger.Fatal("signing keys", zap.Error(err))
	}

	hasher := password.Bcrypt{}
	issuer := claims.NewIssuer(users, hasher, keys, cfg.Issuer.URL, cfg.Issuer.Audience, cfg.Issuer.Validity)
	verifier := claims.NewVerifier(keys.Public, cfg.Issuer.URL, cfg.Issuer.Audience)
	resolver := grants.NewResolver(users, permissions)
	minter := mediatoken.NewMinter(cfg.Media.APIKey, cfg.Media.APISecret, cfg.Media.Validity)

	if cfg.Admin.Password == "" {
		logger.Warn("no admin password configured, skipping install seed")
	} else {
		installCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := seed.Install(installCtx, users, hasher, seed.DefaultAdmin{
			Username: cfg.Admin.Username,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		}); err != nil {
			// Install-time provisioning is the one fatal store failure.
			logger.Fatal("install failed", zap.Error(err))
		}
	}

	srv := server.NewServer(cfg, server.Deps{
		Users:       users,
		Rooms:       rooms,
		Permissions: permissions,
		Journal:     journal,
		Hasher:      hasher,
		Issuer:      issuer,
		Verifier:    verifier,
		Resolver:    resolver,
		Minter:      minter,
		Logger:      logger,
	})

	engine := server.NewGinEngine(srv)
	logger.Info("listening", zap.String("addr", cfg.Listen))
	if err := engine.Run(cfg.Listen); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
