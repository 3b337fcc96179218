package server

import (
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/verdant-labs/verdant/claims"
	"github.com/verdant-labs/verdant/grants"
	"github.com/verdant-labs/verdant/mediatoken"
	"github.com/verdant-labs/verdant/migrate"
	"github.com/verdant-labs/verdant/password"
	"github.com/verdant-labs/verdant/store"
)

const (
	testAPIKey    = "APITestKey"
	testAPISecret = "media-secret-for-tests"
	testIssuerURL = "http://auth.test"
	testAudience  = "verdant"
)

var (
	testKeysOnce sync.Once
	testKeys     *claims.KeyPair

	migrateOnce sync.Once
	migrateErr  error
)

func testKeyPair(t *testing.T) *claims.KeyPair {
	t.Helper()
	testKeysOnce.Do(func() {
		var err error
		testKeys, err = claims.GenerateKeyPair()
		if err != nil {
			panic(err)
		}
	})
	return testKeys
}

// getTestDSN returns the postgres DSN for server tests, empty when no test
// database is configured.
func getTestDSN() string {
	return os.Getenv("VERDANT_TEST_DSN")
}

func testConfig() *AppConfig {
	return &AppConfig{
		Env:    "test",
		Listen: ":0",
		Issuer: IssuerConfig{
			URL:      testIssuerURL,
			Audience: testAudience,
			Validity: time.Hour,
		},
		Media: MediaConfig{
			BaseURL:   "ws://media.test",
			APIKey:    testAPIKey,
			APISecret: testAPISecret,
			Validity:  10 * time.Minute,
		},
	}
}

// newTestServer builds the full stack against the test database, skipping
// when none is configured. Migrations run once per test binary.
func newTestServer(t *testing.T) (*gin.Engine, *Server) {
	t.Helper()
	dsn := getTestDSN()
	if dsn == "" {
		t.Skip("No database connection available")
	}

	migrateOnce.Do(func() {
		migrateErr = migrate.Run(migrate.Options{
			Driver:  "postgres",
			DSN:     dsn,
			Command: "up",
			Logger:  log.New(os.Stdout, "[server-migrate] ", log.LstdFlags),
		})
	})
	if migrateErr != nil {
		t.Fatalf("migration failed: %v", migrateErr)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	journal, err := store.NewBuntJournal(":memory:")
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { journal.Close() })

	keys := testKeyPair(t)
	cfg := testConfig()
	users := store.NewUserStore(db)
	rooms := store.NewRoomStore(db)
	perms := store.NewPermissionStore(db)
	hasher := password.Bcrypt{Cost: 4}

	s := NewServer(cfg, Deps{
		Users:       users,
		Rooms:       rooms,
		Permissions: perms,
		Journal:     journal,
		Hasher:      hasher,
		Issuer:      claims.NewIssuer(users, hasher, keys, cfg.Issuer.URL, cfg.Issuer.Audience, cfg.Issuer.Validity),
		Verifier:    claims.NewVerifier(keys.Public, cfg.Issuer.URL, cfg.Issuer.Audience),
		Resolver:    grants.NewResolver(users, perms),
		Minter:      mediatoken.NewMinter(cfg.Media.APIKey, cfg.Media.APISecret, cfg.Media.Validity),
	})

	gin.SetMode(gin.TestMode)
	return NewGinEngine(s), s
}

// newStatelessTestServer builds an engine with no database behind it, enough
// for routes and middleware that reject before touching a store.
func newStatelessTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	keys := testKeyPair(t)
	cfg := testConfig()
	s := NewServer(cfg, Deps{
		Verifier: claims.NewVerifier(keys.Public, cfg.Issuer.URL, cfg.Issuer.Audience),
	})
	gin.SetMode(gin.TestMode)
	return NewGinEngine(s)
}
