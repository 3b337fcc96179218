package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/verdant-labs/verdant/errors"
)

// IssuedToken is the journal record written for every minted media token.
// The journal exists for operator introspection of active room admissions;
// verification never consults it.
type IssuedToken struct {
	Identity     string    `json:"identity"`
	Room         string    `json:"room"`
	CanPublish   bool      `json:"can_publish"`
	CanSubscribe bool      `json:"can_subscribe"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Journal records issued media tokens with a TTL matching their lifetime.
type Journal interface {
	Record(ctx context.Context, token string, rec IssuedToken) error
	ListRoom(ctx context.Context, room string) ([]IssuedToken, error)
	Close() error
}

// tokenHash returns a stable hex sha256 for a token string; raw tokens are
// never stored.
func tokenHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func journalKey(room, hash string) string {
	return "issued:" + room + ":" + hash
}

// BuntJournal is the embedded journal backend. Path ":memory:" keeps the
// journal in memory, which is what single-node deployments and tests use.
type BuntJournal struct {
	db *buntdb.DB
}

func NewBuntJournal(path string) (*BuntJournal, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &BuntJournal{db: db}, nil
}

func (j *BuntJournal) Record(_ context.Context, token string, rec IssuedToken) error {
	jv, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return j.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(journalKey(rec.Room, tokenHash(token)), string(jv), &buntdb.SetOptions{Expires: true, TTL: ttl})
		return err
	})
}

func (j *BuntJournal) ListRoom(_ context.Context, room string) ([]IssuedToken, error) {
	var out []IssuedToken
	err := j.db.View(func(tx *buntdb.Tx) error {
		prefix := "issued:" + room + ":"
		return tx.AscendKeys(prefix+"*", func(key, value string) bool {
			if !strings.HasPrefix(key, prefix) {
				return true
			}
			var rec IssuedToken
			if json.Unmarshal([]byte(value), &rec) == nil {
				out = append(out, rec)
			}
			return true
		})
	})
	if err != nil {
		return nil, errors.Transient(err)
	}
	return out, nil
}

func (j *BuntJournal) Close() error { return j.db.Close() }
