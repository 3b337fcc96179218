package store

import (
	"context"
	"encoding/json"
	"time"

	valkey "github.com/valkey-io/valkey-go"

	"github.com/verdant-labs/verdant/errors"
)

// ValkeyJournal stores issued-token records in Valkey (Redis-compatible),
// for deployments where several instances mint tokens for the same rooms.
type ValkeyJournal struct {
	client valkey.Client
	prefix string
}

// NewValkeyJournal connects to addr ("127.0.0.1:6379"). prefix namespaces
// keys; it defaults to "verdant:".
func NewValkeyJournal(addr, prefix string) (*ValkeyJournal, error) {
	cli, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "verdant:"
	}
	return &ValkeyJournal{client: cli, prefix: prefix}, nil
}

func (j *ValkeyJournal) Record(ctx context.Context, token string, rec IssuedToken) error {
	jv, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	key := j.prefix + journalKey(rec.Room, tokenHash(token))
	if err := j.client.Do(ctx, j.client.B().Set().Key(key).Value(string(jv)).Ex(ttl).Build()).Error(); err != nil {
		return errors.Transient(err)
	}
	return nil
}

func (j *ValkeyJournal) ListRoom(ctx context.Context, room string) ([]IssuedToken, error) {
	pattern := j.prefix + "issued:" + room + ":*"
	var out []IssuedToken
	var cursor uint64
	for {
		resp := j.client.Do(ctx, j.client.B().Scan().Cursor(cursor).Match(pattern).Count(100).Build())
		entry, err := resp.AsScanEntry()
		if err != nil {
			return nil, errors.Transient(err)
		}
		for _, key := range entry.Elements {
			val, err := j.client.Do(ctx, j.client.B().Get().Key(key).Build()).ToString()
			if err != nil {
				continue
			}
			var rec IssuedToken
			if json.Unmarshal([]byte(val), &rec) == nil {
				out = append(out, rec)
			}
		}
		cursor = entry.Cursor
		if cursor == 0 {
			break
		}
	}
	return out, nil
}

func (j *ValkeyJournal) Close() error {
	j.client.Close()
	return nil
}
