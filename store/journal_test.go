package store

import (
	"context"
	"testing"
	"time"
)

func newTestJournal(t *testing.T) *BuntJournal {
	t.Helper()
	j, err := NewBuntJournal(":memory:")
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func testRecord(identity, room string, ttl time.Duration) IssuedToken {
	now := time.Now()
	return IssuedToken{
		Identity:     identity,
		Room:         room,
		CanPublish:   true,
		CanSubscribe: true,
		IssuedAt:     now,
		ExpiresAt:    now.Add(ttl),
	}
}

func TestBuntJournalRecordAndList(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	if err := j.Record(ctx, "token-alice", testRecord("subj-alice", "lobby", time.Minute)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := j.Record(ctx, "token-bob", testRecord("subj-bob", "lobby", time.Minute)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := j.Record(ctx, "token-carol", testRecord("subj-carol", "other", time.Minute)); err != nil {
		t.Fatalf("record: %v", err)
	}

	recs, err := j.ListRoom(ctx, "lobby")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 lobby records, got %d", len(recs))
	}
	for _, r := range recs {
		if r.Room != "lobby" {
			t.Errorf("record from wrong room: %+v", r)
		}
	}
}

func TestBuntJournalSameTokenOverwrites(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	rec := testRecord("subj-alice", "lobby", time.Minute)
	if err := j.Record(ctx, "token-alice", rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := j.Record(ctx, "token-alice", rec); err != nil {
		t.Fatalf("record: %v", err)
	}

	recs, err := j.ListRoom(ctx, "lobby")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("re-recording the same token must not duplicate, got %d", len(recs))
	}
}

func TestBuntJournalExpiredTokenNotRecorded(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	if err := j.Record(ctx, "token-old", testRecord("subj-alice", "lobby", -time.Second)); err != nil {
		t.Fatalf("record: %v", err)
	}
	recs, err := j.ListRoom(ctx, "lobby")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("already-expired record must be dropped, got %d", len(recs))
	}
}

func TestBuntJournalEmptyRoom(t *testing.T) {
	j := newTestJournal(t)
	recs, err := j.ListRoom(context.Background(), "nobody-here")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected empty list, got %d", len(recs))
	}
}
