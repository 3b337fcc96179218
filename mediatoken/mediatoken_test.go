package mediatoken

import (
	"testing"
	"time"

	"github.com/verdant-labs/verdant/errors"
	"github.com/verdant-labs/verdant/grants"
	"github.com/verdant-labs/verdant/models"
)

const (
	testAPIKey    = "APIkeyTest"
	testAPISecret = "secret-for-tests-only"
)

func fullGrant(roomID string) *grants.RoomGrant {
	return &grants.RoomGrant{
		Identity: "subj-alice",
		RoomID:   roomID,
		Entries: models.EntriesFor(&models.Permission{
			CanPublish:   true,
			CanSubscribe: true,
		}),
	}
}

func TestMintDecodeRoundTrip(t *testing.T) {
	m := NewMinter(testAPIKey, testAPISecret, 0)
	token, err := m.Mint("subj-alice", "lobby", fullGrant("room-1"))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	c, err := Decode(token, testAPIKey, testAPISecret)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Subject != "subj-alice" {
		t.Errorf("subject: got %q", c.Subject)
	}
	if c.Issuer != testAPIKey {
		t.Errorf("issuer: got %q", c.Issuer)
	}
	if c.Video == nil {
		t.Fatal("missing video grant")
	}
	if !c.Video.RoomJoin || c.Video.Room != "lobby" {
		t.Errorf("video grant: %+v", c.Video)
	}
	if !c.Video.CanPublish || !c.Video.CanSubscribe {
		t.Errorf("expected full capability, got publish=%v subscribe=%v", c.Video.CanPublish, c.Video.CanSubscribe)
	}
}

func TestMintPublishSourceNames(t *testing.T) {
	m := NewMinter(testAPIKey, testAPISecret, 0)
	grant := &grants.RoomGrant{
		Identity: "subj-alice",
		RoomID:   "room-1",
		Entries: models.EntriesFor(&models.Permission{
			CanPublish: true,
		}),
	}
	token, err := m.Mint("subj-alice", "lobby", grant)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	c, err := Decode(token, testAPIKey, testAPISecret)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	want := []string{"microphone", "camera", "screen_share"}
	if len(c.Video.CanPublishSources) != len(want) {
		t.Fatalf("sources: got %v, want %v", c.Video.CanPublishSources, want)
	}
	for i, name := range want {
		if c.Video.CanPublishSources[i] != name {
			t.Errorf("source[%d]: got %q, want %q", i, c.Video.CanPublishSources[i], name)
		}
	}
	if c.Video.CanSubscribe {
		t.Error("subscribe must stay off when only can_publish is set")
	}
}

func TestMintDeniedGrantYieldsDeniedToken(t *testing.T) {
	m := NewMinter(testAPIKey, testAPISecret, 0)
	grant := &grants.RoomGrant{
		Identity: "subj-alice",
		RoomID:   "room-1",
		Entries:  models.EntriesFor(nil),
	}
	token, err := m.Mint("subj-alice", "lobby", grant)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	c, err := Decode(token, testAPIKey, testAPISecret)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Video.CanPublish || c.Video.CanSubscribe {
		t.Error("an all-DISABLE grant must not produce capabilities")
	}
	if len(c.Video.CanPublishSources) != 0 {
		t.Errorf("expected no publish sources, got %v", c.Video.CanPublishSources)
	}
}

func TestMintWithoutSecret(t *testing.T) {
	m := NewMinter("", "", 0)
	if _, err := m.Mint("subj-alice", "lobby", fullGrant("room-1")); err != errors.ErrMediaToken {
		t.Fatalf("expected ErrMediaToken, got %v", err)
	}
}

func TestDecodeWrongSecret(t *testing.T) {
	m := NewMinter(testAPIKey, testAPISecret, 0)
	token, err := m.Mint("subj-alice", "lobby", fullGrant("room-1"))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := Decode(token, testAPIKey, "another-secret"); err != errors.ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestDecodeWrongAPIKey(t *testing.T) {
	m := NewMinter(testAPIKey, testAPISecret, 0)
	token, err := m.Mint("subj-alice", "lobby", fullGrant("room-1"))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := Decode(token, "OtherKey", testAPISecret); err != errors.ErrIssuerMismatch {
		t.Fatalf("expected ErrIssuerMismatch, got %v", err)
	}
}

func TestValidityDefault(t *testing.T) {
	if got := NewMinter(testAPIKey, testAPISecret, 0).Validity(); got != DefaultValidity {
		t.Errorf("default validity: got %v", got)
	}
	if got := NewMinter(testAPIKey, testAPISecret, time.Minute).Validity(); got != time.Minute {
		t.Errorf("explicit validity: got %v", got)
	}
}
