package models

// MediaSource is a directional media channel subject to independent control.
type MediaSource string

const (
	SourceMicrophone MediaSource = "MICROPHONE"
	SourceCamera     MediaSource = "CAMERA"
	SourceScreen     MediaSource = "SCREEN"
	SourceSpeaker    MediaSource = "SPEAKER"
)

// PublishSources lists the sources governed by the can_publish flag, in the
// order they appear in resolved entry sets.
var PublishSources = []MediaSource{SourceMicrophone, SourceCamera, SourceScreen}

// SubscribeSources lists the sources governed by the can_subscribe flag.
var SubscribeSources = []MediaSource{SourceSpeaker}

// Mode is the effective access mode for a media source.
type Mode string

const (
	ModeSend    Mode = "SEND"
	ModeReceive Mode = "RECEIVE"
	ModeEnable  Mode = "ENABLE"
	ModeDisable Mode = "DISABLE"
)

// Permission is the join row between a user and a room. The coarse flags are
// a ceiling: admin actions and defaults can only restrict further, never
// raise access above them. RoomAdmin grants management of other users' rows
// in the room, not a bypass of the holder's own ceiling.
type Permission struct {
	ID           string `json:"id" db:"id"`
	UserID       string `json:"user_id" db:"user_id"`
	RoomID       string `json:"room_id" db:"room_id"`
	RoomAdmin    bool   `json:"room_admin" db:"room_admin"`
	CanPublish   bool   `json:"can_publish" db:"can_publish"`
	CanSubscribe bool   `json:"can_subscribe" db:"can_subscribe"`
}

// PermissionEntry is a resolved (media source, mode) pair. Entries are
// derived, never persisted.
type PermissionEntry struct {
	MediaSource MediaSource `json:"media_source"`
	Mode        Mode        `json:"mode"`
}

// EntriesFor applies the ceiling to a permission row and returns the
// effective entry for every media source. A nil row means no access: every
// source resolves to DISABLE.
func EntriesFor(p *Permission) []PermissionEntry {
	canPublish := p != nil && p.CanPublish
	canSubscribe := p != nil && p.CanSubscribe

	entries := make([]PermissionEntry, 0, len(PublishSources)+len(SubscribeSources))
	for _, src := range PublishSources {
		mode := ModeDisable
		if canPublish {
			mode = ModeSend
		}
		entries = append(entries, PermissionEntry{MediaSource: src, Mode: mode})
	}
	for _, src := range SubscribeSources {
		mode := ModeDisable
		if canSubscribe {
			mode = ModeReceive
		}
		entries = append(entries, PermissionEntry{MediaSource: src, Mode: mode})
	}
	return entries
}

// CanSend reports whether the entry set allows sending from the given source.
func CanSend(entries []PermissionEntry, src MediaSource) bool {
	for _, e := range entries {
		if e.MediaSource == src {
			return e.Mode == ModeSend || e.Mode == ModeEnable
		}
	}
	return false
}

// CanReceive reports whether the entry set allows receiving on the given
// source.
func CanReceive(entries []PermissionEntry, src MediaSource) bool {
	for _, e := range entries {
		if e.MediaSource == src {
			return e.Mode == ModeReceive || e.Mode == ModeEnable
		}
	}
	return false
}
