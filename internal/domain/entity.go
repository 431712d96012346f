package domain

import (
	"time"
)

// StoredOffer is the persisted form of an Offer, so a restarted client does
// not lose track of its live bids between sessions.
type StoredOffer struct {
	PlayerID      int64  `gorm:"primaryKey" json:"player_id"`
	Amount        int64  `json:"amount"`
	PlayerName    string `json:"player_name"`
	RemoteOfferID int64  `json:"remote_offer_id"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StoredTombstone is the persisted form of a Tombstone. Persisting these
// keeps the resurrection guard intact across restarts.
type StoredTombstone struct {
	PlayerID    int64     `gorm:"primaryKey" json:"player_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// PlayerInfo caches player metadata for the UI layer.
type PlayerInfo struct {
	PlayerID     int64  `gorm:"primaryKey" json:"player_id"`
	Name         string `json:"name"`
	Position     string `json:"position"`
	PortraitPath string `json:"portrait_path"`
	LastSyncedAt time.Time `json:"last_synced_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AppConfig represents user-specific configuration (Key-Value)
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
