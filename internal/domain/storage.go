package domain

import "time"

// PlayRecord is a single entry of the recently played history
type PlayRecord struct {
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	Prefix   string    `json:"prefix"` // Folder the file was played from
	PlayedAt time.Time `json:"played_at"`
}

// HistoryStore handles local persistence (BoltDB + memory).
// Listings are never cached; only user history and location are persisted.
type HistoryStore interface {
	// === History ===
	RecordPlay(rec PlayRecord) error
	RecentPlays(limit int) ([]PlayRecord, error)
	ClearHistory() error

	// === Location ===
	SaveLocation(trail []Breadcrumb) error
	LastLocation() ([]Breadcrumb, bool)

	// === Lifecycle ===
	Close() error
}
