package model

import "time"

// WatchedRepository is a GitHub repository registered for commit monitoring,
// together with the subscribers interested in it and the marker of the most
// recent commit already processed.
type WatchedRepository struct {
	ID             int64
	FullName       string // "owner/name", the natural key.
	Owner          string
	Name           string
	Subscribers    []string // Deduplicated at the store boundary.
	LastSeenCommit string   // Empty until the first detection cycle.
	AddedAt        time.Time
}

// HasSubscriber reports whether the given subscriber is watching this repository.
func (w *WatchedRepository) HasSubscriber(subscriberID string) bool {
	for _, s := range w.Subscribers {
		if s == subscriberID {
			return true
		}
	}
	return false
}
