// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"

	"github.com/ekorchagin/commitwatch/internal/domain/model"
)

// ErrWatchNotFound indicates the requested watched repository does not exist.
var ErrWatchNotFound = errors.New("watched repository not found")

// WatchStore defines the driven port for watched-repository persistence.
//
// A watch record exists exactly as long as it has at least one subscriber:
// UpsertSubscriber creates the record on first use, RemoveSubscriber deletes
// it when the last subscriber leaves. Both are idempotent.
type WatchStore interface {
	// ListAll returns all watched repositories with their subscribers,
	// ordered by full name. Each record is a consistent snapshot.
	ListAll(ctx context.Context) ([]model.WatchedRepository, error)

	// ListBySubscriber returns the repositories the given subscriber watches,
	// ordered by full name.
	ListBySubscriber(ctx context.Context, subscriberID string) ([]model.WatchedRepository, error)

	// GetByFullName returns the watch record, or nil, nil if it does not exist.
	GetByFullName(ctx context.Context, fullName string) (*model.WatchedRepository, error)

	// UpsertSubscriber adds subscriberID to the repository's subscriber set,
	// creating the watch record if absent. It reports whether the subscriber
	// was newly added (false means they were already watching).
	UpsertSubscriber(ctx context.Context, repo model.WatchedRepository, subscriberID string) (bool, error)

	// RemoveSubscriber removes subscriberID from the repository's subscriber
	// set and deletes the record if the set becomes empty. It reports whether
	// a subscription was actually removed; removing an absent subscriber or
	// from an absent repository is a no-op, not an error.
	RemoveSubscriber(ctx context.Context, fullName, subscriberID string) (bool, error)

	// AdvanceCommitMarker overwrites the repository's last-seen commit.
	// Returns ErrWatchNotFound if the record vanished concurrently; callers
	// treat that as "no longer watched" and discard the detection result.
	AdvanceCommitMarker(ctx context.Context, fullName, commitSHA string) error
}
