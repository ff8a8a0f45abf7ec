package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ekorchagin/commitwatch/internal/domain/model"
	"github.com/ekorchagin/commitwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.WatchStore = (*WatchRepo)(nil)

// WatchRepo is the SQLite implementation of the WatchStore port interface.
// Watches and their subscriber sets live in two tables; the composite primary
// key on watch_subscribers enforces set semantics, and all mutations run in a
// transaction on the single-writer connection so per-record updates are atomic.
type WatchRepo struct {
	db *DB
}

// NewWatchRepo creates a new WatchRepo backed by the given DB.
func NewWatchRepo(db *DB) *WatchRepo {
	return &WatchRepo{db: db}
}

const watchJoinQuery = `
SELECT w.id, w.full_name, w.owner, w.name, w.last_seen_commit, w.added_at, s.subscriber_id
FROM watches w
JOIN watch_subscribers s ON s.watch_id = w.id`

// ListAll returns all watched repositories with their subscribers, ordered by
// full name. The join runs as a single statement, so every record reflects a
// consistent snapshot.
func (r *WatchRepo) ListAll(ctx context.Context) ([]model.WatchedRepository, error) {
	query := watchJoinQuery + ` ORDER BY w.full_name, s.subscriber_id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list watches: %w", err)
	}
	defer rows.Close()

	return collectWatches(rows)
}

// ListBySubscriber returns the repositories the given subscriber watches,
// ordered by full name. Subscriber sets are complete, not filtered to the
// requesting subscriber.
func (r *WatchRepo) ListBySubscriber(ctx context.Context, subscriberID string) ([]model.WatchedRepository, error) {
	query := watchJoinQuery + `
WHERE w.id IN (SELECT watch_id FROM watch_subscribers WHERE subscriber_id = ?)
ORDER BY w.full_name, s.subscriber_id`

	rows, err := r.db.Reader.QueryContext(ctx, query, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("list watches for subscriber %s: %w", subscriberID, err)
	}
	defer rows.Close()

	return collectWatches(rows)
}

// GetByFullName retrieves a watched repository by its full name. Returns
// nil, nil if the repository is not watched.
func (r *WatchRepo) GetByFullName(ctx context.Context, fullName string) (*model.WatchedRepository, error) {
	query := watchJoinQuery + ` WHERE w.full_name = ? ORDER BY s.subscriber_id`

	rows, err := r.db.Reader.QueryContext(ctx, query, fullName)
	if err != nil {
		return nil, fmt.Errorf("get watch %s: %w", fullName, err)
	}
	defer rows.Close()

	watches, err := collectWatches(rows)
	if err != nil {
		return nil, fmt.Errorf("get watch %s: %w", fullName, err)
	}
	if len(watches) == 0 {
		return nil, nil
	}

	return &watches[0], nil
}

// UpsertSubscriber adds subscriberID to the repository's subscriber set,
// creating the watch record on first use. Reports whether the subscriber was
// newly added. The repository's LastSeenCommit is never touched here; only
// the poll loop advances markers.
func (r *WatchRepo) UpsertSubscriber(ctx context.Context, repo model.WatchedRepository, subscriberID string) (bool, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("upsert subscriber for %s: begin: %w", repo.FullName, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	addedAt := now
	if !repo.AddedAt.IsZero() {
		addedAt = repo.AddedAt.UTC().Format(time.RFC3339)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO watches (full_name, owner, name, added_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(full_name) DO NOTHING`,
		repo.FullName, repo.Owner, repo.Name, addedAt,
	)
	if err != nil {
		return false, fmt.Errorf("upsert watch %s: %w", repo.FullName, err)
	}

	var watchID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM watches WHERE full_name = ?`, repo.FullName,
	).Scan(&watchID); err != nil {
		return false, fmt.Errorf("resolve watch id for %s: %w", repo.FullName, err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO watch_subscribers (watch_id, subscriber_id, added_at) VALUES (?, ?, ?)
		 ON CONFLICT(watch_id, subscriber_id) DO NOTHING`,
		watchID, subscriberID, now,
	)
	if err != nil {
		return false, fmt.Errorf("upsert subscriber %s for %s: %w", subscriberID, repo.FullName, err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("upsert subscriber for %s: commit: %w", repo.FullName, err)
	}

	return inserted > 0, nil
}

// RemoveSubscriber removes subscriberID from the repository's subscriber set
// and deletes the watch record if the set becomes empty. Reports whether a
// subscription was actually removed; absent subscribers and absent
// repositories are no-ops.
func (r *WatchRepo) RemoveSubscriber(ctx context.Context, fullName, subscriberID string) (bool, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("remove subscriber from %s: begin: %w", fullName, err)
	}
	defer func() { _ = tx.Rollback() }()

	var watchID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM watches WHERE full_name = ?`, fullName,
	).Scan(&watchID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("resolve watch id for %s: %w", fullName, err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM watch_subscribers WHERE watch_id = ? AND subscriber_id = ?`,
		watchID, subscriberID,
	)
	if err != nil {
		return false, fmt.Errorf("remove subscriber %s from %s: %w", subscriberID, fullName, err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}

	if removed > 0 {
		// No orphan watches: the record exists iff someone subscribes to it.
		_, err = tx.ExecContext(ctx,
			`DELETE FROM watches WHERE id = ?
			 AND NOT EXISTS (SELECT 1 FROM watch_subscribers WHERE watch_id = ?)`,
			watchID, watchID,
		)
		if err != nil {
			return false, fmt.Errorf("delete empty watch %s: %w", fullName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("remove subscriber from %s: commit: %w", fullName, err)
	}

	return removed > 0, nil
}

// AdvanceCommitMarker overwrites the repository's last-seen commit marker.
// Returns ErrWatchNotFound if the watch vanished concurrently.
func (r *WatchRepo) AdvanceCommitMarker(ctx context.Context, fullName, commitSHA string) error {
	result, err := r.db.Writer.ExecContext(ctx,
		`UPDATE watches SET last_seen_commit = ? WHERE full_name = ?`,
		commitSHA, fullName,
	)
	if err != nil {
		return fmt.Errorf("advance marker for %s: %w", fullName, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("advance marker for %s: %w", fullName, driven.ErrWatchNotFound)
	}

	return nil
}

// collectWatches groups joined watch/subscriber rows into WatchedRepository
// values. Rows must be ordered by full name.
func collectWatches(rows *sql.Rows) ([]model.WatchedRepository, error) {
	var watches []model.WatchedRepository

	for rows.Next() {
		var (
			id                            int64
			fullName, owner, name         string
			lastSeen, addedAt, subscriber string
		)

		if err := rows.Scan(&id, &fullName, &owner, &name, &lastSeen, &addedAt, &subscriber); err != nil {
			return nil, fmt.Errorf("scan watch row: %w", err)
		}

		if n := len(watches); n > 0 && watches[n-1].ID == id {
			watches[n-1].Subscribers = append(watches[n-1].Subscribers, subscriber)
			continue
		}

		added, err := parseTime(addedAt)
		if err != nil {
			return nil, fmt.Errorf("parse added_at: %w", err)
		}

		watches = append(watches, model.WatchedRepository{
			ID:             id,
			FullName:       fullName,
			Owner:          owner,
			Name:           name,
			Subscribers:    []string{subscriber},
			LastSeenCommit: lastSeen,
			AddedAt:        added,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch rows: %w", err)
	}

	return watches, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
