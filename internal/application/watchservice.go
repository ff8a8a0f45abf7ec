// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ekorchagin/commitwatch/internal/domain/model"
	"github.com/ekorchagin/commitwatch/internal/domain/port/driven"
)

// Rejection reasons surfaced to the command layer. Each carries enough to
// render a specific user-facing message.
var (
	// ErrInvalidRepoRef indicates the repository reference could not be
	// parsed into a non-empty owner and name.
	ErrInvalidRepoRef = errors.New("invalid repository reference")

	// ErrOwnerNotFound indicates the owner does not exist on GitHub.
	ErrOwnerNotFound = errors.New("owner not found on github")

	// ErrRepoNotFound indicates the repository does not exist on GitHub.
	ErrRepoNotFound = errors.New("repository not found on github")
)

// AddResult reports the outcome of a successful AddWatch.
type AddResult struct {
	FullName        string
	AlreadyWatching bool
}

// RemoveResult reports the outcome of RemoveWatch. Removed is false when the
// subscriber was not watching the repository in the first place.
type RemoveResult struct {
	FullName string
	Removed  bool
}

// WatchService exposes the subscription management operations invoked by the
// command surface: add a watch, remove a watch, list a subscriber's watches.
// New watches are admitted only after GitHub confirms both owner and
// repository exist.
type WatchService struct {
	store driven.WatchStore
	gh    driven.GitHubClient
}

// NewWatchService creates a WatchService over the given store and GitHub client.
func NewWatchService(store driven.WatchStore, gh driven.GitHubClient) *WatchService {
	return &WatchService{store: store, gh: gh}
}

// AddWatch registers subscriberID as a watcher of the referenced repository,
// creating the watch record on first use. The reference may be "owner/name",
// "owner name", or a github.com URL. Rejections are ErrInvalidRepoRef,
// ErrOwnerNotFound, or ErrRepoNotFound; other errors are query or persistence
// failures.
func (s *WatchService) AddWatch(ctx context.Context, repoRef, subscriberID string) (*AddResult, error) {
	owner, name, err := ParseRepoRef(repoRef)
	if err != nil {
		return nil, err
	}
	fullName := owner + "/" + name

	exists, err := s.gh.UserExists(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("validate owner %s: %w", owner, err)
	}
	if !exists {
		return nil, fmt.Errorf("%q: %w", owner, ErrOwnerNotFound)
	}

	exists, err = s.gh.RepositoryExists(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("validate repository %s: %w", fullName, err)
	}
	if !exists {
		return nil, fmt.Errorf("%q: %w", fullName, ErrRepoNotFound)
	}

	created, err := s.store.UpsertSubscriber(ctx, model.WatchedRepository{
		FullName: fullName,
		Owner:    owner,
		Name:     name,
	}, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("add watch %s: %w", fullName, err)
	}

	if created {
		slog.Info("watch added", "repo", fullName, "subscriber", subscriberID)
	}

	return &AddResult{FullName: fullName, AlreadyWatching: !created}, nil
}

// RemoveWatch unsubscribes subscriberID from the referenced repository. The
// watch record disappears with its last subscriber. Removing a repository the
// subscriber never watched is reported via Removed=false, not an error.
func (s *WatchService) RemoveWatch(ctx context.Context, repoRef, subscriberID string) (*RemoveResult, error) {
	owner, name, err := ParseRepoRef(repoRef)
	if err != nil {
		return nil, err
	}
	fullName := owner + "/" + name

	removed, err := s.store.RemoveSubscriber(ctx, fullName, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("remove watch %s: %w", fullName, err)
	}

	if removed {
		slog.Info("watch removed", "repo", fullName, "subscriber", subscriberID)
	}

	return &RemoveResult{FullName: fullName, Removed: removed}, nil
}

// ListWatches returns the repositories the given subscriber watches, ordered
// by full name.
func (s *WatchService) ListWatches(ctx context.Context, subscriberID string) ([]model.WatchedRepository, error) {
	watches, err := s.store.ListBySubscriber(ctx, subscriberID)
	if err != nil {
		return nil, fmt.Errorf("list watches for subscriber %s: %w", subscriberID, err)
	}
	return watches, nil
}

// ParseRepoRef normalizes a repository reference into owner and name. It
// accepts "owner/name", "owner name", and https://github.com/owner/name URLs
// (scheme optional, trailing slash or ".git" tolerated). The owner's casing
// is preserved as given; GitHub treats names case-insensitively but the
// stored key keeps the form the subscriber used at creation.
func ParseRepoRef(ref string) (owner, name string, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", fmt.Errorf("empty reference: %w", ErrInvalidRepoRef)
	}

	if stripped, ok := stripGitHubURL(ref); ok {
		ref = stripped
	} else if fields := strings.Fields(ref); len(fields) == 2 {
		ref = fields[0] + "/" + fields[1]
	}

	parts := strings.Split(ref, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%q: %w", ref, ErrInvalidRepoRef)
	}

	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// stripGitHubURL reduces a github.com repository URL to "owner/name".
// Returns ok=false when ref is not a github.com URL.
func stripGitHubURL(ref string) (string, bool) {
	for _, prefix := range []string{"https://github.com/", "http://github.com/", "github.com/"} {
		if strings.HasPrefix(ref, prefix) {
			return strings.TrimSuffix(strings.TrimPrefix(ref, prefix), "/"), true
		}
	}
	return "", false
}
