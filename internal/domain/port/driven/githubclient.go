package driven

import (
	"context"

	"github.com/ekorchagin/commitwatch/internal/domain/model"
)

// GitHubClient defines the driven port for read-only GitHub queries.
//
// Existence checks answer false only when GitHub definitively reports the
// entity missing; transport, auth, and rate-limit failures propagate as
// errors. The poll loop relies on that distinction to avoid touching commit
// markers on transient failures.
type GitHubClient interface {
	// UserExists reports whether the given user or organization exists.
	UserExists(ctx context.Context, username string) (bool, error)

	// RepositoryExists reports whether owner/name exists.
	RepositoryExists(ctx context.Context, owner, name string) (bool, error)

	// LatestCommit returns the most recent commit on the default branch,
	// or nil, nil if the repository has no commits yet.
	LatestCommit(ctx context.Context, owner, name string) (*model.Commit, error)
}
