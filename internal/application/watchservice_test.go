package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekorchagin/commitwatch/internal/application"
	"github.com/ekorchagin/commitwatch/internal/domain/model"
)

func ghAllExists() *mockGitHubClient {
	return &mockGitHubClient{
		userExists: func(_ context.Context, _ string) (bool, error) { return true, nil },
		repoExists: func(_ context.Context, _, _ string) (bool, error) { return true, nil },
	}
}

func TestWatchService_AddWatch(t *testing.T) {
	store := &mockWatchStore{upserted: true}
	svc := application.NewWatchService(store, ghAllExists())

	res, err := svc.AddWatch(context.Background(), "octocat/Hello-World", "42")
	require.NoError(t, err)

	assert.Equal(t, "octocat/Hello-World", res.FullName)
	assert.False(t, res.AlreadyWatching)
}

func TestWatchService_AddWatch_AlreadyWatching(t *testing.T) {
	store := &mockWatchStore{upserted: false}
	svc := application.NewWatchService(store, ghAllExists())

	res, err := svc.AddWatch(context.Background(), "octocat/Hello-World", "42")
	require.NoError(t, err)

	assert.True(t, res.AlreadyWatching)
}

func TestWatchService_AddWatch_InvalidRef(t *testing.T) {
	svc := application.NewWatchService(&mockWatchStore{}, ghAllExists())

	for _, ref := range []string{"", "just-a-name", "owner/", "/name", "a/b/c", "owner name extra"} {
		_, err := svc.AddWatch(context.Background(), ref, "42")
		assert.ErrorIs(t, err, application.ErrInvalidRepoRef, "ref %q", ref)
	}
}

func TestWatchService_AddWatch_OwnerNotFound(t *testing.T) {
	gh := &mockGitHubClient{
		userExists: func(_ context.Context, _ string) (bool, error) { return false, nil },
	}
	svc := application.NewWatchService(&mockWatchStore{}, gh)

	_, err := svc.AddWatch(context.Background(), "ghost/repo", "42")
	assert.ErrorIs(t, err, application.ErrOwnerNotFound)
}

func TestWatchService_AddWatch_RepoNotFound(t *testing.T) {
	gh := &mockGitHubClient{
		userExists: func(_ context.Context, _ string) (bool, error) { return true, nil },
		repoExists: func(_ context.Context, _, _ string) (bool, error) { return false, nil },
	}
	svc := application.NewWatchService(&mockWatchStore{}, gh)

	_, err := svc.AddWatch(context.Background(), "octocat/nonexistent", "42")
	assert.ErrorIs(t, err, application.ErrRepoNotFound)
}

func TestWatchService_AddWatch_QueryFailureIsNotRejection(t *testing.T) {
	queryErr := errors.New("rate limited")
	gh := &mockGitHubClient{
		userExists: func(_ context.Context, _ string) (bool, error) { return false, queryErr },
	}
	svc := application.NewWatchService(&mockWatchStore{}, gh)

	_, err := svc.AddWatch(context.Background(), "octocat/hello-world", "42")
	require.Error(t, err)
	assert.NotErrorIs(t, err, application.ErrOwnerNotFound,
		"a transient query failure must not read as a missing owner")
	assert.ErrorIs(t, err, queryErr)
}

func TestWatchService_RemoveWatch(t *testing.T) {
	store := &mockWatchStore{removed: true}
	svc := application.NewWatchService(store, ghAllExists())

	res, err := svc.RemoveWatch(context.Background(), "octocat/hello-world", "42")
	require.NoError(t, err)
	assert.True(t, res.Removed)
}

func TestWatchService_RemoveWatch_NotWatching(t *testing.T) {
	store := &mockWatchStore{removed: false}
	svc := application.NewWatchService(store, ghAllExists())

	res, err := svc.RemoveWatch(context.Background(), "octocat/hello-world", "42")
	require.NoError(t, err)
	assert.False(t, res.Removed, "removing an unwatched repository is not an error")
}

func TestWatchService_ListWatches(t *testing.T) {
	store := &mockWatchStore{
		watches: []model.WatchedRepository{
			{FullName: "alice/alpha", Subscribers: []string{"42"}},
			{FullName: "bob/beta", Subscribers: []string{"7"}},
		},
	}
	svc := application.NewWatchService(store, ghAllExists())

	watches, err := svc.ListWatches(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, watches, 1)
	assert.Equal(t, "alice/alpha", watches[0].FullName)
}

func TestParseRepoRef(t *testing.T) {
	tests := []struct {
		in    string
		owner string
		name  string
	}{
		{"octocat/Hello-World", "octocat", "Hello-World"},
		{"octocat Hello-World", "octocat", "Hello-World"},
		{"  octocat/Hello-World  ", "octocat", "Hello-World"},
		{"https://github.com/octocat/Hello-World", "octocat", "Hello-World"},
		{"https://github.com/octocat/Hello-World/", "octocat", "Hello-World"},
		{"https://github.com/octocat/Hello-World.git", "octocat", "Hello-World"},
		{"http://github.com/octocat/Hello-World", "octocat", "Hello-World"},
		{"github.com/octocat/Hello-World", "octocat", "Hello-World"},
	}

	for _, tc := range tests {
		owner, name, err := application.ParseRepoRef(tc.in)
		require.NoError(t, err, "ref %q", tc.in)
		assert.Equal(t, tc.owner, owner, "ref %q", tc.in)
		assert.Equal(t, tc.name, name, "ref %q", tc.in)
	}
}

func TestParseRepoRef_Invalid(t *testing.T) {
	for _, ref := range []string{
		"",
		"   ",
		"octocat",
		"octocat/",
		"/hello-world",
		"a/b/c",
		"https://github.com/octocat",
		"https://github.com/octocat/repo/extra",
	} {
		_, _, err := application.ParseRepoRef(ref)
		assert.ErrorIs(t, err, application.ErrInvalidRepoRef, "ref %q", ref)
	}
}
