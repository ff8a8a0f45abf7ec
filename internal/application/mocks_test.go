package application_test

import (
	"context"
	"sync"

	"github.com/ekorchagin/commitwatch/internal/domain/model"
	"github.com/ekorchagin/commitwatch/internal/domain/port/driven"
)

// --- Mock implementations of the driven ports ---

type advanceCall struct {
	FullName  string
	CommitSHA string
}

// mockWatchStore is safe for concurrent use: the poll loop checks
// repositories from multiple goroutines.
type mockWatchStore struct {
	mu         sync.Mutex
	watches    []model.WatchedRepository
	listErr    error
	advances   []advanceCall
	advanceErr map[string]error // keyed by full name
	upserted   bool             // UpsertSubscriber return value
	upsertErr  error
	removed    bool // RemoveSubscriber return value
	removeErr  error
}

func (m *mockWatchStore) ListAll(_ context.Context) ([]model.WatchedRepository, error) {
	return m.watches, m.listErr
}

func (m *mockWatchStore) ListBySubscriber(_ context.Context, subscriberID string) ([]model.WatchedRepository, error) {
	var out []model.WatchedRepository
	for _, w := range m.watches {
		if w.HasSubscriber(subscriberID) {
			out = append(out, w)
		}
	}
	return out, m.listErr
}

func (m *mockWatchStore) GetByFullName(_ context.Context, fullName string) (*model.WatchedRepository, error) {
	for _, w := range m.watches {
		if w.FullName == fullName {
			return &w, nil
		}
	}
	return nil, nil
}

func (m *mockWatchStore) UpsertSubscriber(_ context.Context, _ model.WatchedRepository, _ string) (bool, error) {
	return m.upserted, m.upsertErr
}

func (m *mockWatchStore) RemoveSubscriber(_ context.Context, _, _ string) (bool, error) {
	return m.removed, m.removeErr
}

func (m *mockWatchStore) AdvanceCommitMarker(_ context.Context, fullName, commitSHA string) error {
	if err := m.advanceErr[fullName]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advances = append(m.advances, advanceCall{FullName: fullName, CommitSHA: commitSHA})
	return nil
}

var _ driven.WatchStore = (*mockWatchStore)(nil)

type mockGitHubClient struct {
	userExists   func(ctx context.Context, username string) (bool, error)
	repoExists   func(ctx context.Context, owner, name string) (bool, error)
	latestCommit func(ctx context.Context, owner, name string) (*model.Commit, error)
}

func (m *mockGitHubClient) UserExists(ctx context.Context, username string) (bool, error) {
	return m.userExists(ctx, username)
}

func (m *mockGitHubClient) RepositoryExists(ctx context.Context, owner, name string) (bool, error) {
	return m.repoExists(ctx, owner, name)
}

func (m *mockGitHubClient) LatestCommit(ctx context.Context, owner, name string) (*model.Commit, error) {
	return m.latestCommit(ctx, owner, name)
}

var _ driven.GitHubClient = (*mockGitHubClient)(nil)

type sendCall struct {
	SubscriberID string
	Text         string
}

type mockNotifier struct {
	mu      sync.Mutex
	sends   []sendCall
	failFor map[string]error // keyed by subscriber ID
}

func (m *mockNotifier) Send(_ context.Context, subscriberID, text string) error {
	if err := m.failFor[subscriberID]; err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, sendCall{SubscriberID: subscriberID, Text: text})
	return nil
}

var _ driven.Notifier = (*mockNotifier)(nil)
