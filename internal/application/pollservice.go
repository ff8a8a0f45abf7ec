package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ekorchagin/commitwatch/internal/domain/model"
	"github.com/ekorchagin/commitwatch/internal/domain/port/driven"
)

// checkOutcome classifies the result of checking one repository in a cycle.
type checkOutcome int

const (
	checkUnchanged checkOutcome = iota
	checkBaseline
	checkChanged
	checkFailed
)

// PollService is the change detector: on a fixed interval it snapshots every
// watched repository, asks GitHub for its latest commit, and hands detected
// divergences to the dispatcher. Repositories are checked concurrently under
// a fixed bound, and each check is isolated: one repository's failure never
// aborts the cycle for the others.
//
// The service keeps no state of its own between cycles; the commit markers it
// writes through the store are the only memory of what has been processed.
type PollService struct {
	store  driven.WatchStore
	gh     driven.GitHubClient
	notify *NotifyService

	interval          time.Duration
	concurrency       int
	checkTimeout      time.Duration
	notifyOnFirstSeen bool
	metrics           *Metrics
}

// PollOptions configures a PollService.
type PollOptions struct {
	// Interval between detection cycles.
	Interval time.Duration
	// Concurrency bounds how many repositories are checked at once.
	// Values below 1 are treated as 1.
	Concurrency int
	// CheckTimeout bounds the query-compare-dispatch work for one repository.
	CheckTimeout time.Duration
	// NotifyOnFirstSeen makes the very first observed commit of a newly
	// watched repository notify immediately instead of establishing a
	// silent baseline.
	NotifyOnFirstSeen bool
	// Metrics may be nil.
	Metrics *Metrics
}

// NewPollService creates a PollService with all required dependencies.
func NewPollService(store driven.WatchStore, gh driven.GitHubClient, notify *NotifyService, opts PollOptions) *PollService {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.CheckTimeout <= 0 {
		opts.CheckTimeout = 30 * time.Second
	}

	return &PollService{
		store:             store,
		gh:                gh,
		notify:            notify,
		interval:          opts.Interval,
		concurrency:       opts.Concurrency,
		checkTimeout:      opts.CheckTimeout,
		notifyOnFirstSeen: opts.NotifyOnFirstSeen,
		metrics:           opts.Metrics,
	}
}

// Start begins the detection loop. It runs an immediate cycle, then one per
// interval. Cycles never overlap: the ticker is only consumed between cycles.
// Start blocks until the context is canceled.
func (s *PollService) Start(ctx context.Context) {
	s.CheckAll(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("poll service stopped")
			return
		case <-ticker.C:
			s.CheckAll(ctx)
		}
	}
}

// CheckAll runs one full detection cycle over every watched repository.
func (s *PollService) CheckAll(ctx context.Context) {
	start := time.Now()

	watches, err := s.store.ListAll(ctx)
	if err != nil {
		slog.Error("detection cycle aborted, listing watches failed", "error", err)
		return
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		outcomes = make(map[checkOutcome]int, 4)
	)

	sem := make(chan struct{}, s.concurrency)

	for _, watch := range watches {
		wg.Add(1)
		go func(w model.WatchedRepository) {
			defer wg.Done()

			// Respect context cancellation while waiting for a slot.
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			outcome := s.checkRepo(ctx, w)

			mu.Lock()
			outcomes[outcome]++
			mu.Unlock()
		}(watch)
	}

	wg.Wait()

	s.metrics.cycleCompleted()

	slog.Info("detection cycle complete",
		"repos", len(watches),
		"changed", outcomes[checkChanged],
		"baselined", outcomes[checkBaseline],
		"errors", outcomes[checkFailed],
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

// checkRepo performs the query-compare-dispatch work for a single repository.
// All failure modes are contained here: the caller only receives an outcome.
func (s *PollService) checkRepo(ctx context.Context, w model.WatchedRepository) checkOutcome {
	ctx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()

	s.metrics.repoChecked()

	commit, err := s.gh.LatestCommit(ctx, w.Owner, w.Name)
	if err != nil {
		// Transient failure: no marker mutation, no notification. The
		// repository is reattempted on the next cycle.
		slog.Error("repository check failed", "repo", w.FullName, "error", err)
		s.metrics.checkFailed()
		return checkFailed
	}

	if commit == nil || commit.SHA == w.LastSeenCommit {
		return checkUnchanged
	}

	// The marker advances before dispatch and regardless of its outcome:
	// markers are detection-authoritative, not dispatch-authoritative.
	if err := s.store.AdvanceCommitMarker(ctx, w.FullName, commit.SHA); err != nil {
		if errors.Is(err, driven.ErrWatchNotFound) {
			slog.Info("watch removed mid-cycle, detection discarded", "repo", w.FullName)
			return checkUnchanged
		}
		slog.Error("advance commit marker failed", "repo", w.FullName, "error", err)
		s.metrics.checkFailed()
		return checkFailed
	}

	s.metrics.commitDetected()

	if w.LastSeenCommit == "" && !s.notifyOnFirstSeen {
		// First-ever check of a newly watched repository: record the
		// baseline silently rather than announce pre-existing history.
		slog.Info("baseline established", "repo", w.FullName, "commit", commit.ShortSHA())
		return checkBaseline
	}

	s.notify.Dispatch(ctx, model.NotificationJob{
		RepoFullName: w.FullName,
		Commit:       *commit,
		Recipients:   w.Subscribers,
	})

	return checkChanged
}
