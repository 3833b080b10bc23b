package memory

import (
	"context"
	"errors"
	"sync"

	"hourly-profiles/internal/profiles/application"
	profiles "hourly-profiles/internal/profiles/domain"
)

// ProfileStore keeps the most recent run in memory.
// It implements both application.ResultSink and application.ProfileReader.
type ProfileStore struct {
	mu      sync.RWMutex
	summary *application.RunSummary
	rows    []profiles.MergedRow
}

// NewProfileStore constructs an empty store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{}
}

// Name implements application.ResultSink.
func (s *ProfileStore) Name() string { return "memory" }

// Write replaces the stored run.
func (s *ProfileStore) Write(ctx context.Context, result *application.Result) error {
	_ = ctx
	if result == nil {
		return errors.New("memory: nil result")
	}
	summary := result.Summary()
	rows := make([]profiles.MergedRow, len(result.Rows))
	copy(rows, result.Rows)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = &summary
	s.rows = rows
	return nil
}

// LatestRun returns the stored run summary.
func (s *ProfileStore) LatestRun(ctx context.Context) (*application.RunSummary, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return nil, application.ErrNoRun
	}
	summary := *s.summary
	return &summary, nil
}

// ListRows returns stored rows with from <= key < to.
func (s *ProfileStore) ListRows(ctx context.Context, from, to profiles.DatehourKey) ([]profiles.MergedRow, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return nil, application.ErrNoRun
	}
	return application.FilterRows(s.rows, from, to), nil
}
