package storage

import (
	"context"
	"sort"
	"sync"

	"somnus/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	trends      map[string][]model.TickRecord
	predictions map[string][]model.PredictionSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.trends = make(map[string][]model.TickRecord)
	s.predictions = make(map[string][]model.PredictionSnapshot)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].CreatedAtUTC == runs[j].CreatedAtUTC {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].CreatedAtUTC < runs[j].CreatedAtUTC
	})
	return runs, nil
}

func (s *MemoryStore) SaveTrend(_ context.Context, runID string, trend []model.TickRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trends[runID] = append([]model.TickRecord(nil), trend...)
	return nil
}

func (s *MemoryStore) GetTrend(_ context.Context, runID string) ([]model.TickRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trend, ok := s.trends[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.TickRecord(nil), trend...), true, nil
}

func (s *MemoryStore) SavePrediction(_ context.Context, runID string, snapshots []model.PredictionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.predictions[runID] = append([]model.PredictionSnapshot(nil), snapshots...)
	return nil
}

func (s *MemoryStore) GetPrediction(_ context.Context, runID string) ([]model.PredictionSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots, ok := s.predictions[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.PredictionSnapshot(nil), snapshots...), true, nil
}
