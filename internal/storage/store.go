package storage

import (
	"context"

	"somnus/internal/model"
)

// Store persists completed scenario runs, their per-tick vitals trends
// and ghost-dose prediction snapshots.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveTrend(ctx context.Context, runID string, trend []model.TickRecord) error
	GetTrend(ctx context.Context, runID string) ([]model.TickRecord, bool, error)
	SavePrediction(ctx context.Context, runID string, snapshots []model.PredictionSnapshot) error
	GetPrediction(ctx context.Context, runID string) ([]model.PredictionSnapshot, bool, error)
}
