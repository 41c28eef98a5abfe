package history

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/glefebvre/mediasorter/internal/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pagination limits
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// PlacementFilter narrows ListPlacements
type PlacementFilter struct {
	RunID     string
	MediaType string
	Outcome   string
	Limit     int
	Offset    int
}

// StartRun inserts a running Run with a fresh ID
func (s *Store) StartRun(ctx context.Context, trigger string) (*Run, error) {
	return s.StartRunWithID(ctx, uuid.New().String(), trigger)
}

// StartRunWithID inserts a running Run under a caller supplied ID, so the
// same ID can be stamped on the run's log lines.
func (s *Store) StartRunWithID(ctx context.Context, id, trigger string) (*Run, error) {
	run := &Run{
		ID:        id,
		Trigger:   trigger,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, apperrors.DatabaseError("failed to create run", err)
	}
	return run, nil
}

// FinishRun stores the final counters and status of run. A non-nil
// runErr marks the run failed.
func (s *Store) FinishRun(ctx context.Context, run *Run, runErr error) error {
	now := time.Now()
	run.CompletedAt = &now

	switch {
	case runErr != nil:
		run.Status = StatusFailed
		msg := runErr.Error()
		run.ErrorMessage = &msg
	case run.Errors > 0:
		run.Status = StatusPartial
	default:
		run.Status = StatusSuccess
	}

	if err := s.db.WithContext(ctx).Save(run).Error; err != nil {
		return apperrors.DatabaseError("failed to update run", err)
	}
	return nil
}

// RecordPlacement inserts a placement row
func (s *Store) RecordPlacement(ctx context.Context, p *Placement) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return apperrors.DatabaseError("failed to record placement", err)
	}
	return nil
}

// ListRuns returns runs newest first together with the total count
func (s *Store) ListRuns(ctx context.Context, limit, offset int) ([]Run, int64, error) {
	limit, offset = clampPage(limit, offset)

	var total int64
	if err := s.db.WithContext(ctx).Model(&Run{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.DatabaseError("failed to count runs", err)
	}

	var runs []Run
	if err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error; err != nil {
		return nil, 0, apperrors.DatabaseError("failed to list runs", err)
	}
	return runs, total, nil
}

// GetRun returns a run with its placements
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).
		Preload("Placements", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundError("run", id)
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to get run", err)
	}
	return &run, nil
}

// ListPlacements returns placements newest first together with the total
// count matching filter
func (s *Store) ListPlacements(ctx context.Context, filter PlacementFilter) ([]Placement, int64, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset)

	filtered := func(db *gorm.DB) *gorm.DB {
		if filter.RunID != "" {
			db = db.Where("run_id = ?", filter.RunID)
		}
		if filter.MediaType != "" {
			db = db.Where("media_type = ?", filter.MediaType)
		}
		if filter.Outcome != "" {
			db = db.Where("outcome = ?", filter.Outcome)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&Placement{}).Scopes(filtered).Count(&total).Error; err != nil {
		return nil, 0, apperrors.DatabaseError("failed to count placements", err)
	}

	var placements []Placement
	if err := s.db.WithContext(ctx).
		Scopes(filtered).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&placements).Error; err != nil {
		return nil, 0, apperrors.DatabaseError("failed to list placements", err)
	}
	return placements, total, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
