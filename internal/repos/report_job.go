package repos

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prizma-app/prizma-backend/internal/domain"
	"github.com/prizma-app/prizma-backend/internal/pkg/dbctx"
	"github.com/prizma-app/prizma-backend/internal/pkg/logger"
)

type ReportJobRepo interface {
	Create(dbc dbctx.Context, job *domain.ReportJob) (*domain.ReportJob, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ReportJob, error)
	GetLatest(dbc dbctx.Context, userID uuid.UUID, tier string) (*domain.ReportJob, error)
	HasActive(dbc dbctx.Context, userID uuid.UUID, tier string) (bool, error)
	ClaimNextPending(dbc dbctx.Context) (*domain.ReportJob, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	ResetStale(dbc dbctx.Context, processingFor time.Duration) (int64, error)
}

type reportJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportJobRepo(db *gorm.DB, baseLog *logger.Logger) ReportJobRepo {
	return &reportJobRepo{
		db:  db,
		log: baseLog.With("repo", "ReportJobRepo"),
	}
}

func (r *reportJobRepo) Create(dbc dbctx.Context, job *domain.ReportJob) (*domain.ReportJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if job == nil {
		return nil, nil
	}
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = domain.ReportStatusPending
	}
	if err := transaction.WithContext(dbc.Ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *reportJobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ReportJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var job domain.ReportJob
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (r *reportJobRepo) GetLatest(dbc dbctx.Context, userID uuid.UUID, tier string) (*domain.ReportJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || tier == "" {
		return nil, nil
	}
	var job domain.ReportJob
	err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ? AND tier = ?", userID, tier).
		Order("created_at DESC").
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (r *reportJobRepo) HasActive(dbc dbctx.Context, userID uuid.UUID, tier string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || tier == "" {
		return false, nil
	}
	var count int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&domain.ReportJob{}).
		Where("user_id = ? AND tier = ? AND status IN ?", userID, tier,
			[]string{domain.ReportStatusPending, domain.ReportStatusProcessing}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ClaimNextPending flips the oldest pending job to processing and stamps
// started_at. The update is guarded on status so two workers racing for the
// same row cannot both claim it.
func (r *reportJobRepo) ClaimNextPending(dbc dbctx.Context) (*domain.ReportJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	var claimed *domain.ReportJob
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var job domain.ReportJob
		qErr := txx.
			Where("status = ?", domain.ReportStatusPending).
			Order("created_at ASC").
			First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		res := txx.Model(&domain.ReportJob{}).
			Where("id = ? AND status = ?", job.ID, domain.ReportStatusPending).
			Updates(map[string]interface{}{
				"status":     domain.ReportStatusProcessing,
				"started_at": now,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		job.Status = domain.ReportStatusProcessing
		job.StartedAt = &now
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *reportJobRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&domain.ReportJob{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ResetStale returns processing jobs whose started_at is older than the
// threshold back to pending so a worker can pick them up again.
func (r *reportJobRepo) ResetStale(dbc dbctx.Context, processingFor time.Duration) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	cutoff := time.Now().Add(-processingFor)
	res := transaction.WithContext(dbc.Ctx).
		Model(&domain.ReportJob{}).
		Where("status = ? AND started_at IS NOT NULL AND started_at < ?", domain.ReportStatusProcessing, cutoff).
		Updates(map[string]interface{}{
			"status":     domain.ReportStatusPending,
			"started_at": nil,
			"error":      "reset after stale processing",
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		r.log.Warn("Reset stale report jobs", "count", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
