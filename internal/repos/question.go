package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prizma-app/prizma-backend/internal/domain"
	"github.com/prizma-app/prizma-backend/internal/pkg/dbctx"
	"github.com/prizma-app/prizma-backend/internal/pkg/logger"
)

type QuestionRepo interface {
	Create(dbc dbctx.Context, questions []*domain.Question) ([]*domain.Question, error)
	ListByTier(dbc dbctx.Context, tier string) ([]*domain.Question, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{
		db:  db,
		log: baseLog.With("repo", "QuestionRepo"),
	}
}

func (r *questionRepo) Create(dbc dbctx.Context, questions []*domain.Question) ([]*domain.Question, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(questions) == 0 {
		return []*domain.Question{}, nil
	}
	for _, q := range questions {
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) ListByTier(dbc dbctx.Context, tier string) ([]*domain.Question, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.Question
	if tier == "" {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("tier = ?", tier).
		Order("order_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
