package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/prizma-app/prizma-backend/internal/domain"
	"github.com/prizma-app/prizma-backend/internal/pkg/dbctx"
	"github.com/prizma-app/prizma-backend/internal/pkg/logger"
)

type AnswerRepo interface {
	Create(dbc dbctx.Context, answers []*domain.Answer) ([]*domain.Answer, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.Answer, error)
}

type answerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnswerRepo(db *gorm.DB, baseLog *logger.Logger) AnswerRepo {
	return &answerRepo{
		db:  db,
		log: baseLog.With("repo", "AnswerRepo"),
	}
}

func (r *answerRepo) Create(dbc dbctx.Context, answers []*domain.Answer) ([]*domain.Answer, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(answers) == 0 {
		return []*domain.Answer{}, nil
	}
	for _, a := range answers {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.Answer, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*domain.Answer
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
