package repos

import (
	"testing"

	"github.com/google/uuid"

	"github.com/prizma-app/prizma-backend/internal/domain"
	"github.com/prizma-app/prizma-backend/internal/pkg/dbctx"
	"github.com/prizma-app/prizma-backend/internal/pkg/logger"
)

func TestQuestionListByTierOrdering(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewQuestionRepo(gdb, logger.NewNop())

	_, err := repo.Create(dbctx.Background(), []*domain.Question{
		{Tier: "free", OrderNumber: 2, Text: "Second"},
		{Tier: "free", OrderNumber: 1, Text: "First"},
		{Tier: "premium", OrderNumber: 1, Text: "Other tier"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.ListByTier(dbctx.Background(), "free")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}
	if got[0].Text != "First" || got[1].Text != "Second" {
		t.Errorf("questions out of order: %s, %s", got[0].Text, got[1].Text)
	}
}

func TestAnswerListByUser(t *testing.T) {
	gdb := newTestDB(t)
	answers := NewAnswerRepo(gdb, logger.NewNop())

	userID := uuid.New()
	_, err := answers.Create(dbctx.Background(), []*domain.Answer{
		{UserID: userID, QuestionID: uuid.New(), TextAnswer: "mine"},
		{UserID: uuid.New(), QuestionID: uuid.New(), TextAnswer: "someone else's"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := answers.ListByUser(dbctx.Background(), userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].TextAnswer != "mine" {
		t.Fatalf("unexpected answers: %+v", got)
	}
}
