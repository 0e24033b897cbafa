package repos

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/prizma-app/prizma-backend/internal/domain"
	"github.com/prizma-app/prizma-backend/internal/pkg/dbctx"
	"github.com/prizma-app/prizma-backend/internal/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&domain.User{}, &domain.Question{}, &domain.Answer{}, &domain.ReportJob{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func TestReportJobCreateDefaults(t *testing.T) {
	repo := NewReportJobRepo(newTestDB(t), logger.NewNop())
	job, err := repo.Create(dbctx.Background(), &domain.ReportJob{
		UserID: uuid.New(),
		Tier:   "premium",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if job.ID == uuid.Nil {
		t.Error("id not assigned")
	}
	if job.Status != domain.ReportStatusPending {
		t.Errorf("expected pending, got %s", job.Status)
	}
}

func TestReportJobHasActive(t *testing.T) {
	repo := NewReportJobRepo(newTestDB(t), logger.NewNop())
	userID := uuid.New()

	for _, status := range []string{domain.ReportStatusCompleted, domain.ReportStatusFailed} {
		if _, err := repo.Create(dbctx.Background(), &domain.ReportJob{UserID: userID, Tier: "free", Status: status}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	active, err := repo.HasActive(dbctx.Background(), userID, "free")
	if err != nil {
		t.Fatalf("has active: %v", err)
	}
	if active {
		t.Error("terminal jobs must not count as active")
	}

	if _, err := repo.Create(dbctx.Background(), &domain.ReportJob{UserID: userID, Tier: "free"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	active, err = repo.HasActive(dbctx.Background(), userID, "free")
	if err != nil {
		t.Fatalf("has active: %v", err)
	}
	if !active {
		t.Error("pending job must count as active")
	}
	// Activity is scoped per tier.
	active, err = repo.HasActive(dbctx.Background(), userID, "premium")
	if err != nil {
		t.Fatalf("has active: %v", err)
	}
	if active {
		t.Error("other tier must not be blocked")
	}
}

func TestReportJobClaimNextPending(t *testing.T) {
	repo := NewReportJobRepo(newTestDB(t), logger.NewNop())

	first, err := repo.Create(dbctx.Background(), &domain.ReportJob{UserID: uuid.New(), Tier: "free"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := repo.Create(dbctx.Background(), &domain.ReportJob{UserID: uuid.New(), Tier: "premium"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	claimed, err := repo.ClaimNextPending(dbctx.Background())
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed == nil {
		t.Fatal("expected a claimed job")
	}
	if claimed.ID != first.ID {
		t.Errorf("expected oldest job first, got %s", claimed.ID)
	}
	if claimed.Status != domain.ReportStatusProcessing || claimed.StartedAt == nil {
		t.Errorf("claimed job not marked processing: %+v", claimed)
	}

	stored, err := repo.GetByID(dbctx.Background(), claimed.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != domain.ReportStatusProcessing {
		t.Errorf("claim not persisted: %s", stored.Status)
	}

	// Second claim takes the remaining job; third finds nothing.
	if second, err := repo.ClaimNextPending(dbctx.Background()); err != nil || second == nil {
		t.Fatalf("second claim: %v %v", second, err)
	}
	empty, err := repo.ClaimNextPending(dbctx.Background())
	if err != nil {
		t.Fatalf("empty claim: %v", err)
	}
	if empty != nil {
		t.Errorf("claim on empty queue returned %+v", empty)
	}
}

func TestReportJobResetStale(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewReportJobRepo(gdb, logger.NewNop())

	stale, err := repo.Create(dbctx.Background(), &domain.ReportJob{UserID: uuid.New(), Tier: "premium"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	old := time.Now().Add(-20 * time.Minute)
	if err := repo.UpdateFields(dbctx.Background(), stale.ID, map[string]interface{}{
		"status":     domain.ReportStatusProcessing,
		"started_at": old,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	fresh, err := repo.Create(dbctx.Background(), &domain.ReportJob{UserID: uuid.New(), Tier: "premium"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	now := time.Now()
	if err := repo.UpdateFields(dbctx.Background(), fresh.ID, map[string]interface{}{
		"status":     domain.ReportStatusProcessing,
		"started_at": now,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	n, err := repo.ResetStale(dbctx.Background(), 10*time.Minute)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 reset job, got %d", n)
	}
	got, err := repo.GetByID(dbctx.Background(), stale.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.ReportStatusPending {
		t.Errorf("stale job not reset: %s", got.Status)
	}
	if got.Error == "" {
		t.Error("reset job should carry an explanatory error note")
	}
	still, err := repo.GetByID(dbctx.Background(), fresh.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if still.Status != domain.ReportStatusProcessing {
		t.Errorf("fresh job must stay processing: %s", still.Status)
	}
}

func TestReportJobGetLatest(t *testing.T) {
	repo := NewReportJobRepo(newTestDB(t), logger.NewNop())
	userID := uuid.New()

	if _, err := repo.Create(dbctx.Background(), &domain.ReportJob{UserID: userID, Tier: "free", Status: domain.ReportStatusCompleted}); err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	latest, err := repo.Create(dbctx.Background(), &domain.ReportJob{UserID: userID, Tier: "free"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetLatest(dbctx.Background(), userID, "free")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if got == nil || got.ID != latest.ID {
		t.Fatalf("expected newest job, got %+v", got)
	}

	none, err := repo.GetLatest(dbctx.Background(), userID, "premium")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if none != nil {
		t.Errorf("expected nil for tier without jobs, got %+v", none)
	}
}
