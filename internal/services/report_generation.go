package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/prizma-app/prizma-backend/internal/clients/perplexity"
	"github.com/prizma-app/prizma-backend/internal/domain"
	"github.com/prizma-app/prizma-backend/internal/pdf"
	"github.com/prizma-app/prizma-backend/internal/pkg/dbctx"
	"github.com/prizma-app/prizma-backend/internal/pkg/errs"
	"github.com/prizma-app/prizma-backend/internal/pkg/logger"
	"github.com/prizma-app/prizma-backend/internal/report"
	"github.com/prizma-app/prizma-backend/internal/repos"
)

// Conversation budget: above the high-water mark the context is trimmed
// down to the target before the next page is requested.
const (
	trimTriggerTokens = 50000
	trimTargetTokens  = 30000
)

// Generator produces one assistant completion for a conversation window.
type Generator interface {
	Complete(ctx context.Context, messages []report.Message, premium bool) (perplexity.Completion, error)
}

// Config tunes worker pacing. Zero values fall back to production defaults;
// tests shrink them to keep runs fast.
type Config struct {
	PagePause    time.Duration // between pages of one section
	SectionPause time.Duration // between sections
	PollInterval time.Duration // worker claim loop
	StaleAfter   time.Duration // processing age before watchdog reset
}

func (c Config) withDefaults() Config {
	if c.PagePause == 0 {
		c.PagePause = 1 * time.Second
	}
	if c.SectionPause == 0 {
		c.SectionPause = 3 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = 1 * time.Second
	}
	if c.StaleAfter == 0 {
		c.StaleAfter = 10 * time.Minute
	}
	return c
}

type ReportGenerationService interface {
	Enqueue(dbc dbctx.Context, userID uuid.UUID, tier report.Tier) (*domain.ReportJob, error)
	ProcessNext(ctx context.Context) (bool, error)
	StartWorker(ctx context.Context)
	StartWatchdog(ctx context.Context)
}

type reportGenerationService struct {
	log       *logger.Logger
	userRepo  repos.UserRepo
	questions repos.QuestionRepo
	answers   repos.AnswerRepo
	jobs      repos.ReportJobRepo
	generator Generator
	builder   *pdf.Builder
	notifier  Notifier
	cfg       Config
}

func NewReportGenerationService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	questionRepo repos.QuestionRepo,
	answerRepo repos.AnswerRepo,
	jobRepo repos.ReportJobRepo,
	generator Generator,
	builder *pdf.Builder,
	notifier Notifier,
	cfg Config,
) ReportGenerationService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &reportGenerationService{
		log:       log.With("service", "ReportGenerationService"),
		userRepo:  userRepo,
		questions: questionRepo,
		answers:   answerRepo,
		jobs:      jobRepo,
		generator: generator,
		builder:   builder,
		notifier:  notifier,
		cfg:       cfg.withDefaults(),
	}
}

// Enqueue creates a pending job for the user and tier. A user can hold at
// most one pending or processing job per tier; premium jobs additionally
// require a paid account.
func (s *reportGenerationService) Enqueue(dbc dbctx.Context, userID uuid.UUID, tier report.Tier) (*domain.ReportJob, error) {
	user, err := s.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, errs.ErrNotFound)
	}
	if tier == report.TierPremium && !user.PremiumPaid {
		return nil, fmt.Errorf("premium report requires payment: %w", errs.ErrInvalidArgument)
	}

	active, err := s.jobs.HasActive(dbc, userID, string(tier))
	if err != nil {
		return nil, err
	}
	if active {
		return nil, errs.ErrJobAlreadyRunning
	}

	job, err := s.jobs.Create(dbc, &domain.ReportJob{
		UserID: userID,
		Tier:   string(tier),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Report job enqueued", "job_id", job.ID, "user_id", userID, "tier", tier)
	s.notifier.PublishStatus(dbc.Ctx, StatusEvent{
		JobID: job.ID, UserID: userID, Tier: string(tier), Status: job.Status,
	})
	return job, nil
}

// ProcessNext claims and runs one pending job. It reports whether a job was
// found; run failures are recorded on the job, not returned.
func (s *reportGenerationService) ProcessNext(ctx context.Context) (bool, error) {
	job, err := s.jobs.ClaimNextPending(dbctx.Context{Ctx: ctx})
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	s.processJob(ctx, job)
	return true, nil
}

func (s *reportGenerationService) StartWorker(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.ProcessNext(ctx); err != nil {
					s.log.Warn("ClaimNextPending failed", "error", err)
				}
			}
		}
	}()
}

// StartWatchdog periodically returns jobs stuck in processing back to
// pending, so a crashed worker never wedges a user's queue slot.
func (s *reportGenerationService) StartWatchdog(ctx context.Context) {
	go func() {
		interval := s.cfg.StaleAfter / 10
		if interval < s.cfg.PollInterval {
			interval = s.cfg.PollInterval
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.jobs.ResetStale(dbctx.Context{Ctx: ctx}, s.cfg.StaleAfter); err != nil {
					s.log.Warn("ResetStale failed", "error", err)
				}
			}
		}
	}()
}

func (s *reportGenerationService) processJob(ctx context.Context, job *domain.ReportJob) {
	dbc := dbctx.Context{Ctx: ctx}
	log := s.log.With("job_id", job.ID, "user_id", job.UserID, "tier", job.Tier)

	tier, err := report.ParseTier(job.Tier)
	if err != nil {
		s.failJob(ctx, job, nil, err)
		return
	}
	premium := tier == report.TierPremium
	outline := report.OutlineFor(tier)
	totalPages := outline.TotalPages()

	s.notifier.PublishStatus(ctx, StatusEvent{
		JobID: job.ID, UserID: job.UserID, Tier: job.Tier,
		Status: domain.ReportStatusProcessing, PagesTotal: totalPages,
	})

	user, err := s.userRepo.GetByID(dbc, job.UserID)
	if err == nil && user == nil {
		err = fmt.Errorf("user %s: %w", job.UserID, errs.ErrNotFound)
	}
	if err != nil {
		s.failJob(ctx, job, nil, err)
		return
	}

	qa, err := s.loadQA(dbc, job.UserID, tier)
	if err != nil {
		s.failJob(ctx, job, nil, err)
		return
	}

	conversation := report.NewConversation()
	conversation.Append(report.RoleSystem, report.BaseSystemPrompt(tier))
	conversation.Append(report.RoleUser, report.PrimingMessage(tier, report.FormatQA(qa)))

	initial, err := s.generator.Complete(ctx, conversation.Messages(), premium)
	if err != nil {
		s.failJob(ctx, job, nil, fmt.Errorf("priming exchange: %w", err))
		return
	}
	conversation.Append(report.RoleAssistant, initial.Content)
	log.Info("Priming exchange complete", "chars", len(initial.Content))

	var pages []report.GeneratedPage
	globalPage := 0

	for si, sec := range outline.Sections {
		if premium {
			conversation.Append(report.RoleUser, report.SectionIntro(sec))
			intro, err := s.generator.Complete(ctx, conversation.Messages(), premium)
			if err != nil {
				s.failJob(ctx, job, pages, fmt.Errorf("section %s intro: %w", sec.Key, err))
				return
			}
			conversation.Append(report.RoleAssistant, intro.Content)
		}

		for pageNum := 1; pageNum <= sec.Pages(); pageNum++ {
			if conversation.EstimatedTokens() > trimTriggerTokens {
				conversation.TrimToBudget(trimTargetTokens)
				log.Info("Trimmed conversation context", "messages", conversation.Len())
			}

			prompt := sec.Instructions
			if premium {
				prompt, err = report.PageDirective(sec, pageNum)
				if err != nil {
					s.failJob(ctx, job, pages, err)
					return
				}
			}
			conversation.Append(report.RoleUser, prompt)

			completion, err := s.generator.Complete(ctx, conversation.Messages(), premium)
			if err != nil {
				s.failJob(ctx, job, pages, fmt.Errorf("section %s page %d: %w", sec.Key, pageNum, err))
				return
			}
			conversation.Append(report.RoleAssistant, completion.Content)

			globalPage++
			pages = append(pages, report.GeneratedPage{
				GlobalPage:  globalPage,
				SectionKey:  sec.Key,
				SectionName: sec.Name,
				PageNum:     pageNum,
				Content:     completion.Content,
			})
			s.notifier.PublishStatus(ctx, StatusEvent{
				JobID: job.ID, UserID: job.UserID, Tier: job.Tier,
				Status: domain.ReportStatusProcessing, PagesDone: globalPage, PagesTotal: totalPages,
			})

			if pageNum < sec.Pages() {
				if !sleepCtx(ctx, s.cfg.PagePause) {
					s.failJob(ctx, job, pages, ctx.Err())
					return
				}
			}
		}

		log.Info("Section generated", "section", sec.Key, "pages_done", globalPage)
		if si < len(outline.Sections)-1 {
			if !sleepCtx(ctx, s.cfg.SectionPause) {
				s.failJob(ctx, job, pages, ctx.Err())
				return
			}
		}
	}

	artifactPath, err := s.buildArtifact(user, tier, pages)
	if err != nil {
		s.failJob(ctx, job, pages, fmt.Errorf("assemble report: %w", err))
		return
	}

	totalChars := 0
	for _, p := range pages {
		totalChars += len(p.Content)
	}
	result, _ := json.Marshal(map[string]any{
		"pages_generated": len(pages),
		"total_chars":     totalChars,
	})
	now := time.Now()
	if err := s.jobs.UpdateFields(dbc, job.ID, map[string]interface{}{
		"status":        domain.ReportStatusCompleted,
		"artifact_path": artifactPath,
		"result":        datatypes.JSON(result),
		"finished_at":   now,
	}); err != nil {
		log.Error("Failed to mark job completed", "error", err)
		return
	}
	log.Info("Report job completed", "artifact", artifactPath, "pages", len(pages))
	s.notifier.PublishStatus(ctx, StatusEvent{
		JobID: job.ID, UserID: job.UserID, Tier: job.Tier,
		Status: domain.ReportStatusCompleted, PagesDone: len(pages), PagesTotal: totalPages,
	})
}

func (s *reportGenerationService) loadQA(dbc dbctx.Context, userID uuid.UUID, tier report.Tier) ([]report.QA, error) {
	questions, err := s.questions.ListByTier(dbc, string(tier))
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[uuid.UUID]*domain.Answer, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a
	}
	qa := make([]report.QA, 0, len(questions))
	for _, q := range questions {
		a := byQuestion[q.ID]
		if a == nil || a.TextAnswer == "" {
			continue
		}
		qa = append(qa, report.QA{Order: q.OrderNumber, Question: q.Text, Answer: a.TextAnswer})
	}
	if len(qa) == 0 {
		return nil, fmt.Errorf("no answered questions for user %s tier %s: %w", userID, tier, errs.ErrInvalidArgument)
	}
	return qa, nil
}

func (s *reportGenerationService) buildArtifact(user *domain.User, tier report.Tier, pages []report.GeneratedPage) (string, error) {
	if tier == report.TierPremium {
		name := user.Name
		if name == "" {
			name = fmt.Sprintf("user %s", user.ID)
		}
		return s.builder.BuildPremium(user.ID, name, pages)
	}
	return s.builder.BuildFree(user.ID, pages)
}

// failJob marks the job failed with the original error and, when any pages
// were generated, writes a plain-text fallback artifact. The fallback path
// must never raise: its own failure is logged and swallowed.
func (s *reportGenerationService) failJob(ctx context.Context, job *domain.ReportJob, pages []report.GeneratedPage, cause error) {
	log := s.log.With("job_id", job.ID, "user_id", job.UserID, "tier", job.Tier)
	log.Error("Report job failed", "error", cause, "pages_done", len(pages))

	updates := map[string]interface{}{
		"status":      domain.ReportStatusFailed,
		"error":       cause.Error(),
		"finished_at": time.Now(),
	}
	if len(pages) > 0 {
		if fallbackPath, fbErr := s.builder.BuildText(job.UserID, pages); fbErr != nil {
			log.Warn("Fallback text report failed", "error", fbErr)
		} else {
			updates["artifact_path"] = fallbackPath
			log.Info("Fallback text report written", "path", fallbackPath)
		}
	}
	if err := s.jobs.UpdateFields(dbctx.Context{Ctx: ctx}, job.ID, updates); err != nil {
		log.Error("Failed to mark job failed", "error", err)
	}
	s.notifier.PublishStatus(ctx, StatusEvent{
		JobID: job.ID, UserID: job.UserID, Tier: job.Tier,
		Status: domain.ReportStatusFailed, PagesDone: len(pages), Detail: cause.Error(),
	})
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
