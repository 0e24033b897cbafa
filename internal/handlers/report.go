package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prizma-app/prizma-backend/internal/domain"
	"github.com/prizma-app/prizma-backend/internal/pkg/dbctx"
	"github.com/prizma-app/prizma-backend/internal/pkg/errs"
	"github.com/prizma-app/prizma-backend/internal/pkg/logger"
	"github.com/prizma-app/prizma-backend/internal/report"
	"github.com/prizma-app/prizma-backend/internal/repos"
	"github.com/prizma-app/prizma-backend/internal/services"
)

type ReportHandler struct {
	log  *logger.Logger
	svc  services.ReportGenerationService
	jobs repos.ReportJobRepo
}

func NewReportHandler(log *logger.Logger, svc services.ReportGenerationService, jobs repos.ReportJobRepo) *ReportHandler {
	return &ReportHandler{
		log:  log.With("handler", "ReportHandler"),
		svc:  svc,
		jobs: jobs,
	}
}

func requestIdentity(c *gin.Context) (uuid.UUID, report.Tier, error) {
	userID, err := uuid.Parse(c.GetHeader("X-User-ID"))
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("missing or invalid X-User-ID header")
	}
	tier, err := report.ParseTier(c.Param("tier"))
	if err != nil {
		return uuid.Nil, "", err
	}
	return userID, tier, nil
}

// Create enqueues a generation job for the caller and tier.
func (h *ReportHandler) Create(c *gin.Context) {
	userID, tier, err := requestIdentity(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	job, err := h.svc.Enqueue(dbctx.Context{Ctx: c.Request.Context()}, userID, tier)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		RespondError(c, http.StatusNotFound, "user_not_found", err)
	case errors.Is(err, errs.ErrJobAlreadyRunning):
		RespondError(c, http.StatusConflict, "job_already_running", err)
	case errors.Is(err, errs.ErrInvalidArgument):
		RespondError(c, http.StatusForbidden, "premium_required", err)
	case err != nil:
		h.log.Error("Failed to enqueue report job", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", err)
	default:
		c.JSON(http.StatusAccepted, gin.H{"job": job})
	}
}

// Status returns the caller's most recent job for a tier.
func (h *ReportHandler) Status(c *gin.Context) {
	userID, tier, err := requestIdentity(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	job, err := h.jobs.GetLatest(dbctx.Context{Ctx: c.Request.Context()}, userID, string(tier))
	if err != nil {
		h.log.Error("Failed to load report job", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	if job == nil {
		RespondError(c, http.StatusNotFound, "no_report_job", fmt.Errorf("no %s report job for user", tier))
		return
	}
	RespondOK(c, gin.H{"job": job})
}

// Download streams the artifact of the caller's most recent job. Failed
// jobs may still carry a text fallback artifact; it is served the same way.
func (h *ReportHandler) Download(c *gin.Context) {
	userID, tier, err := requestIdentity(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	job, err := h.jobs.GetLatest(dbctx.Context{Ctx: c.Request.Context()}, userID, string(tier))
	if err != nil {
		h.log.Error("Failed to load report job", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", err)
		return
	}
	if job == nil || job.ArtifactPath == "" {
		RespondError(c, http.StatusNotFound, "no_report", fmt.Errorf("no %s report available", tier))
		return
	}
	if job.Status != domain.ReportStatusCompleted && job.Status != domain.ReportStatusFailed {
		RespondError(c, http.StatusConflict, "report_not_ready", fmt.Errorf("report is %s", job.Status))
		return
	}
	if _, statErr := os.Stat(job.ArtifactPath); statErr != nil {
		h.log.Warn("Report artifact missing on disk", "job_id", job.ID, "path", job.ArtifactPath)
		RespondError(c, http.StatusNotFound, "artifact_missing", fmt.Errorf("report artifact no longer available"))
		return
	}
	c.FileAttachment(job.ArtifactPath, filepath.Base(job.ArtifactPath))
}
