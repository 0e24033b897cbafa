package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/prizma-app/prizma-backend/internal/clients/perplexity"
	"github.com/prizma-app/prizma-backend/internal/db"
	"github.com/prizma-app/prizma-backend/internal/handlers"
	"github.com/prizma-app/prizma-backend/internal/pdf"
	"github.com/prizma-app/prizma-backend/internal/pkg/logger"
	"github.com/prizma-app/prizma-backend/internal/report"
	"github.com/prizma-app/prizma-backend/internal/repos"
	"github.com/prizma-app/prizma-backend/internal/server"
	"github.com/prizma-app/prizma-backend/internal/services"
	"github.com/prizma-app/prizma-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	questionRepo := repos.NewQuestionRepo(thePG, log)
	answerRepo := repos.NewAnswerRepo(thePG, log)
	jobRepo := repos.NewReportJobRepo(thePG, log)

	// Clients
	generator, err := perplexity.NewClient(log)
	if err != nil {
		log.Error("Could not init PerplexityClient", "error", err)
		os.Exit(1)
	}

	var notifier services.Notifier
	notifier, err = services.NewRedisNotifier(log)
	if err != nil {
		log.Warn("Redis notifier unavailable, status events disabled", "error", err)
		notifier = services.NopNotifier{}
	}
	defer notifier.Close()

	// Rendering stack
	fontLib, err := pdf.LoadFontLibrary(utils.GetEnv("REPORT_FONT", "", log))
	if err != nil {
		log.Error("Could not load report font", "error", err)
		os.Exit(1)
	}
	renderer := pdf.NewRenderer(log, fontLib, report.DefaultClassifier())
	builder := pdf.NewBuilder(
		log,
		renderer,
		pdf.NewAssembler(log),
		utils.GetEnv("REPORT_TEMPLATE_DIR", "./templates", log),
		utils.GetEnv("REPORT_PREMIUM_TEMPLATE_DIR", "./templates_premium", log),
		utils.GetEnv("REPORT_OUTPUT_DIR", "./reports", log),
	)

	// Services
	log.Info("Setting up services from main...")
	reportService := services.NewReportGenerationService(
		log,
		userRepo,
		questionRepo,
		answerRepo,
		jobRepo,
		generator,
		builder,
		notifier,
		services.Config{},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reportService.StartWorker(ctx)
	reportService.StartWatchdog(ctx)

	// Handlers + router
	reportHandler := handlers.NewReportHandler(log, reportService, jobRepo)
	router := server.NewRouter(server.RouterConfig{
		ReportHandler: reportHandler,
		AllowOrigins:  server.SplitOrigins(utils.GetEnv("CORS_ALLOW_ORIGINS", "", log)),
	})

	addr := utils.GetEnv("HTTP_ADDR", ":8080", log)
	srv := &http.Server{Addr: addr, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}
