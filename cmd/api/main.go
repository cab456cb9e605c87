package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/jwalitptl/medrec-api/internal/access"
	"github.com/jwalitptl/medrec-api/internal/config"
	"github.com/jwalitptl/medrec-api/internal/email"
	"github.com/jwalitptl/medrec-api/internal/handler"
	imageHandler "github.com/jwalitptl/medrec-api/internal/handler/image"
	noteHandler "github.com/jwalitptl/medrec-api/internal/handler/note"
	personHandler "github.com/jwalitptl/medrec-api/internal/handler/person"
	prescriptionHandler "github.com/jwalitptl/medrec-api/internal/handler/prescription"
	recordHandler "github.com/jwalitptl/medrec-api/internal/handler/record"
	relationshipHandler "github.com/jwalitptl/medrec-api/internal/handler/relationship"
	"github.com/jwalitptl/medrec-api/internal/middleware"
	"github.com/jwalitptl/medrec-api/internal/repository/postgres"
	"github.com/jwalitptl/medrec-api/internal/router"
	imageService "github.com/jwalitptl/medrec-api/internal/service/image"
	noteService "github.com/jwalitptl/medrec-api/internal/service/note"
	personService "github.com/jwalitptl/medrec-api/internal/service/person"
	prescriptionService "github.com/jwalitptl/medrec-api/internal/service/prescription"
	recordService "github.com/jwalitptl/medrec-api/internal/service/record"
	relationshipService "github.com/jwalitptl/medrec-api/internal/service/relationship"
	"github.com/jwalitptl/medrec-api/pkg/clock"
	"github.com/jwalitptl/medrec-api/pkg/logger"
	"github.com/jwalitptl/medrec-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	// Repositories
	base := postgres.NewBaseRepository(db)
	personRepo := postgres.NewPersonRepository(base)
	relationshipRepo := postgres.NewRelationshipRepository(base)

	eval := access.NewEvaluator(postgres.NewGraph(relationshipRepo, personRepo))

	recordRepo := postgres.NewMedicalRecordRepository(base, eval)
	noteRepo := postgres.NewMedicalNoteRepository(base, eval)
	experimentRepo := postgres.NewExperimentNoteRepository(base, eval)
	imageRepo := postgres.NewMedicalImageRepository(base, eval)
	prescriptionRepo := postgres.NewPrescriptionRepository(base, eval)
	prescriptionImageRepo := postgres.NewPrescriptionImageRepository(base, eval)
	uow := postgres.NewUnitOfWork(base)

	// Email is optional: without an SMTP host the notifications are
	// dropped.
	var emailSvc email.Service = email.NoopService{}
	if cfg.SMTP.Host != "" {
		emailSvc = email.NewSMTPService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	// Services
	clk := clock.System()
	m := metrics.NewMetrics("medrec", "api")
	personSvc := personService.NewService(personRepo)
	relationshipSvc := relationshipService.NewService(relationshipRepo, personRepo, eval, emailSvc, log)
	recordSvc := recordService.NewService(recordRepo, uow, eval, clk, log, m)
	noteSvc := noteService.NewService(noteRepo, experimentRepo, recordRepo, eval, clk)
	imageSvc := imageService.NewService(imageRepo, prescriptionImageRepo, recordRepo, prescriptionRepo, uow, eval, clk)
	prescriptionSvc := prescriptionService.NewService(prescriptionRepo, recordRepo, uow, eval, clk, log, m)

	// Router
	requester := middleware.NewRequesterMiddleware(cfg.JWT.Secret)
	health := handler.NewHealthHandler(db)

	r := router.NewRouter(
		requester,
		health,
		log,
		router.Config{
			RateLimit:     rate.Limit(cfg.Server.RateLimit),
			RateBurst:     cfg.Server.RateBurst,
			MetricsPrefix: "medrec_api",
		},
		personHandler.NewHandler(personSvc),
		relationshipHandler.NewHandler(relationshipSvc),
		recordHandler.NewHandler(recordSvc),
		noteHandler.NewHandler(noteSvc),
		imageHandler.NewHandler(imageSvc),
		prescriptionHandler.NewHandler(prescriptionSvc),
	)
	r.Setup()

	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()
	log.Info("server started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited")
}
