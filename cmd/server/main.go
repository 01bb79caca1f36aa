package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/opticlinic/clinic-flow/internal/api"
	"github.com/opticlinic/clinic-flow/internal/appointment"
	"github.com/opticlinic/clinic-flow/internal/audit"
	"github.com/opticlinic/clinic-flow/internal/auth"
	"github.com/opticlinic/clinic-flow/internal/billing"
	"github.com/opticlinic/clinic-flow/internal/config"
	"github.com/opticlinic/clinic-flow/internal/database"
	"github.com/opticlinic/clinic-flow/internal/encryption"
	"github.com/opticlinic/clinic-flow/internal/eyetest"
	"github.com/opticlinic/clinic-flow/internal/facerec"
	"github.com/opticlinic/clinic-flow/internal/journey"
	"github.com/opticlinic/clinic-flow/internal/notification"
	"github.com/opticlinic/clinic-flow/internal/patient"
	"github.com/opticlinic/clinic-flow/internal/prescription"
	"github.com/opticlinic/clinic-flow/internal/staff"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// MongoDB holds the clinical documents: patients, journeys, eye tests,
	// appointments, prescriptions, face descriptors, notifications.
	mongoClient, err := database.NewMongoClient(ctx, &database.MongoConfig{
		URI:                    cfg.Mongo.URI,
		Database:               cfg.Mongo.Database,
		MaxPoolSize:            20,
		MinPoolSize:            2,
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 10 * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)
	mongoDB := mongoClient.Database(cfg.Mongo.Database)

	// PostgreSQL holds the relational side: billing ledger and login accounts.
	db, err := database.Connect(ctx, database.PostgresConfig{
		Host:        cfg.Postgres.Host,
		Port:        cfg.Postgres.Port,
		Database:    cfg.Postgres.Name,
		User:        cfg.Postgres.User,
		Password:    cfg.Postgres.Password,
		SSLMode:     cfg.Postgres.SSLMode,
		MaxPoolSize: 10,
		ConnTimeout: 5 * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer database.Disconnect(db)

	encryptService, err := encryption.NewService()
	if err != nil {
		logger.Fatal("Failed to initialize encryption service", zap.Error(err))
	}

	esClient, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Elasticsearch.URL},
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
	})
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", zap.Error(err))
	}

	auditService := audit.NewService(esClient)

	authService := auth.NewService(db, auditService, auth.Config{
		JWTSecret:    os.Getenv("JWT_SECRET"),
		TokenExpiry:  8 * time.Hour,
		RefreshLimit: time.Hour,
	})
	if err := authService.Initialize(ctx); err != nil {
		logger.Fatal("Failed to initialize auth service", zap.Error(err))
	}

	if err := journey.EnsureIndexes(ctx, mongoDB); err != nil {
		logger.Fatal("Failed to create journey indexes", zap.Error(err))
	}

	notificationService := notification.NewService(mongoDB)
	journeyService := journey.NewService(journey.NewMongoStore(mongoDB), notificationService, auditService, logger)
	patientService := patient.NewService(mongoDB, encryptService, auditService)
	staffService := staff.NewService(mongoDB, auditService)

	billingService := billing.NewService(db, journeyService, auditService, logger)
	if err := billingService.Initialize(ctx); err != nil {
		logger.Fatal("Failed to initialize billing service", zap.Error(err))
	}

	eyeTestService := eyetest.NewService(mongoDB, journeyService, auditService, logger)
	appointmentService := appointment.NewService(mongoDB, journeyService, auditService)
	prescriptionService := prescription.NewService(mongoDB, journeyService, auditService)

	extractor := facerec.NewPythonExtractor(cfg.FaceRecognition.PythonBin, cfg.FaceRecognition.ScriptPath, logger)
	faceService := facerec.NewService(mongoDB, extractor, cfg.FaceRecognition.Threshold, auditService, logger)

	handler := api.NewHandler(
		authService,
		patientService,
		journeyService,
		billingService,
		eyeTestService,
		appointmentService,
		prescriptionService,
		staffService,
		faceService,
		notificationService,
		auditService,
	)

	router := api.NewRouter(handler, authService)
	engine := router.SetupRouter(logger)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: engine,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	go func() {
		log.Printf("Starting server on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if cfg.Server.TLS.Enabled {
			if err := srv.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		} else {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
