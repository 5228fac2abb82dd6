package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	httpadapter "github.com/roomhunt/property-service/internal/adapter/http"
	"github.com/roomhunt/property-service/internal/adapter/http/middleware"
	"github.com/roomhunt/property-service/internal/adapter/messaging/nats"
	"github.com/roomhunt/property-service/internal/adapter/repository/cache"
	"github.com/roomhunt/property-service/internal/adapter/repository/mongodb"
	"github.com/roomhunt/property-service/internal/config"
	"github.com/roomhunt/property-service/internal/listing/usecase"
	"github.com/roomhunt/property-service/internal/mailer"
	"github.com/roomhunt/property-service/internal/platform/logger"
	"github.com/roomhunt/property-service/internal/platform/tracer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewLogger()

	tp := tracer.InitTracer()
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			appLogger.Error("main: tracer shutdown failed", "error", err.Error())
		}
	}()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.MongoDB)

	listingRepo := mongodb.NewListingRepository(db, appLogger)
	imageRepo := mongodb.NewImageRepository(db, appLogger)

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelIndex()
	if err := listingRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create listing indexes: %v", err)
	}
	if err := imageRepo.EnsureIndexes(indexCtx); err != nil {
		log.Fatalf("Failed to create image indexes: %v", err)
	}

	listingCache, err := cache.NewListingCache(cfg.RedisAddress)
	if err != nil {
		appLogger.Warn("main: redis unavailable, continuing without cache", "address", cfg.RedisAddress, "error", err.Error())
		listingCache = nil
	}

	natsPublisher, err := nats.NewPublisher(cfg.NATSURL)
	if err != nil {
		appLogger.Warn("main: NATS unavailable, continuing without events", "url", cfg.NATSURL, "error", err.Error())
		natsPublisher = nil
	} else {
		defer natsPublisher.Close()
	}

	var mail mailer.Sender
	smtp := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword)
	if smtp.Configured() {
		mail = smtp
	}

	uc := usecase.NewListingUsecase(listingRepo, imageRepo, usecase.Limits{
		MaxImagesPerListing:  cfg.MaxImagesPerListing,
		MaxImagePayloadBytes: cfg.MaxImagePayloadBytes,
	}, appLogger)

	handler := httpadapter.NewPropertyHandler(uc, listingCache, natsPublisher, mail, appLogger)

	mux := chi.NewRouter()
	mux.Use(middleware.RequestLogger(appLogger))
	httpadapter.SetupRoutes(mux, handler, cfg.JWTSecret, appLogger)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: mux,
	}

	go func() {
		appLogger.Info("main: starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("main: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("main: server shutdown failed", "error", err.Error())
	}
}
