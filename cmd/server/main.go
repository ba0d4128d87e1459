package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carevid/video-library/internal/api"
	"carevid/video-library/internal/config"
	"carevid/video-library/internal/repository/mongo"
	"carevid/video-library/internal/service"
	"carevid/video-library/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting video library server")

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal("could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info("database connection established", zap.String("name", cfg.Database.Name))

	// The unique index on storageKey backs the duplicate-key contract, so
	// index creation must complete before the server takes uploads.
	indexCtx, indexCancel := context.WithTimeout(context.Background(), 1*time.Minute)
	if err := mongo.EnsureVideoIndexes(indexCtx, appDB.Collection("videos")); err != nil {
		indexCancel()
		logger.Fatal("failed to create video indexes", zap.Error(err))
	}
	indexCancel()

	objectStorage, err := storage.NewS3Storage(cfg.S3, logger)
	if err != nil {
		logger.Fatal("failed to initialize S3 storage", zap.Error(err))
	}

	videoRepo := mongo.NewMongoVideoRepository(appDB)
	videoService := service.NewVideoService(videoRepo, objectStorage, cfg.Upload.MaxSize, cfg.S3.SignedURLTTL, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	api.SetupRoutes(router, cfg, videoService, logger)

	// No global Read/Write timeout: uploads may legitimately take minutes,
	// and per-route context deadlines already bound everything else.
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen and serve failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
