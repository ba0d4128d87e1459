package api

import (
	"net/http"

	"carevid/video-library/internal/config"
	"carevid/video-library/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRoutes wires the HTTP surface: the /videos group behind bearer
// authentication, with the upload route carrying its own timeout and
// rate-limit budget.
func SetupRoutes(
	router *gin.Engine,
	cfg config.Config,
	videoService service.VideoService,
	logger *zap.Logger,
) {
	videoHandler := NewVideoHandler(videoService, cfg.Upload.MaxSize)

	router.Use(RequestLogger(logger))
	router.Use(gin.Recovery())
	// CORS runs on the whole engine so preflight requests resolve, but the
	// allow-list gates every origin.
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	authMiddleware := AuthMiddleware(cfg.JWT.Secret)
	generalLimit := RateLimitMiddleware(cfg.RateLimit.RequestsPerMinute)
	uploadLimit := RateLimitMiddleware(cfg.RateLimit.UploadRequestsPerMinute)
	generalTimeout := TimeoutMiddleware(cfg.Server.RequestTimeout)
	uploadTimeout := TimeoutMiddleware(cfg.Upload.Timeout)

	apiV1 := router.Group("/api/v1")
	videos := apiV1.Group("/videos")
	videos.Use(authMiddleware)
	{
		// Uploads are big and slow: their own quota and a deadline of
		// minutes rather than seconds.
		videos.POST("/upload", uploadLimit, uploadTimeout, videoHandler.Upload)

		videos.GET("", generalLimit, generalTimeout, videoHandler.List)
		videos.GET("/:id", generalLimit, generalTimeout, videoHandler.Get)
		videos.GET("/:id/signed-url", generalLimit, generalTimeout, videoHandler.SignedURL)
		videos.PATCH("/:id", generalLimit, generalTimeout, videoHandler.Update)
		videos.DELETE("/:id", generalLimit, generalTimeout, videoHandler.Delete)
	}
}
