package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"artboard/internal/cache"
	"artboard/internal/config"
	"artboard/internal/media/metadata"
	"artboard/internal/middleware"
	"artboard/internal/models"
	"artboard/internal/repository"
	"artboard/internal/service"
	"artboard/internal/storage"
)

type HandlerSet struct {
	log     zerolog.Logger
	cfg     *config.AppConfig
	db      *pgxpool.Pool
	cache   *redis.Client
	store   *storage.ObjectStore
	users   *repository.UserRepository
	ingest  *service.IngestService
	review  *service.ReviewService
	browse  *service.BrowseService
	tags    *service.TagService
	artists *service.ArtistService
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cacheClient *redis.Client, store *storage.ObjectStore, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	imageRepo := repository.NewImageRepository(db)
	tagRepo := repository.NewTagRepository(db)
	artistRepo := repository.NewArtistRepository(db)
	txRunner := repository.NewTxRunner(db)

	extractor := metadata.NewExtractor(metadata.Bounds{
		MinWidth:  cfg.Upload.MinWidth,
		MinHeight: cfg.Upload.MinHeight,
		MaxWidth:  cfg.Upload.MaxWidth,
		MaxHeight: cfg.Upload.MaxHeight,
	})
	resolver := service.NewEntityResolver(cfg.Moderation)
	locks := cache.NewDedupLock(cacheClient)

	return HandlerSet{
		log:     log,
		cfg:     cfg,
		db:      db,
		cache:   cacheClient,
		store:   store,
		users:   userRepo,
		ingest:  service.NewIngestService(extractor, resolver, txRunner, imageRepo, tagRepo, artistRepo, store, locks, cfg, log),
		review:  service.NewReviewService(imageRepo, tagRepo, artistRepo, store, log),
		browse:  service.NewBrowseService(imageRepo, store),
		tags:    service.NewTagService(tagRepo, cfg.Moderation),
		artists: service.NewArtistService(artistRepo, cfg.Moderation),
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	required := middleware.Auth(h.cfg, h.users)
	optional := middleware.OptionalAuth(h.cfg, h.users)

	v1 := router.Group("/v1")

	images := v1.Group("/images")
	images.GET("", optional, h.ListImages)
	images.GET("/:id", optional, h.GetImage)
	images.POST("", required, h.UploadImage)
	images.DELETE("/:id", required, h.DeleteImage)

	tags := v1.Group("/tags")
	tags.GET("", optional, h.ListTags)
	tags.GET("/:id", optional, h.GetTag)
	tags.POST("", required, h.CreateTag)

	artists := v1.Group("/artists")
	artists.GET("", optional, h.ListArtists)
	artists.GET("/:id", optional, h.GetArtist)
	artists.POST("", required, h.CreateArtist)

	admin := v1.Group("/admin")
	admin.Use(
		required,
		middleware.RequireRoles(models.UserRoleModerator, models.UserRoleAdmin),
	)
	admin.GET("/queue/images", h.ImageQueue)
	admin.GET("/queue/tags", h.TagQueue)
	admin.GET("/queue/artists", h.ArtistQueue)
	admin.POST("/review/images/:id", h.ReviewImage)
	admin.POST("/review/tags/:id", h.ReviewTag)
	admin.POST("/review/artists/:id", h.ReviewArtist)
}

// currentUser returns the authenticated user placed by the auth middleware.
func currentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get("current_user")
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}

func privileged(c *gin.Context) bool {
	user, ok := currentUser(c)
	return ok && user.Privileged()
}
