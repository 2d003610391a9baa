package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bonded.app/memories/internal/config"
	"bonded.app/memories/internal/middleware"
	"bonded.app/memories/internal/scheduler"
	"bonded.app/memories/pkg/logger"
	"bonded.app/memories/pkg/metrics"
	"bonded.app/memories/pkg/ratelimiter"
	"bonded.app/memories/pkg/storage"

	achievementHttp "bonded.app/memories/internal/modules/achievement/delivery/http"
	achievementRepo "bonded.app/memories/internal/modules/achievement/repository"
	achievementService "bonded.app/memories/internal/modules/achievement/service"

	activityHttp "bonded.app/memories/internal/modules/activity/delivery/http"
	activityRepo "bonded.app/memories/internal/modules/activity/repository"
	activityService "bonded.app/memories/internal/modules/activity/service"

	challengeHttp "bonded.app/memories/internal/modules/challenge/delivery/http"
	challengeRepo "bonded.app/memories/internal/modules/challenge/repository"
	challengeService "bonded.app/memories/internal/modules/challenge/service"

	"bonded.app/memories/internal/modules/gamification"

	leaderboardHttp "bonded.app/memories/internal/modules/leaderboard/delivery/http"
	leaderboardRepo "bonded.app/memories/internal/modules/leaderboard/repository"
	leaderboardService "bonded.app/memories/internal/modules/leaderboard/service"

	membershipRepo "bonded.app/memories/internal/modules/membership/repository"
	membershipService "bonded.app/memories/internal/modules/membership/service"

	notiHttp "bonded.app/memories/internal/modules/notification/delivery/http"
	notifRepo "bonded.app/memories/internal/modules/notification/repository"
	notifService "bonded.app/memories/internal/modules/notification/service"

	statHttp "bonded.app/memories/internal/modules/stat/delivery/http"
	statRepo "bonded.app/memories/internal/modules/stat/repository"
	statService "bonded.app/memories/internal/modules/stat/service"

	streakHttp "bonded.app/memories/internal/modules/streak/delivery/http"
	streakRepo "bonded.app/memories/internal/modules/streak/repository"
	streakService "bonded.app/memories/internal/modules/streak/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	engine       *gin.Engine
	httpServer   *http.Server
	scheduler    *scheduler.Scheduler
	achievements achievementService.AchievementService
	log          *zap.Logger
}

// NewServer wires every module. redisClient and media may be nil: the
// leaderboard cache, rate limits and live notifications are then disabled and
// media uploads answer 503.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, media storage.MediaStorage, log *zap.Logger) (*Server, error) {
	log = logger.OrNop(log)

	membershipSvc := membershipService.NewMembershipService(membershipRepo.NewMembershipRepository(db))

	// Notification Module
	notificationSvc := notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), redisClient, log)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, cfg.AllowedOrigins, log)

	// Gamification engine
	streakSvc := streakService.NewStreakService(streakRepo.NewStreakRepository(db))
	challengeSvc := challengeService.NewChallengeService(challengeRepo.NewChallengeRepository(db), membershipSvc, notificationSvc, log)
	counter := achievementRepo.NewActivityCounter(db)
	achievementSvc := achievementService.NewAchievementService(achievementRepo.NewAchievementRepository(db), counter, notificationSvc, log)
	tracker := gamification.NewTracker(streakSvc, challengeSvc, achievementSvc, log)

	lbRepo := leaderboardRepo.NewLeaderboardRepository(db)
	leaderboardSvc := leaderboardService.NewLeaderboardService(lbRepo, membershipSvc, redisClient, cfg.LeaderboardCacheTTL, log)
	statSvc := statService.NewStatService(statRepo.NewStatRepository(db), counter, lbRepo, membershipSvc)

	activitySvc := activityService.NewActivityService(activityRepo.NewActivityRepository(db), membershipSvc, tracker, media, redisClient, log)

	activityHandler := activityHttp.NewActivityHandler(activitySvc)
	streakHandler := streakHttp.NewStreakHandler(streakSvc, membershipSvc, tracker)
	challengeHandler := challengeHttp.NewChallengeHandler(challengeSvc, membershipSvc)
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc, membershipSvc, ratelimiter.New(redisClient, log), cfg.RateLimitCalculate)
	achievementHandler := achievementHttp.NewAchievementHandler(achievementSvc, membershipSvc)
	statHandler := statHttp.NewStatHandler(statSvc, membershipSvc)

	jobs := scheduler.New(log, 5*time.Minute)
	if err := jobs.Register(scheduler.NewChallengeCleanup(challengeSvc, cfg.ChallengeCleanupCron, log)); err != nil {
		return nil, err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	router.Use(metrics.Middleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metrics.Handler(cfg.MetricsUser, cfg.MetricsPass))

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	protected := router.Group("/api")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Activity routes
		protected.POST("/groups/:group_id/posts", activityHandler.CreatePost)
		protected.POST("/groups/:group_id/events", activityHandler.CreateEvent)
		protected.POST("/posts/:post_id/comments", activityHandler.CreateComment)
		protected.POST("/posts/:post_id/reactions", activityHandler.React)
		protected.GET("/posts/:post_id/reactions", activityHandler.ReactionCounts)

		// Streak routes
		protected.GET("/groups/:group_id/streaks", streakHandler.ListStreaks)
		protected.POST("/groups/:group_id/streaks/login", streakHandler.RecordLogin)

		// Challenge routes
		protected.POST("/groups/:group_id/challenges", challengeHandler.CreateChallenge)
		protected.GET("/groups/:group_id/challenges", challengeHandler.ListChallenges)
		protected.GET("/groups/:group_id/challenges/progress", challengeHandler.ListGroupProgress)
		protected.GET("/challenges/:challenge_id", challengeHandler.GetChallenge)
		protected.POST("/challenges/:challenge_id/progress", challengeHandler.AdvanceProgress)
		protected.GET("/challenges/:challenge_id/progress", challengeHandler.GetProgress)

		// Leaderboard routes
		protected.POST("/groups/:group_id/leaderboard/calculate", leaderboardHandler.Calculate)
		protected.GET("/groups/:group_id/leaderboard", leaderboardHandler.GetLeaderboard)

		// Achievement routes
		protected.GET("/achievements", achievementHandler.ListMine)
		protected.GET("/achievements/catalog", achievementHandler.Catalog)

		protected.GET("/groups/:group_id/stats", statHandler.GetUserStats)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	return &Server{
		engine:       router,
		scheduler:    jobs,
		achievements: achievementSvc,
		log:          log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// SeedAchievements installs the starter badges that are not defined yet.
func (s *Server) SeedAchievements(ctx context.Context) error {
	n, err := s.achievements.SeedDefaults(ctx)
	if err != nil {
		return fmt.Errorf("seed achievements: %w", err)
	}
	s.log.Info("achievement catalog ready", zap.Int64("created", n))
	return nil
}

// Run starts the scheduler and serves until Shutdown is called.
func (s *Server) Run() error {
	s.scheduler.Start()
	s.log.Info("server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.scheduler.Stop()
	return s.httpServer.Shutdown(ctx)
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
