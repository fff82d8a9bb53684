package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"

	"github.com/yourusername/sof-stats/internal/config"
	"github.com/yourusername/sof-stats/internal/handler"
	"github.com/yourusername/sof-stats/internal/middleware"
	pgRepo "github.com/yourusername/sof-stats/internal/repository/postgres"
	redisRepo "github.com/yourusername/sof-stats/internal/repository/redis"
	"github.com/yourusername/sof-stats/internal/service"
	"github.com/yourusername/sof-stats/internal/service/stats"
	ws "github.com/yourusername/sof-stats/internal/websocket"
	"github.com/yourusername/sof-stats/pkg/auth"
	"github.com/yourusername/sof-stats/pkg/database"
)

func main() {
	// .env нужен только для локального запуска
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Контекст жизненного цикла приложения: отменяется при остановке
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	isProduction := gin.Mode() == gin.ReleaseMode
	gormLogLevel := logger.Info
	if isProduction {
		gormLogLevel = logger.Warn
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), gormLogLevel)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	sqlDB, err := database.GetSQLDB(db)
	if err != nil {
		log.Printf("Failed to get sql.DB: %v", err)
		os.Exit(1)
	}

	// В docker-compose БД поднимается дольше приложения
	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Minute)
	err = database.WaitForDB(waitCtx, sqlDB, database.WaitConfig{
		Initial:    cfg.Database.WaitInitial,
		Multiplier: cfg.Database.WaitMultiplier,
		Max:        cfg.Database.WaitMax,
	})
	waitCancel()
	if err != nil {
		log.Printf("Database is not available: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	participantRepo := pgRepo.NewParticipantRepo(db)
	episodeRepo := pgRepo.NewEpisodeRepo(db)
	resultRepo := pgRepo.NewResultRepo(db)
	adminRepo := pgRepo.NewAdminRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	revokedTokenRepo, err := redisRepo.NewRevokedTokenRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize RevokedTokenRepo: %v", err)
		os.Exit(1)
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs, revokedTokenRepo)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// --- WebSocket: живая лента новых эпизодов ---
	var pubSubProvider ws.PubSubProvider
	redisPubSub, err := ws.NewRedisPubSub(redisClient)
	if err != nil {
		log.Printf("Ошибка при создании Redis PubSub провайдера: %v. Лента будет работать в пределах экземпляра.", err)
	} else {
		pubSubProvider = redisPubSub
	}

	wsHub := ws.NewHub(pubSubProvider)
	go wsHub.Run(ctx)
	wsManager := ws.NewManager(wsHub)

	// Почта для кодов приглашения
	var emailService service.EmailService = &service.NoopEmailService{}
	if cfg.Email.ResendAPIKey != "" {
		resendService, err := service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize Resend email service: %v", err)
			os.Exit(1)
		}
		emailService = resendService
	} else {
		log.Println("Warning: RESEND_API_KEY не задан, коды приглашения будут только в логах")
	}

	invites, err := service.NewInviteManager()
	if err != nil {
		log.Printf("Failed to initialize InviteManager: %v", err)
		os.Exit(1)
	}

	// Инициализируем сервисы
	engine := stats.NewEngine(stats.NewRepositoryStore(participantRepo, resultRepo, episodeRepo))
	statsCache := service.NewStatsCache(cacheRepo, cfg.Charts.CacheTTL)

	adminService := service.NewAdminService(adminRepo, cacheRepo, invites, emailService, jwtService, cfg.Email.InviteRecipient)
	participantService := service.NewParticipantService(participantRepo, statsCache)
	episodeService := service.NewEpisodeService(episodeRepo, engine, statsCache, wsManager)
	statsService := service.NewStatsService(engine, statsCache)
	chartService := service.NewChartService(engine, participantRepo, episodeRepo, statsCache)
	exportService := service.NewExportService(resultRepo, participantRepo, episodeRepo)

	if cfg.Seed.Enabled {
		seeder := service.NewSeeder(adminService, participantService, episodeService, uint64(time.Now().UnixNano()))
		if err := seeder.Seed(ctx, cfg.Seed.Episodes); err != nil {
			log.Printf("Failed to seed database: %v", err)
			os.Exit(1)
		}
	}

	// Эпизоды, не классифицированные из-за сбоя при добавлении
	if n, err := episodeService.ReconcileSweeps(ctx); err != nil {
		log.Printf("[EpisodeService] Классификация эпизодов без метки завершилась с ошибкой: %v", err)
	} else if n > 0 {
		log.Printf("[EpisodeService] Классифицировано эпизодов без метки: %d", n)
	}

	if cfg.Charts.WarmUp {
		go func() {
			if err := chartService.WarmUp(ctx); err != nil {
				log.Printf("[ChartService] Прогрев кеша графиков не удался: %v", err)
			}
		}()
	}

	// Инициализируем обработчики
	statsHandler := handler.NewStatsHandler(statsService, participantService, episodeService)
	chartHandler := handler.NewChartHandler(chartService)
	episodeHandler := handler.NewEpisodeHandler(episodeService)
	participantHandler := handler.NewParticipantHandler(participantService)
	adminHandler := handler.NewAdminHandler(adminService, cfg.JWT.CookieSecure)
	exportHandler := handler.NewExportHandler(exportService)
	wsHandler := handler.NewWSHandler(wsHub, wsManager, cfg.Server.AllowedOrigins)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)
	strictLimit := rateLimiter.Limit(middleware.AdminAuthRateLimit())

	// Инициализируем роутер Gin
	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	// В production не доверяем прокси-заголовкам (защита от IP spoofing)
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Настраиваем маршруты API
	api := router.Group("/api")
	api.Use(rateLimiter.LimitByIP(middleware.StatsRateLimit()))
	{
		// Статистика
		statsGroup := api.Group("/stats")
		{
			statsGroup.GET("/participants/:name/accuracy", statsHandler.GetAccuracy)
			statsGroup.GET("/participants/:name/accuracy/series", statsHandler.GetAccuracySeries)
			statsGroup.GET("/participants/:name/attendance", statsHandler.GetAttendance)
			statsGroup.GET("/sweeps", statsHandler.GetSweeps)
			statsGroup.GET("/summary/rogues", statsHandler.GetRogueSummary)
			statsGroup.GET("/summary/guests", statsHandler.GetGuestSummary)
			statsGroup.GET("/summary/episodes", statsHandler.GetEpisodeSummary)
		}

		// Графики
		charts := api.Group("/charts")
		{
			charts.GET("", chartHandler.ListChartTypes)
			charts.GET("/:type", chartHandler.GetChart)
		}

		// Эпизоды
		episodes := api.Group("/episodes")
		{
			episodes.GET("", episodeHandler.ListEpisodes)
			episodes.GET("/:num", middleware.ExtractIntParam("num", "epNum"), episodeHandler.GetEpisode)
		}
		api.GET("/themes", episodeHandler.ListThemes)
		api.GET("/years", episodeHandler.ListYears)

		// Участники
		participants := api.Group("/participants")
		{
			participants.GET("/rogues", participantHandler.ListRogues)
			participants.GET("/guests", participantHandler.ListGuests)
		}

		// Администрирование
		admin := api.Group("/admin")
		{
			admin.POST("/login", strictLimit, adminHandler.Login)
			admin.POST("/create", strictLimit, adminHandler.CreateAdmin)
			admin.POST("/authenticate", strictLimit, adminHandler.Authenticate)

			protected := admin.Group("")
			protected.Use(authMiddleware.RequireAdmin())
			{
				protected.POST("/logout", adminHandler.Logout)
				protected.GET("/me", adminHandler.Me)
				protected.POST("/episodes", episodeHandler.AddEpisode)
				protected.POST("/participants", participantHandler.AddParticipant)
				protected.GET("/export", exportHandler.Export)
				protected.GET("/ws/metrics", wsHandler.GetMetrics)
			}
		}
	}

	// WebSocket маршрут
	router.GET("/ws", wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			cancel()
		}
	}()

	// Ждем SIGINT/SIGTERM или падения сервера
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Println("Shutting down server...")

	// Останавливаем хаб и фоновые горутины
	cancel()

	if redisPubSub != nil {
		if err := redisPubSub.Close(); err != nil {
			log.Printf("Error closing PubSub provider: %v", err)
		}
	}

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
