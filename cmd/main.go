package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"storefront/internal/api"
	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/consumer"
	"storefront/internal/events"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/sharding"
	"storefront/migrations"
)

const notificationRetention = 30 * 24 * time.Hour

func connectDB(shard int, dsn string) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Info().Msgf("Connected to notification shard %d", shard)
				return db, nil
			}
		}
		log.Warn().Err(err).Msgf("Retry %d: failed to connect to notification shard %d", i+1, shard)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to notification shard %d after retries: %w", shard, err)
}

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var dbs []*sql.DB
	for i, dsn := range cfg.DBShards {
		db, err := connectDB(i, dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect notification store")
		}
		defer db.Close()
		dbs = append(dbs, db)
	}
	if err := migrations.AutoMigrateNotifications(3, dbs...); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate notifications table")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	kafkaWriter := config.NewKafkaWriter(cfg.KafkaBrokers, cfg.OrderTopic)
	defer kafkaWriter.Close()
	publisher := events.NewPublisher(kafkaWriter)

	cache := client.NewRedisCache(rdb, cfg.GraphQLCacheTTL)
	gql := client.NewGraphQL(cfg.GraphQLURL,
		client.WithGraphQLHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		client.WithGraphQLToken(session.Token),
		client.WithCache(cache),
	)
	graphOrders := client.NewGraphQLOrders(gql)
	rest := client.New(cfg.BackendURL,
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithToken(session.Token),
		client.WithOrderFallback(graphOrders),
	)

	router := sharding.NewShardRouter(len(dbs))
	notificationRepo := repository.NewNotificationRepository(dbs, router)
	if n, err := notificationRepo.Purge(ctx, time.Now().Add(-notificationRetention)); err != nil {
		log.Warn().Err(err).Msg("Failed to purge old notifications")
	} else if n > 0 {
		log.Info().Msgf("Purged %d dismissed notifications", n)
	}

	sessions := session.NewManager(session.NewRedisStore(rdb), rest,
		session.WithTTL(cfg.SessionTTL),
		session.WithSigningKey([]byte(cfg.JWTSecret)),
	)

	notificationService := service.NewNotificationService(notificationRepo)
	// admin management runs over REST, customer history over GraphQL
	adminOrders := service.NewOrderService(rest, publisher)
	customerOrders := service.NewOrderService(graphOrders, publisher)
	cartService := service.NewCartService(rest, rest, service.NewRedisIdempotencyGuard(rdb), publisher)
	catalogService := service.NewCatalogService(rest, gql, cache)
	inventoryService := service.NewInventoryService(rest, gql, cache)
	reviewService := service.NewReviewService(rest)
	userService := service.NewUserService(rest, gql, cache)
	addressService := service.NewAddressService(rest)
	auditService := service.NewAuditService(rest)

	responder := api.NewResponder(notificationService, cfg.SessionCookie)
	handlers := api.Handlers{
		Auth:           api.NewAuthHandler(responder, sessions, rest, cfg.SessionCookie),
		AdminOrders:    api.NewOrderHandler(responder, adminOrders),
		CustomerOrders: api.NewOrderHandler(responder, customerOrders),
		Cart:           api.NewCartHandler(responder, cartService, notificationService),
		Catalog:        api.NewCatalogHandler(responder, catalogService, inventoryService, reviewService),
		Account:        api.NewAccountHandler(responder, userService, addressService, reviewService, auditService, notificationService),
	}

	orderConsumer := consumer.NewConsumer(config.NewKafkaReader(cfg.KafkaBrokers, cfg.OrderTopic, cfg.ConsumerGroup), cache)
	go orderConsumer.Run(ctx)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(api.RateLimiter(cfg.RateLimit, cfg.RateBurst))
	e.Use(session.Middleware(sessions, cfg.SessionCookie))
	e.Use(session.BearerAuth(sessions))

	api.Register(e, handlers, cfg.StaticDir)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down server")
	}
}
