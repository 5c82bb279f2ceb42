/**
 * @description
 * This is the main entry point for the assistant-service bot. It initializes
 * configuration, the database connection pool, the optional Redis session
 * cache, the chat transport, the language-model and website-content clients,
 * and the core message-handling service, then runs the connection supervisor
 * until the process is signalled to stop.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Shared session cache (optional).
 * - github.com/joho/godotenv: To load .env files for local development.
 * - internal/api, internal/app, internal/bot, internal/config,
 *   internal/session, internal/store: Internal packages for the service.
 * - pkg/chattransport, pkg/llmclient, pkg/sitecontent: Collaborator clients.
 */

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/knightvest/assistant-service/internal/api"
	"github.com/knightvest/assistant-service/internal/app"
	"github.com/knightvest/assistant-service/internal/bot"
	"github.com/knightvest/assistant-service/internal/config"
	"github.com/knightvest/assistant-service/internal/session"
	"github.com/knightvest/assistant-service/internal/store"
	"github.com/knightvest/assistant-service/pkg/chattransport"
	"github.com/knightvest/assistant-service/pkg/llmclient"
	"github.com/knightvest/assistant-service/pkg/sitecontent"
)

func main() {
	// Load .env for local development; in deployment the environment is set
	// by the platform.
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=bootstrap msg=\"no .env file found; relying on environment\"")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url must be configured\" env=DATABASE_URL")
	}
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"rabbitmq url must be configured\" env=RABBITMQ_URL")
	}
	if strings.TrimSpace(cfg.LLMAPIKey) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"language model api key must be configured\" env=LLM_API_KEY")
	}

	log.Printf("level=info component=bootstrap msg=\"starting assistant-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}
	poolConfig.MaxConns = 50
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	repository := store.NewPostgresRepository(dbpool)

	// Session cache: Redis when configured, otherwise in-process. The cache
	// is an optimization over the durable verified flag, so degrading to the
	// memory store is always safe.
	var sessions session.Store = session.NewMemoryStore(nil)
	if cfg.RedisURL != "" {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; using in-memory session cache\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			pingErr := redisClient.Ping(pingCtx).Err()
			cancelPing()
			if pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; using in-memory session cache\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				sessions = session.NewRedisStore(redisClient, cfg.RedisSessionPrefix)
				log.Println("level=info component=bootstrap msg=\"redis session cache connected\"")
			}
		}
	}

	llm := llmclient.NewClient(cfg.LLMAPIBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	fetcher := sitecontent.NewFetcher()

	service := app.NewService(repository, sessions, llm, fetcher, cfg.WebsiteURL)
	service.SetSessionTTL(time.Duration(cfg.SessionTTLSeconds) * time.Second)

	creds := chattransport.NewFileCredentialStore(cfg.CredentialFile)
	transport := chattransport.NewAMQPTransport(cfg.RabbitMQURL, cfg.ChatExchange, cfg.ChatInboundQueue, creds)

	supervisor := bot.NewSupervisor(transport, service, cfg.ReconnectMaxAttempts, time.Second, 30*time.Second)

	// Health endpoints run alongside the bot.
	healthServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: api.Routes(repository),
	}
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("level=error component=bootstrap msg=\"health server failed\" err=%v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := supervisor.Run(ctx)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"health server shutdown failed\" err=%v", err)
	}

	if runErr != nil && runErr != context.Canceled {
		log.Fatalf("level=fatal component=bootstrap msg=\"supervisor exited\" err=%v", runErr)
	}
	log.Println("level=info component=bootstrap msg=\"assistant-service stopped\"")
}
