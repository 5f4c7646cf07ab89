package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/mailprobe/internal/api"
	"github.com/ignite/mailprobe/internal/config"
	"github.com/ignite/mailprobe/internal/pkg/logger"
	"github.com/ignite/mailprobe/internal/repository/postgres"
	"github.com/ignite/mailprobe/internal/service/history"
	"github.com/ignite/mailprobe/internal/storage"
	"github.com/ignite/mailprobe/internal/verify"
	"github.com/ignite/mailprobe/internal/worker"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale/stub processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

// extractHost pulls the host portion out of a DSN for logging without
// leaking credentials.
func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	slash := strings.Index(rest, "/")
	if slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  mailprobe server (cmd/server/main.go)                     ║")
	log.Println("║  Email deliverability verification API                     ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))

	// Pre-flight check: verify the target port is available
	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	// Postgres is required: job history and bulk results live there.
	if cfg.Database.URL == "" {
		log.Fatalf("DATABASE_URL is required (set it in the environment or config/config.yaml)")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open Postgres connection: %v", err)
	}
	db.SetMaxOpenConns(10)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Postgres unreachable (%s): %v", extractHost(cfg.Database.URL), err)
	}
	pingCancel()
	log.Printf("Postgres connected: %s", extractHost(cfg.Database.URL))

	// Redis is optional. Without it the single-address endpoint still works,
	// but bulk uploads are rejected because job progress has nowhere to live.
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			// Not a redis:// URL, treat it as a bare host:port
			redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.URL})
		} else {
			redisClient = redis.NewClient(opts)
		}
		redisCtx, redisCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(redisCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v. Bulk verification disabled.", cfg.Redis.URL, err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s (bulk job tracking enabled)", cfg.Redis.URL)
		}
		redisCancel()
	} else {
		log.Println("Redis not configured (REDIS_URL unset). Bulk verification disabled.")
	}

	verifier := verify.New(cfg.Verifier.SenderDomain, cfg.Verifier.ProbeTimeout(), cfg.Verifier.DNSTimeout())
	hist := history.NewService(postgres.NewHistoryRepo(db))
	jobs := storage.NewJobStore(redisClient, cfg.Verifier.JobTTL())
	hub := api.NewEventsHub()
	runner := worker.NewVerifyJobRunner(verifier, hist, jobs, hub)

	handlers := api.NewHandlers(verifier, runner, hist, jobs, hub, db, cfg.Verifier.MaxUploadBytes())
	server := api.NewServer(handlers, cfg.Server.CORSAllowedOrigins)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		log.Printf("Starting server on %s (sender domain: %s)", addr, cfg.Verifier.SenderDomain)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized, server is ready")

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}
	db.Close()
	log.Println("Server stopped")
}
