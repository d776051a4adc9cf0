package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/task-tracker/modules/api"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/modules/cache"
	"github.com/example/task-tracker/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration from environment
	dbPath := getEnv("DB_PATH", "tasktracker.db")
	httpPort := getEnvInt("HTTP_PORT", 3000)
	redisAddr := os.Getenv("REDIS_ADDR") // empty disables the stats cache
	cacheTTL := getEnvDuration("CACHE_TTL", 5*time.Minute)

	log.Println("=== Task Tracker ===")
	log.Printf("Database: %s", dbPath)
	log.Printf("HTTP Port: %d", httpPort)
	if redisAddr != "" {
		log.Printf("Stats cache: redis at %s (TTL %s)", redisAddr, cacheTTL)
	} else {
		log.Println("Stats cache: disabled")
	}

	// One shared database handle, injected into every module that needs
	// storage.
	gormLogLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		gormLogLevel = logger.Info
	}
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Create modules
	authModule := auth.NewModule(db)
	taskModule := task.NewModule(db)
	apiModule := api.NewModule(httpPort)

	var cacheModule *cache.Module
	if redisAddr != "" {
		cacheModule = cache.NewModule(redisAddr, cacheTTL)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Register modules: independent modules first, then dependent ones
	if cacheModule != nil {
		app.Register(cacheModule)
	}
	app.Register(authModule)
	app.Register(taskModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// The stats cache is wired after start, once the Redis connection
	// exists.
	if cacheModule != nil {
		taskModule.SetCache(cacheModule.GetCache())
	}

	printStartupInfo(httpPort)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
			"database": func(_ context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port int) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", port)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/auth/register    - Register a new user")
	log.Println("  POST   /api/auth/login       - Login and get tokens")
	log.Println("  POST   /api/auth/refresh     - Refresh access token")
	log.Println("  GET    /health               - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  GET    /api/tasks            - List active tasks (q/category/priority filters)")
	log.Println("  GET    /api/completed_tasks  - List completed tasks (same filters)")
	log.Println("  POST   /api/tasks            - Create a task")
	log.Println("  PUT    /api/tasks/:id        - Update a task")
	log.Println("  DELETE /api/tasks/:id        - Delete a task")
	log.Println("  GET    /api/stats            - Completion statistics")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
