package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskboard/api"
	"taskboard/storage"
)

// Storage must come up before the server does; after this many attempts the
// process gives up and lets the supervisor deal with it.
const (
	connectAttempts = 10
	connectDelay    = 2 * time.Second
)

func main() {
	_ = godotenv.Load()

	debug := false
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
		debug = true
	}

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	usersTable := os.Getenv("USERS_TABLE")
	tasksTable := os.Getenv("TASKS_TABLE")
	if connStr == "" || usersTable == "" || tasksTable == "" {
		log.Fatal("missing storage config")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("missing JWT_SECRET")
	}

	origins := []string{"http://localhost:3000"}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins = origins[:0]
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	store, err := storage.New(connStr, usersTable, tasksTable)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	waitForStorage(store)

	var taskStore api.TaskStore = store
	var rc *redis.Client
	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		rc = newRedisClient(redisConn)
		ttl := 30 * time.Second
		if v := os.Getenv("CACHE_TTL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				log.Fatalf("invalid CACHE_TTL: %v", err)
			}
			ttl = d
		}
		taskStore = storage.NewCache(store, rc, ttl)
		log.Infof("task list cache enabled, ttl=%s", ttl)
	}

	auth := api.NewAuth(store, []byte(secret))

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	api.Register(e, taskStore, auth, log.StandardLogger(), debug)

	listenAddr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		listenAddr = ":" + port
	}

	go func() {
		if err := e.Start(listenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	s := <-quit
	log.Infof("shutting down: %v", s)

	// Stop accepting connections first, then release the storage side.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Errorf("server shutdown: %v", err)
	}
	if rc != nil {
		if err := rc.Close(); err != nil {
			log.Errorf("redis close: %v", err)
		}
	}
}

// waitForStorage probes the tables with a fixed delay between attempts and
// terminates the process when the ceiling is reached.
func waitForStorage(store *storage.Storage) {
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = store.EnsureTables(ctx)
		cancel()
		if err == nil {
			log.Info("connected to storage")
			return
		}
		log.Warnf("waiting for storage (attempt %d/%d): %v", attempt, connectAttempts, err)
		if attempt < connectAttempts {
			time.Sleep(connectDelay)
		}
	}
	log.Fatalf("storage unavailable after %d attempts: %v", connectAttempts, err)
}

func newRedisClient(connStr string) *redis.Client {
	opts, err := redis.ParseURL(connStr)
	if err != nil {
		parts := strings.Split(connStr, ",")
		opts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				opts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					opts.TLSConfig = &tls.Config{}
				}
			}
		}
	}
	return redis.NewClient(opts)
}
