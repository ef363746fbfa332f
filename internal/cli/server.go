package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"smart-board-game/internal/app"
	"smart-board-game/internal/config"
	"smart-board-game/internal/infra/memory"
	"smart-board-game/internal/infra/postgres"
	rediscache "smart-board-game/internal/infra/redis"
	"smart-board-game/internal/infra/sqlite"
	transport "smart-board-game/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	stack, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer stack.close()

	if err := stack.catalog.Initialize(ctx); err != nil {
		log.Printf("catalog initialized with fallbacks: %v", err)
	}

	service := app.NewGameService(stack.catalog, stack.sessions)
	router := transport.NewRouter(service)

	origins := cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", transport.PinHeader},
		MaxAge:         300,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      corsMiddleware.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting game server on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	// let pending leaderboard and admin writes land before connections close
	stack.catalog.Wait()
	return err
}

// stack is the catalog and session store with the connections behind them.
type stack struct {
	catalog  *app.Catalog
	sessions app.SessionRepository
	closers  []func()
}

func (s *stack) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// fail releases whatever was opened so far and passes err through.
func (s *stack) fail(err error) error {
	s.close()
	s.closers = nil
	return err
}

// buildStack picks Postgres, Redis and the SQLite snapshot when configured,
// and in-memory stand-ins otherwise.
func buildStack(ctx context.Context, cfg config.Config) (*stack, error) {
	s := &stack{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, time.Minute)

	var deps app.CatalogDeps
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, s.fail(err)
		}
		s.closers = append(s.closers, pool.Close)
		db := postgres.OpenBun(cfg.Postgres.URL)
		s.closers = append(s.closers, func() { _ = db.Close() })

		deps.Questions = postgres.NewCatalogRepository(pool)
		deps.Leaderboard = postgres.NewLeaderboardRepository(db)
		deps.Admin = postgres.NewAdminRepository(db)
	} else {
		log.Printf("postgres not configured, using in-memory repositories")
		deps.Questions = memory.NewCatalogRepository(app.SampleRounds(), app.SampleQuestions())
		deps.Leaderboard = memory.NewLeaderboardRepository()
		deps.Admin = memory.NewAdminRepository("")
	}

	if redisClient != nil {
		deps.Questions = rediscache.NewCatalogCache(redisClient, deps.Questions, catalogTTL)
		deps.Leaderboard = rediscache.NewLeaderboard(redisClient, deps.Leaderboard, redisTTL)
		s.sessions = rediscache.NewSessionStore(redisClient, redisTTL)
	} else {
		deps.Questions = memory.NewCatalogCache(deps.Questions, catalogTTL)
		s.sessions = memory.NewSessionStore()
	}

	if cfg.Cache.Path != "" {
		snapshots, err := sqlite.Open(cfg.Cache.Path)
		if err != nil {
			return nil, s.fail(err)
		}
		s.closers = append(s.closers, func() { _ = snapshots.Close() })
		deps.Snapshots = snapshots
	}

	s.catalog = app.NewCatalog(deps,
		app.WithDefaultPin(cfg.Admin.DefaultPin),
		app.WithPersistTimeout(config.TTLDuration(cfg.Game.PersistTimeout, 10*time.Second)),
	)
	return s, nil
}
