package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-bot/internal/app"
	"quiz-bot/internal/config"
	"quiz-bot/internal/infra/file"
	"quiz-bot/internal/infra/memory"
	pgloader "quiz-bot/internal/infra/postgres"
	redisstore "quiz-bot/internal/infra/redis"
	transport "quiz-bot/internal/transport/http"
	"quiz-bot/internal/transport/telegram"
	"quiz-bot/internal/transport/vk"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand that runs every configured chat adapter.
func NewStartCmd(configPath, port *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the bots and the WebSocket endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runStart(ctx, *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", "", "port to listen on (overrides config)")
	return cmd
}

func runStart(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stdout)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = openRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		logger.Info("connected to redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
	}

	checkers := map[string]transport.Checker{}
	var loader app.QuestionLoader = file.NewQuestionLoader(cfg.Quiz.QuestionsPath)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		checkers["postgres"] = pgChecker{pool}
		loader = pgloader.NewQuestionLoader(pool)
		if redisClient != nil {
			loader = redisstore.NewQuestionCache(redisClient, loader, cfg.Quiz.Namespace, config.Duration(cfg.Quiz.CacheTTL, time.Hour))
		}
	}
	bank, err := app.LoadQuestionBank(ctx, loader)
	if err != nil {
		return err
	}
	logger.Info("question bank loaded", "questions", bank.Len())

	var store app.SessionRepository
	if redisClient != nil {
		store = redisstore.NewSessionStore(redisClient, cfg.Quiz.Namespace)
		checkers["redis"] = redisChecker{redisClient}
	} else {
		logger.Warn("redis not configured, sessions are kept in memory and lost on restart")
		store = memory.NewSessionStore()
	}
	service := app.NewQuizService(store, bank, logger)

	var (
		tgBot *telegram.Bot
		vkBot *vk.Bot
	)
	if cfg.Telegram.Token != "" {
		tgBot, err = telegram.New(cfg.Telegram.Token, cfg.Telegram.Debug, service, logger)
		if err != nil {
			return err
		}
	}
	if cfg.VK.Token != "" {
		vkBot = vk.New(cfg.VK.Token, service, logger)
	}
	if tgBot == nil && vkBot == nil {
		logger.Warn("no chat platform token configured, serving websocket only")
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(transport.NewWSHandler(service, logger), checkers, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if tgBot != nil {
		g.Go(func() error { return tgBot.Run(gctx) })
	}
	if vkBot != nil {
		g.Go(func() error { return vkBot.Run(gctx) })
	}
	return g.Wait()
}

func openRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	timeout := config.Duration(cfg.Redis.Timeout, 3*time.Second)
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// redisChecker adapts *redis.Client to transport.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

type pgChecker struct{ pool *pgxpool.Pool }

func (p pgChecker) Check(ctx context.Context) error { return p.pool.Ping(ctx) }
