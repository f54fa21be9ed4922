package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
	"github.com/syncwatch/server/internal/controller"
	"github.com/syncwatch/server/internal/domain"
	connInmemory "github.com/syncwatch/server/internal/repository/connection/inmemory"
	roomInmemory "github.com/syncwatch/server/internal/repository/room/inmemory"
	roomRedis "github.com/syncwatch/server/internal/repository/room/redis"
	"github.com/syncwatch/server/internal/service"
	"github.com/syncwatch/server/pkg/ctxlogger"
	"github.com/syncwatch/server/pkg/redisclient"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type AppConfig struct {
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	LogLevel           string        `json:"log_level"`
	MembersLimit       int           `json:"members_limit"`
	PlaylistLimit      int           `json:"playlist_limit"`
	SyncDelay          time.Duration `json:"sync_delay"`
	PlayPermissionGate bool          `json:"play_permission_gate"`
	Storage            string        `json:"storage"`
	RedisHost          string        `json:"redis_host"`
	RedisPort          int           `json:"redis_port"`
	RedisPassword      string        `json:"-"`
	RoomExp            time.Duration `json:"room_exp"`
	StaticDir          string        `json:"static_dir"`
	ConnRate           float64       `json:"conn_rate"`
	ConnBurst          int           `json:"conn_burst"`
	MsgRate            float64       `json:"msg_rate"`
	MsgBurst           int           `json:"msg_burst"`
	TrustProxy         bool          `json:"trust_proxy"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535")
	}
	if cfg.MembersLimit < 0 {
		return fmt.Errorf("members limit must not be negative")
	}
	if cfg.PlaylistLimit < 0 {
		return fmt.Errorf("playlist limit must not be negative")
	}
	if cfg.SyncDelay <= 0 {
		return fmt.Errorf("sync delay must be greater than 0")
	}
	if cfg.Storage != StorageMemory && cfg.Storage != StorageRedis {
		return fmt.Errorf("storage must be %q or %q", StorageMemory, StorageRedis)
	}
	if cfg.Storage == StorageRedis && cfg.RoomExp <= 0 {
		return fmt.Errorf("room expiration must be greater than 0")
	}
	if cfg.ConnRate <= 0 || cfg.MsgRate <= 0 {
		return fmt.Errorf("rate limits must be greater than 0")
	}
	if cfg.ConnBurst < 1 || cfg.MsgBurst < 1 {
		return fmt.Errorf("rate limit bursts must be at least 1")
	}

	return nil
}

type roomRepo interface {
	GetRoom(context.Context, string) (domain.Room, error)
	SetRoom(context.Context, *domain.Room) error
	DeleteRoom(context.Context, string) error
	ListRooms(context.Context) ([]domain.Room, error)
}

func newLogger(level string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, err
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

// build wires the registry, service and controller. The returned cleanup
// releases the storage client.
func build(ctx context.Context, cfg *AppConfig, clk clock.Clock, logger *slog.Logger) (http.Handler, func(), error) {
	var (
		rooms   roomRepo
		cleanup = func() {}
	)

	switch cfg.Storage {
	case StorageRedis:
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		cleanup = func() {
			if err := rc.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
				logger.WarnContext(ctx, "failed to close redis client", "error", err)
			}
		}
		rooms = roomRedis.NewRepo(rc, cfg.RoomExp, logger)
	default:
		rooms = roomInmemory.NewRepo(logger)
	}

	roomService := service.New(rooms, connInmemory.NewRepo(logger), &service.Config{
		MembersLimit:       cfg.MembersLimit,
		PlaylistLimit:      cfg.PlaylistLimit,
		SyncDelay:          cfg.SyncDelay,
		PlayPermissionGate: cfg.PlayPermissionGate,
		Clock:              clk,
	}, logger)

	ctrl := controller.NewController(roomService, &controller.Config{
		ConnRate:   cfg.ConnRate,
		ConnBurst:  cfg.ConnBurst,
		MsgRate:    cfg.MsgRate,
		MsgBurst:   cfg.MsgBurst,
		StaticDir:  cfg.StaticDir,
		TrustProxy: cfg.TrustProxy,
	}, logger)
	go ctrl.RunLimiter(ctx)

	return ctrl.GetMux(), cleanup, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	handler, cleanup, err := build(serverCtx, cfg, clock.New(), logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: handler}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		select {
		case <-sig:
		case <-serverCtx.Done():
		}

		shutdownCtx, c := context.WithTimeout(context.Background(), 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.ErrorContext(shutdownCtx, "failed to shut down server", "error", err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "storage", cfg.Storage)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
