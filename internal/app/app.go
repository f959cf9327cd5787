package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"Vault/internal/backup"
	"Vault/internal/cache"
	"Vault/internal/cli"
	"Vault/internal/config"
	"Vault/internal/events"
	"Vault/internal/service"
	"Vault/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// App owns every long-lived component of the process. The store connects on
// first use; Close releases everything New created.
type App struct {
	cfg    config.Config
	logger *log.Logger

	store   *store.Client
	redis   *redis.Client
	bus     *events.Bus
	backups *backup.Writer
	svc     *service.RecordService

	routerOnce sync.Once
	router     *gin.Engine
}

func New(cfg config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[vault] ", log.LstdFlags)
	}
	a := &App{cfg: cfg, logger: logger}

	var rc *cache.RecordCache
	if cfg.Redis.Enabled() {
		rdb, err := newRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.redis = rdb
		rc = cache.NewRecordCache(rdb, cfg.Redis.DefaultTTL.Duration())
	}

	a.bus = events.NewBus(cfg.Events.Buffer, logger)
	a.bus.Subscribe(events.NewLogListener(logger))
	if a.redis != nil {
		a.bus.Subscribe(events.NewRedisPublisher(a.redis, cfg.Events.Channel, logger))
	}

	a.store = store.NewClient(cfg.Store, logger)
	a.backups = backup.NewWriter(cfg.Backup.Dir, logger)
	a.svc = service.NewRecordService(a.store, a.backups, a.bus, rc, logger)
	return a, nil
}

func (a *App) Service() *service.RecordService { return a.svc }

func (a *App) Store() *store.Client { return a.store }

// Shell returns the interactive menu bound to in and out.
func (a *App) Shell(in io.Reader, out io.Writer) *cli.Shell {
	return cli.NewShell(a.svc, a.backups, a.cfg.Export.Path, in, out, a.logger)
}

func (a *App) Router() *gin.Engine {
	a.routerOnce.Do(func() {
		a.router = newRouter(a.cfg, a.svc, a.backups, a.logger)
	})
	return a.router
}

// Close drains pending events, then closes the store and Redis.
func (a *App) Close(ctx context.Context) error {
	_ = ctx
	if a.bus != nil {
		a.bus.Close()
	}
	var err error
	if a.store != nil {
		err = a.store.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	return err
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func newRouter(cfg config.Config, svc *service.RecordService, backups *backup.Writer, logger *log.Logger) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	Setup(r, cfg, svc, backups, logger)
	return r
}
