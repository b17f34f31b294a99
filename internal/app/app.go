package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go-ems/internal/config"
	"go-ems/internal/shared/connection"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	connectRetries   = 5
	salaryRunLockTTL = 30 * time.Minute
)

// stores are the connections shared by every process.
type stores struct {
	gormDB *gorm.DB
	sqlDB  *sql.DB
	rdb    *redis.Client
}

func connectStores(cfg *config.Config) (*stores, error) {
	gormDB, err := connection.ConnectGORMWithRetry(cfg, connectRetries)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, connectRetries)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &stores{gormDB: gormDB, sqlDB: sqlDB, rdb: rdb}, nil
}

func (s *stores) Close() {
	_ = s.rdb.Close()
	_ = s.sqlDB.Close()
}

// BuildApp connects the stores, registers every module on router and starts
// the notification bridge and the salary cache watcher. Background work
// stops with ctx; the returned func releases connections.
func BuildApp(ctx context.Context, router *gin.Engine, cfg *config.Config) (func(), error) {
	logger := zap.L().Named("app.api")

	st, err := connectStores(cfg)
	if err != nil {
		return nil, err
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "Idempotency-Key"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	mods, err := registerModules(ctx, router, cfg, st)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("register modules: %w", err)
	}

	go mods.channel.Run(ctx)
	go func() {
		if err := mods.salary.WatchInvalidations(ctx, mods.channel); err != nil && ctx.Err() == nil {
			logger.Error("salary invalidation watcher stopped", zap.Error(err))
		}
	}()

	logger.Info("api modules registered")
	return st.Close, nil
}
