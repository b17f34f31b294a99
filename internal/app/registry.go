package app

import (
	"context"

	"go-ems/internal/alert"
	"go-ems/internal/attendance"
	"go-ems/internal/auth"
	"go-ems/internal/bootstrap"
	"go-ems/internal/config"
	"go-ems/internal/employee"
	"go-ems/internal/leave"
	"go-ems/internal/messaging/kafka"
	"go-ems/internal/middleware"
	"go-ems/internal/notification"
	"go-ems/internal/performance"
	"go-ems/internal/rbac"
	"go-ems/internal/rbac/infra"
	"go-ems/internal/salary"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type modules struct {
	channel *notification.RedisChannel
	salary  salary.Service
}

func newSalaryService(cfg *config.Config, st *stores, outboxRepo kafka.OutboxRepository, channel notification.Channel) salary.Service {
	logger := zap.L()
	return salary.NewService(
		st.sqlDB,
		salary.NewRepository(st.gormDB),
		outboxRepo,
		channel,
		salary.Config{
			Workers:         cfg.SalaryWorkers,
			EmployeeTimeout: cfg.SalaryEmployeeTimeout,
		},
		salary.WithCache(salary.NewRedisBreakdownCache(st.rdb)),
		salary.WithRunLocker(salary.NewRedisRunLocker(st.rdb, salaryRunLockTTL, logger)),
		salary.WithAuditLogger(bootstrap.NewStdoutAuditLogger(logger)),
		salary.WithLogger(logger),
	)
}

func registerModules(ctx context.Context, router *gin.Engine, cfg *config.Config, st *stores) (*modules, error) {
	logger := zap.L()

	// --- Infrastructure ---
	hub := notification.NewHub(logger)
	channel := notification.NewRedisChannel(st.rdb, hub, logger)
	outboxRepo := kafka.NewOutboxRepository(st.sqlDB)
	authMW := middleware.AuthMiddleware(cfg.JWTSecret)

	lateHour, lateMinute, err := cfg.LateAfterClock()
	if err != nil {
		return nil, err
	}

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return nil, err
	}
	rbacService := rbac.NewService(rbac.NewRepository(st.gormDB), enforcer, logger)
	if err := rbacService.LoadPolicy(ctx); err != nil {
		return nil, err
	}

	// --- Services ---
	authService := auth.NewService(auth.NewRepository(st.gormDB), cfg.JWTSecret, logger)
	employeeService := employee.NewService(st.sqlDB, employee.NewRepository(st.gormDB), outboxRepo, st.rdb, channel, logger)
	attendanceService := attendance.NewService(
		st.sqlDB,
		attendance.NewRepository(st.gormDB),
		outboxRepo,
		channel,
		attendance.Policy{LateHour: lateHour, LateMinute: lateMinute},
		attendance.WithLogger(logger),
	)
	leaveService := leave.NewService(st.sqlDB, leave.NewRepository(st.gormDB), outboxRepo, channel, logger)
	performanceService := performance.NewService(st.sqlDB, performance.NewRepository(st.gormDB), outboxRepo, channel, logger)
	alertService := alert.NewService(st.sqlDB, alert.NewRepository(st.gormDB), outboxRepo, channel, logger)
	salaryService := newSalaryService(cfg, st, outboxRepo, channel)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, cfg.IsProduction(), logger)
	employeeHandler := employee.NewHandler(employeeService, logger)
	attendanceHandler := attendance.NewHandler(attendanceService, logger)
	leaveHandler := leave.NewHandler(leaveService, logger)
	performanceHandler := performance.NewHandler(performanceService, logger)
	alertHandler := alert.NewHandler(alertService, logger)
	salaryHandler := salary.NewHandler(salaryService, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)
	eventsHandler := notification.NewHandler(hub, logger)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, authMW)
		employee.RegisterRoutes(api, employeeHandler, rbacService, authMW)
		attendance.RegisterRoutes(api, attendanceHandler, rbacService, authMW)
		leave.RegisterRoutes(api, leaveHandler, rbacService, authMW)
		performance.RegisterRoutes(api, performanceHandler, rbacService, authMW)
		alert.RegisterRoutes(api, alertHandler, rbacService, authMW)
		salary.RegisterRoutes(api, salaryHandler, rbacService, authMW, st.rdb)
		notification.RegisterRoutes(api, eventsHandler, authMW, rbacService)
		rbac.RegisterRoutes(api, rbacHandler, authMW)
	}

	return &modules{channel: channel, salary: salaryService}, nil
}
