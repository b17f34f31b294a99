package salary

import (
	"go-ems/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	auth gin.HandlerFunc,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	salaries := r.Group("/salaries")
	salaries.Use(auth)
	{
		calculate := []gin.HandlerFunc{
			middleware.RBACAuthorize(rbacService, "salary", "calculate"),
			middleware.RateLimitByUser(0.2, 2),
		}
		if redisClient != nil {
			calculate = append(calculate, middleware.Idempotency(redisClient))
		}
		salaries.POST("/calculate", append(calculate, handler.Calculate)...)

		salaries.GET("", middleware.RBACAuthorize(rbacService, "salary", "list"), handler.List)
		salaries.GET("/runs", middleware.RBACAuthorize(rbacService, "salary", "list"), handler.RunStatus)
		salaries.GET("/export", middleware.RBACAuthorize(rbacService, "salary", "export"), handler.Export)
		salaries.GET("/me", middleware.RBACAuthorize(rbacService, "salary", "read"), middleware.RateLimitByUser(2, 5), handler.Me)
		salaries.GET("/employees/:id", middleware.RBACAuthorize(rbacService, "salary", "read"), handler.GetByEmployee)
		salaries.GET("/employees/:id/payslip", middleware.RBACAuthorize(rbacService, "salary", "read"), handler.Payslip)
	}
}
