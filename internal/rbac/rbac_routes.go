package rbac

import (
	"go-ems/internal/domain"
	"go-ems/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, auth gin.HandlerFunc) {
	group := r.Group("/rbac")
	group.Use(auth, middleware.RateLimitByUser(5, 10))
	{
		group.POST("/enforce", handler.Enforce)
		group.GET("/permissions", handler.MyPermissions)
		group.POST("/reload", middleware.RoleMiddleware(domain.RoleHR, domain.RoleManager), handler.Reload)
	}
}
