package attendance

import (
	"go-ems/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService middleware.RBACService, auth gin.HandlerFunc) {
	group := r.Group("/attendances")
	group.Use(auth)
	{
		group.POST("/check-in",
			middleware.RateLimitByUser(0.5, 3),
			middleware.RBACAuthorize(rbacService, "attendance", "checkin"),
			handler.CheckIn,
		)
		group.POST("/check-out",
			middleware.RateLimitByUser(0.5, 3),
			middleware.RBACAuthorize(rbacService, "attendance", "checkin"),
			handler.CheckOut,
		)
		group.GET("", middleware.RBACAuthorize(rbacService, "attendance", "read"), handler.List)
		group.POST("", middleware.RBACAuthorize(rbacService, "attendance", "create"), handler.Create)
		group.PUT("/:id", middleware.RBACAuthorize(rbacService, "attendance", "update"), handler.Update)
	}
}
