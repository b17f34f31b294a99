package alert

import (
	"go-ems/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService middleware.RBACService, auth gin.HandlerFunc) {
	group := r.Group("/alerts")
	group.Use(auth)
	{
		group.GET("", middleware.RBACAuthorize(rbacService, "alert", "read"), handler.GetAll)
		group.POST("", middleware.RBACAuthorize(rbacService, "alert", "create"), handler.Create)
		group.DELETE("/:id", middleware.RBACAuthorize(rbacService, "alert", "delete"), handler.Delete)
	}
}
