package performance

import (
	"go-ems/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService middleware.RBACService, auth gin.HandlerFunc) {
	group := r.Group("/performance")
	group.Use(auth)
	{
		group.GET("", middleware.RBACAuthorize(rbacService, "performance", "read"), handler.GetAll)
		group.POST("", middleware.RBACAuthorize(rbacService, "performance", "create"), handler.Create)
		group.PUT("/:id", middleware.RBACAuthorize(rbacService, "performance", "update"), handler.Update)
	}
}
