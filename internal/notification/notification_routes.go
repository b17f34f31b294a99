package notification

import (
	"go-ems/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, auth gin.HandlerFunc, rbacService middleware.RBACService) {
	events := r.Group("/events")
	events.Use(auth)
	{
		events.GET("/stream", middleware.RBACAuthorize(rbacService, "events", "subscribe"), handler.Stream)
	}
}
