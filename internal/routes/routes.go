package routes

import (
	"net/http"

	"kidsbook_backend/internal/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты приложения под /api/v1.
func RegisterRoutes(r *gin.Engine, h *handlers.AppHandlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		h.AuthHandler.RegisterRoutes(v1)
		h.ChildHandler.RegisterRoutes(v1)
		h.ActivityHandler.RegisterRoutes(v1)
		h.BookingHandler.RegisterRoutes(v1)
		h.SubscriptionHandler.RegisterRoutes(v1)
		h.AdminHandler.RegisterRoutes(v1)
	}
}
