package handlers

import (
	"net/http"

	"kidsbook_backend/internal/middleware"
	"kidsbook_backend/internal/services"
	"kidsbook_backend/internal/services/dto"
	"kidsbook_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// ActivityHandler - публичный каталог активностей и сессий.
type ActivityHandler struct {
	*BaseHandler
	catalogService *services.CatalogService
}

func NewActivityHandler(base *BaseHandler, catalogService *services.CatalogService) *ActivityHandler {
	return &ActivityHandler{
		BaseHandler:    base,
		catalogService: catalogService,
	}
}

func (h *ActivityHandler) RegisterRoutes(rg *gin.RouterGroup) {
	activities := rg.Group("/activities")
	activities.Use(middleware.AuthMiddleware())
	{
		activities.GET("", h.List)
		activities.GET("/:id", h.Get)
	}
}

// List возвращает каталог с опциональными фильтрами по категории,
// поиску и возрасту ребенка
func (h *ActivityHandler) List(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var query dto.ActivityListQuery
	if !h.BindAndValidate_Query(c, &query) {
		return
	}

	db := h.GetDB(c)

	activities, err := h.catalogService.ListActivities(db, userID, &query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, activities)
}

func (h *ActivityHandler) Get(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	activityID, ok := h.ParseParamUUIDOrNotFound(c, "id", apperrors.ErrActivityNotFound)
	if !ok {
		return
	}

	db := h.GetDB(c)

	activity, err := h.catalogService.GetActivity(db, activityID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, activity)
}
