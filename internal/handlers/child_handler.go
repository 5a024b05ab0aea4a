package handlers

import (
	"net/http"

	"kidsbook_backend/internal/middleware"
	"kidsbook_backend/internal/services"
	"kidsbook_backend/internal/services/dto"
	"kidsbook_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type ChildHandler struct {
	*BaseHandler
	childService *services.ChildService
}

func NewChildHandler(base *BaseHandler, childService *services.ChildService) *ChildHandler {
	return &ChildHandler{
		BaseHandler: base,
		childService: childService,
	}
}

func (h *ChildHandler) RegisterRoutes(rg *gin.RouterGroup) {
	children := rg.Group("/children")
	children.Use(middleware.AuthMiddleware())
	{
		children.GET("", h.List)
		children.POST("", h.Create)
		children.PUT("/:id", h.Update)
		children.DELETE("/:id", h.Delete)
	}
}

func (h *ChildHandler) List(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	children, err := h.childService.GetChildren(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, children)
}

func (h *ChildHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateChildRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	child, err := h.childService.CreateChild(db, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, child)
}

func (h *ChildHandler) Update(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	childID, ok := h.ParseParamUUIDOrNotFound(c, "id", apperrors.ErrChildNotFound)
	if !ok {
		return
	}

	var req dto.UpdateChildRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	child, err := h.childService.UpdateChild(db, userID, childID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, child)
}

func (h *ChildHandler) Delete(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	childID, ok := h.ParseParamUUIDOrNotFound(c, "id", apperrors.ErrChildNotFound)
	if !ok {
		return
	}

	db := h.GetDB(c)

	if err := h.childService.DeleteChild(db, userID, childID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
