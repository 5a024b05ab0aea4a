package handlers

import (
	"net/http"

	"kidsbook_backend/internal/middleware"
	"kidsbook_backend/internal/models"
	"kidsbook_backend/internal/repositories"
	"kidsbook_backend/internal/services"
	"kidsbook_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

// AdminHandler - управление каталогом и бронированиями для роли ADMIN.
type AdminHandler struct {
	*BaseHandler
	catalogService *services.CatalogService
	bookingService *services.BookingService
}

func NewAdminHandler(
	base *BaseHandler,
	catalogService *services.CatalogService,
	bookingService *services.BookingService,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:    base,
		catalogService: catalogService,
		bookingService: bookingService,
	}
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.RoleMiddleware(models.UserRoleAdmin))
	{
		admin.GET("/partners", h.ListPartners)
		admin.POST("/partners", h.CreatePartner)
		admin.DELETE("/partners/:id", h.DeletePartner)

		admin.POST("/activities", h.CreateActivity)
		admin.DELETE("/activities/:id", h.DeleteActivity)

		admin.GET("/sessions", h.ListSessions)
		admin.POST("/sessions", h.CreateSession)
		admin.DELETE("/sessions/:id", h.DeleteSession)

		admin.GET("/bookings", h.ListBookings)
		admin.PATCH("/bookings/:id/status", h.UpdateBookingStatus)
	}
}

func (h *AdminHandler) ListPartners(c *gin.Context) {
	db := h.GetDB(c)

	partners, err := h.catalogService.ListPartners(db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, partners)
}

func (h *AdminHandler) CreatePartner(c *gin.Context) {
	var req dto.CreatePartnerRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	partner, err := h.catalogService.CreatePartner(db, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, partner)
}

func (h *AdminHandler) DeletePartner(c *gin.Context) {
	partnerID, ok := h.ParseParamUUID(c, "id")
	if !ok {
		return
	}

	db := h.GetDB(c)

	if err := h.catalogService.DeletePartner(db, partnerID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) CreateActivity(c *gin.Context) {
	var req dto.CreateActivityRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	activity, err := h.catalogService.CreateActivity(db, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, activity)
}

func (h *AdminHandler) DeleteActivity(c *gin.Context) {
	activityID, ok := h.ParseParamUUID(c, "id")
	if !ok {
		return
	}

	db := h.GetDB(c)

	if err := h.catalogService.DeleteActivity(db, activityID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListSessions возвращает сессии вместе с числом активных бронирований
func (h *AdminHandler) ListSessions(c *gin.Context) {
	db := h.GetDB(c)

	sessions, err := h.catalogService.ListSessions(db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

func (h *AdminHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	session, err := h.catalogService.CreateSession(db, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *AdminHandler) DeleteSession(c *gin.Context) {
	sessionID, ok := h.ParseParamUUID(c, "id")
	if !ok {
		return
	}

	db := h.GetDB(c)

	if err := h.catalogService.DeleteSession(db, sessionID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) ListBookings(c *gin.Context) {
	db := h.GetDB(c)

	filter := repositories.BookingListFilter{
		Status:    models.BookingStatus(c.Query("status")),
		SessionID: c.Query("sessionId"),
	}

	bookings, err := h.bookingService.ListAllBookings(db, filter)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// UpdateBookingStatus отмечает посещение: ATTENDED или NO_SHOW
func (h *AdminHandler) UpdateBookingStatus(c *gin.Context) {
	bookingID, ok := h.ParseParamUUID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateBookingStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	if err := h.bookingService.SetBookingStatus(db, bookingID, models.BookingStatus(req.Status)); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
