package handlers

import (
	"net/http"

	"kidsbook_backend/internal/middleware"
	"kidsbook_backend/internal/services"
	"kidsbook_backend/internal/services/dto"
	"kidsbook_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	*BaseHandler
	bookingService *services.BookingService
}

func NewBookingHandler(base *BaseHandler, bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{
		BaseHandler:    base,
		bookingService: bookingService,
	}
}

func (h *BookingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.AuthMiddleware())
	{
		bookings.GET("", h.List)
		bookings.POST("", h.Create)
		bookings.POST("/:id/cancel", h.Cancel)
	}
}

// Create бронирует место на сессии для ребенка текущего пользователя.
// Проверка прав, подписки, кредитов и вместимости выполняется
// в одной транзакции на стороне сервиса.
func (h *BookingHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateBookingRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	booking, err := h.bookingService.BookSession(db, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) List(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	bookings, err := h.bookingService.GetUserBookings(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// Cancel отменяет активное бронирование и возвращает кредит.
// Менее чем за 24 часа до начала отмена запрещена.
func (h *BookingHandler) Cancel(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	bookingID, ok := h.ParseParamUUIDOrNotFound(c, "id", apperrors.ErrBookingNotFound)
	if !ok {
		return
	}

	db := h.GetDB(c)

	if err := h.bookingService.CancelBooking(db, userID, bookingID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CancelBookingResponse{Success: true})
}
