package handlers

import (
	"net/http"

	"kidsbook_backend/internal/logger"
	"kidsbook_backend/internal/middleware"
	"kidsbook_backend/internal/services"
	"kidsbook_backend/internal/services/billing"
	"kidsbook_backend/internal/services/dto"
	"kidsbook_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService *services.SubscriptionService
	// nil, если Stripe не сконфигурирован
	stripeService *billing.StripeService
}

func NewSubscriptionHandler(
	base *BaseHandler,
	subscriptionService *services.SubscriptionService,
	stripeService *billing.StripeService,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
		stripeService:       stripeService,
	}
}

func (h *SubscriptionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/plans", h.ListPlans)

	subs := rg.Group("/subscriptions")
	subs.Use(middleware.AuthMiddleware())
	{
		subs.GET("/usage", h.GetUsage)
		subs.POST("/checkout", h.CreateCheckout)
		subs.POST("/portal", h.CreatePortal)
	}

	// Вебхук аутентифицируется подписью Stripe, а не JWT
	rg.POST("/webhooks/stripe", h.StripeWebhook)
}

func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	db := h.GetDB(c)

	plans, err := h.subscriptionService.GetPlans(db)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, plans)
}

// GetUsage возвращает расход кредитов за текущий период подписки
func (h *SubscriptionHandler) GetUsage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	usage, err := h.subscriptionService.GetUsage(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, usage)
}

func (h *SubscriptionHandler) CreateCheckout(c *gin.Context) {
	if !h.requireStripe(c) {
		return
	}

	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)

	url, err := h.stripeService.CreateCheckoutSession(db, userID, req.PlanID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CheckoutResponse{URL: url})
}

func (h *SubscriptionHandler) CreatePortal(c *gin.Context) {
	if !h.requireStripe(c) {
		return
	}

	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)

	url, err := h.stripeService.CreatePortalSession(db, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PortalResponse{URL: url})
}

// StripeWebhook принимает события Stripe. Тело нужно сырым:
// подпись считается по исходным байтам.
func (h *SubscriptionHandler) StripeWebhook(c *gin.Context) {
	if !h.requireStripe(c) {
		return
	}

	payload, err := c.GetRawData()
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Failed to read webhook body"))
		return
	}

	db := h.GetDB(c)

	if err := h.stripeService.HandleWebhook(db, payload, c.GetHeader("Stripe-Signature")); err != nil {
		logger.CtxWithError(c.Request.Context(), "stripe webhook failed", err)
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *SubscriptionHandler) requireStripe(c *gin.Context) bool {
	if h.stripeService == nil {
		apperrors.HandleError(c, apperrors.New(
			apperrors.CodeExternalServiceError,
			"billing",
			"Billing is not configured",
			http.StatusServiceUnavailable,
		))
		return false
	}
	return true
}
