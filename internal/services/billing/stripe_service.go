package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
	"gorm.io/gorm"

	"kidsbook_backend/internal/config"
	"kidsbook_backend/internal/logger"
	"kidsbook_backend/internal/models"
	"kidsbook_backend/internal/repositories"
	"kidsbook_backend/pkg/apperrors"
)

// StripeService - тонкая прослойка над Stripe: checkout-сессии, billing portal
// и обработка вебхуков. Подписка в нашей БД - единственный источник правды
// для ядра бронирований; этот сервис единственный, кто ее мутирует.
// Если STRIPE_SECRET_KEY не задан, сервис отключен (nil).
type StripeService struct {
	subscriptionRepo repositories.SubscriptionRepository
	userRepo         repositories.UserRepository
	sc               *client.API
	webhookSecret    string
	successURL       string
	cancelURL        string
}

// stripeError оборачивает ошибку Stripe, не мутируя общий sentinel.
func stripeError(err error) *apperrors.AppError {
	return apperrors.Wrap(err, apperrors.CodeExternalServiceError, "billing",
		"Payment provider error", http.StatusServiceUnavailable)
}

// NewStripeFromConfig возвращает сконфигурированный сервис или nil,
// когда ключ не задан.
func NewStripeFromConfig(
	cfg *config.Config,
	subscriptionRepo repositories.SubscriptionRepository,
	userRepo repositories.UserRepository,
) *StripeService {
	if cfg.Stripe.SecretKey == "" {
		return nil
	}

	success := cfg.Stripe.SuccessURL
	if success == "" {
		success = "https://example.com/billing/success"
	}
	cancel := cfg.Stripe.CancelURL
	if cancel == "" {
		cancel = "https://example.com/billing/cancel"
	}

	sc := &client.API{}
	sc.Init(cfg.Stripe.SecretKey, nil)

	return &StripeService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		sc:               sc,
		webhookSecret:    cfg.Stripe.WebhookSecret,
		successURL:       success,
		cancelURL:        cancel,
	}
}

// CreateCheckoutSession создает Stripe checkout для оформления подписки
// на план и возвращает URL для редиректа.
func (s *StripeService) CreateCheckoutSession(db *gorm.DB, userID, planID string) (string, error) {
	plan, err := s.subscriptionRepo.FindPlanByID(db, planID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return "", apperrors.ErrPlanNotFound
		}
		return "", err
	}
	if plan.StripePriceID == "" {
		return "", stripeError(fmt.Errorf("plan %s has no stripe price", plan.Code))
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(plan.StripePriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
	}
	params.AddMetadata("userId", userID)
	params.AddMetadata("planId", planID)

	session, err := s.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", stripeError(err)
	}

	return session.URL, nil
}

// CreatePortalSession открывает Stripe billing portal для управления
// платежными данными и отменой подписки.
func (s *StripeService) CreatePortalSession(db *gorm.DB, userID string) (string, error) {
	sub, err := s.subscriptionRepo.FindActiveByUser(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return "", apperrors.ErrSubscriptionRequired
		}
		return "", err
	}
	if sub.StripeCustomerID == "" {
		return "", stripeError(errors.New("subscription has no stripe customer"))
	}

	session, err := s.sc.BillingPortalSessions.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(sub.StripeCustomerID),
		ReturnURL: stripe.String(s.successURL),
	})
	if err != nil {
		return "", stripeError(err)
	}

	return session.URL, nil
}

// HandleWebhook проверяет подпись и применяет событие Stripe
// к локальному состоянию подписки.
func (s *StripeService) HandleWebhook(db *gorm.DB, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.webhookSecret)
	if err != nil {
		return apperrors.New(apperrors.CodeValidationFailed, "billing",
			"Invalid webhook signature", http.StatusBadRequest).WithError(err)
	}

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(db, event.Data.Raw)
	case "customer.subscription.updated":
		return s.handleSubscriptionUpdated(db, event.Data.Raw)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(db, event.Data.Raw)
	case "invoice.payment_succeeded":
		return s.handleInvoicePaid(db, event.Data.Raw)
	case "invoice.payment_failed":
		return s.handleInvoiceFailed(db, event.Data.Raw)
	default:
		logger.Debug("stripe webhook ignored", "type", event.Type)
		return nil
	}
}

func (s *StripeService) handleCheckoutCompleted(db *gorm.DB, raw json.RawMessage) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	userID := session.Metadata["userId"]
	planID := session.Metadata["planId"]
	if userID == "" || planID == "" || session.Subscription == nil {
		logger.Warn("checkout completed without metadata", "session", session.ID)
		return nil
	}

	// Состояние подписки дочитывается из Stripe: в событии checkout
	// нет границ периода
	stripeSub, err := s.sc.Subscriptions.Get(session.Subscription.ID, nil)
	if err != nil {
		return stripeError(err)
	}

	sub := &models.Subscription{
		UserID:               userID,
		PlanID:               planID,
		Status:               models.SubscriptionStatusActive,
		CurrentPeriodStart:   time.Unix(stripeSub.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:     time.Unix(stripeSub.CurrentPeriodEnd, 0).UTC(),
		StripeCustomerID:     stripeSub.Customer.ID,
		StripeSubscriptionID: stripeSub.ID,
	}

	return s.subscriptionRepo.UpsertFromBilling(db, sub)
}

func (s *StripeService) handleSubscriptionUpdated(db *gorm.DB, raw json.RawMessage) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(raw, &stripeSub); err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	periodStart := time.Unix(stripeSub.CurrentPeriodStart, 0).UTC()
	periodEnd := time.Unix(stripeSub.CurrentPeriodEnd, 0).UTC()

	return s.subscriptionRepo.UpdateBillingState(db, stripeSub.ID,
		mapStripeStatus(stripeSub.Status), &periodStart, &periodEnd)
}

func (s *StripeService) handleSubscriptionDeleted(db *gorm.DB, raw json.RawMessage) error {
	var stripeSub stripe.Subscription
	if err := json.Unmarshal(raw, &stripeSub); err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	return s.subscriptionRepo.UpdateBillingState(db, stripeSub.ID,
		models.SubscriptionStatusCancelled, nil, nil)
}

func (s *StripeService) handleInvoicePaid(db *gorm.DB, raw json.RawMessage) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(raw, &invoice); err != nil {
		return fmt.Errorf("failed to parse invoice: %w", err)
	}
	if invoice.Subscription == nil {
		return nil
	}

	// Успешная оплата продлевает период: границы берем из Stripe
	stripeSub, err := s.sc.Subscriptions.Get(invoice.Subscription.ID, nil)
	if err != nil {
		return stripeError(err)
	}

	periodStart := time.Unix(stripeSub.CurrentPeriodStart, 0).UTC()
	periodEnd := time.Unix(stripeSub.CurrentPeriodEnd, 0).UTC()

	return s.subscriptionRepo.UpdateBillingState(db, stripeSub.ID,
		models.SubscriptionStatusActive, &periodStart, &periodEnd)
}

func (s *StripeService) handleInvoiceFailed(db *gorm.DB, raw json.RawMessage) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(raw, &invoice); err != nil {
		return fmt.Errorf("failed to parse invoice: %w", err)
	}
	if invoice.Subscription == nil {
		return nil
	}

	return s.subscriptionRepo.UpdateBillingState(db, invoice.Subscription.ID,
		models.SubscriptionStatusPastDue, nil, nil)
}

func mapStripeStatus(status stripe.SubscriptionStatus) models.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return models.SubscriptionStatusActive
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return models.SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled:
		return models.SubscriptionStatusCancelled
	default:
		return models.SubscriptionStatusPaused
	}
}
