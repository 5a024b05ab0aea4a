package services

import "kidsbook_backend/internal/services/billing"

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService         *AuthService
	ChildService        *ChildService
	CatalogService      *CatalogService
	BookingService      *BookingService
	SubscriptionService *SubscriptionService
	StripeService       *billing.StripeService
}
