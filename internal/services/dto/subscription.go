package dto

import "time"

// UsageResponse - состояние кредитного счетчика текущего периода
type UsageResponse struct {
	Used            int        `json:"used"`
	Total           int        `json:"total"`
	HasSubscription bool       `json:"hasSubscription"`
	PeriodStart     *time.Time `json:"periodStart,omitempty"`
	PeriodEnd       *time.Time `json:"periodEnd,omitempty"`
}

type CheckoutRequest struct {
	PlanID string `json:"planId" binding:"required" validate:"required,uuid"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type PortalResponse struct {
	URL string `json:"url"`
}
