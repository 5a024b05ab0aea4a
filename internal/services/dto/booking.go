package dto

import "time"

type CreateBookingRequest struct {
	SessionID string `json:"sessionId" binding:"required" validate:"required,uuid"`
	ChildID   string `json:"childId" binding:"required" validate:"required,uuid"`
}

// BookingResponse - подтверждение бронирования с контекстом
// сессии/занятия/ребенка для экрана подтверждения.
type BookingResponse struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	ChildName     string     `json:"childName"`
	ActivityTitle string     `json:"activityTitle"`
	PartnerName   string     `json:"partnerName"`
	StartDateTime time.Time  `json:"startDateTime"`
	EndDateTime   time.Time  `json:"endDateTime"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type CancelBookingResponse struct {
	Success bool `json:"success"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required" validate:"required,oneof=ATTENDED NO_SHOW"`
}
