package dto

import "time"

type CreatePartnerRequest struct {
	Name         string `json:"name" binding:"required" validate:"required,min=2"`
	Description  string `json:"description"`
	City         string `json:"city" validate:"required,min=2"`
	ContactEmail string `json:"contactEmail" validate:"omitempty,email"`
}

type CreateActivityRequest struct {
	PartnerID   string `json:"partnerId" binding:"required" validate:"required,uuid"`
	Title       string `json:"title" binding:"required" validate:"required,min=2"`
	Description string `json:"description"`
	Category    string `json:"category" validate:"required,oneof=SPORTS MUSIC ARTS OUTDOOR EDUCATION"`
	AgeMin      int    `json:"ageMin" validate:"min=0,max=18"`
	AgeMax      int    `json:"ageMax" validate:"min=0,max=18"`
	Location    string `json:"location"`
}

type CreateSessionRequest struct {
	ActivityID    string    `json:"activityId" binding:"required" validate:"required,uuid"`
	StartDateTime time.Time `json:"startDateTime" binding:"required" validate:"required"`
	EndDateTime   time.Time `json:"endDateTime" binding:"required" validate:"required"`
	Capacity      int       `json:"capacity" binding:"required" validate:"required,min=1,max=50"`
}

type ActivityListQuery struct {
	Category string `form:"category" validate:"omitempty,oneof=SPORTS MUSIC ARTS OUTDOOR EDUCATION"`
	Search   string `form:"search"`
	ChildID  string `form:"childId" validate:"omitempty,uuid"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=50"`
}

// SessionWithCount - сессия вместе с числом активных бронирований (админка)
type SessionWithCount struct {
	ID            string    `json:"id"`
	ActivityTitle string    `json:"activityTitle"`
	PartnerName   string    `json:"partnerName"`
	StartDateTime time.Time `json:"startDateTime"`
	EndDateTime   time.Time `json:"endDateTime"`
	Capacity      int       `json:"capacity"`
	BookedCount   int64     `json:"bookedCount"`
}
