package models

import "time"

// Partner - локальная организация, предлагающая занятия (спортшкола, музыкальная студия и т.д.)
type Partner struct {
	BaseModel
	Name         string `gorm:"not null" json:"name"`
	Description  string `json:"description"`
	City         string `gorm:"index" json:"city"`
	ContactEmail string `json:"contactEmail"`

	Activities []Activity `gorm:"foreignKey:PartnerID" json:"activities,omitempty"`
}

type Activity struct {
	BaseModel
	PartnerID   string           `gorm:"type:uuid;not null;index" json:"partnerId"`
	Title       string           `gorm:"not null" json:"title"`
	Description string           `json:"description"`
	Category    ActivityCategory `gorm:"type:varchar(20);index" json:"category"`
	AgeMin      int              `gorm:"default:0" json:"ageMin"`
	AgeMax      int              `gorm:"default:18" json:"ageMax"`
	Location    string           `json:"location"`

	// Relations
	Partner  Partner   `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
	Sessions []Session `gorm:"foreignKey:ActivityID" json:"sessions,omitempty"`
}

// Session - конкретный временной слот занятия с ограниченной вместимостью.
// Инвариант: число бронирований в статусе BOOKED никогда не превышает Capacity.
type Session struct {
	BaseModel
	ActivityID    string    `gorm:"type:uuid;not null;index" json:"activityId"`
	StartDateTime time.Time `gorm:"not null;index" json:"startDateTime"`
	EndDateTime   time.Time `gorm:"not null" json:"endDateTime"`
	Capacity      int       `gorm:"not null" json:"capacity"`

	// Relations
	Activity Activity  `gorm:"foreignKey:ActivityID" json:"activity,omitempty"`
	Bookings []Booking `gorm:"foreignKey:SessionID" json:"bookings,omitempty"`
}

type Booking struct {
	BaseModel
	SessionID   string        `gorm:"type:uuid;not null;index" json:"sessionId"`
	ChildID     string        `gorm:"type:uuid;not null;index" json:"childId"`
	UserID      string        `gorm:"type:uuid;not null;index" json:"userId"`
	Status      BookingStatus `gorm:"type:varchar(20);default:'BOOKED';index" json:"status"`
	CancelledAt *time.Time    `json:"cancelledAt,omitempty"`

	// Relations
	Session Session `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	Child   Child   `gorm:"foreignKey:ChildID" json:"child,omitempty"`
}
