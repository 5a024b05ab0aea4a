package models

import (
	"time"

	"gorm.io/datatypes"
)

type User struct {
	BaseModel
	Email        string   `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	Name         string   `gorm:"not null" json:"name"`
	Role         UserRole `gorm:"type:varchar(20);default:'PARENT';index" json:"role"`
	City         string   `json:"city"`

	// Relations
	Children     []Child       `gorm:"foreignKey:UserID" json:"children,omitempty"`
	Subscription *Subscription `gorm:"foreignKey:UserID" json:"subscription,omitempty"`
}

type Child struct {
	BaseModel
	UserID    string         `gorm:"type:uuid;not null;index" json:"userId"`
	Name      string         `gorm:"not null" json:"name"`
	BirthDate time.Time      `gorm:"not null" json:"birthDate"`
	Interests datatypes.JSON `gorm:"type:jsonb" json:"interests"` // ["SPORTS", "MUSIC", ...]
}

// Age возвращает полный возраст ребенка на момент now
func (c *Child) Age(now time.Time) int {
	age := now.Year() - c.BirthDate.Year()
	if now.YearDay() < c.BirthDate.YearDay() {
		age--
	}
	return age
}
