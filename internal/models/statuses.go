package models

type UserRole string
type SubscriptionStatus string
type BookingStatus string
type ActivityCategory string
type PlanPeriod string

const (
	UserRoleParent UserRole = "PARENT"
	UserRoleAdmin  UserRole = "ADMIN"

	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusPastDue   SubscriptionStatus = "PAST_DUE"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionStatusPaused    SubscriptionStatus = "PAUSED"

	BookingStatusBooked    BookingStatus = "BOOKED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusAttended  BookingStatus = "ATTENDED"
	BookingStatusNoShow    BookingStatus = "NO_SHOW"

	CategorySports    ActivityCategory = "SPORTS"
	CategoryMusic     ActivityCategory = "MUSIC"
	CategoryArts      ActivityCategory = "ARTS"
	CategoryOutdoor   ActivityCategory = "OUTDOOR"
	CategoryEducation ActivityCategory = "EDUCATION"

	PlanPeriodMonthly PlanPeriod = "MONTHLY"
)

// IsTerminal сообщает, допускает ли статус бронирования дальнейшие переходы.
// BOOKED -> CANCELLED/ATTENDED/NO_SHOW; все три конечных статуса необратимы.
func (s BookingStatus) IsTerminal() bool {
	return s != BookingStatusBooked
}
